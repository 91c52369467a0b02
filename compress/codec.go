// Package compress provides whole-buffer compression codecs for archived
// dump files.
//
// CASTEP dumps are large and routinely archived compressed. The decoder
// needs a seekable stream, so compressed inputs are decompressed in full
// before decoding; every codec therefore works on complete byte buffers
// rather than streams. Each supported format is self-identifying, so the
// codec for a given file can be picked by sniffing its leading magic
// bytes with Detect.
//
// The compression side exists for writing archived files and test
// fixtures.
package compress

import (
	"bytes"
	"fmt"
)

// Type identifies a compression format.
type Type uint8

const (
	TypeNone Type = 0x0 // TypeNone represents an uncompressed buffer.
	TypeGzip Type = 0x1 // TypeGzip represents the gzip format.
	TypeZstd Type = 0x2 // TypeZstd represents the Zstandard frame format.
	TypeS2   Type = 0x3 // TypeS2 represents the framed S2 format.
	TypeLZ4  Type = 0x4 // TypeLZ4 represents the LZ4 frame format.
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "None"
	case TypeGzip:
		return "Gzip"
	case TypeZstd:
		return "Zstd"
	case TypeS2:
		return "S2"
	case TypeLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// Compressor compresses complete buffers.
type Compressor interface {
	// Compress compresses data and returns the compressed result.
	// The returned slice is newly allocated and owned by the caller;
	// the input is not modified.
	Compress(data []byte) ([]byte, error)
}

// Decompressor decompresses complete buffers.
type Decompressor interface {
	// Decompress decompresses data and returns the original bytes.
	// The returned slice is newly allocated and owned by the caller;
	// the input is not modified.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions of one compression format.
type Codec interface {
	Compressor
	Decompressor
}

var magics = []struct {
	magic []byte
	typ   Type
}{
	{[]byte{0x1f, 0x8b}, TypeGzip},
	{[]byte{0x28, 0xb5, 0x2f, 0xfd}, TypeZstd},
	{[]byte{0xff, 0x06, 0x00, 0x00, 's', 'N', 'a', 'P', 'p', 'Y'}, TypeS2},
	{[]byte{0x04, 0x22, 0x4d, 0x18}, TypeLZ4},
}

// Detect sniffs the leading magic bytes of data and returns the
// compression format, or TypeNone when no known magic matches.
func Detect(data []byte) Type {
	for _, m := range magics {
		if bytes.HasPrefix(data, m.magic) {
			return m.typ
		}
	}

	return TypeNone
}

var builtinCodecs = map[Type]Codec{
	TypeNone: NewNoOpCodec(),
	TypeGzip: NewGzipCodec(),
	TypeZstd: NewZstdCodec(),
	TypeS2:   NewS2Codec(),
	TypeLZ4:  NewLZ4Codec(),
}

// GetCodec retrieves the built-in Codec for the given compression type.
func GetCodec(typ Type) (Codec, error) {
	if codec, ok := builtinCodecs[typ]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", typ)
}

// DecompressAuto sniffs data's compression format and decompresses it.
// Uncompressed data is returned as-is with TypeNone.
func DecompressAuto(data []byte) ([]byte, Type, error) {
	typ := Detect(data)
	codec, err := GetCodec(typ)
	if err != nil {
		return nil, typ, err
	}

	out, err := codec.Decompress(data)
	if err != nil {
		return nil, typ, fmt.Errorf("decompressing %s buffer: %w", typ, err)
	}

	return out, typ, nil
}
