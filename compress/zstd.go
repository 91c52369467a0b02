package compress

// ZstdCodec provides Zstandard frame compression.
//
// Zstd gives the best ratio of the supported formats and is the
// recommended choice for long-term archival of dump files. The
// implementation is selected at build time: the libzstd tag enables
// the cgo binding, otherwise a pure Go implementation with pooled
// encoders and decoders takes over. Both produce standard zstd
// frames and are fully interchangeable.
type ZstdCodec struct{}

var _ Codec = (*ZstdCodec)(nil)

// NewZstdCodec creates a new Zstd codec with default settings.
func NewZstdCodec() ZstdCodec {
	return ZstdCodec{}
}
