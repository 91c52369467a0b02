package compress

// NoOpCodec passes buffers through unchanged. It backs TypeNone so the
// auto-detecting path can treat uncompressed files uniformly.
//
// Both directions return the input slice as-is without copying, so the
// output shares memory with the input.
type NoOpCodec struct{}

var _ Codec = (*NoOpCodec)(nil)

// NewNoOpCodec creates a pass-through codec.
func NewNoOpCodec() NoOpCodec {
	return NoOpCodec{}
}

func (c NoOpCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (c NoOpCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
