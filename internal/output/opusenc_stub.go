//go:build !opus

package output

// OpusEncoder is the no-cgo stub used when the binary is built without
// the "opus" build tag (no libopus available). Encode always fails so
// callers fall back to PCM.
type OpusEncoder struct{}

// NewOpusEncoder returns a disabled stub encoder.
func NewOpusEncoder(sampleRate, bitrate int) *OpusEncoder { return &OpusEncoder{} }

// Encode always reports failure in the stub build.
func (o *OpusEncoder) Encode(pcm []float64) (frame []byte, ok bool) { return nil, false }
