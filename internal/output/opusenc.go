//go:build opus

package output

import (
	"log"

	opus "gopkg.in/hraban/opus.v2"
)

// OpusEncoder wraps the cgo-backed Opus encoder used when a channel's
// OUTPUT_ENCODING tag requests "opus". Building without the opus tag
// links the stub in opusenc_stub.go instead, so the core still runs on
// hosts without libopus installed.
type OpusEncoder struct {
	enc *opus.Encoder
}

// NewOpusEncoder builds an encoder for the given sample rate (mono,
// VOIP-tuned application profile) and bitrate.
func NewOpusEncoder(sampleRate, bitrate int) *OpusEncoder {
	enc, err := opus.NewEncoder(sampleRate, 1, opus.AppVoIP)
	if err != nil {
		log.Printf("output: opus encoder init failed, falling back to PCM: %v", err)
		return &OpusEncoder{}
	}
	if err := enc.SetBitrate(bitrate); err != nil {
		log.Printf("output: opus: set bitrate: %v", err)
	}
	return &OpusEncoder{enc: enc}
}

// Encode compresses one block of float PCM (normalized [-1,1]) into an
// Opus frame. Falls back to returning false if the encoder failed to
// initialize.
func (o *OpusEncoder) Encode(pcm []float64) (frame []byte, ok bool) {
	if o.enc == nil {
		return nil, false
	}
	samples := make([]int16, len(pcm))
	for i, s := range pcm {
		samples[i] = floatToInt16(s)
	}
	buf := make([]byte, 4000)
	n, err := o.enc.Encode(samples, buf)
	if err != nil {
		log.Printf("output: opus encode: %v", err)
		return nil, false
	}
	return buf[:n], true
}
