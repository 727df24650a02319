// Package output implements the produced-output interface: a PCM frame,
// timestamped and RTP-sequenced, handed to an external transport sink.
// Packetization is in scope; the actual socket/multicast emission and
// encoding beyond framing is external transport.
package output

import (
	"math"

	"github.com/pion/rtp"
)

// Frame is one channel's demodulated output for one block.
type Frame struct {
	SSRC        uint32
	TimestampNs int64
	Mono        []float64 // len>0 for mono channels; empty for SPECT frames
	Left, Right []float64 // len>0 for stereo channels
	Encoding    string    // "pcm", "opus", or "spectrum"
}

// Sink receives framed, packetized output. The transport implementation
// (out of scope) supplies a concrete Sink.
type Sink interface {
	Write(pkt *rtp.Packet) error
}

// Packetizer assigns RTP-like sequence numbers and timestamps per channel.
type Packetizer struct {
	ssrc    uint32
	seq     uint16
	clockHz uint32
	ts      uint32
}

// NewPacketizer builds a Packetizer for one channel's ssrc and output
// clock rate.
func NewPacketizer(ssrc uint32, clockHz uint32) *Packetizer {
	return &Packetizer{ssrc: ssrc, clockHz: clockHz}
}

// PayloadType values for the two encodings this core's output interface
// supports; transport assigns the authoritative dynamic PT, these are
// defaults for a standalone packetizer.
const (
	PayloadTypePCM  = 96
	PayloadTypeOpus = 97
)

// Packetize wraps a Frame's mono PCM (as big-endian int16) or an
// already-Opus-encoded payload into one RTP packet, advancing sequence
// and timestamp state.
func (p *Packetizer) Packetize(samples []float64, payload []byte, opus bool) *rtp.Packet {
	pt := uint8(PayloadTypePCM)
	body := payload
	if opus {
		pt = PayloadTypeOpus
	} else if body == nil {
		body = pcmToBytes(samples)
	}

	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    pt,
			SequenceNumber: p.seq,
			Timestamp:      p.ts,
			SSRC:           p.ssrc,
		},
		Payload: body,
	}

	p.seq++
	p.ts += uint32(len(samples))
	return pkt
}

func pcmToBytes(samples []float64) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := floatToInt16(s)
		out[i*2] = byte(v >> 8)
		out[i*2+1] = byte(v)
	}
	return out
}

func floatToInt16(s float64) int16 {
	if s > 1 {
		s = 1
	}
	if s < -1 {
		s = -1
	}
	return int16(math.Round(s * 32767))
}
