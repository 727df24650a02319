// Package status implements the status emitter: building and
// sending TLV STATUS packets on the control/status socket, on three
// triggers — command reply, staggered broadcast tick, and per-channel
// output_interval.
package status

import (
	"net"

	"github.com/cwsl/radiocore/internal/channel"
	"github.com/cwsl/radiocore/internal/frontend"
	"github.com/cwsl/radiocore/internal/tlv"
)

// Emitter sends STATUS packets for channels on the shared control/status
// socket.
type Emitter struct {
	conn  *net.UDPConn
	group *net.UDPAddr
	fe    *frontend.Descriptor
}

// NewEmitter wraps an already-connected UDP socket bound for sending to
// the control/status multicast group.
func NewEmitter(conn *net.UDPConn, group *net.UDPAddr, fe *frontend.Descriptor) *Emitter {
	return &Emitter{conn: conn, group: group, fe: fe}
}

// Build encodes one channel's STATUS packet. Callers must hold c.Mu, or
// be the channel's own worker.
func Build(c *channel.Channel, fe *frontend.Descriptor, blockSeq uint64) []byte {
	e := tlv.NewEncoder()

	e.Uint32(tlv.CommandTag, c.Ctrl.LastCommandTag)
	e.Uint32(tlv.OutputSSRC, c.SSRC)

	e.Float64(tlv.RadioFrequency, c.Tune.Frequency)
	e.Float64(tlv.ShiftFrequency, c.Tune.Shift)
	e.Float64(tlv.FirstLOFrequency, fe.CenterFrequency())
	e.Float64(tlv.DopplerFrequency, c.Tune.Doppler)
	e.Float64(tlv.DopplerFrequencyRate, c.Tune.DopplerRate)

	e.Float64(tlv.LowEdge, c.Filter.MinIF)
	e.Float64(tlv.HighEdge, c.Filter.MaxIF)
	e.Float64(tlv.KaiserBeta, c.Filter.KaiserBeta)

	e.Byte(tlv.DemodType, demodWireValue(c.DemodType))
	e.Float64(tlv.OutputSampleRate, c.Output.SampleRate)
	e.Int32(tlv.OutputChannels, int32(c.Output.Channels))

	e.Int64(tlv.BlockSequence, int64(blockSeq))
	e.Int64(tlv.BlockDrops, int64(c.Counters.BlockDrops))

	e.Float64(tlv.BasebandPower, c.Estimators.BasebandPower)
	e.Float64(tlv.NoiseDensity, c.Estimators.NoiseDensity)
	e.Float64(tlv.SNR, c.Estimators.SNR)
	e.Bool(tlv.PLLLock, c.Estimators.PLLLock)
	e.Float64(tlv.PLLPhase, c.Estimators.PLLPhase)
	e.Float64(tlv.FrequencyOffset, c.Estimators.PLLFrequencyOffset)

	e.Byte(tlv.SquelchState, squelchStateByte(c.Squelch.State))

	e.Int64(tlv.ADOver, int64(fe.Overranges()))
	e.Int64(tlv.SamplesSinceOver, int64(fe.SamplesSinceOverrange()))

	e.Int64(tlv.PacketsIn, int64(c.Counters.PacketsIn))
	e.Int64(tlv.PacketsOut, int64(c.Counters.PacketsOut))
	e.Int64(tlv.OutputSamples, int64(c.Counters.OutputSamples))
	e.Int64(tlv.Errors, int64(c.Counters.Errors))

	if c.DemodType == channel.Spectrum && c.SpectrumState != nil {
		e.Int32(tlv.BinCount, int32(c.SpectrumState.BinCount))
		e.Float64(tlv.NoncoherentBinBW, c.SpectrumState.BinBandwidth)
		// Never publish a vector whose length doesn't match BinCount;
		// skip entirely while a reallocation is in flight.
		if !c.SpectrumState.Reallocating && len(c.SpectrumState.BinData) == c.SpectrumState.BinCount {
			e.FloatVector(tlv.BinData, c.SpectrumState.BinData)
		}
	}

	out := make([]byte, 0, len(e.Bytes())+1)
	out = append(out, tlv.PacketStatus)
	out = append(out, e.Bytes()...)
	return out
}

// Send builds and transmits a channel's STATUS packet on the shared
// socket.
func (em *Emitter) Send(c *channel.Channel, blockSeq uint64) error {
	c.Mu.Lock()
	pkt := Build(c, em.fe, blockSeq)
	c.Mu.Unlock()
	_, err := em.conn.Write(pkt)
	return err
}

func demodWireValue(t channel.DemodType) byte {
	switch t {
	case channel.FM:
		return tlv.DemodFM
	case channel.WFM:
		return tlv.DemodWFM
	case channel.Spectrum:
		return tlv.DemodSpect
	default:
		return tlv.DemodLinear
	}
}

func squelchStateByte(s channel.SquelchState) byte {
	switch s {
	case channel.SquelchOpen:
		return 1
	case channel.SquelchClosing:
		return 2
	default:
		return 0
	}
}
