package control

import (
	"math"

	"github.com/cwsl/radiocore/internal/channel"
	"github.com/cwsl/radiocore/internal/demod"
	"github.com/cwsl/radiocore/internal/preset"
	"github.com/cwsl/radiocore/internal/tlv"
)

// overrides accumulates the tags that are deferred until after the rest
// of a packet is applied, so a later PRESET tag in the same packet can't
// clobber an explicit filter/spectrum override that appeared earlier.
type overrides struct {
	lowEdge, highEdge       *float64
	noncoherentBinBW        *float64
	binCount                *int
}

// Outcome reports what a command application did, for restart detection
// and STATUS reply building.
type Outcome struct {
	Created        bool
	RestartNeeded  bool
	FilterRebuild  bool
	FailedTag      byte
	Err            error
}

// ApplyCommand applies one decoded CMD packet's TLV fields to a channel,
// in packet order except for the deferred filter/spectrum overrides.
// presets is the immutable preset table; nil is allowed (presets simply
// won't resolve).
func ApplyCommand(c *channel.Channel, fields []tlv.Field, presets *preset.Table) Outcome {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	before := snapshotParams(c)
	var ov overrides

	for _, f := range fields {
		if err := applyTag(c, f, presets, &ov); err != nil {
			return Outcome{FailedTag: f.Tag, Err: err}
		}
	}
	applyOverrides(c, ov)

	after := snapshotParams(c)
	return Outcome{
		RestartNeeded: restartNeeded(before, after),
		FilterRebuild: filterRebuildNeeded(before, after),
	}
}

type paramSnapshot struct {
	sampleRate float64
	demodType  channel.DemodType
	channels   int
	encoding   string
	minIF, maxIF, kaiserBeta float64
	filter2           bool
	filter2KaiserBeta float64
}

func snapshotParams(c *channel.Channel) paramSnapshot {
	return paramSnapshot{
		sampleRate:        c.Output.SampleRate,
		demodType:         c.DemodType,
		channels:          c.Output.Channels,
		encoding:          c.Output.Encoding,
		minIF:             c.Filter.MinIF,
		maxIF:             c.Filter.MaxIF,
		kaiserBeta:        c.Filter.KaiserBeta,
		filter2:           c.Filter.Filter2Enabled,
		filter2KaiserBeta: c.Filter.Filter2KaiserBeta,
	}
}

// restartNeeded implements the restart-detection rule: output
// sample rate, demod type, an encoding-forced rate change, or the audio
// channel count changing after the channel is already running.
func restartNeeded(before, after paramSnapshot) bool {
	return before.sampleRate != after.sampleRate ||
		before.demodType != after.demodType ||
		before.channels != after.channels ||
		before.encoding != after.encoding
}

// filterRebuildNeeded implements the filter-only rebuild path: min/max IF,
// Kaiser beta, filter2 enable, or filter2's own Kaiser beta changing
// re-tunes the passband without tearing down the worker.
func filterRebuildNeeded(before, after paramSnapshot) bool {
	return before.minIF != after.minIF || before.maxIF != after.maxIF ||
		before.kaiserBeta != after.kaiserBeta || before.filter2 != after.filter2 ||
		before.filter2KaiserBeta != after.filter2KaiserBeta
}

func applyOverrides(c *channel.Channel, ov overrides) {
	if ov.lowEdge != nil {
		c.Filter.MinIF = *ov.lowEdge
	}
	if ov.highEdge != nil {
		c.Filter.MaxIF = *ov.highEdge
	}
	if ov.noncoherentBinBW != nil && c.SpectrumState != nil {
		c.SpectrumState.BinBandwidth = *ov.noncoherentBinBW
	}
	if ov.binCount != nil && c.SpectrumState != nil {
		if *ov.binCount != c.SpectrumState.BinCount {
			c.SpectrumState.Reallocating = true
			c.SpectrumState.BinCount = *ov.binCount
		}
	}
}

func applyTag(c *channel.Channel, f tlv.Field, presets *preset.Table, ov *overrides) error {
	switch f.Tag {
	case tlv.CommandTag:
		c.Ctrl.LastCommandTag = f.AsUint32()

	case tlv.RadioFrequency:
		c.Tune.Frequency = asFloat(f)
	case tlv.ShiftFrequency:
		c.Tune.Shift = asFloat(f)
	case tlv.DopplerFrequency:
		c.Tune.Doppler = asFloat(f)
	case tlv.DopplerFrequencyRate:
		c.Tune.DopplerRate = asFloat(f)

	case tlv.LowEdge:
		v := asFloat(f)
		ov.lowEdge = &v
	case tlv.HighEdge:
		v := asFloat(f)
		ov.highEdge = &v
	case tlv.KaiserBeta:
		c.Filter.KaiserBeta = asFloat(f)
	case tlv.Filter2:
		c.Filter.Filter2Enabled = f.AsBool()
	case tlv.Filter2KaiserBeta:
		c.Filter.Filter2KaiserBeta = asFloat(f)
	case tlv.IndependentSideband:
		c.Filter.IndependentSideband = f.AsBool()

	case tlv.OutputSampleRate:
		c.Output.SampleRate = asFloat(f)
	case tlv.OutputChannels:
		c.Output.Channels = int(f.AsUint32())
	case tlv.OutputEncoding:
		c.Output.Encoding = f.AsString()
	case tlv.OpusBitRate:
		c.Output.OpusBitRate = int(f.AsUint32())
	case tlv.Gain:
		c.Output.Gain = asFloat(f)
	case tlv.Headroom:
		c.Output.Headroom = asFloat(f)
	case tlv.MinPacket:
		c.Output.MinPacket = int(f.AsUint32())
	case tlv.OutputDataDestSocket:
		c.Output.Dest = f.AsString()

	case tlv.DemodType:
		c.DemodType = wireDemodType(f.Value)

	case tlv.AGCEnable:
		c.DemodCfg.AGCEnable = f.AsBool()
	case tlv.AGCHangtime:
		c.DemodCfg.AGCHangtime = asFloat(f)
	case tlv.AGCRecoveryRate:
		c.DemodCfg.AGCRecoveryRate = asFloat(f)
	case tlv.AGCThreshold:
		c.DemodCfg.AGCThreshold = asFloat(f)
	case tlv.PLLEnable:
		c.DemodCfg.PLLEnable = f.AsBool()
	case tlv.PLLBW:
		c.DemodCfg.PLLBW = asFloat(f)
	case tlv.PLLSquare:
		c.DemodCfg.PLLSquare = f.AsBool()
	case tlv.Envelope:
		c.DemodCfg.Envelope = f.AsBool()
	case tlv.ThreshExtend:
		c.DemodCfg.ThreshExtend = f.AsBool()

	case tlv.SquelchOpen:
		c.Squelch.Open = demod.ThresholdFromDB(asFloat(f))
	case tlv.SquelchClose:
		c.Squelch.Close = demod.ThresholdFromDB(asFloat(f))
	case tlv.SNRSquelch:
		c.Squelch.SNREnable = f.AsBool()

	case tlv.NoncoherentBinBW:
		v := asFloat(f)
		ov.noncoherentBinBW = &v
	case tlv.BinCount:
		v := int(f.AsUint32())
		ov.binCount = &v

	case tlv.StatusInterval:
		c.Ctrl.OutputInterval = int(f.AsUint32())

	case tlv.Preset:
		if presets == nil {
			return nil
		}
		p, ok := presets.Lookup(f.AsString())
		if !ok {
			return nil
		}
		applyPreset(c, p, ov)
	}
	return nil
}

func applyPreset(c *channel.Channel, p preset.Preset, ov *overrides) {
	c.Ctrl.PresetName = p.Name
	if p.DemodType != "" {
		c.DemodType = nameDemodType(p.DemodType)
	}
	if p.LowEdge != nil {
		c.Filter.MinIF = *p.LowEdge
	}
	if p.HighEdge != nil {
		c.Filter.MaxIF = *p.HighEdge
	}
	if p.KaiserBeta != nil {
		c.Filter.KaiserBeta = *p.KaiserBeta
	}
	if p.SampleRate != nil {
		c.Output.SampleRate = *p.SampleRate
	}
	if p.Channels != nil {
		c.Output.Channels = *p.Channels
	}
	if p.SquelchOpen != nil {
		c.Squelch.Open = demod.ThresholdFromDB(*p.SquelchOpen)
	}
	if p.SquelchClose != nil {
		c.Squelch.Close = demod.ThresholdFromDB(*p.SquelchClose)
	}
}

func nameDemodType(name string) channel.DemodType {
	switch name {
	case "fm":
		return channel.FM
	case "wfm":
		return channel.WFM
	case "spect":
		return channel.Spectrum
	default:
		return channel.Linear
	}
}

func wireDemodType(v []byte) channel.DemodType {
	if len(v) == 0 {
		return channel.Linear
	}
	switch v[0] {
	case 1:
		return channel.FM
	case 2:
		return channel.WFM
	case 7:
		return channel.Spectrum
	default:
		return channel.Linear
	}
}

func asFloat(f tlv.Field) float64 {
	switch len(f.Value) {
	case 4:
		v, _ := f.AsFloat32()
		return float64(v)
	case 8:
		v, _ := f.AsFloat64()
		return v
	default:
		return math.NaN()
	}
}
