package demod

import "math"

// FM implements the narrowband FM demodulator: a phase
// discriminator, deemphasis, optional tone detector, and squelch.
type FM struct {
	SampleRate    float64
	PeakDeviation float64
	Deemph        Deemphasis
	Tone          TonePLL
	Squelch       Squelch
	ThreshExtend  bool

	last complex128
}

// FMResult is one block's demodulation output.
type FMResult struct {
	PCM         []float64
	SquelchOpen bool
	Metric      float64
	ToneLocked  bool
}

// Process demodulates one block of complex baseband samples into mono
// PCM, applying the discriminator, tone tracking (on the raw
// discriminator output), deemphasis, and squelch in that order.
func (f *FM) Process(x []complex128, snrMetric float64) FMResult {
	pcm := make([]float64, len(x))
	scale := f.SampleRate / (2 * math.Pi * f.PeakDeviation)

	for i, s := range x {
		prev := f.last
		if i > 0 {
			prev = x[i-1]
		}
		disc := math.Atan2(imagPart(s*conjugate(prev)), realPart(s*conjugate(prev)))
		sample := disc * scale

		if f.Tone.Enabled() {
			f.Tone.Update(disc)
		}

		pcm[i] = f.Deemph.Apply(sample)
	}
	if len(x) > 0 {
		f.last = x[len(x)-1]
	}

	metric := snrMetric
	if f.Tone.Enabled() {
		metric = f.Tone.Deviation()
	}
	state := f.Squelch.Update(metric)

	open := state == Open || state == Closing
	if !open {
		for i := range pcm {
			if f.ThreshExtend {
				pcm[i] *= 0.05 // reduced-amplitude noise fill, per the optional threshold extension
			} else {
				pcm[i] = 0
			}
		}
	}

	return FMResult{PCM: pcm, SquelchOpen: open, Metric: metric, ToneLocked: f.Tone.Detected()}
}
