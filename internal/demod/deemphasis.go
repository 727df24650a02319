package demod

import "math"

// Deemphasis is a single-pole IIR deemphasis filter:
// y[n] = alpha*y[n-1] + (1-alpha)*x[n].
type Deemphasis struct {
	Alpha float64
	y     float64
}

// AlphaFromTimeConstant derives the IIR's alpha from an RC time constant
// (75us US broadcast FM, 50us EU) and the sample rate, using the
// impulse-invariant one-pole mapping alpha = exp(-1/(tau*fs)).
func AlphaFromTimeConstant(tauSeconds, sampleRate float64) float64 {
	return math.Exp(-1 / (tauSeconds * sampleRate))
}

// Apply filters one sample.
func (d *Deemphasis) Apply(x float64) float64 {
	d.y = d.Alpha*d.y + (1-d.Alpha)*x
	return d.y
}

// TonePLL is a narrow PLL locked to a configurable sub-audible CTCSS/PL
// tone. Disabled when Freq == 0.
type TonePLL struct {
	Freq       float64 // Hz; 0 disables the detector
	SampleRate float64
	Threshold  float64 // deviation threshold for squelch gating

	phase float64
	dev   float64
}

// Enabled reports whether tone detection is active.
func (t *TonePLL) Enabled() bool { return t.Freq != 0 }

// Update tracks one discriminator sample, accumulating a deviation
// estimate against the configured tone frequency.
func (t *TonePLL) Update(discriminatorSample float64) {
	if !t.Enabled() {
		return
	}
	ref := math.Sin(t.phase)
	err := discriminatorSample * ref
	t.dev = 0.95*t.dev + 0.05*math.Abs(err)
	t.phase += 2 * math.Pi * t.Freq / t.SampleRate
	if t.phase >= 2*math.Pi {
		t.phase -= 2 * math.Pi
	}
}

// Deviation returns the current tone deviation estimate, used as the
// squelch metric when tone-based squelch is selected.
func (t *TonePLL) Deviation() float64 { return t.dev }

// Detected reports whether the tracked deviation exceeds the configured
// threshold.
func (t *TonePLL) Detected() bool { return t.dev >= t.Threshold }
