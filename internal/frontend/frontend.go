// Package frontend models the immutable frontend descriptor that
// every channel holds a read-only reference to. The core never owns a
// frontend driver: it is handed a Descriptor by whatever out-of-scope
// hardware or network IQ source is driving the process.
package frontend

import (
	"math"
	"sync/atomic"
)

// SampleKind distinguishes real from complex-sampled frontends, which
// changes both the master FFT's transform type and the channelizer's
// bin-extraction rules.
type SampleKind int

const (
	Real SampleKind = iota
	Complex
)

// PowerScaler normalizes raw A/D accumulator power into dBFS. The formula
// is frontend-specific, so it is exposed here as a function pointer
// rather than assumed.
type PowerScaler func(rawPower float64) (dBFS float64)

// Capability exposes optional hardware controls. A frontend that doesn't
// support a given control leaves the corresponding field nil.
type Capability struct {
	SetAttenuation func(db float64) error
	SetGain        func(db float64) error
}

// Descriptor is the immutable-after-setup frontend state shared by every
// channel. Only the fields explicitly documented as mutable below may
// change after Setup; everything else is fixed for the process lifetime.
type Descriptor struct {
	SampleRate   float64 // Hz
	Kind         SampleKind
	BitsPerSample int
	CalibratePPM float64
	MinIF        float64 // Hz, relative to LO
	MaxIF        float64 // Hz, relative to LO
	ScaleADPower PowerScaler
	Capability   Capability

	// centerFreq is the frontend's current LO, mutable via Tune.
	centerFreq atomic.Uint64 // math.Float64bits

	// overrangeCount is incremented by the driver on A/D overrange.
	overrangeCount atomic.Uint64
	samplesSinceOverrange atomic.Uint64
}

// NewDescriptor constructs a Descriptor with the given immutable fields and
// an initial LO frequency.
func NewDescriptor(sampleRate float64, kind SampleKind, bits int, calibratePPM, minIF, maxIF float64, scaler PowerScaler, capa Capability, initialFreq float64) *Descriptor {
	d := &Descriptor{
		SampleRate:    sampleRate,
		Kind:          kind,
		BitsPerSample: bits,
		CalibratePPM:  calibratePPM,
		MinIF:         minIF,
		MaxIF:         maxIF,
		ScaleADPower:  scaler,
		Capability:    capa,
	}
	d.SetCenterFrequency(initialFreq)
	return d
}

// CenterFrequency returns the frontend's current LO in Hz.
func (d *Descriptor) CenterFrequency() float64 {
	return math.Float64frombits(d.centerFreq.Load())
}

// SetCenterFrequency sets the LO. Calibration is applied multiplicatively
// here and only here: channel frequencies downstream are never
// recalibrated.
func (d *Descriptor) SetCenterFrequency(hz float64) {
	d.centerFreq.Store(math.Float64bits(hz * (1 + d.CalibratePPM*1e-6)))
}

// Tune requests the LO move to freqHz and returns the true, calibrated
// frequency. Frontends that can't re-tune (fixed LO) should still call
// SetCenterFrequency once at Setup and simply return the same value from
// every Tune call.
func (d *Descriptor) Tune(freqHz float64) float64 {
	d.SetCenterFrequency(freqHz)
	return d.CenterFrequency()
}

// RecordOverrange bumps the A/D overrange counter and resets the
// samples-since-overrange counter; the driver calls this on clip.
func (d *Descriptor) RecordOverrange() {
	d.overrangeCount.Add(1)
	d.samplesSinceOverrange.Store(0)
}

// RecordSamples advances the samples-since-overrange counter; the driver
// calls this once per produced block.
func (d *Descriptor) RecordSamples(n uint64) {
	d.samplesSinceOverrange.Add(n)
}

// Overranges returns the cumulative A/D overrange count.
func (d *Descriptor) Overranges() uint64 { return d.overrangeCount.Load() }

// SamplesSinceOverrange returns samples produced since the last overrange.
func (d *Descriptor) SamplesSinceOverrange() uint64 { return d.samplesSinceOverrange.Load() }

// NyquistSpan reports [min,max] Hz this frontend can cover relative to its
// LO, bounding the channel's allowed [MinIF,MaxIF] range.
func (d *Descriptor) NyquistSpan() (min, max float64) {
	if d.Kind == Real {
		return 0, d.SampleRate / 2
	}
	return -d.SampleRate / 2, d.SampleRate / 2
}

