package demod

import "math"

// WFM implements the wideband broadcast FM demodulator with stereo
// decode: phase discriminator, 19kHz pilot PLL, L+R/L-R
// matrix decode, and per-leg deemphasis.
type WFM struct {
	SampleRate    float64 // fixed 48kHz internal rate
	PeakDeviation float64
	DeemphLeft    Deemphasis
	DeemphRight   Deemphasis
	Squelch       Squelch
	StereoWanted  bool

	pilot     PLL
	last      complex128
}

// WFMResult is one block's stereo (or mono-folded) PCM output.
type WFMResult struct {
	Left, Right []float64
	StereoLocked bool
	SquelchOpen bool
}

const pilotFreq = 19000.0

// Process demodulates one block, producing stereo PCM when the channel
// count is 2 and the pilot PLL has locked, mono otherwise.
func (w *WFM) Process(x []complex128, snrMetric float64) WFMResult {
	if w.pilot.SampleRate == 0 {
		w.pilot.SampleRate = w.SampleRate
		w.pilot.LoopBW = 50
		w.pilot.Init()
	}

	n := len(x)
	disc := make([]float64, n)
	scale := w.SampleRate / (2 * math.Pi * w.PeakDeviation)
	for i, s := range x {
		prev := w.last
		if i > 0 {
			prev = x[i-1]
		}
		disc[i] = math.Atan2(imagPart(s*conjugate(prev)), realPart(s*conjugate(prev))) * scale
	}
	if n > 0 {
		w.last = x[n-1]
	}

	left := make([]float64, n)
	right := make([]float64, n)

	pilotPhase := w.pilot.Phase()
	locked := w.StereoWanted && w.pilot.Locked(0.05)

	for i := 0; i < n; i++ {
		pilotRef := complex(math.Cos(pilotPhase), math.Sin(pilotPhase))
		w.pilot.Update(complex(disc[i], 0) * pilotRef)
		pilotPhase = w.pilot.Phase()

		sumLR := disc[i] // 0-15kHz composite, L+R

		if locked {
			doubledPilotPhase := 2 * pilotPhase
			diffLR := disc[i] * math.Cos(doubledPilotPhase) // 23-53kHz, demod by doubled pilot
			l := sumLR + diffLR
			r := sumLR - diffLR
			left[i] = w.DeemphLeft.Apply(l)
			right[i] = w.DeemphRight.Apply(r)
		} else {
			mono := w.DeemphLeft.Apply(sumLR)
			left[i] = mono
			right[i] = mono
		}
	}

	state := w.Squelch.Update(snrMetric)
	open := state == Open || state == Closing
	if !open {
		for i := range left {
			left[i], right[i] = 0, 0
		}
	}

	return WFMResult{Left: left, Right: right, StereoLocked: locked, SquelchOpen: open}
}
