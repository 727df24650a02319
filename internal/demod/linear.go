package demod

import "math"

// LinearMode selects between envelope (AM) and coherent (SSB/CW)
// detection within the Linear demodulator.
type LinearMode int

const (
	Envelope LinearMode = iota
	Coherent
)

// Linear implements the SSB/CW/AM/IQ demodulator: envelope detection with
// AGC, or coherent detection with an optional carrier-recovery PLL.
type Linear struct {
	Mode LinearMode
	AGC  AGC
	PLL  PLL
	PLLEnabled bool
}

// LinearResult is one block's real-valued PCM output plus PLL telemetry.
type LinearResult struct {
	PCM      []float64
	PLLLock  bool
	PLLPhase float64
	PLLSNR   float64
}

// Process demodulates one block of complex baseband samples.
func (l *Linear) Process(x []complex128) LinearResult {
	n := len(x)
	pcm := make([]float64, n)

	peak := 0.0
	for _, s := range x {
		m := modulus(s)
		if m > peak {
			peak = m
		}
	}
	gain := l.AGC.Update(peak)

	switch l.Mode {
	case Envelope:
		var dc float64
		for i, s := range x {
			m := modulus(s) * gain
			dc = 0.999*dc + 0.001*m
			pcm[i] = m - dc
		}
	case Coherent:
		for i, s := range x {
			sample := s
			if l.PLLEnabled {
				sample = l.PLL.Update(s)
			}
			pcm[i] = realPart(sample) * gain
		}
	}

	res := LinearResult{PCM: pcm}
	if l.PLLEnabled {
		res.PLLLock = l.PLL.Locked(0.05)
		res.PLLPhase = l.PLL.Phase()
		res.PLLSNR = l.PLL.SNR()
	}
	return res
}

func modulus(c complex128) float64 { return math.Hypot(realPart(c), imagPart(c)) }
