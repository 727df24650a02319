package demod

import (
	"math"
	"testing"
)

func TestPLLLocksOntoOffsetCarrier(t *testing.T) {
	const sampleRate = 48000.0
	const offsetHz = 50.0

	p := &PLL{LoopBW: 20, SampleRate: sampleRate}
	p.Init()

	var errVar float64
	for n := 0; n < 20000; n++ {
		phase := 2 * math.Pi * offsetHz * float64(n) / sampleRate
		x := complex(math.Cos(phase), math.Sin(phase))
		p.Update(x)
	}
	errVar = p.errVarEMA

	if !p.Locked(0.05) {
		t.Fatalf("PLL failed to lock onto a steady %gHz offset after 20000 samples, errVarEMA=%v", offsetHz, errVar)
	}
}

func TestPLLSquareModeTracksHalfRotation(t *testing.T) {
	const sampleRate = 48000.0
	const offsetHz = 30.0

	p := &PLL{LoopBW: 15, SampleRate: sampleRate, Square: true}
	p.Init()

	// A plain carrier at twice offsetHz; square mode must acquire it.
	for n := 0; n < 20000; n++ {
		phase := 2 * math.Pi * (2 * offsetHz) * float64(n) / sampleRate
		x := complex(math.Cos(phase), math.Sin(phase))
		p.Update(x)
	}

	if !p.Locked(0.05) {
		t.Fatalf("square-mode PLL failed to lock onto a doubled-frequency carrier")
	}
}

func TestPLLSNRNonNegativeWhenLocked(t *testing.T) {
	const sampleRate = 48000.0
	p := &PLL{LoopBW: 20, SampleRate: sampleRate}
	p.Init()

	for n := 0; n < 20000; n++ {
		phase := 2 * math.Pi * 40.0 * float64(n) / sampleRate
		x := complex(math.Cos(phase), math.Sin(phase))
		p.Update(x)
	}

	if snr := p.SNR(); math.IsNaN(snr) || math.IsInf(snr, 0) {
		t.Fatalf("SNR() returned a non-finite value: %v", snr)
	}
}
