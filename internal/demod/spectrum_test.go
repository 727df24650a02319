package demod

import "testing"

func TestSpectrumInputBins(t *testing.T) {
	s := &Spectrum{BinCount: 100, BinBW: 500}
	nfft := 4096
	sampleRate := 2048000.0
	got := s.InputBins(nfft, sampleRate)
	want := int(100*500*float64(nfft)/sampleRate + 0.5)
	if got != want {
		t.Fatalf("InputBins() = %d, want %d", got, want)
	}
}

func TestMapRealFullAveragesContiguousBins(t *testing.T) {
	// 8 input bins with distinct real magnitudes 1..8, mapped down to 4
	// output bins: each output bin should average exactly 2 input bins'
	// power.
	raw := make([]complex128, 8)
	for i := range raw {
		raw[i] = complex(float64(i+1), 0) // power = (i+1)^2
	}
	out := MapRealFull(raw, 4)
	if len(out) != 4 {
		t.Fatalf("got %d output bins, want 4", len(out))
	}
	want := []float32{
		(1*1 + 2*2) / 2.0,
		(3*3 + 4*4) / 2.0,
		(5*5 + 6*6) / 2.0,
		(7*7 + 8*8) / 2.0,
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestMapRealFullHandlesEmptyInput(t *testing.T) {
	out := MapRealFull(nil, 4)
	if len(out) != 4 {
		t.Fatalf("got %d bins, want 4", len(out))
	}
	for i, v := range out {
		if v != 0 {
			t.Errorf("out[%d] = %v, want 0 for empty input", i, v)
		}
	}
}

func TestMapComplexDCLandsAtCenter(t *testing.T) {
	// 8 raw bins in the centered order Extract produces (negative
	// frequencies first, DC at inputBins/2 == 4): bin index 4, the first
	// of the positive half, should land at binCount/2.
	raw := make([]complex128, 8)
	raw[4] = complex(3, 4) // power = 25, placed at the start of the upper half
	binCount := 8
	out := MapComplex(raw, binCount)
	if out[binCount/2] != 25 {
		t.Fatalf("expected power 25 at the DC-adjacent output bin %d, got %v", binCount/2, out[binCount/2])
	}
}

func TestFullCoverage(t *testing.T) {
	nBins := 9
	if !FullCoverage(0, 16, nBins) {
		t.Fatalf("a window centered at DC spanning the whole array should report full coverage")
	}
	if FullCoverage(0, 2, nBins) {
		t.Fatalf("a narrow window should not report full coverage")
	}
}
