package channelizer

import (
	"math"
	"testing"

	"github.com/cwsl/radiocore/internal/fftstage"
	"github.com/cwsl/radiocore/internal/frontend"
)

func makeBins(n int) []complex128 {
	bins := make([]complex128, n)
	for i := range bins {
		bins[i] = complex(float64(i), 0)
	}
	return bins
}

func TestExtractComplexWraparound(t *testing.T) {
	fe := frontend.NewDescriptor(48000, frontend.Complex, 16, 0, -24000, 24000, nil, frontend.Capability{}, 7040000)
	nfft := 16
	blk := &fftstage.Block{NFFT: nfft, Bins: makeBins(nfft)}

	// binShift near zero with a width that forces negative indices to
	// wrap around to the top of the bin array (complex frontends have no
	// "missing" negative frequencies, they wrap).
	width := 4
	out := Extract(blk, fe, 0, width)
	if len(out) != width {
		t.Fatalf("got %d output bins, want %d", len(out), width)
	}
	// start = 0 - width/2 = -2, so first two entries should be the
	// wrapped-around top-of-spectrum bins (14, 15), then bins 0, 1.
	want := []complex128{14, 15, 0, 1}
	for i, w := range want {
		if out[i] != w {
			t.Errorf("out[%d] = %v, want %v", i, out[i], w)
		}
	}
}

func TestExtractRealFullCoverage(t *testing.T) {
	fe := frontend.NewDescriptor(48000, frontend.Real, 16, 0, 0, 24000, nil, frontend.Capability{}, 7040000)
	nfft := 16
	nBins := nfft/2 + 1 // 9 bins for a real-sampled FFT
	blk := &fftstage.Block{NFFT: nfft, Bins: makeBins(nBins)}

	width := nBins // request the full real spectrum: full coverage path
	binShift := width / 2 // centers the window so it spans [0, nBins-1]
	out := Extract(blk, fe, binShift, width)
	if len(out) != width {
		t.Fatalf("got %d output bins, want %d", len(out), width)
	}
	// Full coverage maps k*(nBins-1)/(width-1) == k for width == nBins.
	for k := 0; k < width; k++ {
		if out[k] != blk.Bins[k] {
			t.Errorf("out[%d] = %v, want %v (full coverage should map linearly)", k, out[k], blk.Bins[k])
		}
	}
}

func TestExtractRealPartialCoverageZeroPads(t *testing.T) {
	fe := frontend.NewDescriptor(48000, frontend.Real, 16, 0, 10000, 20000, nil, frontend.Capability{}, 7040000)
	nfft := 16
	nBins := nfft/2 + 1
	blk := &fftstage.Block{NFFT: nfft, Bins: makeBins(nBins)}

	// A narrow passband at the high edge: the window spans bins 5..10 of
	// a 9-bin array, so the bins past the top (9, 10) should zero-pad.
	binShift := nBins - 1
	width := 6
	out := Extract(blk, fe, binShift, width)
	if len(out) != width {
		t.Fatalf("got %d output bins, want %d", len(out), width)
	}

	start := binShift - width/2
	for k := 0; k < width; k++ {
		idx := start + k
		if idx < 0 || idx >= nBins {
			if out[k] != 0 {
				t.Errorf("out[%d] should be zero-padded (idx %d out of range), got %v", k, idx, out[k])
			}
			continue
		}
		if out[k] != blk.Bins[idx] {
			t.Errorf("out[%d] = %v, want %v", k, out[k], blk.Bins[idx])
		}
	}
}

func TestTuneComputesBinShiftAndResidual(t *testing.T) {
	fe := frontend.NewDescriptor(48000, frontend.Complex, 16, 0, -24000, 24000, nil, frontend.Capability{}, 7040000)
	nfft := 48
	binBW := fe.SampleRate / float64(nfft) // 1000 Hz/bin

	// 2500 Hz above the LO: 2.5 bins, so bin 2 or 3 plus a residual.
	binShift, remainder := Tune(fe, nfft, fe.CenterFrequency()+2500)
	if binShift != 3 {
		t.Fatalf("binShift = %d, want 3 (round(2.5) away from zero)", binShift)
	}
	wantRemainder := 2500 - float64(binShift)*binBW
	if remainder != wantRemainder {
		t.Fatalf("remainder = %v, want %v", remainder, wantRemainder)
	}

	// Exactly on a bin center: zero residual.
	binShift, remainder = Tune(fe, nfft, fe.CenterFrequency()+3000)
	if binShift != 3 || remainder != 0 {
		t.Fatalf("on-bin tune: got (%d, %v), want (3, 0)", binShift, remainder)
	}
}

func TestProcessProducesFiniteOutputForTunedChannel(t *testing.T) {
	fe := frontend.NewDescriptor(48000, frontend.Complex, 16, 0, -24000, 24000, nil, frontend.Capability{}, 7040000)
	nfft := 48
	params := Params{OutputSampleRate: 8000, MinIF: -1500, MaxIF: 1500, KaiserBeta: 5}
	chz := New(fe, nfft, params)

	_, remainder := Tune(fe, nfft, fe.CenterFrequency()+1000)
	raw := make([]complex128, chz.Width())
	for i := range raw {
		raw[i] = complex(1, 0)
	}

	out := chz.Process(raw, remainder, 0, 0, params.OutputSampleRate)
	for i, s := range out {
		if math.IsNaN(real(s)) || math.IsNaN(imag(s)) {
			t.Fatalf("out[%d] = %v is NaN; a real tuned frequency must never poison output", i, s)
		}
	}

	// The NaN reinit sentinel must not propagate NaN into a later block
	// either: it should behave as a zero residual for that one block.
	out = chz.Process(raw, math.NaN(), 0, 0, params.OutputSampleRate)
	for i, s := range out {
		if math.IsNaN(real(s)) || math.IsNaN(imag(s)) {
			t.Fatalf("out[%d] = %v is NaN after a reinit-signaled block", i, s)
		}
	}
}
