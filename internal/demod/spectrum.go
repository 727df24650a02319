package demod

// Spectrum implements the non-coherent spectrum analyzer:
// averaged squared-magnitude power bins covering BinCount*BinBW Hz,
// remapped from the master FFT's input bins per the unwrapped/linear
// mapping rules.
type Spectrum struct {
	BinCount int
	BinBW    float64
}

// InputBins computes input_bins = bin_count * bin_bw * N_fft / samprate,
// the number of master-FFT bins this spectrum channel's passband spans.
func (s *Spectrum) InputBins(nfft int, sampleRate float64) int {
	v := float64(s.BinCount) * s.BinBW * float64(nfft) / sampleRate
	return int(v + 0.5)
}

// MapComplex implements the "unwrapped spectrum" mapping for complex
// frontends (or partial-bandwidth real coverage): negative-frequency half
// lands in [0,binCount/2), positive half in [binCount/2,binCount), DC at
// binCount/2. raw holds the extracted complex bins already centered on
// the channel's passband (same extraction Extract() in the channelizer
// package performs), of length inputBins.
func MapComplex(raw []complex128, binCount int) []float32 {
	out := make([]float32, binCount)
	counts := make([]int, binCount)
	inputBins := len(raw)
	half := binCount / 2

	for i, c := range raw {
		power := float32(realPart(c)*realPart(c) + imagPart(c)*imagPart(c))
		var outIdx int
		if i < inputBins/2 {
			// negative-frequency half
			outIdx = int(float64(i) / float64(inputBins/2) * float64(half))
		} else {
			outIdx = half + int(float64(i-inputBins/2)/float64(inputBins-inputBins/2)*float64(binCount-half))
		}
		if outIdx < 0 {
			outIdx = 0
		}
		if outIdx >= binCount {
			outIdx = binCount - 1
		}
		out[outIdx] += power
		counts[outIdx]++
	}
	for i := range out {
		if counts[i] > 0 {
			out[i] /= float32(counts[i])
		}
	}
	return out
}

// MapRealFull implements the full DC-Nyquist real-frontend mapping: a
// linear map from [0,N_bins) to [0,binCount), averaging contiguous input
// bins per output bin, with no zero-padding at the edges.
func MapRealFull(raw []complex128, binCount int) []float32 {
	out := make([]float32, binCount)
	counts := make([]int, binCount)
	n := len(raw)
	for i, c := range raw {
		power := float32(realPart(c)*realPart(c) + imagPart(c)*imagPart(c))
		outIdx := i * binCount / n
		if outIdx >= binCount {
			outIdx = binCount - 1
		}
		out[outIdx] += power
		counts[outIdx]++
	}
	for i := range out {
		if counts[i] > 0 {
			out[i] /= float32(counts[i])
		}
	}
	return out
}

// FullCoverage reports whether a real-frontend spectrum channel's
// requested range covers the whole DC-Nyquist span:
// |bin_shift| - input_bins/2 <= 0 and |bin_shift| + input_bins/2 >= N_bins - 1.
func FullCoverage(binShift, inputBins, nBins int) bool {
	abs := binShift
	if abs < 0 {
		abs = -abs
	}
	return abs-inputBins/2 <= 0 && abs+inputBins/2 >= nBins-1
}
