// Package channelizer implements per-channel bin extraction, passband
// shaping, inverse FFT, and the fine mixer/second-filter stage.
package channelizer

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/cwsl/radiocore/internal/dsp/kaiser"
	"github.com/cwsl/radiocore/internal/fftstage"
	"github.com/cwsl/radiocore/internal/frontend"
)

// Params bundles the subset of channel filter/tune/output fields the
// channelizer needs, decoupling it from the channel package's full state.
type Params struct {
	OutputSampleRate float64
	MinIF            float64
	MaxIF            float64
	KaiserBeta       float64
	Doppler          float64
	DopplerRate      float64

	Filter2Enabled    bool
	Filter2MinIF      float64
	Filter2MaxIF      float64
	Filter2KaiserBeta float64
}

// Channelizer holds the rebuildable state (passband response + IFFT plan)
// for one channel. A restart replaces this value wholesale.
type Channelizer struct {
	width      int // W, output samples per master block
	ifft       *fourier.CmplxFFT
	response   []float64 // length width, real per-bin gain
	samplesN   uint64 // running sample count for the Doppler term

	second     *secondFilter
}

// Tune computes the integer master-FFT bin offset and the sub-bin
// frequency residual (Hz) needed to place a channel's passband center on
// freq, relative to the frontend's current LO. The residual is corrected
// after the inverse FFT by Process's fine mixer.
func Tune(fe *frontend.Descriptor, nfft int, freq float64) (binShift int, remainder float64) {
	binBW := fe.SampleRate / float64(nfft)
	ifHz := freq - fe.CenterFrequency()
	exact := ifHz / binBW
	binShift = int(math.Round(exact))
	remainder = ifHz - float64(binShift)*binBW
	return binShift, remainder
}

// New builds a Channelizer for the given master FFT geometry and channel
// params. W = output_samprate * N_fft / frontend_samprate, rounded to
// the nearest integer.
func New(fe *frontend.Descriptor, nfft int, p Params) *Channelizer {
	w := int(math.Round(p.OutputSampleRate * float64(nfft) / fe.SampleRate))
	if w < 1 {
		w = 1
	}

	binBW := fe.SampleRate / float64(nfft)
	passBins := int(math.Round((p.MaxIF - p.MinIF) / binBW))
	transition := (w - passBins) / 2
	if transition < 1 {
		transition = 1
	}

	c := &Channelizer{
		width:    w,
		ifft:     fourier.NewCmplxFFT(w),
		response: kaiser.Design(w, p.KaiserBeta, transition),
	}
	if p.Filter2Enabled {
		c.second = newSecondFilter(p.OutputSampleRate, p.Filter2MinIF, p.Filter2MaxIF, p.Filter2KaiserBeta)
	}
	return c
}

// Width returns W, the number of output samples produced per master block.
func (c *Channelizer) Width() int { return c.width }

// Extract pulls this channel's bin range out of a master block, handling
// complex wraparound and real-frontend partial or full-Nyquist coverage.
func Extract(blk *fftstage.Block, fe *frontend.Descriptor, binShift, width int) []complex128 {
	n := blk.NFFT
	out := make([]complex128, width)
	nBins := len(blk.Bins)

	start := binShift - width/2
	end := start + width

	if fe.Kind == frontend.Complex {
		for k := 0; k < width; k++ {
			idx := start + k
			if idx < 0 {
				idx += n
			}
			if idx < 0 || idx >= nBins {
				out[k] = 0
				continue
			}
			out[k] = blk.Bins[idx]
		}
		return out
	}

	// Real frontend: full DC-Nyquist coverage uses a straight linear
	// mapping with no zero-padding; partial coverage zero-pads negative
	// (non-existent) bins.
	fullCoverage := start <= 0 && end >= nBins-1
	if fullCoverage {
		for k := 0; k < width; k++ {
			idx := k * (nBins - 1) / max(width-1, 1)
			out[k] = blk.Bins[idx]
		}
		return out
	}
	for k := 0; k < width; k++ {
		idx := start + k
		if idx < 0 || idx >= nBins {
			out[k] = 0
			continue
		}
		out[k] = blk.Bins[idx]
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Process runs one block: multiply the extracted bins by the passband
// response, inverse-FFT, apply the fine mixer (sub-bin oscillator plus
// Doppler), and run the optional second filter. samprate is the channel's
// output sample rate, needed for the mixer's phase increment.
func (c *Channelizer) Process(bins []complex128, remainder, doppler, dopplerRate, samprate float64) []complex128 {
	shaped := make([]complex128, len(bins))
	for i, b := range bins {
		shaped[i] = b * complex(c.response[i], 0)
	}

	td := c.ifft.Sequence(nil, shaped)

	// NaN is the "force reinit" sentinel used on first tune and whenever
	// a retune jumps to a different bin: treat the residual as zero for
	// this block and restart the sample count so the phase doesn't jump
	// relative to a (now meaningless) large t from before the retune.
	if math.IsNaN(remainder) {
		remainder = 0
		c.samplesN = 0
	}

	out := make([]complex128, len(td))
	for n, s := range td {
		t := float64(c.samplesN + uint64(n))
		phase := 2 * math.Pi * (-remainder*t + doppler*t + 0.5*dopplerRate*t*t/samprate) / samprate
		osc := complex(math.Cos(phase), math.Sin(phase))
		out[n] = s * osc
	}
	c.samplesN += uint64(len(td))

	if c.second != nil {
		out = c.second.process(out)
	}
	return out
}
