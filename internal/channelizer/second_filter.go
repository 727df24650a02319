package channelizer

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/cwsl/radiocore/internal/dsp/kaiser"
)

// secondFilter applies an optional narrower overlap-save filter at the
// channel rate, independent of the channelizer's own IFFT plan so a
// channel can narrow its bandwidth without respawning the whole
// channelizer.
type secondFilter struct {
	size     int
	fft      *fourier.CmplxFFT
	response []complex128
	history  []complex128
}

func newSecondFilter(samprate, minIF, maxIF, beta float64) *secondFilter {
	size := 256
	for size < int(samprate/(maxIF-minIF+1)) && size < 8192 {
		size *= 2
	}

	binBW := samprate / float64(size)
	passBins := int(math.Round((maxIF - minIF) / binBW))
	transition := (size - passBins) / 2
	if transition < 1 {
		transition = 1
	}
	real := kaiser.Design(size, beta, transition)
	resp := make([]complex128, size)
	for i, r := range real {
		resp[i] = complex(r, 0)
	}

	return &secondFilter{
		size:     size,
		fft:      fourier.NewCmplxFFT(size),
		response: resp,
		history:  make([]complex128, size),
	}
}

// process filters one channel-rate block in place, using overlap-save
// history carried between calls.
func (f *secondFilter) process(block []complex128) []complex128 {
	n := len(block)
	window := append(append([]complex128{}, f.history...), block...)
	if len(window) > f.size {
		window = window[len(window)-f.size:]
	} else {
		pad := make([]complex128, f.size-len(window))
		window = append(pad, window...)
	}

	spec := f.fft.Coefficients(nil, window)
	for i := range spec {
		spec[i] *= f.response[i]
	}
	td := f.fft.Sequence(nil, spec)

	if n <= len(f.history) {
		f.history = append(f.history[n:], block...)
	} else {
		f.history = block[n-len(f.history):]
	}

	out := td[len(td)-n:]
	return out
}

// SplitISB separates a second-filter output into independent left/right
// sideband streams for independent-sideband mode, stereo-mapped per
// : USB real part to one channel, LSB real part to the other.
func SplitISB(usb, lsb []complex128) (left, right []float64) {
	left = make([]float64, len(usb))
	right = make([]float64, len(lsb))
	for i := range usb {
		left[i] = real(usb[i])
	}
	for i := range lsb {
		right[i] = real(lsb[i])
	}
	return left, right
}
