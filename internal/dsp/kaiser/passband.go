// Package kaiser designs the per-channel passband response used by the
// channelizer: a flat passband with Kaiser-window tapered edges,
// expressed directly in the frequency domain as a per-bin real gain so
// it can be multiplied straight onto the extracted master-FFT bins.
package kaiser

import "math"

// Design returns a length-n real-valued frequency response: 1 across the
// middle of the window, ramped at both ends over transitionBins bins by
// the rising half of a length 2*transitionBins Kaiser window. bins are
// ordered the same way the channelizer presents its extracted range: bin 0
// is the low edge of the extracted window. The response is always
// symmetric about the window center: Design takes no IF edges, so an
// asymmetric [minIF,maxIF] is not represented, and the outermost bins are
// attenuated to 1/I0(beta), not to zero.
//
// The Kaiser shape is applied as a window over the transition region
// rather than as a time-domain FIR design, which keeps the whole filter a
// single per-bin real multiply after IFFT-domain extraction: the
// overlap-save structure already does the actual band-limiting; this
// response only tapers the edges to control stopband ripple. Higher beta
// means more stopband attenuation and a wider transition.
func Design(n int, beta float64, transitionBins int) []float64 {
	if transitionBins < 1 {
		transitionBins = 1
	}
	if 2*transitionBins > n {
		transitionBins = n / 2
	}
	resp := make([]float64, n)
	for i := range resp {
		resp[i] = 1
	}
	if transitionBins == 0 {
		return resp
	}

	taper := kaiserWindow(2*transitionBins, beta)

	for i := 0; i < transitionBins; i++ {
		w := taper[i]
		resp[i] = w
		resp[n-1-i] = w
	}
	return resp
}

// kaiserWindow returns the standard length-n Kaiser window for shape
// parameter beta, computed directly from I0 rather than pulled from a
// window-function library: gonum's dsp/window package doesn't carry a
// Kaiser implementation, and the Bessel-ratio formula is only a few lines.
func kaiserWindow(n int, beta float64) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	denom := I0(beta)
	m := float64(n - 1)
	for i := range w {
		r := 2*float64(i)/m - 1
		w[i] = I0(beta*math.Sqrt(1-r*r)) / denom
	}
	return w
}

// I0 is the zeroth-order modified Bessel function of the first kind,
// the core of the Kaiser window formula above (and retained standalone
// for estimators that need to reason about a filter's equivalent noise
// bandwidth rather than its per-bin response).
func I0(x float64) float64 {
	sum := 1.0
	term := 1.0
	for k := 1; k < 40; k++ {
		term *= (x / (2 * float64(k))) * (x / (2 * float64(k)))
		sum += term
		if term < 1e-16*sum {
			break
		}
	}
	return sum
}
