// Package estimator computes the per-channel signal estimators: noise
// density, baseband/IF power, SNR, and PLL-derived frequency offset
// reporting.
package estimator

import "math"

// BasebandPower computes mean squared power of a complex baseband block.
func BasebandPower(x []complex128) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, s := range x {
		r, i := real(s), imag(s)
		sum += r*r + i*i
	}
	return sum / float64(len(x))
}

// NoiseFloor tracks a running noise-density estimate using an
// exponential minimum-tracking filter: it decays slowly upward but snaps
// down immediately to any lower block power, which approximates the
// noise floor in the presence of intermittent signals.
type NoiseFloor struct {
	density float64
	rise    float64 // per-block multiplicative rise rate, e.g. 1.001
}

// NewNoiseFloor builds a tracker with a default slow-rise rate.
func NewNoiseFloor() *NoiseFloor { return &NoiseFloor{rise: 1.001} }

// Update folds in one block's power and returns the current estimate.
func (n *NoiseFloor) Update(blockPower float64) float64 {
	if n.density == 0 || blockPower < n.density {
		n.density = blockPower
	} else {
		n.density *= n.rise
	}
	return n.density
}

// SNR computes SNR in dB from signal and noise power, guarding against
// divide-by-zero on a silent channel.
func SNR(signalPower, noisePower float64) float64 {
	if noisePower <= 0 {
		return 0
	}
	ratio := signalPower / noisePower
	if ratio <= 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(ratio)
}

// DBFromLinear and LinearFromDB convert between linear power ratio and dB,
// used for reporting squelch thresholds and IF power in STATUS.
func DBFromLinear(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(v)
}

func LinearFromDB(db float64) float64 { return math.Pow(10, db/10) }
