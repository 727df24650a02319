package demod

import "math"

// PLL is a second-order phase-locked loop used for coherent carrier
// recovery. Square mode locks to 2*f for DSB-SC/BPSK carriers
// that have no discrete tone at the fundamental.
type PLL struct {
	LoopBW float64 // Hz, natural loop bandwidth
	Square bool
	SampleRate float64

	phase     float64
	freq      float64
	rotations int64

	errVarEMA float64
	lockedArm float64
	quadArm   float64

	// second-order loop gains derived from LoopBW, damping factor 0.707
	alpha float64
	beta  float64
}

// Init derives the loop's proportional/integral gains from LoopBW and
// SampleRate, using the standard second-order design with damping factor
// 0.707.
func (p *PLL) Init() {
	wn := 2 * math.Pi * p.LoopBW
	zeta := 0.707
	t := 1 / p.SampleRate
	p.alpha = 2 * zeta * wn * t
	p.beta = wn * wn * t * t
}

// Update advances the loop by one sample given the complex baseband
// input, returning the carrier-removed (rotated-down) sample.
func (p *PLL) Update(x complex128) complex128 {
	ref := complex(math.Cos(p.phase), math.Sin(p.phase))
	mult := 1.0
	det := x
	if p.Square {
		mult = 2
		det = x * x
	}
	err := imagPart(det * conjugate(ref))

	p.errVarEMA = 0.99*p.errVarEMA + 0.01*err*err
	p.lockedArm = 0.99*p.lockedArm + 0.01*realPart(det*conjugate(ref))*realPart(det*conjugate(ref))
	p.quadArm = 0.99*p.quadArm + 0.01*err*err

	p.freq += p.beta * err
	p.phase += p.freq*mult + p.alpha*err
	if p.phase >= 2*math.Pi {
		p.rotations++
	}
	p.phase = math.Mod(p.phase, 2*math.Pi)
	if p.phase < 0 {
		p.phase += 2 * math.Pi
		p.rotations--
	}

	return x * conjugate(complex(math.Cos(p.phase/mult), math.Sin(p.phase/mult)))
}

// Locked reports whether the phase-error variance is below a lock
// threshold.
func (p *PLL) Locked(threshold float64) bool { return p.errVarEMA < threshold }

// SNR estimates carrier SNR from the locked-arm vs quadrature-arm energy
// ratio.
func (p *PLL) SNR() float64 {
	if p.quadArm <= 0 {
		return 0
	}
	return 10 * math.Log10(p.lockedArm/p.quadArm)
}

// Phase returns the carrier phase offset in radians, wrapped to [0, 2π);
// Rotations counts the wraps.
func (p *PLL) Phase() float64 { return p.phase }

// Rotations returns the unwrapped rotation count.
func (p *PLL) Rotations() int64 { return p.rotations }

func realPart(c complex128) float64 { return real(c) }
func imagPart(c complex128) float64 { return imag(c) }
func conjugate(c complex128) complex128 { return complex(real(c), -imag(c)) }
