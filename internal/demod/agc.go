package demod

import "math"

// AGC implements attack-fast/release-slow automatic gain control.
type AGC struct {
	Enabled      bool
	Threshold    float64 // target amplitude
	RecoveryRate float64 // dB/sec
	Hangtime     float64 // seconds
	Headroom     float64
	BlockRate    float64 // blocks/sec, for converting Hangtime to a block count

	Gain       float64
	hangBlocks int
}

// Update runs one block of AGC given the block's peak sample amplitude,
// returning the gain to apply.
func (a *AGC) Update(peak float64) float64 {
	if !a.Enabled {
		return a.Gain
	}
	if peak*a.Gain > a.Headroom {
		if peak > 0 {
			a.Gain = a.Headroom / peak
		}
		a.hangBlocks = int(a.Hangtime * a.BlockRate)
		return a.Gain
	}
	if a.hangBlocks > 0 {
		a.hangBlocks--
		return a.Gain
	}
	perBlockDB := a.RecoveryRate / a.BlockRate
	a.Gain *= math.Pow(10, perBlockDB/20)
	if peak > 0 {
		capGain := a.Threshold / peak
		if a.Gain > capGain {
			a.Gain = capGain
		}
	}
	return a.Gain
}
