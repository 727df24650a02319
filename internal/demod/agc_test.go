package demod

import "testing"

func TestAGCRecoversOnlyFromNonzeroGain(t *testing.T) {
	a := AGC{
		Enabled:      true,
		Threshold:    1.0,
		Headroom:     1.0,
		RecoveryRate: 20, // dB/sec
		Hangtime:     0,
		BlockRate:    100,
		Gain:         1,
	}

	// A quiet block: peak*Gain (0.01) is well under Headroom, so the
	// recovery branch runs. With a nonzero starting Gain this must climb.
	var gain float64
	for i := 0; i < 50; i++ {
		gain = a.Update(0.01)
	}
	if gain <= 1 {
		t.Fatalf("Gain should climb above its initial value on a quiet signal, got %v", gain)
	}

	// A zero-initialized AGC (as if never wired) can never recover,
	// demonstrating why Gain must start nonzero.
	zero := AGC{Enabled: true, Threshold: 1.0, Headroom: 1.0, RecoveryRate: 20, BlockRate: 100}
	for i := 0; i < 50; i++ {
		zero.Update(0.01)
	}
	if zero.Gain != 0 {
		t.Fatalf("sanity check: a zero-initialized Gain should stay stuck at 0, got %v", zero.Gain)
	}
}

func TestAGCAttackReducesGainOnLoudPeak(t *testing.T) {
	a := AGC{Enabled: true, Threshold: 1.0, Headroom: 1.0, RecoveryRate: 20, Hangtime: 1, BlockRate: 100, Gain: 10}

	gain := a.Update(0.5) // peak*Gain = 5 > Headroom 1: attack
	if gain != 2 {
		t.Fatalf("attack should set Gain = Headroom/peak = 2, got %v", gain)
	}
	if a.hangBlocks <= 0 {
		t.Fatalf("attack should arm the hangtime counter")
	}
}

func TestAGCDisabledPassesGainThrough(t *testing.T) {
	a := AGC{Enabled: false, Gain: 3}
	if got := a.Update(100); got != 3 {
		t.Fatalf("a disabled AGC should return Gain unchanged, got %v", got)
	}
}
