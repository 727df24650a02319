package demod

import "testing"

func TestSquelchTransitions(t *testing.T) {
	s := &Squelch{OpenThreshold: 10, CloseThreshold: 5, TailBlocks: 2}

	steps := []struct {
		metric float64
		want   SquelchState
	}{
		{0, Closed},    // below open threshold, stays closed
		{9, Closed},    // still below open threshold
		{10, Open},     // crosses open threshold
		{6, Open},      // above close threshold, stays open
		{4, Closing},   // drops below close threshold, enters tail
		{4, Closing},   // tail remaining 1
		{4, Closed},    // tail exhausted, closes
	}

	for i, step := range steps {
		got := s.Update(step.metric)
		if got != step.want {
			t.Fatalf("step %d: metric=%v got state %v, want %v", i, step.metric, got, step.want)
		}
	}
}

func TestSquelchReopensDuringClosingTail(t *testing.T) {
	s := &Squelch{OpenThreshold: 10, CloseThreshold: 5, TailBlocks: 5}

	s.Update(10) // -> Open
	if s.State() != Open {
		t.Fatalf("expected Open after crossing threshold")
	}
	s.Update(4) // -> Closing
	if s.State() != Closing {
		t.Fatalf("expected Closing after dropping below close threshold")
	}
	if got := s.Update(11); got != Open {
		t.Fatalf("signal recovering above open threshold during tail should reopen, got %v", got)
	}
}

func TestSquelchAlwaysOpenSentinel(t *testing.T) {
	s := &Squelch{OpenThreshold: 0, CloseThreshold: 0}
	if !s.AlwaysOpen() {
		t.Fatalf("zero thresholds should report AlwaysOpen")
	}
	if got := s.Update(-1000); got != Open {
		t.Fatalf("always-open squelch should report Open regardless of metric, got %v", got)
	}
}

func TestThresholdFromDB(t *testing.T) {
	if got := ThresholdFromDB(-999); got != 0 {
		t.Errorf("-999dB should collapse to the always-open sentinel, got %v", got)
	}
	if got := ThresholdFromDB(-1000); got != 0 {
		t.Errorf("below -999dB should also collapse to the sentinel, got %v", got)
	}
	if got := ThresholdFromDB(0); got != 1 {
		t.Errorf("0dB should be linear ratio 1, got %v", got)
	}
}
