package channel

import (
	"sync"
	"testing"
)

func TestRegistryCreateAndLookup(t *testing.T) {
	r := NewRegistry(0)
	c, err := r.Create(42)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.SSRC != 42 || !c.InUse {
		t.Fatalf("got ssrc=%d inUse=%v, want 42/true", c.SSRC, c.InUse)
	}
	if got := r.Lookup(42); got != c {
		t.Fatalf("Lookup did not return the same channel created")
	}
	if got := r.Lookup(99); got != nil {
		t.Fatalf("Lookup of unregistered ssrc should return nil, got %v", got)
	}
}

func TestRegistryCreateRejectsReservedSSRC(t *testing.T) {
	r := NewRegistry(0)
	if _, err := r.Create(ReservedSSRC); err == nil {
		t.Fatalf("Create(ReservedSSRC) should fail")
	}
	if _, err := r.Create(BroadcastSSRC); err == nil {
		t.Fatalf("Create(BroadcastSSRC) should fail")
	}
}

func TestRegistryCreateIsIdempotentUnderRace(t *testing.T) {
	r := NewRegistry(0)
	const n = 50
	results := make([]*Channel, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			c, err := r.Create(7)
			if err != nil {
				t.Errorf("Create: %v", err)
				return
			}
			results[i] = c
		}(i)
	}
	wg.Wait()

	first := results[0]
	for i, c := range results {
		if c != first {
			t.Fatalf("racing Create calls returned different channels at index %d", i)
		}
	}
	if r.Len() != 1 {
		t.Fatalf("registry should hold exactly one channel after a racing create, got %d", r.Len())
	}
}

func TestRegistryMaxSlots(t *testing.T) {
	r := NewRegistry(1)
	if _, err := r.Create(1); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := r.Create(2); err == nil {
		t.Fatalf("Create beyond maxSlots should fail")
	}
	// Re-creating the same ssrc should still succeed even at capacity.
	if _, err := r.Create(1); err != nil {
		t.Fatalf("re-Create of existing ssrc should succeed at capacity: %v", err)
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry(0)
	r.Create(5)
	r.Remove(5)
	if got := r.Lookup(5); got != nil {
		t.Fatalf("channel should be gone after Remove")
	}
	if r.Len() != 0 {
		t.Fatalf("registry should be empty after Remove, got len %d", r.Len())
	}
}

func TestChannelLifetimeCountdownAndExpiry(t *testing.T) {
	c := NewChannel(1)
	c.Tune.Frequency = 14074000 // non-idle
	c.RefreshLifetime(3)

	if expired := c.TickLifetime(); expired {
		t.Fatalf("should not expire on tick 1 of 3")
	}
	if expired := c.TickLifetime(); expired {
		t.Fatalf("should not expire on tick 2 of 3")
	}
	if expired := c.TickLifetime(); !expired {
		t.Fatalf("should expire exactly when the countdown reaches zero")
	}
}

func TestChannelLifetimeNegativeMeansInfinite(t *testing.T) {
	c := NewChannel(1)
	c.Ctrl.Lifetime = -1
	for i := 0; i < 100; i++ {
		if c.TickLifetime() {
			t.Fatalf("negative lifetime should never expire (tick %d)", i)
		}
	}
}

func TestRefreshLifetimeSkipsIdleChannel(t *testing.T) {
	c := NewChannel(1) // Tune.Frequency == 0, idle
	c.Ctrl.Lifetime = -1
	c.RefreshLifetime(5)
	if c.Ctrl.Lifetime != -1 {
		t.Fatalf("RefreshLifetime should be a no-op for an idle (freq==0) channel, got Lifetime=%d", c.Ctrl.Lifetime)
	}
}

func TestChannelSingleSlotCommandQueue(t *testing.T) {
	c := NewChannel(1)
	if ok := c.QueueCommand([]byte{1, 2, 3}); !ok {
		t.Fatalf("first QueueCommand should succeed")
	}
	if ok := c.QueueCommand([]byte{4, 5, 6}); ok {
		t.Fatalf("second QueueCommand while one is pending should be refused")
	}

	got := c.TakeCommand()
	if string(got) != string([]byte{1, 2, 3}) {
		t.Fatalf("TakeCommand returned %v, want the first queued command", got)
	}
	if got := c.TakeCommand(); got != nil {
		t.Fatalf("TakeCommand after drain should return nil, got %v", got)
	}

	// Slot is free again after a drain.
	if ok := c.QueueCommand([]byte{9}); !ok {
		t.Fatalf("QueueCommand after drain should succeed")
	}
}

func TestChannelIsIdle(t *testing.T) {
	c := NewChannel(1)
	if !c.IsIdle() {
		t.Fatalf("a freshly constructed channel (freq==0) should be idle")
	}
	c.Tune.Frequency = 7040000
	if c.IsIdle() {
		t.Fatalf("a channel with a nonzero tuned frequency should not be idle")
	}
}

func TestSquelchAlwaysOpenSentinelOnChannel(t *testing.T) {
	s := Squelch{}
	if !s.AlwaysOpen() {
		t.Fatalf("zero-value Squelch should report AlwaysOpen")
	}
	s.Open = 0.1
	if s.AlwaysOpen() {
		t.Fatalf("a nonzero Open threshold should not report AlwaysOpen")
	}
}
