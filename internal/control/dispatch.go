// Package control implements the TLV channel control protocol dispatcher:
// ssrc extraction, dynamic channel creation, single-slot command
// queueing, and the broadcast-poll staggering rule.
package control

import (
	"log"

	"github.com/cwsl/radiocore/internal/channel"
	"github.com/cwsl/radiocore/internal/preset"
	"github.com/cwsl/radiocore/internal/tlv"
)

// Dispatcher owns the channel registry and the defaults needed to create
// a channel on demand.
type Dispatcher struct {
	Registry    *channel.Registry
	Presets     *preset.Table
	IdleTimeout int

	// DefaultDest is the default output data destination socket used to
	// seed dynamically created channels. An empty string means no default
	// is configured, so creation of an unknown ssrc fails.
	DefaultDest string

	// OnCreate is called synchronously after a new channel is created
	// and its initial command applied, letting the caller start the
	// channel's worker goroutine. May be nil in tests.
	OnCreate func(*channel.Channel)

	// Errors counts malformed or rejected commands for STATUS/operator
	// reporting.
	Errors uint64
}

// DispatchResult reports what handling a CMD packet did, for the status
// emitter and restart machinery.
type DispatchResult struct {
	SSRC     uint32
	Channel  *channel.Channel
	Created  bool
	Queued   bool
	Dropped  bool
	Reason   string
}

// HandleCommand decodes one CMD packet body and dispatches it: ssrc
// extraction, reserved/broadcast handling, and create-or-queue for a
// named channel.
func (d *Dispatcher) HandleCommand(payload []byte) DispatchResult {
	fields := tlv.Decode(payload)

	var ssrc uint32
	found := false
	for _, f := range fields {
		if f.Tag == tlv.OutputSSRC {
			ssrc = f.AsUint32()
			found = true
			break
		}
	}
	if !found || ssrc == channel.ReservedSSRC {
		d.Errors++
		return DispatchResult{Dropped: true, Reason: "missing or reserved ssrc"}
	}

	if ssrc == channel.BroadcastSSRC {
		d.staggerBroadcast()
		return DispatchResult{SSRC: ssrc}
	}

	if c := d.Registry.Lookup(ssrc); c != nil {
		if !c.QueueCommand(payload) {
			return DispatchResult{SSRC: ssrc, Channel: c, Dropped: true, Reason: "command already pending"}
		}
		// Lifetime is refreshed by the worker after it actually applies
		// this command, not here: the command is only queued so far, and
		// a retune away from freq==0 must be visible before refreshing
		// or RefreshLifetime's IsIdle() guard no-ops on stale state.
		return DispatchResult{SSRC: ssrc, Channel: c, Queued: true}
	}

	return d.createChannel(ssrc, payload, fields)
}

// staggerBroadcast sets global_timer on every in-use channel so their
// status packets are staggered two at a time across future block ticks,
// without executing any command body.
func (d *Dispatcher) staggerBroadcast() {
	i := 0
	d.Registry.Each(func(c *channel.Channel) {
		if !c.InUse || c.SSRC == channel.ReservedSSRC || c.SSRC == channel.BroadcastSSRC {
			return
		}
		c.Mu.Lock()
		c.Ctrl.GlobalTimer = i/2 + 1
		c.Mu.Unlock()
		i++
	})
}

func (d *Dispatcher) createChannel(ssrc uint32, payload []byte, fields []tlv.Field) DispatchResult {
	if d.DefaultDest == "" {
		d.Errors++
		log.Printf("control: cannot create channel for ssrc %#x: no default data destination configured", ssrc)
		return DispatchResult{SSRC: ssrc, Dropped: true, Reason: "no default data destination"}
	}

	c, err := d.Registry.Create(ssrc)
	if err != nil {
		d.Errors++
		log.Printf("control: %v", err)
		return DispatchResult{SSRC: ssrc, Dropped: true, Reason: err.Error()}
	}
	c.Output.Dest = d.DefaultDest

	outcome := ApplyCommand(c, fields, d.Presets)
	if outcome.Err != nil {
		d.Errors++
		log.Printf("control: ssrc %#x: %v", ssrc, outcome.Err)
	}
	c.RefreshLifetime(d.IdleTimeout)

	if d.OnCreate != nil {
		d.OnCreate(c)
	}

	return DispatchResult{SSRC: ssrc, Channel: c, Created: true}
}

// Teardown signals the channel's worker goroutine to exit by closing
// StopCh and removes ssrc from the registry. It does not wait for the
// worker to return, and must be called at most once per channel.
func (d *Dispatcher) Teardown(c *channel.Channel) {
	close(c.StopCh)
	d.Registry.Remove(c.SSRC)
}
