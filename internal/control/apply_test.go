package control

import (
	"testing"

	"github.com/cwsl/radiocore/internal/channel"
	"github.com/cwsl/radiocore/internal/tlv"
)

func TestApplyCommandFilterRebuildOnFilter2KaiserBeta(t *testing.T) {
	c := channel.NewChannel(1)
	c.Filter.Filter2Enabled = true
	c.Filter.Filter2KaiserBeta = 5

	e := tlv.NewEncoder()
	e.Float64(tlv.Filter2KaiserBeta, 8)
	outcome := ApplyCommand(c, tlv.Decode(e.Bytes()), nil)

	if !outcome.FilterRebuild {
		t.Fatalf("changing filter2's own Kaiser beta should trigger a filter rebuild")
	}
	if outcome.RestartNeeded {
		t.Fatalf("a filter2 beta change alone should not force a full restart")
	}
}

func TestApplyCommandNoRebuildWhenNothingFilterRelatedChanges(t *testing.T) {
	c := channel.NewChannel(1)
	c.Filter.MinIF = -3000
	c.Filter.MaxIF = 3000

	e := tlv.NewEncoder()
	e.Float64(tlv.DopplerFrequency, 10)
	outcome := ApplyCommand(c, tlv.Decode(e.Bytes()), nil)

	if outcome.FilterRebuild || outcome.RestartNeeded {
		t.Fatalf("a Doppler-only change should neither rebuild nor restart, got %+v", outcome)
	}
}
