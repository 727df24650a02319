package status

import (
	"testing"

	"github.com/cwsl/radiocore/internal/channel"
	"github.com/cwsl/radiocore/internal/frontend"
	"github.com/cwsl/radiocore/internal/tlv"
)

func testFrontend() *frontend.Descriptor {
	return frontend.NewDescriptor(48000, frontend.Real, 16, 0, 0, 24000, nil, frontend.Capability{}, 7040000)
}

func TestBuildSkipsMismatchedSpectrumVector(t *testing.T) {
	c := channel.NewChannel(1)
	c.DemodType = channel.Spectrum
	c.SpectrumState = &channel.SpectrumState{
		BinCount: 10,
		BinData:  make([]float32, 5), // deliberately mismatched length
	}

	pkt := Build(c, testFrontend(), 1)
	fields := tlv.Decode(pkt[1:])
	for _, f := range fields {
		if f.Tag == tlv.BinData {
			t.Fatalf("BinData should not be published when its length doesn't match BinCount")
		}
	}
}

func TestBuildSkipsVectorWhileReallocating(t *testing.T) {
	c := channel.NewChannel(1)
	c.DemodType = channel.Spectrum
	c.SpectrumState = &channel.SpectrumState{
		BinCount:     10,
		BinData:      make([]float32, 10), // length matches...
		Reallocating: true,                // ...but a reallocation is in flight
	}

	pkt := Build(c, testFrontend(), 1)
	fields := tlv.Decode(pkt[1:])
	for _, f := range fields {
		if f.Tag == tlv.BinData {
			t.Fatalf("BinData should not be published while Reallocating is true")
		}
	}
}

func TestBuildPublishesMatchingVector(t *testing.T) {
	c := channel.NewChannel(1)
	c.DemodType = channel.Spectrum
	c.SpectrumState = &channel.SpectrumState{
		BinCount: 4,
		BinData:  []float32{1, 2, 3, 4},
	}

	pkt := Build(c, testFrontend(), 1)
	fields := tlv.Decode(pkt[1:])
	found := false
	for _, f := range fields {
		if f.Tag == tlv.BinData {
			found = true
			got := f.AsFloatVector()
			want := []float32{1, 2, 3, 4}
			if len(got) != len(want) {
				t.Fatalf("got %d bins, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("bin %d = %v, want %v", i, got[i], want[i])
				}
			}
		}
	}
	if !found {
		t.Fatalf("BinData should be published when length matches BinCount and not reallocating")
	}
}

func TestBuildOmitsSpectrumFieldsForNonSpectrumChannel(t *testing.T) {
	c := channel.NewChannel(1)
	c.DemodType = channel.FM

	pkt := Build(c, testFrontend(), 1)
	fields := tlv.Decode(pkt[1:])
	for _, f := range fields {
		if f.Tag == tlv.BinData || f.Tag == tlv.BinCount {
			t.Fatalf("non-spectrum channel should not emit spectrum fields")
		}
	}
}

func TestBuildPacketTypeByte(t *testing.T) {
	c := channel.NewChannel(1)
	pkt := Build(c, testFrontend(), 1)
	if pkt[0] != tlv.PacketStatus {
		t.Fatalf("first byte should be the STATUS packet type, got %#x", pkt[0])
	}
}
