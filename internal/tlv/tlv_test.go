package tlv

import (
	"math"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.Byte(1, 7)
	e.Bool(2, true)
	e.Bool(3, false)
	e.Int32(4, -12345)
	e.Uint32(5, 0xFFFFFFFF)
	e.Int64(6, -9876543210)
	e.Float32(7, 3.5)
	e.Float64(8, 2.71828182845904523536)
	e.String(9, "ssb")
	e.FloatVector(10, []float32{1, -2.5, 0, 1e10})

	fields := Decode(e.Bytes())
	if len(fields) != 10 {
		t.Fatalf("got %d fields, want 10", len(fields))
	}

	if got := fields[0].AsUint32(); got != 7 {
		t.Errorf("tag 1: got %d, want 7", got)
	}
	if got := fields[1].AsBool(); !got {
		t.Errorf("tag 2: got false, want true")
	}
	if got := fields[2].AsBool(); got {
		t.Errorf("tag 3: got true, want false")
	}
	if got := int32(fields[3].AsInt64()); got != -12345 {
		t.Errorf("tag 4: got %d, want -12345", got)
	}
	if got := fields[4].AsUint32(); got != 0xFFFFFFFF {
		t.Errorf("tag 5: got %#x, want 0xFFFFFFFF", got)
	}
	if got := fields[5].AsInt64(); got != -9876543210 {
		t.Errorf("tag 6: got %d, want -9876543210", got)
	}
	if got, err := fields[6].AsFloat32(); err != nil || got != 3.5 {
		t.Errorf("tag 7: got %v, err %v, want 3.5", got, err)
	}
	if got, err := fields[7].AsFloat64(); err != nil || got != 2.71828182845904523536 {
		t.Errorf("tag 8: got %v, err %v, want e", got, err)
	}
	if got := fields[8].AsString(); got != "ssb" {
		t.Errorf("tag 9: got %q, want ssb", got)
	}
	vec := fields[9].AsFloatVector()
	want := []float32{1, -2.5, 0, 1e10}
	if len(vec) != len(want) {
		t.Fatalf("tag 10: got %d elements, want %d", len(vec), len(want))
	}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("tag 10[%d]: got %v, want %v", i, vec[i], want[i])
		}
	}
}

func TestDecodeStopsAtEOL(t *testing.T) {
	e := NewEncoder()
	e.Byte(1, 1)
	e.Byte(2, 2)
	payload := e.Bytes()
	payload = append(payload, 3, 1, 3) // trailing garbage past EOL

	fields := Decode(payload)
	if len(fields) != 2 {
		t.Fatalf("got %d fields, want 2 (EOL should stop decoding)", len(fields))
	}
}

func TestDecodeTruncatedTrailingFragmentIsNotFatal(t *testing.T) {
	e := NewEncoder()
	e.Byte(1, 9)
	buf := e.buf // raw fields, no EOL yet
	// Append a malformed second field: tag but no length byte.
	buf = append(buf, 2)

	fields := Decode(buf)
	if len(fields) != 1 {
		t.Fatalf("got %d fields, want 1 (malformed trailing fragment should be dropped, not panic)", len(fields))
	}
	if fields[0].AsUint32() != 9 {
		t.Errorf("first field value = %d, want 9", fields[0].AsUint32())
	}
}

func TestDecodeExtendedLength(t *testing.T) {
	e := NewEncoder()
	big := make([]float32, 200) // forces the extended-length path (>0x7f bytes)
	for i := range big {
		big[i] = float32(i)
	}
	e.FloatVector(42, big)

	fields := Decode(e.Bytes())
	if len(fields) != 1 {
		t.Fatalf("got %d fields, want 1", len(fields))
	}
	got := fields[0].AsFloatVector()
	if len(got) != len(big) {
		t.Fatalf("got %d elements, want %d", len(got), len(big))
	}
	for i := range big {
		if got[i] != big[i] {
			t.Fatalf("element %d: got %v, want %v", i, got[i], big[i])
		}
	}
}

func TestAsInt64SignExtends(t *testing.T) {
	e := NewEncoder()
	e.Byte(1, 0xFF) // single byte, high bit set
	fields := Decode(e.Bytes())
	if got := fields[0].AsInt64(); got != -1 {
		t.Errorf("got %d, want -1 (sign-extended from a single 0xFF byte)", got)
	}
}

func TestFloat64RoundTripsNaN(t *testing.T) {
	e := NewEncoder()
	e.Float64(1, math.NaN())
	fields := Decode(e.Bytes())
	got, err := fields[0].AsFloat64()
	if err != nil {
		t.Fatalf("AsFloat64: %v", err)
	}
	if !math.IsNaN(got) {
		t.Errorf("got %v, want NaN", got)
	}
}
