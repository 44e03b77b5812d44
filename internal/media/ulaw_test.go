package media

import "testing"

func TestULawRoundTripPreservesShape(t *testing.T) {
	in := []int16{0, 100, -100, 1000, -1000, 8000, -8000, 32000, -32000}
	encoded := encodeULaw(in)
	if len(encoded) != len(in) {
		t.Fatalf("encoded length = %d, want %d", len(encoded), len(in))
	}
	out := decodeULaw(encoded)
	for i, want := range in {
		got := out[i]
		diff := int(got) - int(want)
		if diff < 0 {
			diff = -diff
		}
		// G.711 is lossy. Error grows with magnitude but stays within a
		// segment step.
		limit := 4 + int(abs16(want))/16
		if diff > limit {
			t.Errorf("sample %d: decode(encode(%d)) = %d, off by %d (limit %d)", i, want, got, diff, limit)
		}
		if (want > 0) != (got > 0) && want != 0 {
			t.Errorf("sample %d: sign flipped, %d -> %d", i, want, got)
		}
	}
}

func TestULawSilenceEncodesToFF(t *testing.T) {
	encoded := encodeULaw([]int16{0})
	if encoded[0] != 0xFF {
		t.Fatalf("encodeULaw(0) = %#x, want 0xFF", encoded[0])
	}
}

func TestULawClipsExtremes(t *testing.T) {
	for _, sample := range []int16{32767, -32768} {
		got := uLawToLinear(linearToULaw(sample))
		if got > 32767 || got < -32768 {
			t.Fatalf("decoded value %d out of int16 range", got)
		}
	}
}

func TestALawDecodeStaysInRange(t *testing.T) {
	for b := 0; b < 256; b++ {
		v := aLawToLinear(byte(b))
		if v > 32767 || v < -32768 {
			t.Fatalf("aLawToLinear(%#x) = %d out of range", b, v)
		}
	}
}

func abs16(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}
