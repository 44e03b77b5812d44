package media

import "testing"

func TestRingReadsBackInOrder(t *testing.T) {
	r := newInt16Ring(16)
	r.Write([]int16{1, 2, 3, 4, 5})

	dst := make([]int16, 3)
	n, ok := r.ReadPartial(dst)
	if !ok || n != 3 {
		t.Fatalf("ReadPartial = (%d, %v), want (3, true)", n, ok)
	}
	for i, want := range []int16{1, 2, 3} {
		if dst[i] != want {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], want)
		}
	}

	n, ok = r.ReadPartial(dst)
	if !ok || n != 2 {
		t.Fatalf("second ReadPartial = (%d, %v), want (2, true)", n, ok)
	}
	if dst[0] != 4 || dst[1] != 5 {
		t.Errorf("second read = %v, want [4 5 _]", dst[:2])
	}
}

func TestRingOverwritesOldestWhenFull(t *testing.T) {
	r := newInt16Ring(4)
	r.Write([]int16{1, 2, 3, 4, 5, 6})

	dst := make([]int16, 4)
	n, ok := r.ReadPartial(dst)
	if !ok || n != 4 {
		t.Fatalf("ReadPartial = (%d, %v), want (4, true)", n, ok)
	}
	for i, want := range []int16{3, 4, 5, 6} {
		if dst[i] != want {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], want)
		}
	}
}

func TestRingEmptyReadReturnsZero(t *testing.T) {
	r := newInt16Ring(4)
	dst := make([]int16, 4)
	n, ok := r.ReadPartial(dst)
	if !ok || n != 0 {
		t.Fatalf("ReadPartial on empty ring = (%d, %v), want (0, true)", n, ok)
	}
}

func TestRingCloseUnblocksReaders(t *testing.T) {
	r := newInt16Ring(4)
	r.Close()
	if _, ok := r.ReadPartial(make([]int16, 4)); ok {
		t.Fatal("ReadPartial after Close should report shutdown")
	}
}
