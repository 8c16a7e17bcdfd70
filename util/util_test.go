package util

import "testing"

func TestMin(t *testing.T) {
	if Min(3, 5) != 3 {
		t.Fatalf("Min(3, 5) != 3")
	}
	if Min(uint32(9), uint32(2)) != 2 {
		t.Fatalf("Min(9, 2) != 2")
	}
}

func TestRounddownRoundup(t *testing.T) {
	if Rounddown(4100, 4096) != 4096 {
		t.Fatalf("Rounddown(4100, 4096) = %d, want 4096", Rounddown(4100, 4096))
	}
	if Roundup(4100, 4096) != 8192 {
		t.Fatalf("Roundup(4100, 4096) = %d, want 8192", Roundup(4100, 4096))
	}
	if Roundup(4096, 4096) != 4096 {
		t.Fatalf("Roundup(4096, 4096) = %d, want 4096 (already aligned)", Roundup(4096, 4096))
	}
}

func TestReadnWritenRoundTrip(t *testing.T) {
	buf := make([]uint8, 16)
	Writen(buf, 4, 4, 0x11223344)
	if got := Readn(buf, 4, 4); got != 0x11223344 {
		t.Fatalf("Readn(4 bytes) = %#x, want 0x11223344", got)
	}

	Writen(buf, 1, 0, 0xff)
	if got := Readn(buf, 1, 0); got != 0xff {
		t.Fatalf("Readn(1 byte) = %#x, want 0xff", got)
	}
}

func TestReadnPanicsOutOfBounds(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("Readn out of bounds should panic")
		}
	}()
	Readn(make([]uint8, 2), 4, 0)
}
