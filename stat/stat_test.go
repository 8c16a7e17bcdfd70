package stat

import (
	"bytes"
	"testing"
)

func TestSettersAndGetters(t *testing.T) {
	var st Stat_t
	st.Wdev(1)
	st.Wino(2)
	st.Wmode(3)
	st.Wsize(4)
	st.Wrdev(5)
	st.Wnlink(6)
	st.Wblocks(7)
	st.Wmtime(8)

	if st.Dev() != 1 || st.Ino() != 2 || st.Mode() != 3 || st.Size() != 4 ||
		st.Rdev() != 5 || st.Nlink() != 6 || st.Blocks() != 7 || st.Mtime() != 8 {
		t.Fatalf("round trip mismatch: %+v", st)
	}
}

func TestBytesReflectsLatestWrites(t *testing.T) {
	var st Stat_t
	st.Wsize(0x1122334455667788)

	raw := st.Bytes()
	if len(raw) == 0 {
		t.Fatalf("Bytes() returned an empty slice")
	}

	// Bytes() is a view over st's own memory, not a copy: a later write
	// through the accessor must be visible in a slice captured earlier.
	st.Wmode(0x99)
	if !bytes.Equal(raw, st.Bytes()) {
		t.Fatalf("slice captured before Wmode did not reflect the write")
	}
}
