package stronghash

import "testing"

func TestSumDeterministic(t *testing.T) {
	a := Sum([]byte("hello world"))
	b := Sum([]byte("hello world"))
	if !a.Equal(b) {
		t.Fatal("expected identical digests for identical input")
	}
}

func TestSumDiffers(t *testing.T) {
	a := Sum([]byte("hello world"))
	b := Sum([]byte("hello world!"))
	if a.Equal(b) {
		t.Fatal("expected different digests for different input")
	}
}

func TestFromBytesRoundTrip(t *testing.T) {
	a := Sum([]byte("round trip"))
	b, err := FromBytes(a.Bytes())
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if !a.Equal(b) {
		t.Fatal("round trip mismatch")
	}
}

func TestFromBytesWrongLength(t *testing.T) {
	if _, err := FromBytes([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for wrong-length input")
	}
}
