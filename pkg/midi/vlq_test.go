package midi

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestVLQRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("encoding then decoding a VLQ returns the original value", prop.ForAll(
		func(v uint32) bool {
			v &= MaxVLQ
			encoded := EncodeVLQ(v)
			r := bufio.NewReader(bytes.NewReader(encoded))
			decoded, n, err := ReadVLQ(r)
			if err != nil {
				return false
			}
			if n != len(encoded) {
				return false
			}
			return decoded == v
		},
		gen.UInt32(),
	))

	properties.TestingRun(t)
}

func TestEncodeVLQMinimalLength(t *testing.T) {
	cases := []struct {
		v      uint32
		length int
	}{
		{0, 1},
		{0x7F, 1},
		{0x80, 2},
		{0x3FFF, 2},
		{0x4000, 3},
		{0x1FFFFF, 3},
		{0x200000, 4},
		{MaxVLQ, 4},
	}
	for _, c := range cases {
		got := EncodeVLQ(c.v)
		if len(got) != c.length {
			t.Errorf("EncodeVLQ(0x%X): got length %d, want %d", c.v, len(got), c.length)
		}
	}
}

func TestReadVLQMissingDataAfterFiveBytes(t *testing.T) {
	allContinuation := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	r := bufio.NewReader(bytes.NewReader(allContinuation))
	_, _, err := ReadVLQ(r)
	if err == nil {
		t.Fatal("expected an error for a VLQ exceeding 4 bytes")
	}
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != ErrMissingData {
		t.Fatalf("expected ErrMissingData, got %v", err)
	}
}

func TestReadVLQEOF(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader(nil))
	_, _, err := ReadVLQ(r)
	if err == nil {
		t.Fatal("expected an error reading a VLQ from an empty source")
	}
}
