package midi

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestKeyOctaveRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("key byte round-trips through NewKey and Byte", prop.ForAll(
		func(b byte) bool {
			k, err := NewKey(b)
			if err != nil {
				return false
			}
			return k.Byte() == b
		},
		gen.UInt8(),
	))

	properties.Property("note name cycles every 12 semitones", prop.ForAll(
		func(b byte) bool {
			if int(b)+12 > 127 {
				return true
			}
			k, err := NewKey(b)
			if err != nil {
				return false
			}
			up, err := NewKey(b + 12)
			if err != nil {
				return false
			}
			return k.Note() == up.Note() && up.Octave() == k.Octave()+1
		},
		gen.UInt8(),
	))

	properties.TestingRun(t)
}

func TestKeyOctaveFixedPoints(t *testing.T) {
	cases := []struct {
		raw    byte
		octave int8
	}{
		{0, -1},
		{12, 0},
		{60, 4},
		{127, 9},
	}
	for _, c := range cases {
		k, err := NewKey(c.raw)
		if err != nil {
			t.Fatalf("NewKey(%d): %v", c.raw, err)
		}
		if got := k.Octave(); got != c.octave {
			t.Errorf("Key(%d).Octave() = %d, want %d", c.raw, got, c.octave)
		}
	}
}

func TestNewKeyRejectsStatusBytes(t *testing.T) {
	if _, err := NewKey(0x80); err == nil {
		t.Fatal("expected an error constructing a Key from a status byte")
	}
}

func TestVelocityDynamicBuckets(t *testing.T) {
	cases := []struct {
		raw     byte
		dynamic string
	}{
		{0, "ppp"},
		{1, "ppp"},
		{16, "ppp"},
		{64, "mp"},
		{127, "fff"},
	}
	for _, c := range cases {
		v, err := NewVelocity(c.raw)
		if err != nil {
			t.Fatalf("NewVelocity(%d): %v", c.raw, err)
		}
		if got := v.Dynamic(); got != c.dynamic {
			t.Errorf("Velocity(%d).Dynamic() = %q, want %q", c.raw, got, c.dynamic)
		}
	}
}

func TestVelocityZeroIsNoteOffEquivalent(t *testing.T) {
	v, err := NewVelocity(0)
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsNoteOffEquivalent() {
		t.Error("velocity 0 should be note-off equivalent")
	}
	v, err = NewVelocity(1)
	if err != nil {
		t.Fatal(err)
	}
	if v.IsNoteOffEquivalent() {
		t.Error("velocity 1 should not be note-off equivalent")
	}
}

func TestPitchBendRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("AsI16 after PitchBendFromI16 returns the original value", prop.ForAll(
		func(v int16) bool {
			if v < -8192 {
				v = -8192
			}
			if v > 8191 {
				v = 8191
			}
			pb := PitchBendFromI16(v)
			return pb.AsI16() == v && pb.Combined() <= 16383
		},
		gen.Int16(),
	))

	properties.TestingRun(t)
}
