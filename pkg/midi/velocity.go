package midi

// Velocity is a 7-bit note-on/note-off velocity, 0..127.
type Velocity struct{ b DataByte }

// NewVelocity validates b as a velocity.
func NewVelocity(b byte) (Velocity, error) {
	db, err := NewDataByte(b)
	if err != nil {
		return Velocity{}, err
	}
	return Velocity{b: db}, nil
}

func velocityUnchecked(b byte) Velocity { return Velocity{b: dataByteUnchecked(b)} }

// Byte returns the raw velocity.
func (v Velocity) Byte() byte { return v.b.Byte() }

// IsNoteOffEquivalent reports whether a note-on at this velocity should be
// treated as a note-off (velocity 0).
func (v Velocity) IsNoteOffEquivalent() bool { return v.Byte() == 0 }

var dynamicMarkings = [...]string{"ppp", "pp", "p", "mp", "mf", "f", "ff", "fff"}

// Dynamic classifies a nonzero velocity into one of the classical dynamic
// markings by equal-width bucketing of 1..127 into len(dynamicMarkings)
// buckets. Velocity 0 (silence) classifies as "ppp".
func (v Velocity) Dynamic() string {
	raw := int(v.Byte())
	if raw <= 0 {
		return dynamicMarkings[0]
	}
	bucket := (raw - 1) * len(dynamicMarkings) / 127
	if bucket >= len(dynamicMarkings) {
		bucket = len(dynamicMarkings) - 1
	}
	return dynamicMarkings[bucket]
}
