package midi

// NoteName is one of the twelve pitch classes.
type NoteName int

const (
	C NoteName = iota
	Cs
	D
	Ds
	E
	F
	Fs
	G
	Gs
	A
	As
	B
)

var noteNames = [...]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (n NoteName) String() string {
	if n < 0 || int(n) >= len(noteNames) {
		return "?"
	}
	return noteNames[n]
}

// Key is a 7-bit note number, 0..127.
type Key struct{ b DataByte }

// NewKey validates b as a key number.
func NewKey(b byte) (Key, error) {
	db, err := NewDataByte(b)
	if err != nil {
		return Key{}, err
	}
	return Key{b: db}, nil
}

func keyUnchecked(b byte) Key { return Key{b: dataByteUnchecked(b)} }

// Byte returns the raw key number.
func (k Key) Byte() byte { return k.b.Byte() }

// Note returns the pitch class of the key.
func (k Key) Note() NoteName { return NoteName(int(k.Byte()) % 12) }

// Octave returns the octave the key falls in, with key 12 landing in
// octave 0 (so key 0 is octave -1, and key 60, middle C, is octave 4).
func (k Key) Octave() int8 { return int8(int(k.Byte())/12 - 1) }
