package midi

import "fmt"

// MetaType is the second byte of a meta message (0xFF <type> <len> <data>).
type MetaType byte

const (
	MetaSequenceNumber    MetaType = 0x00
	MetaText              MetaType = 0x01
	MetaCopyright         MetaType = 0x02
	MetaTrackName         MetaType = 0x03
	MetaInstrumentName    MetaType = 0x04
	MetaLyric             MetaType = 0x05
	MetaMarker            MetaType = 0x06
	MetaCuePoint          MetaType = 0x07
	MetaProgramName       MetaType = 0x08
	MetaDeviceName        MetaType = 0x09
	MetaChannelPrefix     MetaType = 0x20
	MetaMIDIPort          MetaType = 0x21
	MetaEndOfTrack        MetaType = 0x2F
	MetaTempo             MetaType = 0x51
	MetaSMPTEOffset       MetaType = 0x54
	MetaTimeSignature     MetaType = 0x58
	MetaKeySignature      MetaType = 0x59
	MetaSequencerSpecific MetaType = 0x7F
)

// MetaMessage is the decoded body of a 0xFF meta event.
type MetaMessage interface {
	isMeta()
	Type() MetaType
}

// Text covers every meta type whose payload is a free-form byte string:
// text, copyright, track/instrument/program/device name, lyric, marker,
// cue point. It wraps the raw bytes and exposes charset-aware decoding
// via Decode.
type Text struct {
	kind MetaType
	Raw  []byte
}

func (Text) isMeta()          {}
func (t Text) Type() MetaType { return t.kind }

func newText(kind MetaType, raw []byte) Text { return Text{kind: kind, Raw: raw} }

// SequenceNumber is meta type 0x00.
type SequenceNumber struct{ Number uint16 }

func (SequenceNumber) isMeta()      {}
func (SequenceNumber) Type() MetaType { return MetaSequenceNumber }

// ChannelPrefix is meta type 0x20.
type ChannelPrefix struct{ Channel Channel }

func (ChannelPrefix) isMeta()        {}
func (ChannelPrefix) Type() MetaType { return MetaChannelPrefix }

// MIDIPort is meta type 0x21.
type MIDIPort struct{ Port byte }

func (MIDIPort) isMeta()        {}
func (MIDIPort) Type() MetaType { return MetaMIDIPort }

// EndOfTrack is meta type 0x2F: mandatory, zero-length, the last event of
// every track.
type EndOfTrack struct{}

func (EndOfTrack) isMeta()        {}
func (EndOfTrack) Type() MetaType { return MetaEndOfTrack }

// Tempo is meta type 0x51: microseconds per quarter note.
type Tempo struct{ MicrosecondsPerQuarterNote uint32 }

func (Tempo) isMeta()        {}
func (Tempo) Type() MetaType { return MetaTempo }

// BPM returns the tempo expressed in quarter notes per minute.
func (t Tempo) BPM() float64 {
	if t.MicrosecondsPerQuarterNote == 0 {
		return 0
	}
	return 60000000.0 / float64(t.MicrosecondsPerQuarterNote)
}

// FrameRate is the SMPTE frame rate family named by an SMPTE offset or the
// header's negative-division timing field.
type FrameRate int

const (
	FPS24 FrameRate = iota
	FPS25
	FPS29_97
	FPS30
)

func (f FrameRate) String() string {
	switch f {
	case FPS24:
		return "24fps"
	case FPS25:
		return "25fps"
	case FPS29_97:
		return "29.97fps"
	case FPS30:
		return "30fps"
	default:
		return "unknown-fps"
	}
}

// SMPTEOffset is meta type 0x54.
type SMPTEOffset struct {
	Rate     FrameRate
	Hour     byte
	Minute   byte
	Second   byte
	Frame    byte
	Subframe byte
}

func (SMPTEOffset) isMeta()        {}
func (SMPTEOffset) Type() MetaType { return MetaSMPTEOffset }

// TimeSignature is meta type 0x58.
type TimeSignature struct {
	Numerator   byte
	Denominator byte // as a power of two, e.g. 2 means quarter note
	ClocksPerClick byte
	ThirtySecondNotesPerQuarter byte
}

func (TimeSignature) isMeta()        {}
func (TimeSignature) Type() MetaType { return MetaTimeSignature }

// KeySignature is meta type 0x59.
type KeySignature struct {
	SharpsFlats int8 // negative = flats, positive = sharps
	Minor       bool
}

func (KeySignature) isMeta()        {}
func (KeySignature) Type() MetaType { return MetaKeySignature }

// SequencerSpecific is meta type 0x7F: vendor-defined payload.
type SequencerSpecific struct{ Data []byte }

func (SequencerSpecific) isMeta()        {}
func (SequencerSpecific) Type() MetaType { return MetaSequencerSpecific }

// decodeMeta dispatches on metaType and decodes payload, the meta
// message's raw data bytes (after the type byte and length VLQ).
func decodeMeta(metaType byte, payload []byte) (MetaMessage, error) {
	mt := MetaType(metaType)
	switch mt {
	case MetaSequenceNumber:
		if len(payload) != 2 {
			return nil, &ParseError{Kind: ErrInvalidLength, Message: fmt.Sprintf("sequence number expects 2 bytes, got %d", len(payload))}
		}
		return SequenceNumber{Number: uint16(payload[0])<<8 | uint16(payload[1])}, nil

	case MetaText, MetaCopyright, MetaTrackName, MetaInstrumentName,
		MetaLyric, MetaMarker, MetaCuePoint, MetaProgramName, MetaDeviceName:
		return newText(mt, payload), nil

	case MetaChannelPrefix:
		if len(payload) != 1 {
			return nil, &ParseError{Kind: ErrMetaChannelCount, Message: fmt.Sprintf("channel prefix expects 1 byte, got %d", len(payload))}
		}
		ch, err := NewChannel(payload[0])
		if err != nil {
			return nil, &ParseError{Kind: ErrMetaChannelCount, Message: err.Error()}
		}
		return ChannelPrefix{Channel: ch}, nil

	case MetaMIDIPort:
		if len(payload) != 1 {
			return nil, &ParseError{Kind: ErrMetaPort, Message: fmt.Sprintf("MIDI port expects 1 byte, got %d", len(payload))}
		}
		return MIDIPort{Port: payload[0]}, nil

	case MetaEndOfTrack:
		if len(payload) != 0 {
			return nil, &ParseError{Kind: ErrInvalidLength, Message: fmt.Sprintf("end-of-track expects 0 bytes, got %d", len(payload))}
		}
		return EndOfTrack{}, nil

	case MetaTempo:
		if len(payload) != 3 {
			return nil, &ParseError{Kind: ErrInvalidLength, Message: fmt.Sprintf("tempo expects 3 bytes, got %d", len(payload))}
		}
		v := uint32(payload[0])<<16 | uint32(payload[1])<<8 | uint32(payload[2])
		return Tempo{MicrosecondsPerQuarterNote: v}, nil

	case MetaSMPTEOffset:
		return decodeSMPTEOffset(payload)

	case MetaTimeSignature:
		if len(payload) != 4 {
			return nil, &ParseError{Kind: ErrMetaTimeSignature, Message: fmt.Sprintf("time signature expects 4 bytes, got %d", len(payload))}
		}
		return TimeSignature{
			Numerator:                   payload[0],
			Denominator:                 payload[1],
			ClocksPerClick:              payload[2],
			ThirtySecondNotesPerQuarter: payload[3],
		}, nil

	case MetaKeySignature:
		if len(payload) != 2 {
			return nil, &ParseError{Kind: ErrMetaKeySignature, Message: fmt.Sprintf("key signature expects 2 bytes, got %d", len(payload))}
		}
		return KeySignature{SharpsFlats: int8(payload[0]), Minor: payload[1] != 0}, nil

	case MetaSequencerSpecific:
		return SequencerSpecific{Data: payload}, nil

	default:
		// Unrecognized meta type: carried as sequencer-specific-shaped
		// opaque data rather than failing the whole parse.
		return SequencerSpecific{Data: payload}, nil
	}
}

func decodeSMPTEOffset(payload []byte) (MetaMessage, error) {
	if len(payload) != 5 {
		return nil, &ParseError{Kind: ErrSmpteLength, Message: fmt.Sprintf("SMPTE offset expects 5 bytes, got %d", len(payload))}
	}
	rateBits := (payload[0] >> 5) & 0x03
	hour := payload[0] & 0x1F
	minute := payload[1]
	second := payload[2]
	frame := payload[3]
	subframe := payload[4]

	var rate FrameRate
	switch rateBits {
	case 0:
		rate = FPS24
	case 1:
		rate = FPS25
	case 2:
		rate = FPS29_97
	case 3:
		rate = FPS30
	default:
		return nil, &ParseError{Kind: ErrSmpteHeaderFrameTime, Message: "invalid SMPTE frame-rate bits"}
	}
	if hour > 24 {
		return nil, &ParseError{Kind: ErrSmpteHourOffset, Message: fmt.Sprintf("hour %d exceeds 24", hour)}
	}
	if minute > 59 {
		return nil, &ParseError{Kind: ErrSmpteMinuteOffset, Message: fmt.Sprintf("minute %d exceeds 59", minute)}
	}
	if second > 59 {
		return nil, &ParseError{Kind: ErrSmpteSecondOffset, Message: fmt.Sprintf("second %d exceeds 59", second)}
	}
	if subframe > 99 {
		return nil, &ParseError{Kind: ErrSmpteSubframe, Message: fmt.Sprintf("subframe %d exceeds 99", subframe)}
	}
	return SMPTEOffset{Rate: rate, Hour: hour, Minute: minute, Second: second, Frame: frame, Subframe: subframe}, nil
}
