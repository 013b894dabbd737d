package midi

import "fmt"

// Channel is a MIDi channel number, 0..15.
type Channel uint8

// NewChannel validates ch as a channel number.
func NewChannel(ch byte) (Channel, error) {
	if ch > 15 {
		return 0, &ParseError{Kind: ErrInvalidChannel, Message: fmt.Sprintf("channel %d out of range 0..15", ch)}
	}
	return Channel(ch), nil
}

// Program is a 7-bit program-change number, 0..127.
type Program struct{ b DataByte }

// NewProgram validates b as a program number.
func NewProgram(b byte) (Program, error) {
	db, err := NewDataByte(b)
	if err != nil {
		return Program{}, err
	}
	return Program{b: db}, nil
}

func programUnchecked(b byte) Program { return Program{b: dataByteUnchecked(b)} }

// Byte returns the raw program number.
func (p Program) Byte() byte { return p.b.Byte() }

// VoiceEvent is the tagged union of channel-voice message bodies:
// NoteOff, NoteOn, Aftertouch, ControlChange, ProgramChange,
// ChannelPressure, and PitchBend.
type VoiceEvent interface {
	isVoiceEvent()
	// CommandNibble returns the high nibble of the status byte this event
	// encodes to (0x8.._0xE.), independent of channel.
	CommandNibble() byte
}

// NoteOff is a key-release event. A NoteOn with velocity 0 is
// observationally equivalent to NoteOff — that equivalence is applied by
// callers (e.g. the synthesizer), not by the data model itself.
type NoteOff struct {
	Key      Key
	Velocity Velocity
}

func (NoteOff) isVoiceEvent()        {}
func (NoteOff) CommandNibble() byte  { return 0x80 }

// NoteOn is a key-press event.
type NoteOn struct {
	Key      Key
	Velocity Velocity
}

func (NoteOn) isVoiceEvent()       {}
func (NoteOn) CommandNibble() byte { return 0x90 }

// Aftertouch is per-key (polyphonic) pressure.
type Aftertouch struct {
	Key      Key
	Velocity Velocity
}

func (Aftertouch) isVoiceEvent()       {}
func (Aftertouch) CommandNibble() byte { return 0xA0 }

// ControlChangeEvent carries a Controller update.
type ControlChangeEvent struct {
	Controller Controller
}

func (ControlChangeEvent) isVoiceEvent()       {}
func (ControlChangeEvent) CommandNibble() byte { return 0xB0 }

// ProgramChangeEvent selects a new program (patch) on a channel.
type ProgramChangeEvent struct {
	Program Program
}

func (ProgramChangeEvent) isVoiceEvent()       {}
func (ProgramChangeEvent) CommandNibble() byte { return 0xC0 }

// ChannelPressureEvent is channel-wide (monophonic) pressure.
type ChannelPressureEvent struct {
	Velocity Velocity
}

func (ChannelPressureEvent) isVoiceEvent()       {}
func (ChannelPressureEvent) CommandNibble() byte { return 0xD0 }

// PitchBendEvent carries a 14-bit pitch-bend value.
type PitchBendEvent struct {
	Bend PitchBend
}

func (PitchBendEvent) isVoiceEvent()       {}
func (PitchBendEvent) CommandNibble() byte { return 0xE0 }

// ChannelVoiceMessage is a channel-voice event addressed to one of the 16
// MIDI channels.
type ChannelVoiceMessage struct {
	Channel Channel
	Event   VoiceEvent
}

// IsNoteOffEquivalent reports whether m is a NoteOff, or a NoteOn with
// velocity 0 (semantically equivalent to NoteOff).
func (m ChannelVoiceMessage) IsNoteOffEquivalent() (key Key, ok bool) {
	switch ev := m.Event.(type) {
	case NoteOff:
		return ev.Key, true
	case NoteOn:
		if ev.Velocity.IsNoteOffEquivalent() {
			return ev.Key, true
		}
	}
	return Key{}, false
}

// Bytes encodes m as raw live-stream bytes: one status byte followed by
// its data bytes. It never uses running status.
func (m ChannelVoiceMessage) Bytes() []byte {
	status := m.Event.CommandNibble() | byte(m.Channel)
	switch ev := m.Event.(type) {
	case NoteOff:
		return []byte{status, ev.Key.Byte(), ev.Velocity.Byte()}
	case NoteOn:
		return []byte{status, ev.Key.Byte(), ev.Velocity.Byte()}
	case Aftertouch:
		return []byte{status, ev.Key.Byte(), ev.Velocity.Byte()}
	case ControlChangeEvent:
		return []byte{status, byte(ev.Controller.Number), ev.Controller.Value.Byte()}
	case ProgramChangeEvent:
		return []byte{status, ev.Program.Byte()}
	case ChannelPressureEvent:
		return []byte{status, ev.Velocity.Byte()}
	case PitchBendEvent:
		return []byte{status, ev.Bend.LSB(), ev.Bend.MSB()}
	default:
		return nil
	}
}

// DataLen returns the number of data bytes that follow the status byte
// for a channel-voice command nibble (1 for program-change and
// channel-pressure, 2 otherwise).
func DataLen(commandNibble byte) int {
	switch commandNibble {
	case 0xC0, 0xD0:
		return 1
	default:
		return 2
	}
}

// DecodeChannelVoice builds a ChannelVoiceMessage from a status byte and
// its 1-2 data bytes (data2 is ignored for single-data-byte commands).
func DecodeChannelVoice(status byte, data1, data2 byte) (ChannelVoiceMessage, error) {
	ch, err := NewChannel(status & 0x0F)
	if err != nil {
		return ChannelVoiceMessage{}, err
	}
	d1, err := NewDataByte(data1)
	if err != nil {
		return ChannelVoiceMessage{}, err
	}
	nibble := status & 0xF0
	var event VoiceEvent
	switch nibble {
	case 0x80:
		v, err := NewDataByte(data2)
		if err != nil {
			return ChannelVoiceMessage{}, err
		}
		event = NoteOff{Key: keyUnchecked(d1.Byte()), Velocity: velocityUnchecked(v.Byte())}
	case 0x90:
		v, err := NewDataByte(data2)
		if err != nil {
			return ChannelVoiceMessage{}, err
		}
		event = NoteOn{Key: keyUnchecked(d1.Byte()), Velocity: velocityUnchecked(v.Byte())}
	case 0xA0:
		v, err := NewDataByte(data2)
		if err != nil {
			return ChannelVoiceMessage{}, err
		}
		event = Aftertouch{Key: keyUnchecked(d1.Byte()), Velocity: velocityUnchecked(v.Byte())}
	case 0xB0:
		v, err := NewDataByte(data2)
		if err != nil {
			return ChannelVoiceMessage{}, err
		}
		event = ControlChangeEvent{Controller: controllerUnchecked(d1.Byte(), v.Byte())}
	case 0xC0:
		event = ProgramChangeEvent{Program: programUnchecked(d1.Byte())}
	case 0xD0:
		event = ChannelPressureEvent{Velocity: velocityUnchecked(d1.Byte())}
	case 0xE0:
		v, err := NewDataByte(data2)
		if err != nil {
			return ChannelVoiceMessage{}, err
		}
		event = PitchBendEvent{Bend: pitchBendUnchecked(d1.Byte(), v.Byte())}
	default:
		return ChannelVoiceMessage{}, &ParseError{Kind: ErrInvalidStatusByte, Message: fmt.Sprintf("0x%02X is not a channel-voice status", status)}
	}
	return ChannelVoiceMessage{Channel: ch, Event: event}, nil
}
