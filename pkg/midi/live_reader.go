package midi

import (
	"bufio"
	"io"
)

// LiveReader decodes a live MIDI byte stream: channel-voice messages with
// running status, system-common messages (including sysex), and
// system-real-time messages that may be interleaved inside any other
// message without disturbing running status.
type LiveReader struct {
	r             *bufio.Reader
	offset        uint64
	runningStatus byte
	pending       []LiveEvent
}

// NewLiveReader wraps r for live-stream decoding.
func NewLiveReader(r io.Reader) *LiveReader {
	return &LiveReader{r: bufio.NewReader(r)}
}

func (lr *LiveReader) readByte() (byte, error) {
	b, err := lr.r.ReadByte()
	if err != nil {
		return 0, err
	}
	lr.offset++
	return b, nil
}

// readDataByte reads the next byte, transparently diverting any
// system-real-time byte (0xF8..0xFF) it encounters into the pending
// queue instead of treating it as the data byte being requested.
func (lr *LiveReader) readDataByte() (byte, error) {
	for {
		b, err := lr.readByte()
		if err != nil {
			return 0, err
		}
		if b >= 0xF8 {
			lr.pending = append(lr.pending, SystemRealTimeLiveEvent{Message: SystemRealTimeMessage(b)})
			continue
		}
		return b, nil
	}
}

// ReadEvent decodes the next LiveEvent from the stream.
func (lr *LiveReader) ReadEvent() (LiveEvent, error) {
	if len(lr.pending) > 0 {
		ev := lr.pending[0]
		lr.pending = lr.pending[1:]
		return ev, nil
	}

	b, err := lr.readByte()
	if err != nil {
		return nil, err
	}

	switch {
	case b >= 0xF8:
		return SystemRealTimeLiveEvent{Message: SystemRealTimeMessage(b)}, nil

	case b == 0xF0:
		lr.runningStatus = 0
		var data []byte
		for {
			nb, err := lr.readByte()
			if err != nil {
				return nil, withOffset(&ParseError{Kind: ErrMissingData, Message: "unterminated system-exclusive message"}, lr.offset)
			}
			if nb >= 0xF8 {
				lr.pending = append(lr.pending, SystemRealTimeLiveEvent{Message: SystemRealTimeMessage(nb)})
				continue
			}
			if nb == 0xF7 {
				break
			}
			data = append(data, nb)
		}
		return SystemCommonLiveEvent{Message: SysEx{Data: data}}, nil

	case b == 0xF1:
		lr.runningStatus = 0
		data, err := lr.readDataByte()
		if err != nil {
			return nil, withOffset(err, lr.offset)
		}
		return SystemCommonLiveEvent{Message: Undefined{Status: b, Data: []byte{data}}}, nil

	case b == 0xF2:
		lr.runningStatus = 0
		lsb, err := lr.readDataByte()
		if err != nil {
			return nil, withOffset(err, lr.offset)
		}
		msb, err := lr.readDataByte()
		if err != nil {
			return nil, withOffset(err, lr.offset)
		}
		pos := uint16(lsb&0x7F) | (uint16(msb&0x7F) << 7)
		return SystemCommonLiveEvent{Message: SongPositionPointer{Position: pos}}, nil

	case b == 0xF3:
		lr.runningStatus = 0
		song, err := lr.readDataByte()
		if err != nil {
			return nil, withOffset(err, lr.offset)
		}
		return SystemCommonLiveEvent{Message: SongSelect{Song: dataByteUnchecked(song)}}, nil

	case b == 0xF4 || b == 0xF5:
		lr.runningStatus = 0
		return SystemCommonLiveEvent{Message: Undefined{Status: b}}, nil

	case b == 0xF6:
		lr.runningStatus = 0
		return SystemCommonLiveEvent{Message: TuneRequest{}}, nil

	case b == 0xF7:
		// Stray sysex-continuation terminator with no opener: treat as
		// an empty system-common escape rather than failing the stream.
		lr.runningStatus = 0
		return SystemCommonLiveEvent{Message: SysEx{}}, nil

	case b&0x80 != 0:
		// Channel-voice status byte.
		return lr.readChannelVoice(b)

	default:
		// Data byte with no running status to reuse.
		if lr.runningStatus == 0 {
			return nil, &ParseError{Offset: lr.offset, Kind: ErrInvalidStatusByte, Message: "data byte received with no active running status"}
		}
		return lr.readChannelVoiceData(lr.runningStatus, b)
	}
}

func (lr *LiveReader) readChannelVoice(status byte) (LiveEvent, error) {
	lr.runningStatus = status
	first, err := lr.readDataByte()
	if err != nil {
		return nil, withOffset(err, lr.offset)
	}
	return lr.readChannelVoiceData(status, first)
}

func (lr *LiveReader) readChannelVoiceData(status, data1 byte) (LiveEvent, error) {
	var data2 byte
	if DataLen(status&0xF0) == 2 {
		b, err := lr.readDataByte()
		if err != nil {
			return nil, withOffset(err, lr.offset)
		}
		data2 = b
	}
	msg, err := DecodeChannelVoice(status, data1, data2)
	if err != nil {
		return nil, withOffset(err, lr.offset)
	}
	return ChannelVoiceLiveEvent{Message: msg}, nil
}
