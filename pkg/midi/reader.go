package midi

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// FileEvent is the tagged union streamed out of Reader.ReadEvent: one SMF
// chunk header, one track chunk header, one track event, an unrecognized
// chunk, or end-of-file.
type FileEvent interface {
	isFileEvent()
}

// HeaderFileEvent carries the decoded MThd chunk.
type HeaderFileEvent struct{ Header Header }

func (HeaderFileEvent) isFileEvent() {}

// TrackHeaderFileEvent announces the start of an MTrk chunk of the given
// byte length.
type TrackHeaderFileEvent struct{ Length uint32 }

func (TrackHeaderFileEvent) isFileEvent() {}

// TrackEventFileEvent carries one delta-time-prefixed event from inside
// the current track.
type TrackEventFileEvent struct{ Event TrackEvent }

func (TrackEventFileEvent) isFileEvent() {}

// UnknownFileEvent announces a chunk whose tag is neither MThd nor MTrk;
// its bytes are consumed and discarded.
type UnknownFileEvent struct {
	Tag    string
	Length uint32
}

func (UnknownFileEvent) isFileEvent() {}

// EOFFileEvent is returned once the input is exhausted; every call after
// the first EOFFileEvent also returns EOFFileEvent.
type EOFFileEvent struct{}

func (EOFFileEvent) isFileEvent() {}

type parseState int

const (
	stateInit parseState = iota
	stateInsideFile
	stateInsideTrack
	stateDone
)

// Reader is a stateful, streaming decoder over an SMF byte source. It
// tracks a monotonic byte offset, the current chunk-parsing state, and
// (while inside a track) the running status byte.
type Reader struct {
	r              *bufio.Reader
	offset         uint64
	state          parseState
	header         Header
	haveHeader     bool
	trackCount     int
	trackRemaining uint32
	runningStatus  byte
}

// NewReader wraps r for streaming SMF decoding.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r), state: stateInit}
}

func (rd *Reader) readByte() (byte, error) {
	b, err := rd.r.ReadByte()
	if err != nil {
		return 0, err
	}
	rd.offset++
	return b, nil
}

func (rd *Reader) readBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(rd.r, buf)
	rd.offset += uint64(read)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (rd *Reader) readUint16() (uint16, error) {
	b, err := rd.readBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func (rd *Reader) readUint32() (uint32, error) {
	b, err := rd.readBytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

func (rd *Reader) readTag() (string, error) {
	b, err := rd.readBytes(4)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadEvent decodes and returns the next FileEvent from the stream.
func (rd *Reader) ReadEvent() (FileEvent, error) {
	switch rd.state {
	case stateInit:
		return rd.readHeaderChunk()
	case stateInsideFile:
		return rd.readChunkHeader()
	case stateInsideTrack:
		return rd.readInsideTrack()
	default:
		return EOFFileEvent{}, nil
	}
}

func (rd *Reader) readHeaderChunk() (FileEvent, error) {
	tag, err := rd.readTag()
	if err != nil {
		return nil, &ParseError{Offset: rd.offset, Kind: ErrFileNoFormat, Message: "missing MThd header chunk"}
	}
	if tag != "MThd" {
		return nil, &ParseError{Offset: rd.offset, Kind: ErrFileNoFormat, Message: fmt.Sprintf("expected MThd, found %q", tag)}
	}
	length, err := rd.readUint32()
	if err != nil {
		return nil, &ParseError{Offset: rd.offset, Kind: ErrHeaderInvalidSize, Message: "truncated header length"}
	}
	if length != 6 {
		return nil, &ParseError{Offset: rd.offset, Kind: ErrHeaderInvalidSize, Message: fmt.Sprintf("header length must be 6, got %d", length)}
	}
	formatRaw, err := rd.readUint16()
	if err != nil {
		return nil, &ParseError{Offset: rd.offset, Kind: ErrHeaderInvalidMidiFormat, Message: "truncated format field"}
	}
	if formatRaw > 2 {
		return nil, &ParseError{Offset: rd.offset, Kind: ErrHeaderInvalidMidiFormat, Message: fmt.Sprintf("format %d is not 0, 1, or 2", formatRaw)}
	}
	ntracks, err := rd.readUint16()
	if err != nil {
		return nil, &ParseError{Offset: rd.offset, Kind: ErrHeaderInvalidSize, Message: "truncated track count"}
	}
	division, err := rd.readUint16()
	if err != nil {
		return nil, &ParseError{Offset: rd.offset, Kind: ErrHeaderInvalidTiming, Message: "truncated division field"}
	}
	timing, err := decodeTiming(division)
	if err != nil {
		return nil, withOffset(err, rd.offset)
	}
	format := Format(formatRaw)
	if format == FormatSingleTrack && ntracks != 1 {
		return nil, &ParseError{Offset: rd.offset, Kind: ErrHeaderMultiTracksInSingleMultiChannel, Message: fmt.Sprintf("format 0 requires exactly one track, header declares %d", ntracks)}
	}
	rd.header = Header{Format: format, NumTracks: ntracks, Timing: timing}
	rd.haveHeader = true
	rd.state = stateInsideFile
	return HeaderFileEvent{Header: rd.header}, nil
}

func (rd *Reader) readChunkHeader() (FileEvent, error) {
	tag, err := rd.readTag()
	if err != nil {
		if err == io.EOF {
			rd.state = stateDone
			return EOFFileEvent{}, nil
		}
		return nil, &ParseError{Offset: rd.offset, Kind: ErrMissingData, Message: "truncated chunk tag"}
	}
	length, err := rd.readUint32()
	if err != nil {
		return nil, &ParseError{Offset: rd.offset, Kind: ErrMissingData, Message: "truncated chunk length"}
	}

	switch tag {
	case "MThd":
		return nil, &ParseError{Offset: rd.offset, Kind: ErrChunkDuplicateHeader, Message: "duplicate MThd chunk"}
	case "MTrk":
		rd.trackCount++
		if rd.header.Format == FormatSingleTrack && rd.trackCount > 1 {
			return nil, &ParseError{Offset: rd.offset, Kind: ErrChunkMultipleTracksForSingleMultiChannel, Message: "format 0 file has more than one MTrk chunk"}
		}
		rd.trackRemaining = length
		rd.runningStatus = 0
		rd.state = stateInsideTrack
		return TrackHeaderFileEvent{Length: length}, nil
	default:
		if _, err := rd.readBytes(int(length)); err != nil {
			return nil, &ParseError{Offset: rd.offset, Kind: ErrMissingData, Message: fmt.Sprintf("truncated unknown chunk %q", tag)}
		}
		return UnknownFileEvent{Tag: tag, Length: length}, nil
	}
}

func (rd *Reader) readInsideTrack() (FileEvent, error) {
	if rd.trackRemaining == 0 {
		rd.state = stateInsideFile
		return rd.ReadEvent()
	}
	before := rd.offset
	ev, err := rd.readTrackEvent()
	if err != nil {
		return nil, err
	}
	consumed := rd.offset - before
	if consumed > uint64(rd.trackRemaining) {
		rd.trackRemaining = 0
	} else {
		rd.trackRemaining -= uint32(consumed)
	}
	if _, ok := ev.Event.(TrackMeta); ok {
		if _, ok := ev.Event.(TrackMeta).Message.(EndOfTrack); ok {
			rd.state = stateInsideFile
			rd.trackRemaining = 0
		}
	}
	return TrackEventFileEvent{Event: ev}, nil
}

// readTrackEvent decodes one delta-time-prefixed track event, applying
// and updating running status.
func (rd *Reader) readTrackEvent() (TrackEvent, error) {
	delta, n, err := ReadVLQ(rd.r)
	rd.offset += uint64(n)
	if err != nil {
		return TrackEvent{}, withOffset(err, rd.offset)
	}

	b, err := rd.readByte()
	if err != nil {
		return TrackEvent{}, &ParseError{Offset: rd.offset, Kind: ErrMissingData, Message: "truncated track event"}
	}

	var status byte
	if b&0x80 != 0 {
		status = b
	} else {
		if rd.runningStatus == 0 {
			return TrackEvent{}, &ParseError{Offset: rd.offset, Kind: ErrTrackEventInvalidEvent, Message: "data byte with no running status in effect"}
		}
		status = rd.runningStatus
	}

	switch {
	case status == 0xFF:
		rd.runningStatus = 0
		msg, err := rd.readMetaBody()
		if err != nil {
			return TrackEvent{}, err
		}
		return TrackEvent{DeltaTicks: delta, Event: TrackMeta{Message: msg}}, nil

	case status == 0xF0 || status == 0xF7:
		rd.runningStatus = 0
		length, n, err := ReadVLQ(rd.r)
		rd.offset += uint64(n)
		if err != nil {
			return TrackEvent{}, withOffset(err, rd.offset)
		}
		payload, err := rd.readBytes(int(length))
		if err != nil {
			return TrackEvent{}, &ParseError{Offset: rd.offset, Kind: ErrMissingData, Message: "truncated system-exclusive event"}
		}
		kind := SysExNormal
		if status == 0xF0 {
			if n := len(payload); n > 0 && payload[n-1] == 0xF7 {
				payload = payload[:n-1]
			}
		} else {
			kind = SysExEscape
		}
		return TrackEvent{DeltaTicks: delta, Event: TrackSystemExclusive{SysEx: TrackSysEx{Kind: kind, Data: payload}}}, nil

	case status >= 0x80 && status < 0xF0:
		rd.runningStatus = status
		var data1 byte
		if b&0x80 != 0 {
			d1, err := rd.readByte()
			if err != nil {
				return TrackEvent{}, &ParseError{Offset: rd.offset, Kind: ErrMissingData, Message: "truncated channel-voice event"}
			}
			data1 = d1
		} else {
			data1 = b
		}
		var data2 byte
		if DataLen(status&0xF0) == 2 {
			d2, err := rd.readByte()
			if err != nil {
				return TrackEvent{}, &ParseError{Offset: rd.offset, Kind: ErrMissingData, Message: "truncated channel-voice event"}
			}
			data2 = d2
		}
		msg, err := DecodeChannelVoice(status, data1, data2)
		if err != nil {
			return TrackEvent{}, withOffset(err, rd.offset)
		}
		return TrackEvent{DeltaTicks: delta, Event: TrackChannelVoice{Message: msg}}, nil

	default:
		return TrackEvent{}, &ParseError{Offset: rd.offset, Kind: ErrTrackEventInvalidEvent, Message: fmt.Sprintf("0x%02X is not a valid track event status", status)}
	}
}

func (rd *Reader) readMetaBody() (MetaMessage, error) {
	metaType, err := rd.readByte()
	if err != nil {
		return nil, &ParseError{Offset: rd.offset, Kind: ErrMissingData, Message: "truncated meta event type"}
	}
	length, n, err := ReadVLQ(rd.r)
	rd.offset += uint64(n)
	if err != nil {
		return nil, withOffset(err, rd.offset)
	}
	payload, err := rd.readBytes(int(length))
	if err != nil {
		return nil, &ParseError{Offset: rd.offset, Kind: ErrMissingData, Message: "truncated meta event payload"}
	}
	msg, err := decodeMeta(metaType, payload)
	if err != nil {
		return nil, withOffset(err, rd.offset)
	}
	return msg, nil
}

// Parse eagerly decodes the entirety of data into a ParsedFile.
func Parse(data []byte) (*ParsedFile, error) {
	rd := NewReader(bytes.NewReader(data))
	var file ParsedFile
	var curTrack *ParsedTrack
	var accTicks uint32

	for {
		ev, err := rd.ReadEvent()
		if err != nil {
			return nil, err
		}
		switch e := ev.(type) {
		case HeaderFileEvent:
			file.Header = e.Header

		case TrackHeaderFileEvent:
			file.Tracks = append(file.Tracks, ParsedTrack{})
			curTrack = &file.Tracks[len(file.Tracks)-1]
			accTicks = 0

		case TrackEventFileEvent:
			if curTrack == nil {
				return nil, &ParseError{Kind: ErrTrackEventInvalidEvent, Message: "track event outside of any track"}
			}
			accTicks += e.Event.DeltaTicks
			applyTrackEvent(curTrack, accTicks, e.Event)

		case UnknownFileEvent:
			// Ignored.

		case EOFFileEvent:
			if !file.headerSeen() {
				return nil, &ParseError{Kind: ErrFileNoFormat, Message: "no MThd header chunk present"}
			}
			return &file, nil
		}
	}
}

func (f *ParsedFile) headerSeen() bool {
	return f.Header.Timing != nil
}

// applyTrackEvent folds one raw TrackEvent into a track's playable event
// list and replayed metadata.
func applyTrackEvent(track *ParsedTrack, accTicks uint32, te TrackEvent) {
	switch ev := te.Event.(type) {
	case TrackChannelVoice:
		track.Events = append(track.Events, TimedEvent{
			AccumulatedTicks: accTicks,
			Event:            ChannelVoiceLiveEvent{Message: ev.Message},
		})

	case TrackSystemExclusive:
		track.Events = append(track.Events, TimedEvent{
			AccumulatedTicks: accTicks,
			Event:            SystemCommonLiveEvent{Message: SysEx{Data: ev.SysEx.Data}},
		})

	case TrackMeta:
		switch m := ev.Message.(type) {
		case Text:
			switch m.Type() {
			case MetaTrackName:
				track.Info.Name = m.Decode()
			case MetaInstrumentName:
				track.Info.InstrumentName = m.Decode()
			case MetaDeviceName:
				track.Info.DeviceName = m.Decode()
			}
		case ChannelPrefix:
			ch := m.Channel
			track.Info.ChannelPrefix = &ch
		case Tempo:
			t := m
			track.Info.Tempo = &t
		case SMPTEOffset:
			s := m
			track.Info.SMPTEOffset = &s
		}
		// Every meta event, including EndOfTrack, also joins the track's
		// playable timeline: a track's last event is always its
		// EndOfTrack meta.
		track.Events = append(track.Events, TimedEvent{
			AccumulatedTicks: accTicks,
			Event:            MetaLiveEvent{Message: ev.Message},
		})
	}
}
