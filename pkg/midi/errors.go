package midi

import "fmt"

// ErrorKind enumerates every failure mode the reader and primitive
// constructors can raise.
type ErrorKind int

const (
	ErrInvalidDataByte ErrorKind = iota
	ErrInvalidStatusByte
	ErrInvalidLength
	ErrMissingData
	ErrInvalidSystemCommonMessage
	ErrInvalidChannel
	ErrInvalidUTF8

	ErrMetaChannelCount
	ErrMetaPort
	ErrMetaTimeSignature
	ErrMetaKeySignature

	ErrHeaderMultiTracksInSingleMultiChannel
	ErrHeaderInvalidMidiFormat
	ErrHeaderInvalidTiming
	ErrHeaderInvalidSize

	ErrChunkDuplicateHeader
	ErrChunkDuplicateFormat
	ErrChunkMultipleTracksForSingleMultiChannel

	ErrTrackEventInvalidEvent

	ErrFileNoFormat
	ErrFileNoTiming

	ErrSmpteHourOffset
	ErrSmpteMinuteOffset
	ErrSmpteSecondOffset
	ErrSmpteFrameOffset
	ErrSmpteSubframe
	ErrSmpteLength
	ErrSmpteTrackFrame
	ErrSmpteHeaderFrameTime
)

var errorKindNames = map[ErrorKind]string{
	ErrInvalidDataByte:                           "InvalidDataByte",
	ErrInvalidStatusByte:                         "InvalidStatusByte",
	ErrInvalidLength:                             "InvalidLength",
	ErrMissingData:                               "MissingData",
	ErrInvalidSystemCommonMessage:                "InvalidSystemCommonMessage",
	ErrInvalidChannel:                            "InvalidChannel",
	ErrInvalidUTF8:                               "InvalidUtf8",
	ErrMetaChannelCount:                          "MetaMessage(ChannelCount)",
	ErrMetaPort:                                  "MetaMessage(Port)",
	ErrMetaTimeSignature:                         "MetaMessage(TimeSignature)",
	ErrMetaKeySignature:                          "MetaMessage(KeySignature)",
	ErrHeaderMultiTracksInSingleMultiChannel:      "Header(MultiTracksInSingleMultiChannel)",
	ErrHeaderInvalidMidiFormat:                   "Header(InvalidMidiFormat)",
	ErrHeaderInvalidTiming:                       "Header(InvalidTiming)",
	ErrHeaderInvalidSize:                         "Header(InvalidSize)",
	ErrChunkDuplicateHeader:                      "Chunk(DuplicateHeader)",
	ErrChunkDuplicateFormat:                      "Chunk(DuplicateFormat)",
	ErrChunkMultipleTracksForSingleMultiChannel:  "Chunk(MultipleTracksForSingleMultiChannel)",
	ErrTrackEventInvalidEvent:                    "TrackEvent(InvalidEvent)",
	ErrFileNoFormat:                              "File(NoFormat)",
	ErrFileNoTiming:                              "File(NoTiming)",
	ErrSmpteHourOffset:                           "Smpte(HourOffset)",
	ErrSmpteMinuteOffset:                         "Smpte(MinuteOffset)",
	ErrSmpteSecondOffset:                         "Smpte(SecondOffset)",
	ErrSmpteFrameOffset:                          "Smpte(FrameOffset)",
	ErrSmpteSubframe:                             "Smpte(Subframe)",
	ErrSmpteLength:                               "Smpte(Length)",
	ErrSmpteTrackFrame:                           "Smpte(TrackFrame)",
	ErrSmpteHeaderFrameTime:                      "Smpte(HeaderFrameTime)",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ParseError is returned by every reader operation that fails. It always
// carries the absolute byte offset at which the failure occurred.
type ParseError struct {
	Offset  uint64
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("midi: %s at offset %d: %s", e.Kind, e.Offset, e.Message)
	}
	return fmt.Sprintf("midi: %s at offset %d", e.Kind, e.Offset)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// withOffset sets Offset on err in place and returns it, if err is a
// *ParseError that does not already carry one; any other error is
// returned unchanged.
func withOffset(err error, offset uint64) error {
	if pe, ok := err.(*ParseError); ok && pe.Offset == 0 {
		pe.Offset = offset
		return pe
	}
	return err
}
