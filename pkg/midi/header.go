package midi

import "fmt"

// Format is the SMF header's format field.
type Format uint16

const (
	// FormatSingleTrack (0): a single multi-channel track.
	FormatSingleTrack Format = 0
	// FormatMultiTrack (1): multiple simultaneous tracks sharing one timeline.
	FormatMultiTrack Format = 1
	// FormatSequentialTracks (2): multiple sequentially independent patterns.
	FormatSequentialTracks Format = 2
)

func (f Format) String() string {
	switch f {
	case FormatSingleTrack:
		return "single-track"
	case FormatMultiTrack:
		return "multi-track"
	case FormatSequentialTracks:
		return "sequential-tracks"
	default:
		return fmt.Sprintf("Format(%d)", uint16(f))
	}
}

// Timing is the SMF header's division field: either ticks-per-quarter-note
// or a negative-SMPTE frame rate with ticks-per-frame.
type Timing interface {
	isTiming()
}

// MetricTicks is a 15-bit ticks-per-quarter-note timing division.
type MetricTicks struct {
	TicksPerQuarterNote uint16
}

func (MetricTicks) isTiming() {}

// SMPTETiming is a negative-SMPTE timing division.
type SMPTETiming struct {
	FramesPerSecond FrameRate
	TicksPerFrame   byte
}

func (SMPTETiming) isTiming() {}

// decodeTiming decodes the header's 16-bit division field.
func decodeTiming(division uint16) (Timing, error) {
	if division&0x8000 == 0 {
		return MetricTicks{TicksPerQuarterNote: division & 0x7FFF}, nil
	}
	negFPS := int8(byte(division >> 8))
	ticksPerFrame := byte(division & 0xFF)
	var rate FrameRate
	switch -negFPS {
	case 24:
		rate = FPS24
	case 25:
		rate = FPS25
	case 29:
		rate = FPS29_97
	case 30:
		rate = FPS30
	default:
		return nil, &ParseError{Kind: ErrHeaderInvalidTiming, Message: fmt.Sprintf("unrecognized SMPTE frame rate byte %d", negFPS)}
	}
	return SMPTETiming{FramesPerSecond: rate, TicksPerFrame: ticksPerFrame}, nil
}

// Header is the decoded contents of the SMF header (MThd) chunk.
type Header struct {
	Format     Format
	NumTracks  uint16
	Timing     Timing
}

// MicrosPerTick returns the duration of one tick in microseconds, given
// the tempo in effect (microseconds per quarter note). For SMPTE timing
// it derives the tick duration from the frame rate and ticks per frame,
// ignoring tempo meta events (SMPTE timing is tempo-independent).
func (h Header) MicrosPerTick(microsPerQuarterNote uint32) float64 {
	switch t := h.Timing.(type) {
	case MetricTicks:
		if t.TicksPerQuarterNote == 0 {
			return 0
		}
		return float64(microsPerQuarterNote) / float64(t.TicksPerQuarterNote)
	case SMPTETiming:
		fps := 30.0
		switch t.FramesPerSecond {
		case FPS24:
			fps = 24
		case FPS25:
			fps = 25
		case FPS29_97:
			fps = 29.97
		case FPS30:
			fps = 30
		}
		if t.TicksPerFrame == 0 {
			return 0
		}
		return 1000000.0 / (fps * float64(t.TicksPerFrame))
	default:
		return 0
	}
}
