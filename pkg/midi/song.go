package midi

import "sort"

// SongID uniquely identifies a Song submitted to a sequencer.
type SongID uint64

// defaultMicrosPerQuarterNote is the tempo assumed when a file never sends
// a tempo meta event: 120 BPM.
const defaultMicrosPerQuarterNote uint32 = 500000

// Timed pairs a value with a timestamp in microseconds from some epoch
// (song start, for a Song's events; wall-clock offset, for a sink's
// internal queue).
type Timed[T any] struct {
	TimestampMicros uint64
	Value           T
}

// Song is a flattened, time-ordered playlist built from a ParsedFile:
// every channel-voice event across every track, timestamped in
// microseconds from song start.
type Song struct {
	ID     SongID
	Looped bool
	Paused bool
	Events []Timed[ChannelVoiceMessage]
}

// microsPerTick derives the constant tick duration for a parsed file: the
// first Tempo meta event found across any track (tracks sharing one
// timeline in formats 0 and 1 may carry tempo on any track, conventionally
// track 0), or the 120 BPM default if none is present. An SMF's tempo map
// can in principle change mid-file; this toolkit treats tempo as a single
// file-wide scalar, matching how the fixture corpus encodes it (one tempo
// meta near the top of the first track).
func microsPerTick(f *ParsedFile) float64 {
	micros := defaultMicrosPerQuarterNote
	for _, track := range f.Tracks {
		if track.Info.Tempo != nil {
			micros = track.Info.Tempo.MicrosecondsPerQuarterNote
			break
		}
	}
	return f.Header.MicrosPerTick(micros)
}

// smpteStartOffsetMicros returns the microsecond offset implied by the
// first SMPTE offset meta event found across any track, or 0 if none is
// present.
func smpteStartOffsetMicros(f *ParsedFile) uint64 {
	for _, track := range f.Tracks {
		off := track.Info.SMPTEOffset
		if off == nil {
			continue
		}
		fps := 30.0
		switch off.Rate {
		case FPS24:
			fps = 24
		case FPS25:
			fps = 25
		case FPS29_97:
			fps = 29.97
		case FPS30:
			fps = 30
		}
		seconds := float64(off.Hour)*3600 + float64(off.Minute)*60 + float64(off.Second) + float64(off.Frame)/fps
		return uint64(seconds * 1_000_000)
	}
	return 0
}

// SongFromFile flattens a ParsedFile into a playable Song: every
// channel-voice event from every track, timestamped in microseconds from
// song start (accumulated_ticks × µs_per_tick, plus any SMPTE start
// offset), sorted by timestamp. Non-channel-voice live events (system
// common/real-time) carried in a track's event list are dropped — a Song
// is playable channel-voice content only.
func SongFromFile(f *ParsedFile, id SongID, looped bool, paused bool) Song {
	tickMicros := microsPerTick(f)
	base := smpteStartOffsetMicros(f)

	var events []Timed[ChannelVoiceMessage]
	for _, track := range f.Tracks {
		for _, te := range track.Events {
			cv, ok := te.Event.(ChannelVoiceLiveEvent)
			if !ok {
				continue
			}
			ts := base + uint64(float64(te.AccumulatedTicks)*tickMicros)
			events = append(events, Timed[ChannelVoiceMessage]{TimestampMicros: ts, Value: cv.Message})
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].TimestampMicros < events[j].TimestampMicros
	})

	return Song{ID: id, Looped: looped, Paused: paused, Events: events}
}

// Length returns the timestamp of a song's last event, the duration of
// one loop iteration. A song with no events has length 0.
func (s Song) Length() uint64 {
	if len(s.Events) == 0 {
		return 0
	}
	return s.Events[len(s.Events)-1].TimestampMicros
}
