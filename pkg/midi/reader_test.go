package midi

import (
	"testing"
)

// buildFixture assembles a minimal single-track format-0 SMF: a time
// signature and tempo meta, three program changes, two notes struck
// together, two more notes struck 96 ticks apart (at ticks 96 and 192),
// all four notes released 192 ticks after the last strike, and a
// mandatory end-of-track.
func buildFixture() []byte {
	header := []byte{
		'M', 'T', 'h', 'd', 0x00, 0x00, 0x00, 0x06,
		0x00, 0x00, // format 0
		0x00, 0x01, // 1 track
		0x00, 0x60, // 96 ticks per quarter note
	}

	var track []byte
	appendVLQ := func(v uint32) { track = append(track, EncodeVLQ(v)...) }

	appendVLQ(0)
	track = append(track, 0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08) // 4/4 time signature
	appendVLQ(0)
	track = append(track, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20) // 120 BPM tempo

	appendVLQ(0)
	track = append(track, 0xC0, 0x05) // program change ch1 -> 5
	appendVLQ(0)
	track = append(track, 0xC1, 0x2E) // program change ch2 -> 46
	appendVLQ(0)
	track = append(track, 0xC2, 0x46) // program change ch3 -> 70

	appendVLQ(0)
	track = append(track, 0x90, 0x30, 0x40) // note on C3 ch1
	appendVLQ(0)
	track = append(track, 0x3C, 0x40) // note on C4 ch1 (running status)

	appendVLQ(96)
	track = append(track, 0x43, 0x40) // note on G4 ch1 (running status)
	appendVLQ(96)
	track = append(track, 0x4C, 0x40) // note on E5 ch1 (running status)

	appendVLQ(192)
	track = append(track, 0x30, 0x00) // note off C3 ch1 (running status NoteOn vel 0)
	appendVLQ(0)
	track = append(track, 0x3C, 0x00) // note off C4 ch1
	appendVLQ(0)
	track = append(track, 0x43, 0x00) // note off G4 ch1
	appendVLQ(0)
	track = append(track, 0x4C, 0x00) // note off E5 ch1

	appendVLQ(0)
	track = append(track, 0xFF, 0x2F, 0x00) // end of track

	trackHeader := []byte{'M', 'T', 'r', 'k',
		byte(len(track) >> 24), byte(len(track) >> 16), byte(len(track) >> 8), byte(len(track))}

	out := append([]byte{}, header...)
	out = append(out, trackHeader...)
	out = append(out, track...)
	return out
}

func TestParseFixture(t *testing.T) {
	file, err := Parse(buildFixture())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if file.Header.Format != FormatSingleTrack {
		t.Errorf("Format = %v, want FormatSingleTrack", file.Header.Format)
	}
	mt, ok := file.Header.Timing.(MetricTicks)
	if !ok || mt.TicksPerQuarterNote != 96 {
		t.Errorf("Timing = %#v, want MetricTicks{96}", file.Header.Timing)
	}
	if len(file.Tracks) != 1 {
		t.Fatalf("got %d tracks, want 1", len(file.Tracks))
	}

	track := file.Tracks[0]
	if track.Info.Tempo == nil || track.Info.Tempo.MicrosecondsPerQuarterNote != 500000 {
		t.Errorf("Tempo = %#v, want 500000", track.Info.Tempo)
	}

	// Meta events (time signature, tempo, and the mandatory end-of-track)
	// join the track's event list alongside channel-voice events, in
	// wire order.
	wantTicks := []uint32{0, 0, 0, 0, 0, 0, 0, 96, 192, 384, 384, 384, 384, 384}
	if len(track.Events) != len(wantTicks) {
		t.Fatalf("got %d events, want %d", len(track.Events), len(wantTicks))
	}
	for i, want := range wantTicks {
		if got := track.Events[i].AccumulatedTicks; got != want {
			t.Errorf("event %d: AccumulatedTicks = %d, want %d", i, got, want)
		}
	}

	last := track.Events[len(track.Events)-1]
	meta, ok := last.Event.(MetaLiveEvent)
	if !ok {
		t.Fatalf("last event is %T, want MetaLiveEvent", last.Event)
	}
	if _, isEndOfTrack := meta.Message.(EndOfTrack); !isEndOfTrack {
		t.Errorf("last event is meta type %T, want EndOfTrack", meta.Message)
	}
}

func TestParseFormat0RejectsExtraTracks(t *testing.T) {
	fixture := buildFixture()
	// Append a second, bogus MTrk chunk onto a format-0 file.
	extra := []byte{'M', 'T', 'r', 'k', 0x00, 0x00, 0x00, 0x03, 0x00, 0xFF, 0x2F}
	_, err := Parse(append(fixture, extra...))
	if err == nil {
		t.Fatal("expected an error for a second track in a format-0 file")
	}
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != ErrChunkMultipleTracksForSingleMultiChannel {
		t.Fatalf("got %v, want ErrChunkMultipleTracksForSingleMultiChannel", err)
	}
}

func TestSongFromFixture(t *testing.T) {
	file, err := Parse(buildFixture())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	song := SongFromFile(file, SongID(1), false, false)

	if len(song.Events) != 11 {
		t.Fatalf("got %d song events, want 11", len(song.Events))
	}
	// 96 ticks at 500000us/96ticks = 5208.33us/tick -> 96 ticks = 500000us.
	wantFirstG4Micros := uint64(500000)
	found := false
	for _, ev := range song.Events {
		if ev.TimestampMicros == wantFirstG4Micros {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected an event timestamped at %d microseconds (96 ticks in)", wantFirstG4Micros)
	}
	if song.Length() != 2000000 {
		t.Errorf("Length() = %d, want 2000000 (384 ticks at 500000us/quarter-note)", song.Length())
	}
}
