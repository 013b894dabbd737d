// Command midixplay is a demo player: it loads a SoundFont and a Standard
// MIDI File, renders the file through the wavetable synthesizer, and plays
// it back through the system's audio output.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/zurustar/go-midix/internal/logging"
	"github.com/zurustar/go-midix/pkg/midi"
	"github.com/zurustar/go-midix/pkg/sink"
	"github.com/zurustar/go-midix/pkg/soundfont"
	"github.com/zurustar/go-midix/pkg/synth"
)

const sampleRate = 44100

func main() {
	soundfontPath := flag.String("soundfont", "", "path to a .sf2 SoundFont file")
	midiPath := flag.String("midi", "", "path to a Standard MIDI File to play")
	loop := flag.Bool("loop", false, "repeat the file once it finishes")
	logLevel := flag.String("log-level", "info", "debug|info|warn|error")
	flag.Parse()

	if err := logging.Init(*logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "midixplay: %v\n", err)
		os.Exit(1)
	}
	log := logging.Get()

	if *soundfontPath == "" || *midiPath == "" {
		fmt.Fprintln(os.Stderr, "usage: midixplay --soundfont FILE.sf2 --midi FILE.mid [--loop]")
		os.Exit(1)
	}

	if err := run(*soundfontPath, *midiPath, *loop); err != nil {
		log.Error("midixplay failed", "error", err)
		os.Exit(1)
	}
}

func run(soundfontPath, midiPath string, loop bool) error {
	log := logging.Get()

	sfFile, err := os.Open(soundfontPath)
	if err != nil {
		return fmt.Errorf("opening soundfont: %w", err)
	}
	defer sfFile.Close()

	sf, err := soundfont.Read(sfFile)
	if err != nil {
		return fmt.Errorf("reading soundfont: %w", err)
	}
	log.Info("loaded soundfont", "name", sf.Name, "presets", len(sf.Presets))

	midiBytes, err := os.ReadFile(midiPath)
	if err != nil {
		return fmt.Errorf("reading midi file: %w", err)
	}
	parsed, err := midi.Parse(midiBytes)
	if err != nil {
		return fmt.Errorf("parsing midi file: %w", err)
	}
	song := midi.SongFromFile(parsed, midi.SongID(1), loop, false)
	log.Info("parsed song", "events", len(song.Events), "looped", song.Looped, "length_micros", song.Length())

	synthesizer := synth.NewSynthesizer(sf, synth.DefaultSettings(sampleRate))
	seq := sink.New()

	if !seq.Send(sink.NewSong{ID: song.ID, Looped: song.Looped, Events: song.Events}) {
		return fmt.Errorf("sequencer intake is full")
	}
	// This demo submits exactly one song and issues no further commands,
	// so the intake can close immediately: Tick reports done once every
	// queued (and, for a looped song, endlessly re-enqueued) event has
	// drained through Out.
	seq.Close()

	doneCh := make(chan struct{})
	go dispatchLoop(seq, synthesizer, doneCh)

	ctx := audio.NewContext(sampleRate)
	stream := &midiPlayerStream{synth: synthesizer}
	player, err := ctx.NewPlayer(stream)
	if err != nil {
		return fmt.Errorf("creating audio player: %w", err)
	}
	player.Play()

	<-doneCh
	player.Close()
	log.Info("playback finished", "dropped", seq.Dropped())
	return nil
}

// dispatchLoop polls the sequencer and forwards due messages into the
// synthesizer's channel-voice message dispatch, until the sequencer
// reports its intake closed and drained.
func dispatchLoop(seq *sink.Sink, synthesizer *synth.Synthesizer, doneCh chan<- struct{}) {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		for drained := false; !drained; {
			select {
			case msg := <-seq.Out:
				deliver(synthesizer, msg)
			default:
				drained = true
			}
		}
		if seq.Tick() {
			close(doneCh)
			return
		}
	}
}

func deliver(synthesizer *synth.Synthesizer, msg midi.ChannelVoiceMessage) {
	raw := msg.Bytes()
	if len(raw) < 2 {
		return
	}
	data1 := raw[1]
	var data2 byte
	if len(raw) > 2 {
		data2 = raw[2]
	}
	synthesizer.ProcessMidiMessage(int(msg.Channel), msg.Event.CommandNibble(), data1, data2)
}
