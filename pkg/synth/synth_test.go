package synth

import (
	"math"
	"testing"

	"github.com/zurustar/go-midix/pkg/soundfont"
)

func oneRegionSoundFont(pan int16, exclusiveClass int16) *soundfont.SoundFont {
	instGen := soundfont.NewGeneratorSet()
	instGen.Set(soundfont.GenSampleID, soundfont.GenAmountFromRaw(0))
	if exclusiveClass != 0 {
		instGen.Set(soundfont.GenExclusiveClass, soundfont.GenAmountFromRaw(uint16(exclusiveClass)))
	}
	presetGen := soundfont.NewGeneratorSet()
	presetGen.Set(soundfont.GenInstrument, soundfont.GenAmountFromRaw(0))
	presetGen.Set(soundfont.GenPan, soundfont.GenAmountFromRaw(uint16(pan)))

	data := make([]int16, 256)
	for i := range data {
		data[i] = int16(16000 * math.Sin(float64(i)/8))
	}

	return &soundfont.SoundFont{
		Samples: []soundfont.Sample{{
			Name: "test", Data: data, SampleRate: 44100, OriginalPitch: 60,
		}},
		Instruments: []soundfont.Instrument{{
			Name: "inst", Zones: []soundfont.Zone{{Generators: instGen}},
		}},
		Presets: []soundfont.Preset{{
			Name: "preset", Bank: 0, Program: 0,
			Zones: []soundfont.Zone{{Generators: presetGen}},
		}},
	}
}

func TestNoteOnProducesNonSilentAudio(t *testing.T) {
	sf := oneRegionSoundFont(0, 0)
	s := NewSynthesizer(sf, DefaultSettings(44100))
	s.NoteOn(0, 60, 100)

	left := make([]float32, 256)
	right := make([]float32, 256)
	s.Render(left, right)

	nonZero := false
	for _, v := range left {
		if v != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		t.Error("expected non-silent output after NoteOn")
	}
}

func TestPanHardLeftSilencesRightChannel(t *testing.T) {
	// The soundfont's own Pan generator is left at its default (center);
	// the CC10 pan controller alone should steer the voice hard left.
	sf := oneRegionSoundFont(0, 0)
	s := NewSynthesizer(sf, DefaultSettings(44100))
	s.NoteOn(0, 60, 100)
	s.ProcessMidiMessage(0, 0xB, 10, 0) // ControlChange(0, pan=0): hard left

	left := make([]float32, 256)
	right := make([]float32, 256)
	s.Render(left, right)

	var sumLeft, sumRight float64
	for _, v := range left {
		sumLeft += math.Abs(float64(v))
	}
	for _, v := range right {
		sumRight += math.Abs(float64(v))
	}
	if sumRight > 1e-3*sumLeft {
		t.Errorf("sum|right| = %v, want <= 1e-3 * sum|left| (%v) for hard-left pan", sumRight, 1e-3*sumLeft)
	}
	if sumLeft == 0 {
		t.Error("expected non-zero left channel for hard-left pan")
	}
}

func TestExclusiveClassKillsPriorVoiceOnSameChannel(t *testing.T) {
	sf := oneRegionSoundFont(0, 5)
	s := NewSynthesizer(sf, DefaultSettings(44100))
	s.NoteOn(0, 60, 100)
	if len(s.voices) != 1 {
		t.Fatalf("expected 1 voice after first NoteOn, got %d", len(s.voices))
	}
	first := s.voices[0]

	s.NoteOn(0, 64, 100) // same exclusive class, should finish the first voice
	if first.state != voiceFinished {
		t.Error("expected the first voice to be marked finished by the exclusive-class rule")
	}
}

func TestVoiceStealingPrefersLowestPriority(t *testing.T) {
	sf := oneRegionSoundFont(0, 0)
	settings := DefaultSettings(44100)
	settings.VoiceCapacity = 2
	s := NewSynthesizer(sf, settings)

	s.NoteOn(0, 60, 100)
	s.NoteOn(0, 62, 100)
	if len(s.voices) != 2 {
		t.Fatalf("expected pool to fill to capacity 2, got %d", len(s.voices))
	}

	// Force the first voice toward the bottom of the priority order.
	s.voices[0].state = voiceReleasing

	s.NoteOn(0, 64, 100) // pool is full; must steal, not grow
	if len(s.voices) != 2 {
		t.Fatalf("expected pool to stay at capacity 2 after stealing, got %d", len(s.voices))
	}
	foundNewKey := false
	for _, v := range s.voices {
		if v.key == 64 {
			foundNewKey = true
		}
	}
	if !foundNewKey {
		t.Error("expected the stolen slot to now carry the newly requested key")
	}
}

func TestResetSilencesVoicesAndChannels(t *testing.T) {
	sf := oneRegionSoundFont(0, 0)
	s := NewSynthesizer(sf, DefaultSettings(44100))
	s.NoteOn(0, 60, 100)
	s.ProcessMidiMessage(0, 0xB, 7, 50) // channel volume

	s.Reset()
	if len(s.voices) != 0 {
		t.Errorf("expected no voices after Reset, got %d", len(s.voices))
	}
	if s.channels[0].channelVolume != 100 {
		t.Errorf("expected channel volume reset to default 100, got %d", s.channels[0].channelVolume)
	}
}
