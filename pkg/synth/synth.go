// Package synth is a real-time SoundFont-2 wavetable synthesizer: a
// bounded-capacity voice pool driven by channel-voice messages on one
// side and a block-rendering audio callback on the other.
package synth

import (
	"math"
	"sync"

	"github.com/zurustar/go-midix/pkg/soundfont"
)

const defaultVoiceCapacity = 64

// Settings configures a Synthesizer at construction time.
type Settings struct {
	SampleRate    int
	VoiceCapacity int
	MasterVolume  float32
}

// DefaultSettings returns the settings the teacher's own MIDI playback
// path uses: the given sample rate, 64 voices, unity master volume.
func DefaultSettings(sampleRate int) Settings {
	return Settings{SampleRate: sampleRate, VoiceCapacity: defaultVoiceCapacity, MasterVolume: 1}
}

// Synthesizer renders audio from a SoundFont bank and a stream of
// channel-voice messages. All exported methods are safe to call from
// concurrent goroutines (the audio callback and the message-intake
// goroutine in particular). A note-on allocates the new voice and its
// oscillator, envelopes, LFOs and filter, and Render allocates its scratch
// buffer whenever a block is longer than any rendered before.
type Synthesizer struct {
	mu sync.Mutex

	sf       *soundfont.SoundFont
	settings Settings
	voices   []*voice
	channels [16]*channelState
	sampleClock uint64
	scratch     []float64 // reused across Render calls to avoid per-block allocation
}

// NewSynthesizer binds a synthesizer to sf with the given settings,
// pre-allocating its voice pool.
func NewSynthesizer(sf *soundfont.SoundFont, settings Settings) *Synthesizer {
	if settings.VoiceCapacity <= 0 {
		settings.VoiceCapacity = defaultVoiceCapacity
	}
	if settings.MasterVolume == 0 {
		settings.MasterVolume = 1
	}
	s := &Synthesizer{sf: sf, settings: settings, voices: make([]*voice, 0, settings.VoiceCapacity)}
	for i := range s.channels {
		s.channels[i] = newChannelState()
	}
	return s
}

// Reset silences all voices and resets every channel's controller state.
func (s *Synthesizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voices = s.voices[:0]
	for i := range s.channels {
		s.channels[i].reset()
	}
}

// NoteOn is a convenience wrapper over ProcessMidiMessage for command
// nibble 0x9.
func (s *Synthesizer) NoteOn(channel int, key, velocity uint8) {
	s.ProcessMidiMessage(channel, 0x9, key, velocity)
}

// NoteOff is a convenience wrapper over ProcessMidiMessage for command
// nibble 0x8.
func (s *Synthesizer) NoteOff(channel int, key uint8) {
	s.ProcessMidiMessage(channel, 0x8, key, 0)
}

// ProcessMidiMessage applies one channel-voice message. Safe to call from
// the audio callback thread. A note-on allocates the voice it starts;
// the other messages do not allocate.
func (s *Synthesizer) ProcessMidiMessage(channel int, commandNibble, data1, data2 byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if channel < 0 || channel >= len(s.channels) {
		return
	}
	ch := s.channels[channel]

	switch commandNibble {
	case 0x8:
		s.releaseNotes(channel, data1)
	case 0x9:
		if data2 == 0 {
			s.releaseNotes(channel, data1)
		} else {
			s.startNote(channel, data1, data2)
		}
	case 0xA:
		for _, v := range s.voices {
			if v.channel == channel && v.key == data1 {
				v.velocity = data2
			}
		}
	case 0xB:
		s.controlChange(channel, data1, data2)
	case 0xC:
		ch.program = data1
	case 0xD:
		ch.aftertouch = data1
	case 0xE:
		ch.pitchBend = uint16(data1) | uint16(data2)<<7
	}
}

func (s *Synthesizer) controlChange(channel int, controller, value byte) {
	ch := s.channels[channel]
	switch controller {
	case 0:
		ch.bankMSB = value
	case 32:
		ch.bankLSB = value
	case 7:
		ch.channelVolume = value
	case 10:
		ch.pan = value
	case 64:
		held := value >= 64
		if ch.sustainPedal && !held {
			for _, v := range s.voices {
				if v.channel == channel {
					v.liftSustain()
				}
			}
		}
		ch.sustainPedal = held
	case 120, 123:
		s.killChannelVoices(channel)
	case 121:
		ch.reset()
	}
}

func (s *Synthesizer) releaseNotes(channel int, key byte) {
	ch := s.channels[channel]
	for _, v := range s.voices {
		if v.channel == channel && v.key == key && v.state == voicePlaying {
			v.sustainHeld = ch.sustainPedal
			v.markReleaseRequested()
		}
	}
}

func (s *Synthesizer) killChannelVoices(channel int) {
	for _, v := range s.voices {
		if v.channel == channel {
			v.state = voiceFinished
		}
	}
}

// startNote implements region selection (4.3.2) and voice allocation with
// stealing (4.3.3).
func (s *Synthesizer) startNote(channel int, key, velocity uint8) {
	if s.sf == nil {
		return
	}
	ch := s.channels[channel]
	preset, ok := s.sf.FindPreset(ch.bank(channel), uint16(ch.program))
	if !ok {
		return
	}
	regions := s.sf.MatchRegions(preset, key, velocity)
	for _, region := range regions {
		s.killExclusiveClass(channel, region)
		v := s.allocateVoice()
		if v == nil {
			continue
		}
		s.initVoice(v, channel, key, velocity, region)
	}
}

func (s *Synthesizer) killExclusiveClass(channel int, region soundfont.RegionPair) {
	class := region.Generators.Int16(soundfont.GenExclusiveClass, 0)
	if class == 0 {
		return
	}
	for _, v := range s.voices {
		if v.channel == channel && v.exclusiveClass == class {
			v.state = voiceFinished
		}
	}
}

// allocateVoice returns an idle slot if the pool has room, otherwise
// steals the lowest-priority voice; never grows the pool past capacity.
func (s *Synthesizer) allocateVoice() *voice {
	if len(s.voices) < s.settings.VoiceCapacity {
		v := &voice{}
		s.voices = append(s.voices, v)
		return v
	}
	worst := s.voices[0]
	for _, v := range s.voices[1:] {
		if v.lessPriority(worst) {
			worst = v
		}
	}
	return worst
}

func (s *Synthesizer) initVoice(v *voice, channel int, key, velocity uint8, region soundfont.RegionPair) {
	sampleRate := float64(s.settings.SampleRate)
	sfSampleRate := float64(region.Sample.SampleRate)

	rootKey := region.Sample.OriginalPitch
	if a, ok := region.Generators.Get(soundfont.GenOverridingRootKey); ok && a.AsUint16() != 0xFFFF {
		rootKey = uint8(a.AsUint16())
	}
	scaleTuning := region.Generators.Int16(soundfont.GenScaleTuning, 100)
	coarseTune := region.Generators.Int16(soundfont.GenCoarseTune, 0)
	fineTune := region.Generators.Int16(soundfont.GenFineTune, 0)
	semitoneOffset := float64(int(key)-int(rootKey))*float64(scaleTuning)/100 + float64(coarseTune) + float64(fineTune)/100

	mode := loopNone
	switch region.Generators.Uint16(soundfont.GenSampleModes, 0) {
	case 1:
		mode = loopContinuous
	case 3:
		mode = loopContinuousUntilRelease
	}

	volTimes := envelopeTimes{
		delay:   timecentsToSeconds(region.Generators.Int16(soundfont.GenDelayVolEnv, -12000)),
		attack:  timecentsToSeconds(region.Generators.Int16(soundfont.GenAttackVolEnv, -12000)),
		hold:    keyScaledSeconds(timecentsToSeconds(region.Generators.Int16(soundfont.GenHoldVolEnv, -12000)), key, region.Generators.Int16(soundfont.GenKeynumToVolEnvHold, 0)),
		decay:   keyScaledSeconds(timecentsToSeconds(region.Generators.Int16(soundfont.GenDecayVolEnv, -12000)), key, region.Generators.Int16(soundfont.GenKeynumToVolEnvDecay, 0)),
		release: timecentsToSeconds(region.Generators.Int16(soundfont.GenReleaseVolEnv, -12000)),
		sustain: 1 - float64(region.Generators.Int16(soundfont.GenSustainVolEnv, 0))/1000,
	}
	modTimes := envelopeTimes{
		delay: timecentsToSeconds(region.Generators.Int16(soundfont.GenDelayModEnv, -12000)),
		// Per TinySoundFont convention, the modulation envelope's attack time
		// is scaled by note-on velocity: harder strikes reach peak faster.
		attack:  timecentsToSeconds(region.Generators.Int16(soundfont.GenAttackModEnv, -12000)) * (145 - float64(velocity)) / 144,
		hold:    keyScaledSeconds(timecentsToSeconds(region.Generators.Int16(soundfont.GenHoldModEnv, -12000)), key, region.Generators.Int16(soundfont.GenKeynumToModEnvHold, 0)),
		decay:   keyScaledSeconds(timecentsToSeconds(region.Generators.Int16(soundfont.GenDecayModEnv, -12000)), key, region.Generators.Int16(soundfont.GenKeynumToModEnvDecay, 0)),
		release: timecentsToSeconds(region.Generators.Int16(soundfont.GenReleaseModEnv, -12000)),
		sustain: 1 - float64(region.Generators.Int16(soundfont.GenSustainModEnv, 0))/1000,
	}

	modLFODelay := timecentsToSeconds(region.Generators.Int16(soundfont.GenDelayModLFO, -12000))
	modLFOFreq := 8.176 * math.Exp2(float64(region.Generators.Int16(soundfont.GenFreqModLFO, 0))/1200)
	vibLFODelay := timecentsToSeconds(region.Generators.Int16(soundfont.GenDelayVibLFO, -12000))
	vibLFOFreq := 8.176 * math.Exp2(float64(region.Generators.Int16(soundfont.GenFreqVibLFO, 0))/1200)

	*v = voice{
		channel:        channel,
		key:            key,
		velocity:       velocity,
		exclusiveClass: region.Generators.Int16(soundfont.GenExclusiveClass, 0),
		region:         region,
		osc:            newOscillator(region.Sample.Data, region.Sample.LoopStart, region.Sample.LoopEnd, mode),
		volEnv:         newEnvelope(volTimes, false, sampleRate),
		modEnv:         newEnvelope(modTimes, true, sampleRate),
		modLFO:         newLFO(modLFODelay, modLFOFreq, sampleRate),
		vibLFO:         newLFO(vibLFODelay, vibLFOFreq, sampleRate),
		filter:         newBiquadLowPass(sampleRate),
		sampleRate:     sfSampleRate,
		outputRate:     sampleRate,
		rootKeyOffset:  semitoneOffset,
		state:          voicePlaying,
	}
}

// Render fills left and right — which must be equal-length — with the
// next len(left) samples, advancing the synth's sample clock by that
// amount.
func (s *Synthesizer) Render(left, right []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	for i := 0; i < n; i++ {
		left[i], right[i] = 0, 0
	}

	if cap(s.scratch) < n {
		s.scratch = make([]float64, n)
	}
	scratch := s.scratch[:n]

	alive := s.voices[:0]
	for _, v := range s.voices {
		ch := s.channels[v.channel]
		stillAlive := v.renderBlock(scratch, ch.pitchBendSemitones(), 0, ch.volumeRatio())
		l, r := v.panRatio(ch.panGeneratorUnits())
		for i := 0; i < n; i++ {
			left[i] += float32(scratch[i] * l)
			right[i] += float32(scratch[i] * r)
		}
		if stillAlive {
			alive = append(alive, v)
		}
	}
	s.voices = alive

	master := s.settings.MasterVolume
	for i := 0; i < n; i++ {
		left[i] *= master
		right[i] *= master
	}
	s.sampleClock += uint64(n)
}

// SampleClock returns the total number of samples rendered so far.
func (s *Synthesizer) SampleClock() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleClock
}
