package synth

import (
	"math"

	"github.com/zurustar/go-midix/pkg/soundfont"
)

// voiceState ranks a voice's lifecycle stage for stealing priority, in
// ascending "steal me first" order.
type voiceState int

const (
	voiceFinished voiceState = iota
	voiceReleasing
	voicePlaying
)

// voice is one sounding instance of a RegionPair: an oscillator reading
// one sample, its two envelopes, two LFOs, and a per-voice filter.
type voice struct {
	channel        int
	key            uint8
	velocity       uint8
	exclusiveClass int16

	region soundfont.RegionPair
	osc    *oscillator
	volEnv *envelope
	modEnv *envelope
	modLFO *lfo
	vibLFO *lfo
	filter *biquadLowPass

	panAngle float64

	sampleRate    float64
	outputRate    float64
	rootKeyOffset float64 // semitones to add for key-tracking, incl. scale tuning

	sustainHeld     bool
	releaseDeferred bool

	state voiceState
}

func (v *voice) priority() (voiceState, float64) {
	if v.state == voiceFinished || v.volEnv.finished() {
		return voiceFinished, 0
	}
	return v.state, v.volEnv.value
}

// lessPriority reports whether v is a worse candidate to keep than other,
// i.e. v should be stolen before other: Finished < Releasing <
// Playing-low-amplitude < Playing-high-amplitude.
func (v *voice) lessPriority(other *voice) bool {
	vs, vv := v.priority()
	os, ov := other.priority()
	if vs != os {
		return vs < os
	}
	return vv < ov
}

func (v *voice) markReleaseRequested() {
	if v.sustainHeld {
		v.releaseDeferred = true
		return
	}
	v.volEnv.release()
	v.modEnv.release()
	v.osc.release()
	v.state = voiceReleasing
}

func (v *voice) liftSustain() {
	v.sustainHeld = false
	if v.releaseDeferred {
		v.releaseDeferred = false
		v.markReleaseRequested()
	}
}

// initialAttenuationRatio returns the linear gain from the region's
// initialAttenuation generator (centibels).
func (v *voice) initialAttenuationRatio() float64 {
	cb := v.region.Generators.Int16(soundfont.GenInitialAttenuation, 0)
	return centibelsToRatio(cb)
}

// panRatio returns the left/right gain for this voice, combining the
// region's static Pan generator with the channel's live CC10 pan
// controller (both in the same -500..500 tenths-of-a-percent scale,
// clamped to that range once summed).
func (v *voice) panRatio(channelPanUnits int16) (left, right float64) {
	pan := int(v.region.Generators.Int16(soundfont.GenPan, 0)) + int(channelPanUnits)
	if pan > 500 {
		pan = 500
	} else if pan < -500 {
		pan = -500
	}
	angle := (float64(pan) + 500) / 1000 * (math.Pi / 2)
	return math.Cos(angle), math.Sin(angle)
}

// renderBlock synthesizes n samples into scratch, applying oscillator,
// filter, volume-envelope amplitude, and the channel's live volume
// controller, and advances all per-voice clocks. It returns false once
// the voice has finished and should be reclaimed.
func (v *voice) renderBlock(scratch []float64, pitchBendSemitones, modWheelDepth, channelVolumeRatio float64) bool {
	n := len(scratch)
	modDepthCents := v.region.Generators.Int16(soundfont.GenModLfoToPitch, 0)
	vibDepthCents := v.region.Generators.Int16(soundfont.GenVibLfoToPitch, 0)
	modEnvToPitch := v.region.Generators.Int16(soundfont.GenModEnvToPitch, 0)
	cutoffCents := v.region.Generators.Int16(soundfont.GenInitialFilterFc, 13500)
	qCentibels := v.region.Generators.Int16(soundfont.GenInitialFilterQ, 0)
	modEnvToFilter := v.region.Generators.Int16(soundfont.GenModEnvToFilterFc, 0)

	attenuation := v.initialAttenuationRatio() * channelVolumeRatio

	for i := 0; i < n; i++ {
		modVal := v.modLFO.value()
		vibVal := v.vibLFO.value()
		modEnvVal := v.modEnv.advance(1)
		volEnvVal := v.volEnv.advance(1)

		pitchCents := modVal*float64(modDepthCents) + vibVal*float64(vibDepthCents) + modEnvVal*float64(modEnvToPitch)
		semitones := v.rootKeyOffset + pitchBendSemitones + pitchCents/100

		ratio := pitchRatio(v.sampleRate, v.outputRate, semitones)
		sample, alive := v.osc.next(pitchRatioFixed(ratio))
		if !alive {
			v.state = voiceFinished
		}

		cutoffHz := 8.176 * math.Exp2((float64(cutoffCents)+modEnvVal*float64(modEnvToFilter))/1200)
		v.filter.setParams(cutoffHz, float64(qCentibels)/10)
		sample = v.filter.process(sample)

		scratch[i] = sample * volEnvVal * attenuation

		if v.volEnv.finished() {
			v.state = voiceFinished
		}
	}
	return v.state != voiceFinished
}
