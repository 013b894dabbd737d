package synth

import "math"

// envelopeStage is one of the six stages a SoundFont envelope generator
// moves through in order, or stageDone once the envelope has released to
// silence or fallen below the audible threshold.
type envelopeStage int

const (
	stageDelay envelopeStage = iota
	stageAttack
	stageHold
	stageDecay
	stageSustain
	stageRelease
	stageDone
)

// nonAudible is the value below which a decaying or releasing envelope is
// considered inaudible and the owning voice is finished.
const nonAudible = 2e-5

// envelopeTimes holds the six SoundFont envelope generators already
// converted from timecents to seconds (delay/attack/hold/decay/release)
// and from centibels to a linear ratio (sustain).
type envelopeTimes struct {
	delay, attack, hold, decay, release float64
	sustain                             float64 // 0 (silent) .. 1 (full)
}

// timecentsToSeconds converts a SoundFont "timecents" generator value to
// seconds: seconds = 2^(timecents/1200).
func timecentsToSeconds(timecents int16) float64 {
	if timecents <= -32768 {
		return 0
	}
	return math.Exp2(float64(timecents) / 1200)
}

// centibelsToRatio converts an attenuation in centibels to a linear
// amplitude ratio: ratio = 10^(-centibels/200).
func centibelsToRatio(centibels int16) float64 {
	return math.Pow(10, -float64(centibels)/200)
}

// keyScaledSeconds applies the generator key-scaling rule:
// 2^((60-key)*scale/1200) multiplied onto a base duration in seconds.
func keyScaledSeconds(base float64, key uint8, scaleCents int16) float64 {
	if scaleCents == 0 {
		return base
	}
	return base * math.Exp2(float64(60-int(key))*float64(scaleCents)/1200)
}

// envelope tracks one running instance (volume or modulation) of the
// six-stage generator for a single voice.
type envelope struct {
	times        envelopeTimes
	linear       bool // true for the modulation envelope's linear ramps
	stage        envelopeStage
	stageSamples uint64 // samples elapsed within the current stage
	sampleRate   float64
	releaseLevel float64
	value        float64
}

func newEnvelope(times envelopeTimes, linear bool, sampleRate float64) *envelope {
	return &envelope{times: times, linear: linear, stage: stageDelay, sampleRate: sampleRate}
}

func (e *envelope) stageLengthSamples(stage envelopeStage) uint64 {
	var seconds float64
	switch stage {
	case stageDelay:
		seconds = e.times.delay
	case stageAttack:
		seconds = e.times.attack
	case stageHold:
		seconds = e.times.hold
	case stageDecay:
		seconds = e.times.decay
	case stageRelease:
		seconds = e.times.release
	default:
		return 0
	}
	return uint64(seconds * e.sampleRate)
}

// advance steps the envelope forward n samples and returns its value at
// the end of that span, in [0,1].
func (e *envelope) advance(n uint64) float64 {
	for i := uint64(0); i < n; i++ {
		e.tick()
	}
	return e.value
}

func (e *envelope) tick() {
	switch e.stage {
	case stageDelay:
		e.value = 0
		if e.stageSamples >= e.stageLengthSamples(stageDelay) {
			e.stage = stageAttack
			e.stageSamples = 0
			return
		}
	case stageAttack:
		length := e.stageLengthSamples(stageAttack)
		if length == 0 {
			e.value = 1
		} else {
			e.value = float64(e.stageSamples) / float64(length)
		}
		if e.stageSamples >= length {
			e.stage = stageHold
			e.stageSamples = 0
			e.value = 1
			return
		}
	case stageHold:
		e.value = 1
		if e.stageSamples >= e.stageLengthSamples(stageHold) {
			e.stage = stageDecay
			e.stageSamples = 0
			return
		}
	case stageDecay:
		length := e.stageLengthSamples(stageDecay)
		e.value = e.decayShape(e.stageSamples, length, 1, e.times.sustain)
		if e.stageSamples >= length || e.value <= e.times.sustain {
			e.stage = stageSustain
			e.stageSamples = 0
			e.value = e.times.sustain
			if e.value < nonAudible {
				e.stage = stageDone
			}
			return
		}
	case stageSustain:
		e.value = e.times.sustain
		if e.value < nonAudible {
			e.stage = stageDone
		}
		return
	case stageRelease:
		length := e.stageLengthSamples(stageRelease)
		e.value = e.decayShape(e.stageSamples, length, e.releaseLevel, 0)
		if e.stageSamples >= length || e.value < nonAudible {
			e.stage = stageDone
			e.value = 0
			return
		}
	case stageDone:
		e.value = 0
		return
	}
	e.stageSamples++
}

// decayShape computes the value between from and to at elapsed/length
// progress through a decay or release stage: linear for the modulation
// envelope, exponential (perceptually linear in dB) for the volume
// envelope.
func (e *envelope) decayShape(elapsed, length uint64, from, to float64) float64 {
	if length == 0 {
		return to
	}
	t := float64(elapsed) / float64(length)
	if t > 1 {
		t = 1
	}
	if e.linear {
		return from + (to-from)*t
	}
	// exp(-9.226*t) decays from 1 to ~1e-4 over t in [0,1]; rescale into
	// [from,to].
	shape := math.Exp(-9.226 * t)
	return to + (from-to)*shape
}

// release begins the release stage, recording the current value as the
// level the release ramp decays from.
func (e *envelope) release() {
	if e.stage == stageDone {
		return
	}
	e.releaseLevel = e.value
	e.stage = stageRelease
	e.stageSamples = 0
}

func (e *envelope) finished() bool { return e.stage == stageDone }
