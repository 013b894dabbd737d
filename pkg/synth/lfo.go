package synth

// lfo is a per-voice triangle-wave low-frequency oscillator with a delay
// before it starts swinging, used for vibrato/modulation depth on pitch,
// filter cutoff, and volume.
type lfo struct {
	delaySamples   uint64
	phaseIncrement float64 // cycles per sample
	phase          float64
	elapsed        uint64
}

func newLFO(delaySeconds, frequencyHz, sampleRate float64) *lfo {
	return &lfo{
		delaySamples:   uint64(delaySeconds * sampleRate),
		phaseIncrement: frequencyHz / sampleRate,
	}
}

// value returns the LFO's current output in [-1, 1] and advances it by
// one sample.
func (l *lfo) value() float64 {
	if l.elapsed < l.delaySamples {
		l.elapsed++
		return 0
	}
	p := l.phase
	l.elapsed++
	l.phase += l.phaseIncrement
	if l.phase >= 1 {
		l.phase -= float64(int(l.phase))
	}
	// triangle wave: rises 0..1 over the first quarter of the cycle, falls
	// 1..-1 over the middle half, and rises -1..0 over the last quarter.
	switch {
	case p < 0.25:
		return 4 * p
	case p < 0.75:
		return 2 - 4*p
	default:
		return 4*p - 4
	}
}
