package main

import (
	"encoding/binary"

	"github.com/zurustar/go-midix/pkg/synth"
)

// midiPlayerStream implements io.Reader by rendering the synthesizer in
// blocks and interleaving the result as signed 16-bit little-endian stereo
// PCM, the format ebiten/v2/audio expects.
type midiPlayerStream struct {
	synth *synth.Synthesizer
	left  []float32
	right []float32
}

func (m *midiPlayerStream) Read(p []byte) (int, error) {
	frames := len(p) / 4 // 2 channels * 2 bytes per sample
	if frames == 0 {
		return 0, nil
	}

	if cap(m.left) < frames {
		m.left = make([]float32, frames)
		m.right = make([]float32, frames)
	}
	left := m.left[:frames]
	right := m.right[:frames]

	m.synth.Render(left, right)

	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint16(p[i*4:], uint16(clampSample(left[i])))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(clampSample(right[i])))
	}

	return frames * 4, nil
}

func clampSample(v float32) int16 {
	s := v * 32767
	switch {
	case s > 32767:
		return 32767
	case s < -32768:
		return -32768
	default:
		return int16(s)
	}
}
