package synth

import "testing"

func TestOscillatorLinearInterpolation(t *testing.T) {
	data := []int16{0, 32767, 0}
	osc := newOscillator(data, 0, 0, loopNone)
	// half-step: cursor starts at 0, interpolate exactly halfway to data[1]
	half := pitchRatioFixed(0.5)
	sample, alive := osc.next(half)
	if !alive {
		t.Fatal("expected oscillator to report alive on its first sample")
	}
	if sample != 0 {
		t.Errorf("sample at cursor 0 = %v, want 0 (data[0])", sample)
	}
	sample, alive = osc.next(half)
	if !alive {
		t.Fatal("expected oscillator to still be alive mid-buffer")
	}
	want := (0.5) * (32767.0 / 32768.0)
	if diff := sample - want; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("interpolated sample = %v, want ~%v", sample, want)
	}
}

func TestOscillatorReportsNotAliveAfterNonLoopingEnd(t *testing.T) {
	data := []int16{0, 100}
	osc := newOscillator(data, 0, 0, loopNone)
	step := pitchRatioFixed(1)
	_, alive := osc.next(step)
	if !alive {
		t.Fatal("expected alive at start")
	}
	_, alive = osc.next(step)
	if alive {
		t.Error("expected oscillator to report not-alive once the cursor runs past the last sample")
	}
}

func TestOscillatorLoopsWithinContinuousMode(t *testing.T) {
	data := []int16{0, 100, 200, 300}
	osc := newOscillator(data, 1, 3, loopContinuous)
	step := pitchRatioFixed(1)
	for i := 0; i < 10; i++ {
		if _, alive := osc.next(step); !alive {
			t.Fatalf("looping oscillator reported not-alive at step %d", i)
		}
	}
}

func TestLFOTriangleShapeStartsAtZeroAndPeaksAtQuarterCycle(t *testing.T) {
	l := newLFO(0, 1, 4) // 1Hz at 4 samples/sec => one full cycle every 4 samples
	first := l.value()
	if first != 0 {
		t.Errorf("first LFO sample = %v, want 0", first)
	}
	second := l.value()
	if second != 1 {
		t.Errorf("expected LFO to peak at 1 a quarter cycle in, got %v", second)
	}
}

func TestLFODelaySuppressesOutput(t *testing.T) {
	l := newLFO(10, 1, 1) // 10-sample delay at 1 sample/sec
	for i := 0; i < 10; i++ {
		if v := l.value(); v != 0 {
			t.Errorf("expected 0 during delay at sample %d, got %v", i, v)
		}
	}
}

func TestBiquadLowPassAttenuatesAboveCutoff(t *testing.T) {
	f := newBiquadLowPass(44100)
	f.setParams(200, 0) // very low cutoff relative to a high-frequency input
	var lastOut float64
	for i := 0; i < 200; i++ {
		in := 1.0
		if i%2 == 1 {
			in = -1.0 // Nyquist-rate square wave: maximal high-frequency content
		}
		lastOut = f.process(in)
	}
	if lastOut > 0.5 || lastOut < -0.5 {
		t.Errorf("expected a 200Hz low-pass to substantially attenuate a Nyquist-rate input, got %v", lastOut)
	}
}
