package midi

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestLiveReaderDecodesChannelVoiceMessage(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("a channel-voice message round-trips through Bytes and LiveReader", prop.ForAll(
		func(channel, key, velocity byte) bool {
			ch, err := NewChannel(channel % 16)
			if err != nil {
				return false
			}
			k, err := NewKey(key % 128)
			if err != nil {
				return false
			}
			v, err := NewVelocity(velocity % 128)
			if err != nil {
				return false
			}
			msg := ChannelVoiceMessage{Channel: ch, Event: NoteOn{Key: k, Velocity: v}}

			lr := NewLiveReader(bytes.NewReader(msg.Bytes()))
			ev, err := lr.ReadEvent()
			if err != nil {
				return false
			}
			decoded, ok := ev.(ChannelVoiceLiveEvent)
			if !ok {
				return false
			}
			return decoded.Message == msg
		},
		gen.UInt8(),
		gen.UInt8(),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}

func TestLiveReaderRunningStatus(t *testing.T) {
	// 0x90 3C 40 (NoteOn C4 vel 64), then running-status data bytes
	// for a second NoteOn without repeating the status byte.
	data := []byte{0x90, 0x3C, 0x40, 0x40, 0x40}
	lr := NewLiveReader(bytes.NewReader(data))

	first, err := lr.ReadEvent()
	if err != nil {
		t.Fatalf("first event: %v", err)
	}
	second, err := lr.ReadEvent()
	if err != nil {
		t.Fatalf("second event (running status): %v", err)
	}

	f, ok := first.(ChannelVoiceLiveEvent)
	if !ok {
		t.Fatalf("expected ChannelVoiceLiveEvent, got %T", first)
	}
	s, ok := second.(ChannelVoiceLiveEvent)
	if !ok {
		t.Fatalf("expected ChannelVoiceLiveEvent, got %T", second)
	}
	if f.Message.Channel != s.Message.Channel {
		t.Error("running status should preserve the channel")
	}
	if _, ok := s.Message.Event.(NoteOn); !ok {
		t.Errorf("expected running-status event to also be NoteOn, got %T", s.Message.Event)
	}
}

func TestLiveReaderRealTimeInterleavedInSysEx(t *testing.T) {
	// SysEx start, one data byte, a real-time clock byte interleaved,
	// one more data byte, then the SysEx terminator. The clock byte is
	// pulled out of the sysex payload and queued, surfacing on the call
	// after the sysex message it interrupted.
	data := []byte{0xF0, 0x01, 0xF8, 0x02, 0xF7}
	lr := NewLiveReader(bytes.NewReader(data))

	first, err := lr.ReadEvent()
	if err != nil {
		t.Fatalf("first event: %v", err)
	}
	sysex, ok := first.(SystemCommonLiveEvent)
	if !ok {
		t.Fatalf("expected SystemCommonLiveEvent, got %T", first)
	}
	msg, ok := sysex.Message.(SysEx)
	if !ok {
		t.Fatalf("expected SysEx, got %T", sysex.Message)
	}
	if !bytes.Equal(msg.Data, []byte{0x01, 0x02}) {
		t.Errorf("expected sysex data [0x01 0x02] with the real-time byte diverted out, got %v", msg.Data)
	}

	second, err := lr.ReadEvent()
	if err != nil {
		t.Fatalf("second event: %v", err)
	}
	clock, ok := second.(SystemRealTimeLiveEvent)
	if !ok {
		t.Fatalf("expected the diverted real-time byte next, got %T", second)
	}
	if clock.Message != TimingClock {
		t.Errorf("expected TimingClock, got %v", clock.Message)
	}
}
