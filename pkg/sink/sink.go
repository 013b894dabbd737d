// Package sink is the wall-clock-driven event sequencer that sits between
// a MIDI song's timestamped event list and the synthesizer's message
// intake: it holds a priority queue of due-dated commands and a set of
// looped songs, and is driven by repeated calls to Tick from a polling
// goroutine or timer.
package sink

import (
	"sort"
	"sync"
	"time"

	"github.com/zurustar/go-midix/pkg/midi"
)

// sinkQueueCapacity is the buffered capacity of both SPSC channels a Sink
// owns: the user-to-sink command intake and the sink-to-synth message
// output. Generous and fixed, so Send never blocks the caller.
const sinkQueueCapacity = 4096

// innerCommand is one timestamped message waiting in the sink's queue.
type innerCommand struct {
	dueMicros uint64
	parent    *midi.SongID // nil for a bare PlayEvent with no owning song
	seq       uint64       // insertion sequence, breaks due_micros ties stably
	message   midi.ChannelVoiceMessage
}

type loopedSong struct {
	id         midi.SongID
	events     []midi.Timed[midi.ChannelVoiceMessage]
	length     uint64
	lastRepeat uint64
}

// Command is a user-to-sink request: PlayEvent, NewSong, or Stop.
type Command interface{ isSinkCommand() }

// PlayEvent enqueues a single event at now+Event.TimestampMicros.
type PlayEvent struct {
	Event midi.Timed[midi.ChannelVoiceMessage]
}

func (PlayEvent) isSinkCommand() {}

// NewSong enqueues an entire song's events, optionally as a repeating
// loop.
type NewSong struct {
	ID     midi.SongID
	Looped bool
	Events []midi.Timed[midi.ChannelVoiceMessage]
}

func (NewSong) isSinkCommand() {}

// Stop removes a song's queued events and looped entry, and optionally
// silences all channels immediately. With SongID nil it removes every
// queued event and looped song, unless StopVoices is set: then it only
// silences, leaving the queue and looped songs untouched.
type Stop struct {
	SongID     *midi.SongID
	StopVoices bool
}

func (Stop) isSinkCommand() {}

// Sink owns the wall clock, the due-dated command queue, the set of
// looped songs, and the two SPSC channels connecting it to its caller and
// to the synthesizer.
type Sink struct {
	mu       sync.Mutex
	start    time.Time
	nowFunc  func() time.Time
	queue    []innerCommand
	looped   []loopedSong
	nextSeq  uint64
	dropped  uint64

	intake chan Command
	Out    chan midi.ChannelVoiceMessage
}

// New creates a Sink with its wall clock captured at construction.
func New() *Sink {
	return &Sink{
		start:   time.Now(),
		nowFunc: time.Now,
		intake:  make(chan Command, sinkQueueCapacity),
		Out:     make(chan midi.ChannelVoiceMessage, sinkQueueCapacity),
	}
}

// Send submits a command to the sink, non-blocking: if the intake channel
// is full, the command is dropped and Send reports false, so the caller
// (typically the audio thread) is never made to wait.
func (s *Sink) Send(cmd Command) bool {
	select {
	case s.intake <- cmd:
		return true
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		return false
	}
}

// Dropped returns the number of commands Send has had to drop because the
// intake channel was full.
func (s *Sink) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close closes the intake channel; after every already-queued command
// drains, Tick reports done once the queue is also empty.
func (s *Sink) Close() {
	close(s.intake)
}

func (s *Sink) nowMicros() uint64 {
	return uint64(s.nowFunc().Sub(s.start).Microseconds())
}

// Tick performs one pass of the sink's cooperative scheduling loop:
// drain intake, pop and forward due commands, re-enqueue elapsed looped
// songs. It returns done=true once the intake channel is closed and the
// queue has fully drained, signaling the caller to stop polling.
func (s *Sink) Tick() (done bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	intakeClosed := s.drainIntakeLocked()
	now := s.nowMicros()
	s.forwardDueLocked(now)
	s.repeatLoopedLocked(now)

	return intakeClosed && len(s.queue) == 0
}

func (s *Sink) drainIntakeLocked() (closed bool) {
	added := false
	for {
		select {
		case cmd, ok := <-s.intake:
			if !ok {
				if added {
					s.sortQueueLocked()
				}
				return true
			}
			s.applyLocked(cmd)
			added = true
		default:
			if added {
				s.sortQueueLocked()
			}
			return false
		}
	}
}

func (s *Sink) applyLocked(cmd Command) {
	now := s.nowMicros()
	switch c := cmd.(type) {
	case PlayEvent:
		s.enqueueLocked(nil, now+c.Event.TimestampMicros, c.Event.Value)
	case NewSong:
		events := append([]midi.Timed[midi.ChannelVoiceMessage](nil), c.Events...)
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].TimestampMicros < events[j].TimestampMicros
		})
		id := c.ID
		for _, ev := range events {
			s.enqueueLocked(&id, now+ev.TimestampMicros, ev.Value)
		}
		if c.Looped && len(events) > 0 {
			length := events[len(events)-1].TimestampMicros
			s.looped = append(s.looped, loopedSong{id: id, events: events, length: length, lastRepeat: now})
		}
	case Stop:
		// Stop{SongID: nil, StopVoices: true} means "silence every channel
		// right now" — it leaves the pending queue and looped songs
		// untouched. Every other combination removes the targeted song's
		// (or, with SongID nil and StopVoices false, every) queued event.
		if !(c.SongID == nil && c.StopVoices) {
			s.removeLocked(c.SongID)
		}
		if c.StopVoices {
			for ch := 0; ch < 16; ch++ {
				off, _ := midi.NewController(byte(midi.AllNotesOff), 0)
				msg, err := midi.DecodeChannelVoice(0xB0|byte(ch), byte(off.Number), off.Value.Byte())
				if err == nil {
					s.enqueueLocked(nil, now, msg)
				}
			}
		}
	}
}

func (s *Sink) enqueueLocked(parent *midi.SongID, due uint64, msg midi.ChannelVoiceMessage) {
	s.queue = append(s.queue, innerCommand{dueMicros: due, parent: parent, seq: s.nextSeq, message: msg})
	s.nextSeq++
}

func (s *Sink) sortQueueLocked() {
	sort.SliceStable(s.queue, func(i, j int) bool {
		if s.queue[i].dueMicros != s.queue[j].dueMicros {
			return s.queue[i].dueMicros < s.queue[j].dueMicros
		}
		return s.queue[i].seq < s.queue[j].seq
	})
}

func (s *Sink) removeLocked(songID *midi.SongID) {
	filtered := s.queue[:0]
	for _, c := range s.queue {
		if matchesSong(c.parent, songID) {
			continue
		}
		filtered = append(filtered, c)
	}
	s.queue = filtered

	loopedFiltered := s.looped[:0]
	for _, l := range s.looped {
		if songID == nil || l.id == *songID {
			continue
		}
		loopedFiltered = append(loopedFiltered, l)
	}
	s.looped = loopedFiltered
}

// matchesSong reports whether a queued command's parent song matches the
// Stop request's target: a nil target matches every command.
func matchesSong(parent, target *midi.SongID) bool {
	if target == nil {
		return true
	}
	return parent != nil && *parent == *target
}

func (s *Sink) forwardDueLocked(now uint64) {
	i := 0
	for i < len(s.queue) && s.queue[i].dueMicros <= now {
		select {
		case s.Out <- s.queue[i].message:
		default:
			s.dropped++
		}
		i++
	}
	if i > 0 {
		s.queue = s.queue[i:]
	}
}

func (s *Sink) repeatLoopedLocked(now uint64) {
	for idx := range s.looped {
		l := &s.looped[idx]
		for now-l.lastRepeat >= l.length {
			offset := l.lastRepeat + l.length
			id := l.id
			for _, ev := range l.events {
				s.enqueueLocked(&id, offset+ev.TimestampMicros, ev.Value)
			}
			l.lastRepeat = offset
			if l.length == 0 {
				break // a zero-length loop would otherwise spin forever
			}
		}
	}
	s.sortQueueLocked()
}
