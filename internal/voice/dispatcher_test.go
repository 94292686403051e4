package voice

import (
	"context"
	"sync"
	"testing"
	"time"
)

const testCooldown = 10 * time.Millisecond

// scriptedStream plays back predefined transcript segments, one segment
// per Start call, and enforces the single-active-stream invariant.
type scriptedStream struct {
	mu        sync.Mutex
	active    bool
	starts    int
	conflicts int // Start calls rejected while already active

	segments  [][]StreamEvent
	terminate []bool // close the channel after the segment's events

	current chan StreamEvent
	stopped bool
}

func (s *scriptedStream) Start(ctx context.Context) (<-chan StreamEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		s.conflicts++
		return nil, ErrStreamActive
	}
	if len(s.segments) == 0 {
		// Nothing scripted: stay open until stopped.
		s.active = true
		s.stopped = false
		s.current = make(chan StreamEvent)
		return s.current, nil
	}

	segment := s.segments[0]
	s.segments = s.segments[1:]
	terminate := false
	if len(s.terminate) > 0 {
		terminate = s.terminate[0]
		s.terminate = s.terminate[1:]
	}

	s.active = true
	s.stopped = false
	s.starts++

	ch := make(chan StreamEvent, len(segment)+1)
	for _, ev := range segment {
		ch <- ev
	}
	if terminate {
		close(ch)
		s.active = false
	}
	s.current = ch
	return ch, nil
}

func (s *scriptedStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.stopped {
		return
	}
	s.stopped = true
	s.active = false
	close(s.current)
}

// recordingRouter captures routed commands.
type recordingRouter struct {
	mu       sync.Mutex
	commands []string
	notify   chan string
}

func newRecordingRouter() *recordingRouter {
	return &recordingRouter{notify: make(chan string, 8)}
}

func (r *recordingRouter) Route(ctx context.Context, command string) string {
	r.mu.Lock()
	r.commands = append(r.commands, command)
	r.mu.Unlock()
	r.notify <- command
	return "acknowledged"
}

type recordingSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

func (s *recordingSpeaker) Speak(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
}

func waitForCommand(t *testing.T, r *recordingRouter) string {
	t.Helper()
	select {
	case cmd := <-r.notify:
		return cmd
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a routed command")
		return ""
	}
}

func runDispatcher(t *testing.T, d *Dispatcher) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	return cancel
}

func TestDispatcher_WakeWordTriggersDispatch(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		expected   string
	}{
		{"leading wake word", "Sakhi go home", "go home"},
		{"embedded wake word", "please sakhi help", "please  help"},
		{"uppercase wake word alone", "SAKHI", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := &scriptedStream{
				segments: [][]StreamEvent{{{Text: tt.transcript, Final: true}}},
			}
			router := newRecordingRouter()
			speaker := &recordingSpeaker{}
			d := NewDispatcher(stream, router, speaker, "sakhi", testCooldown)

			cancel := runDispatcher(t, d)
			defer cancel()

			if got := waitForCommand(t, router); got != tt.expected {
				t.Errorf("expected command %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestDispatcher_IgnoresNearMisses(t *testing.T) {
	stream := &scriptedStream{
		segments: [][]StreamEvent{{{Text: "saki turn on light", Final: true}}},
	}
	router := newRecordingRouter()
	d := NewDispatcher(stream, router, &recordingSpeaker{}, "sakhi", testCooldown)

	cancel := runDispatcher(t, d)
	defer cancel()

	select {
	case cmd := <-router.notify:
		t.Errorf("'saki' must not trigger dispatch, routed %q", cmd)
	case <-time.After(10 * testCooldown):
	}
}

func TestDispatcher_AccumulatesAcrossEvents(t *testing.T) {
	// The wake word arrives split across interim updates.
	stream := &scriptedStream{
		segments: [][]StreamEvent{{
			{Text: "sa", Final: false},
			{Text: "khi turn on light", Final: true},
		}},
	}
	router := newRecordingRouter()
	d := NewDispatcher(stream, router, &recordingSpeaker{}, "sakhi", testCooldown)

	cancel := runDispatcher(t, d)
	defer cancel()

	if got := waitForCommand(t, router); got != "turn on light" {
		t.Errorf("expected 'turn on light', got %q", got)
	}
}

func TestDispatcher_RestartsAfterUnexpectedTermination(t *testing.T) {
	// First stream dies without a wake word; the dispatcher must come
	// back to Listening on its own and handle the second stream.
	stream := &scriptedStream{
		segments: [][]StreamEvent{
			{{Text: "background chatter", Final: false}},
			{{Text: "sakhi go home", Final: true}},
		},
		terminate: []bool{true, false},
	}
	router := newRecordingRouter()
	d := NewDispatcher(stream, router, &recordingSpeaker{}, "sakhi", testCooldown)

	cancel := runDispatcher(t, d)
	defer cancel()

	if got := waitForCommand(t, router); got != "go home" {
		t.Errorf("expected 'go home' after restart, got %q", got)
	}

	stream.mu.Lock()
	starts := stream.starts
	stream.mu.Unlock()
	if starts != 2 {
		t.Errorf("expected exactly 2 stream starts, got %d", starts)
	}
}

func TestDispatcher_NeverRunsTwoStreams(t *testing.T) {
	stream := &scriptedStream{
		segments: [][]StreamEvent{
			{{Text: "sakhi hello", Final: true}},
			{{Text: "sakhi goodbye", Final: true}},
		},
	}
	router := newRecordingRouter()
	d := NewDispatcher(stream, router, &recordingSpeaker{}, "sakhi", testCooldown)

	cancel := runDispatcher(t, d)
	defer cancel()

	waitForCommand(t, router)
	waitForCommand(t, router)

	stream.mu.Lock()
	defer stream.mu.Unlock()
	if stream.conflicts != 0 {
		t.Errorf("dispatcher attempted %d concurrent stream starts", stream.conflicts)
	}
}

func TestDispatcher_SpeaksReply(t *testing.T) {
	stream := &scriptedStream{
		segments: [][]StreamEvent{{{Text: "sakhi what time is it", Final: true}}},
	}
	router := newRecordingRouter()
	speaker := &recordingSpeaker{}
	d := NewDispatcher(stream, router, speaker, "sakhi", testCooldown)

	cancel := runDispatcher(t, d)
	defer cancel()

	waitForCommand(t, router)

	// Speak is fire-and-forget, give it a beat.
	deadline := time.Now().Add(time.Second)
	for {
		speaker.mu.Lock()
		n := len(speaker.spoken)
		speaker.mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	speaker.mu.Lock()
	defer speaker.mu.Unlock()
	if len(speaker.spoken) == 0 || speaker.spoken[0] != "acknowledged" {
		t.Errorf("expected spoken acknowledgment, got %v", speaker.spoken)
	}
}

func TestStripWakeWord(t *testing.T) {
	tests := []struct {
		transcript string
		expected   string
	}{
		{"sakhi go home", "go home"},
		{"Sakhi go home", "go home"},
		{"please SAKHI help", "please  help"},
		{"sakhi", ""},
		{"no trigger here", "no trigger here"},
		{"sakhi sakhi twice", "twice"},
	}

	for _, tt := range tests {
		if got := StripWakeWord(tt.transcript, "sakhi"); got != tt.expected {
			t.Errorf("StripWakeWord(%q) = %q, expected %q", tt.transcript, got, tt.expected)
		}
	}
}
