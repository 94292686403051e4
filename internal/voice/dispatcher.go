package voice

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"
)

// State is the dispatcher's listening state.
type State int32

const (
	// StateListening means the transcript stream is being consumed.
	StateListening State = iota
	// StateSuspended means a command is being handled; the stream is down.
	StateSuspended
)

// DefaultCooldown is the pause between stream termination and restart.
const DefaultCooldown = 500 * time.Millisecond

// Dispatcher is the wake-word state machine. It runs for the process
// lifetime: Listening, Suspended while a command is routed, Listening
// again after the cooldown.
type Dispatcher struct {
	stream   TranscriptStream
	router   CommandRouter
	speaker  Speaker
	wakeWord string
	cooldown time.Duration

	state atomic.Int32
}

// NewDispatcher wires the dispatcher to its collaborators. A non-positive
// cooldown selects DefaultCooldown.
func NewDispatcher(stream TranscriptStream, router CommandRouter, speaker Speaker, wakeWord string, cooldown time.Duration) *Dispatcher {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Dispatcher{
		stream:   stream,
		router:   router,
		speaker:  speaker,
		wakeWord: wakeWord,
		cooldown: cooldown,
	}
}

// State returns the current listening state.
func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

// Run consumes the transcript stream until the context is cancelled.
// Stream terminations, expected or not, are followed by a restart after
// the cooldown; no operator intervention is ever needed.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		if err := d.listenOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Transcript stream error: %v", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.cooldown):
		}
	}
}

// listenOnce runs one Listening cycle: consume events until the wake word
// appears or the stream terminates on its own.
func (d *Dispatcher) listenOnce(ctx context.Context) error {
	events, err := d.stream.Start(ctx)
	if err != nil {
		if errors.Is(err, ErrStreamActive) {
			// A restart raced a pending one; the active stream wins.
			return nil
		}
		return err
	}

	d.state.Store(int32(StateListening))

	var buf strings.Builder
	for {
		select {
		case <-ctx.Done():
			d.stream.Stop()
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				// Unexpected termination while listening; Run restarts us.
				return nil
			}
			buf.WriteString(ev.Text)

			if !containsWakeWord(buf.String(), d.wakeWord) {
				continue
			}

			// Wake word detected: suspend, route, clear the buffer.
			d.state.Store(int32(StateSuspended))
			d.stream.Stop()

			command := StripWakeWord(buf.String(), d.wakeWord)
			buf.Reset()
			d.dispatch(ctx, command)
			return nil
		}
	}
}

// dispatch hands the command to the router and speaks the reply.
// The spoken acknowledgment is fire-and-forget.
func (d *Dispatcher) dispatch(ctx context.Context, command string) {
	reply := d.router.Route(ctx, strings.ToLower(command))
	if reply != "" {
		d.speaker.Speak(reply)
	}
}
