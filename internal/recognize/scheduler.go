// Package recognize runs the periodic recognition loop: capture a frame,
// embed it, match it against the enrolled set, publish the result.
package recognize

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sakhi-assistant/sakhi/internal/descriptor"
	"github.com/sakhi-assistant/sakhi/internal/embedder"
)

// State is the scheduler lifecycle state.
type State int32

const (
	StateIdle State = iota
	StatePriming
	StateRunning
	StateStopped
)

// DefaultPeriod is the fixed recognition tick period.
const DefaultPeriod = 200 * time.Millisecond

// ErrNoEnrolledIdentities signals that recognition was attempted with an
// empty labeled set. The scheduler reports it and stops without running.
var ErrNoEnrolledIdentities = errors.New("no identities are enrolled")

// FrameSource produces JPEG frames from the active capture session.
type FrameSource interface {
	Grab(ctx context.Context) ([]byte, error)
}

// Embedder is the face embedding collaborator.
type Embedder interface {
	DetectFace(ctx context.Context, frame []byte) (*embedder.Detection, error)
}

// LabeledSetLoader snapshots the enrolled descriptors from the store.
type LabeledSetLoader interface {
	LabeledSet(ctx context.Context) ([]descriptor.Labeled, error)
}

// Result is one recognition outcome. Ephemeral: produced once per tick,
// never persisted.
type Result struct {
	Label    string
	Distance float64
	Box      [4]float64
}

// Scheduler drives the recognition loop for one session. The labeled set
// is snapshotted once during priming; identities enrolled afterwards are
// not recognized until a new scheduler runs.
type Scheduler struct {
	loader LabeledSetLoader
	frames FrameSource
	embed  Embedder
	period time.Duration

	state    atomic.Int32
	inFlight atomic.Bool
	results  chan Result

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates an idle scheduler. A non-positive period selects
// DefaultPeriod.
func NewScheduler(loader LabeledSetLoader, frames FrameSource, embed Embedder, period time.Duration) *Scheduler {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Scheduler{
		loader:  loader,
		frames:  frames,
		embed:   embed,
		period:  period,
		results: make(chan Result, 8),
	}
}

// Results delivers one Result per completed tick. Stale results are
// dropped when the consumer lags.
func (s *Scheduler) Results() <-chan Result {
	return s.results
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Start primes the scheduler and enters the running loop. The context
// should derive from the capture session so a session stop cancels the
// loop. Returns ErrNoEnrolledIdentities when nothing is enrolled.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StatePriming)) {
		return errors.New("scheduler already started")
	}

	set, err := s.loader.LabeledSet(ctx)
	if err != nil {
		s.state.Store(int32(StateStopped))
		return fmt.Errorf("loading enrolled identities: %w", err)
	}
	if len(set) == 0 {
		s.state.Store(int32(StateStopped))
		return ErrNoEnrolledIdentities
	}

	matcher, err := descriptor.NewMatcher(set)
	if err != nil {
		s.state.Store(int32(StateStopped))
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.state.Store(int32(StateRunning))
	s.wg.Add(1)
	go s.run(runCtx, matcher)
	return nil
}

// Stop cancels the periodic tick deterministically: no result is
// published after Stop returns. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.state.Store(int32(StateStopped))
}

func (s *Scheduler) run(ctx context.Context, matcher *descriptor.Matcher) {
	defer s.wg.Done()
	defer s.state.Store(int32(StateStopped))

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Skip the tick while the previous embedding call is still in
			// flight; concurrent embed calls must stay bounded at one.
			if !s.inFlight.CompareAndSwap(false, true) {
				continue
			}
			s.wg.Add(1)
			go s.tick(ctx, matcher)
		}
	}
}

// tick runs one capture-embed-match cycle. Collaborator failures are
// swallowed; the tick simply produces no result.
func (s *Scheduler) tick(ctx context.Context, matcher *descriptor.Matcher) {
	defer s.wg.Done()
	defer s.inFlight.Store(false)

	frame, err := s.frames.Grab(ctx)
	if err != nil {
		return
	}

	det, err := s.embed.DetectFace(ctx, frame)
	if err != nil || det == nil {
		return
	}
	if descriptor.Validate(det.Descriptor) != nil {
		return
	}

	match, err := matcher.Match(det.Descriptor)
	if err != nil {
		return
	}

	select {
	case <-ctx.Done():
		return
	default:
	}

	select {
	case s.results <- Result{Label: match.Label, Distance: match.Distance, Box: det.Box}:
	default: // consumer is behind, drop the stale result
	}
}
