package modes

import (
	"context"
	"sync"

	"github.com/sakhi-assistant/sakhi/internal/capture"
	"github.com/sakhi-assistant/sakhi/internal/recognize"
)

// CameraDevice is a capture device that also produces frames.
type CameraDevice interface {
	capture.Device
	recognize.FrameSource
}

// FaceWatch binds the recognition scheduler to a camera session. Each
// Start acquires the camera and spins up a fresh scheduler; Stop halts
// the scheduler before the camera is released, so no tick ever runs
// against a closed device.
type FaceWatch struct {
	sessions     *capture.Manager
	camera       CameraDevice
	newScheduler func(frames recognize.FrameSource) *recognize.Scheduler
	onResult     func(recognize.Result)

	mu      sync.Mutex
	session *capture.Session
	sched   *recognize.Scheduler
}

// NewFaceWatch wires the watcher. onResult receives every recognition
// result and may be nil.
func NewFaceWatch(sessions *capture.Manager, camera CameraDevice, newScheduler func(recognize.FrameSource) *recognize.Scheduler, onResult func(recognize.Result)) *FaceWatch {
	return &FaceWatch{
		sessions:     sessions,
		camera:       camera,
		newScheduler: newScheduler,
		onResult:     onResult,
	}
}

// Start acquires the camera and launches the recognition loop. No-op
// when the loop is already running.
func (w *FaceWatch) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.sched != nil {
		return nil
	}

	session, err := w.sessions.Start(ctx, w.camera)
	if err != nil {
		return err
	}

	sched := w.newScheduler(w.camera)
	if err := sched.Start(session.Context()); err != nil {
		w.sessions.Stop(session)
		return err
	}

	w.session = session
	w.sched = sched
	go w.forward(session.Context(), sched)
	return nil
}

// Stop halts the scheduler, then releases the camera. Safe to call when
// nothing is running.
func (w *FaceWatch) Stop() {
	w.mu.Lock()
	session, sched := w.session, w.sched
	w.session, w.sched = nil, nil
	w.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
	if session != nil {
		w.sessions.Stop(session)
	}
}

// forward relays recognition results until the session ends.
func (w *FaceWatch) forward(ctx context.Context, sched *recognize.Scheduler) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-sched.Results():
			if w.onResult != nil {
				w.onResult(r)
			}
		}
	}
}
