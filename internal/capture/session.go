// Package capture owns acquisition and release of camera and microphone
// device handles. No other package touches hardware directly.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// Kind identifies a class of capture device.
type Kind string

const (
	KindCamera     Kind = "camera"
	KindMicrophone Kind = "microphone"
)

// ErrDeviceUnavailable signals that device access was denied or no device
// exists. The attempted operation is over; the user must retry manually.
var ErrDeviceUnavailable = errors.New("capture device unavailable")

// Device is a hardware handle managed by the session manager.
type Device interface {
	Kind() Kind
	Open(ctx context.Context) error
	Close() error
}

// Session is a live, exclusively-owned device handle. Its context is
// cancelled when the session stops, which tears down any timer or loop
// bound to it.
type Session struct {
	device Device
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	active bool
}

// Context is cancelled when the session stops. Loops bound to the session
// must derive from it so a stop cancels them synchronously.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Active reports whether the session still owns its device.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// stop releases the device. Safe to call more than once.
func (s *Session) stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.mu.Unlock()

	s.cancel()
	if err := s.device.Close(); err != nil {
		// Best effort: the handle is gone either way.
		log.Printf("Warning: closing %s device: %v", s.device.Kind(), err)
	}
}

// Manager guarantees at most one active session per device kind.
type Manager struct {
	mu       sync.Mutex
	sessions map[Kind]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[Kind]*Session)}
}

// Start acquires the device and returns a live session. If a session of
// the same kind is already active it is stopped first; starting never
// leaks the previous handle.
func (m *Manager) Start(ctx context.Context, dev Device) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.sessions[dev.Kind()]; ok {
		prev.stop()
		delete(m.sessions, dev.Kind())
	}

	if err := dev.Open(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	sessCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		device: dev,
		ctx:    sessCtx,
		cancel: cancel,
		active: true,
	}
	m.sessions[dev.Kind()] = s
	return s, nil
}

// Stop releases the session's device and cancels its context. Safe to
// call on a nil or already-stopped session.
func (m *Manager) Stop(s *Session) {
	if s == nil {
		return
	}
	s.stop()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[s.device.Kind()] == s {
		delete(m.sessions, s.device.Kind())
	}
}

// StopKind stops the active session of a kind, if any. No-op otherwise.
func (m *Manager) StopKind(kind Kind) {
	m.mu.Lock()
	s := m.sessions[kind]
	delete(m.sessions, kind)
	m.mu.Unlock()

	if s != nil {
		s.stop()
	}
}

// Active returns the live session of a kind, or nil.
func (m *Manager) Active(kind Kind) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[kind]
}
