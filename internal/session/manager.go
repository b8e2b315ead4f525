// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/camwatch/internal/config"
	"github.com/tomtom215/camwatch/internal/logging"
	"github.com/tomtom215/camwatch/internal/metrics"
)

// Sentinel errors returned by Connect.
var (
	// ErrUnknownCamera indicates the camera type is not configured.
	ErrUnknownCamera = errors.New("unknown camera")

	// ErrAllStrategiesFailed indicates every candidate was tried and none
	// reached the active state.
	ErrAllStrategiesFailed = errors.New("all connection strategies failed")
)

// State is the session lifecycle state.
type State int

const (
	// StateIdle means no session exists.
	StateIdle State = iota
	// StateTrying means a candidate attempt is in progress.
	StateTrying
	// StateActive means a session is live.
	StateActive
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTrying:
		return "trying"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Status is a point-in-time session status delivered to the notifier.
// Text is ready for direct display.
type Status struct {
	State         State
	Camera        string
	StrategyIndex int
	Surface       Surface
	HasSurface    bool
	Text          string
	Err           error
}

// Connected reports whether the status describes a live session.
func (s Status) Connected() bool { return s.State == StateActive }

// Manager owns the single live stream session.
//
// Connect tears down any existing session first, then walks the
// camera's candidate strategies in order until one reaches Active.
// At most one session exists at any time; operations serialize on the
// manager mutex. Status changes flow through the notifier, which the
// wiring dispatches onto the UI goroutine.
type Manager struct {
	cfg    *config.Config
	dialer Dialer
	notify func(Status)

	mu       sync.Mutex
	state    State
	camera   string
	strategy int
	conn     Connection

	// generation invalidates stale onFatal callbacks from connections
	// that were already torn down.
	generation uint64
}

// NewManager creates a session manager. notify may be nil.
func NewManager(cfg *config.Config, dialer Dialer, notify func(Status)) *Manager {
	return &Manager{
		cfg:    cfg,
		dialer: dialer,
		notify: notify,
		state:  StateIdle,
	}
}

// Connect establishes a session to the given camera, replacing any
// session that is already live. Candidates are tried in order; the
// zero-based index of the winning strategy is observable via Active and
// in the delivered Status. When every candidate fails the manager
// returns to idle and reports ErrAllStrategiesFailed.
func (m *Manager) Connect(cameraType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cam, ok := m.cfg.Camera(cameraType)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCamera, cameraType)
	}

	// At most one live session.
	m.teardownLocked()

	strategies := BuildStrategies(cam)
	for i, s := range strategies {
		m.state = StateTrying
		m.camera = cameraType
		m.strategy = i
		m.send(Status{
			State:         StateTrying,
			Camera:        cameraType,
			StrategyIndex: i,
			Text:          fmt.Sprintf("Connecting to %s (%s)...", cam.Name, s.Description),
		})

		conn, err := m.attempt(s)
		if err != nil {
			metrics.ConnectAttempts.WithLabelValues("failure").Inc()
			logging.Warn().Err(err).
				Str("camera", cameraType).
				Int("strategy", i).
				Str("description", s.Description).
				Msg("Connection candidate failed")
			continue
		}

		m.state = StateActive
		m.conn = conn
		metrics.ConnectAttempts.WithLabelValues("success").Inc()
		metrics.SessionActive.Set(1)

		surface, hasSurface := conn.DisplaySurface()
		m.send(Status{
			State:         StateActive,
			Camera:        cameraType,
			StrategyIndex: i,
			Surface:       surface,
			HasSurface:    hasSurface,
			Text:          fmt.Sprintf("Connected to %s", cam.Name),
		})

		logging.Info().
			Str("camera", cameraType).
			Int("strategy", i).
			Str("description", s.Description).
			Bool("surface", hasSurface).
			Msg("Session active")
		return nil
	}

	m.state = StateIdle
	m.camera = ""
	err := fmt.Errorf("%w: %s (%d candidates)", ErrAllStrategiesFailed, cameraType, len(strategies))
	m.send(Status{
		State:  StateIdle,
		Camera: cameraType,
		Text:   fmt.Sprintf("Connection to %s failed", cam.Name),
		Err:    err,
	})
	return err
}

// attempt drives one candidate through construct, ready, active.
// Failure at any step stops the partial connection before returning.
func (m *Manager) attempt(s Strategy) (Connection, error) {
	gen := m.generation

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Session.ProbeTimeout)
	defer cancel()

	conn, err := m.dialer.Dial(ctx, s, func(err error) { m.onFatal(gen, err) })
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	if err := conn.SetReady(); err != nil {
		conn.Stop()
		return nil, fmt.Errorf("ready: %w", err)
	}
	if err := conn.SetActive(); err != nil {
		conn.Stop()
		return nil, fmt.Errorf("activate: %w", err)
	}
	return conn, nil
}

// Disconnect tears down the live session, if any. Idempotent.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateIdle {
		return
	}

	camera := m.camera
	m.teardownLocked()
	m.send(Status{
		State:  StateIdle,
		Camera: camera,
		Text:   "Disconnected",
	})
	logging.Info().Str("camera", camera).Msg("Session disconnected")
}

// Active returns the live session's camera and strategy index, if one exists.
func (m *Manager) Active() (camera string, strategyIndex int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateActive {
		return "", 0, false
	}
	return m.camera, m.strategy, true
}

// onFatal is the spontaneous-disconnect path: an established connection
// died on its own. Stale callbacks from already-replaced connections
// are ignored via the generation counter.
func (m *Manager) onFatal(gen uint64, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation || m.state != StateActive {
		return
	}

	camera := m.camera
	m.teardownLocked()
	m.send(Status{
		State:  StateIdle,
		Camera: camera,
		Text:   "Connection lost",
		Err:    cause,
	})
	logging.Warn().Err(cause).Str("camera", camera).Msg("Session lost")
}

// teardownLocked stops the current connection and returns to idle.
// Must be called with m.mu held.
func (m *Manager) teardownLocked() {
	m.generation++
	if m.conn != nil {
		m.conn.Stop()
		m.conn = nil
	}
	m.state = StateIdle
	m.camera = ""
	m.strategy = 0
	metrics.SessionActive.Set(0)
}

func (m *Manager) send(s Status) {
	if m.notify != nil {
		m.notify(s)
	}
}
