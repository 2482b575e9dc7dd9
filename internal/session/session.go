package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"vin-decoder-service/internal/domain/vehicle"
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrLookupInFlight rejects a second lookup while one is running.
	ErrLookupInFlight    = errors.New("a lookup is already in progress")
	ErrInvalidTransition = errors.New("invalid lookup state transition")
)

type Status string

const (
	StatusIdle    Status = "IDLE"
	StatusLoading Status = "LOADING"
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
)

const (
	EventStart   = "start"
	EventSucceed = "succeed"
	EventFail    = "fail"
	EventReset   = "reset"
)

// Session holds one user's lookup status and the last decoded profile.
type Session struct {
	ID        string
	Username  string
	CreatedAt time.Time

	mu       sync.Mutex
	machine  *fsm.FSM
	vin      string
	profile  *vehicle.Profile
	errMsg   string
	lastSeen time.Time
	now      func() time.Time
}

// Snapshot is a read-only copy of a session's lookup state.
type Snapshot struct {
	Status    Status           `json:"status"`
	VIN       string           `json:"vin,omitempty"`
	Profile   *vehicle.Profile `json:"profile,omitempty"`
	Error     string           `json:"error,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func newSession(id, username string, now func() time.Time) *Session {
	s := &Session{
		ID:        id,
		Username:  username,
		CreatedAt: now(),
		lastSeen:  now(),
		now:       now,
	}

	events := fsm.Events{
		{Name: EventStart, Src: []string{string(StatusIdle), string(StatusSuccess), string(StatusError)}, Dst: string(StatusLoading)},
		{Name: EventSucceed, Src: []string{string(StatusLoading)}, Dst: string(StatusSuccess)},
		{Name: EventFail, Src: []string{string(StatusLoading)}, Dst: string(StatusError)},
		{Name: EventReset, Src: []string{string(StatusSuccess), string(StatusError)}, Dst: string(StatusIdle)},
	}
	callbacks := fsm.Callbacks{
		"enter_" + string(StatusLoading): s.enterLoading,
		"enter_" + string(StatusSuccess): s.enterSuccess,
		"enter_" + string(StatusError):   s.enterError,
		"enter_" + string(StatusIdle):    s.enterIdle,
	}
	s.machine = fsm.NewFSM(string(StatusIdle), events, callbacks)
	return s
}

// enter_* callbacks run synchronously inside Event, with s.mu already held.

func (s *Session) enterLoading(_ context.Context, e *fsm.Event) {
	s.profile = nil
	s.errMsg = ""
	if len(e.Args) > 0 {
		s.vin, _ = e.Args[0].(string)
	}
}

func (s *Session) enterSuccess(_ context.Context, e *fsm.Event) {
	if len(e.Args) > 0 {
		if p, ok := e.Args[0].(vehicle.Profile); ok {
			s.profile = &p
		}
	}
}

func (s *Session) enterError(_ context.Context, e *fsm.Event) {
	s.errMsg = "unknown error"
	if len(e.Args) > 0 {
		if msg, ok := e.Args[0].(string); ok {
			s.errMsg = msg
		}
	}
}

func (s *Session) enterIdle(_ context.Context, _ *fsm.Event) {
	s.vin = ""
	s.profile = nil
	s.errMsg = ""
}

func (s *Session) fire(ctx context.Context, event string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = s.now()
	if err := s.machine.Event(ctx, event, args...); err != nil {
		var invalid fsm.InvalidEventError
		if errors.As(err, &invalid) {
			if event == EventStart {
				return ErrLookupInFlight
			}
			return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, invalid.State)
		}
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	return nil
}

// Begin moves the session to LOADING, discarding the previous result.
func (s *Session) Begin(ctx context.Context, vin string) error {
	return s.fire(ctx, EventStart, vin)
}

func (s *Session) Succeed(ctx context.Context, p vehicle.Profile) error {
	return s.fire(ctx, EventSucceed, p.Clone())
}

func (s *Session) Fail(ctx context.Context, message string) error {
	return s.fire(ctx, EventFail, message)
}

func (s *Session) Reset(ctx context.Context) error {
	return s.fire(ctx, EventReset)
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status(s.machine.Current())
}

// Profile returns the decoded profile of the last successful lookup.
func (s *Session) Profile() (vehicle.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil || Status(s.machine.Current()) != StatusSuccess {
		return vehicle.Profile{}, false
	}
	return s.profile.Clone(), true
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Status:    Status(s.machine.Current()),
		VIN:       s.vin,
		Error:     s.errMsg,
		UpdatedAt: s.lastSeen,
	}
	if s.profile != nil {
		p := s.profile.Clone()
		snap.Profile = &p
	}
	return snap
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

func (s *Session) idleSince() (time.Time, Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen, Status(s.machine.Current())
}
