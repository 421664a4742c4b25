// Package actions binds each user-facing operation to one API call and its
// effect on the shared stores.
package actions

import (
	"context"
	"sync"

	"vibeclient/internal/gateway"
	"vibeclient/internal/models"
	"vibeclient/internal/toast"
)

// API is the request pipeline the hooks call through.
type API interface {
	Do(ctx context.Context, r gateway.Request) (*gateway.Response, error)
}

// Session is the part of the session store the hooks read and write.
type Session interface {
	Token() string
	Snapshot() models.Session
	SetAuth(ctx context.Context, token string, user models.User) error
	ClearAuth(ctx context.Context) error
}

// Notifier receives user-facing outcome messages.
type Notifier interface {
	Show(message string, kind toast.Kind)
}

type discard struct{}

func (discard) Show(string, toast.Kind) {}

// Status of one operation.
type Status int

const (
	Idle Status = iota
	Pending
)

func (s Status) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// State is what a view renders for one operation: whether a call is in
// flight and the message of the last failure.
type State struct {
	Status Status
	Err    string
}

// Loading reports whether a call is in flight.
func (s State) Loading() bool {
	return s.Status == Pending
}

// Tracker is the idle/pending state machine of one operation. A new call
// clears the previous error; every call returns the tracker to idle when it
// ends, however it ends.
type Tracker struct {
	mu       sync.Mutex
	inflight int
	err      string
}

func (t *Tracker) begin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight++
	t.err = ""
}

func (t *Tracker) end(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inflight > 0 {
		t.inflight--
	}
	if err != nil {
		t.err = resolve(err, err.Error()).Message
	}
}

// State returns the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := State{Err: t.err}
	if t.inflight > 0 {
		st.Status = Pending
	}
	return st
}
