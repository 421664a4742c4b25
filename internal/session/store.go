// Package session holds the authenticated session shared by the whole client:
// the credential token, mirrored to durable storage, and the signed-in user.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vibeclient/internal/models"
	"vibeclient/internal/notify"
	"vibeclient/internal/observability"
)

// Store is the single shared session. Token and user are always set and
// cleared together; only the token survives a restart.
type Store struct {
	mu      sync.Mutex
	storage TokenStorage
	token   string
	user    *models.User

	subs notify.Fanout[models.Session]

	now func() time.Time
	log *observability.ComponentLogger
}

// NewStore creates an unauthenticated store backed by storage. Call Restore
// to pick up a token saved by an earlier run.
func NewStore(storage TokenStorage) *Store {
	return &Store{
		storage: storage,
		now:     time.Now,
		log:     observability.NewComponentLogger("session"),
	}
}

// Restore loads the durable token. An expired JWT is deleted instead of
// restored. The user is left nil until the caller fetches it.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	token, ok, err := s.storage.Load(ctx)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("restore session: %w", err)
	}
	if !ok {
		s.mu.Unlock()
		return nil
	}
	if TokenExpired(token, s.now()) {
		delErr := s.storage.Delete(ctx)
		s.token, s.user = "", nil
		s.mu.Unlock()
		s.log.Info(ctx, "discarded expired session token")
		if delErr != nil {
			return fmt.Errorf("discard expired token: %w", delErr)
		}
		return nil
	}
	s.token, s.user = token, nil
	s.subs.Enqueue(s.snapshotLocked())
	s.mu.Unlock()

	s.subs.Flush()
	return nil
}

// SetAuth persists token and records user as signed in. Callers only invoke
// it with a verified sign-in response; the token shape is not checked.
func (s *Store) SetAuth(ctx context.Context, token string, user models.User) error {
	s.mu.Lock()
	if err := s.storage.Save(ctx, token); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persist session token: %w", err)
	}
	u := user
	s.token, s.user = token, &u
	s.subs.Enqueue(s.snapshotLocked())
	s.mu.Unlock()

	s.log.Debug(ctx, "session established", slog.String("user_id", user.ID))
	s.subs.Flush()
	return nil
}

// ClearAuth removes the durable token and resets the session. It is safe to
// call on an already cleared session. The in-memory state is reset even when
// the durable delete fails.
func (s *Store) ClearAuth(ctx context.Context) error {
	s.mu.Lock()
	err := s.storage.Delete(ctx)
	s.token, s.user = "", nil
	s.subs.Enqueue(s.snapshotLocked())
	s.mu.Unlock()

	s.subs.Flush()
	if err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Token returns the current credential, or "" when signed out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IsAuthenticated reports whether a token is held.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Subscribe registers fn to receive the session after every SetAuth,
// ClearAuth and successful Restore, in the order they happened. The
// returned func unsubscribes.
func (s *Store) Subscribe(fn func(models.Session)) func() {
	return s.subs.Subscribe(fn)
}

func (s *Store) snapshotLocked() models.Session {
	snap := models.Session{Token: s.token, IsAuthenticated: s.token != ""}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}
