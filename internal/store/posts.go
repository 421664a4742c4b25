// Package store holds in-memory, observable collections mirroring server state.
package store

import (
	"context"
	"log/slog"
	"sync"

	"vibeclient/internal/models"
	"vibeclient/internal/notify"
	"vibeclient/internal/observability"
)

// Outcome reports what a mutation did. Rejections never panic or return an
// error; they are logged, counted and returned so callers can react.
type Outcome int

const (
	Applied Outcome = iota
	Invalid
	MissingID
	Duplicate
	NotFound
	Stale
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Invalid:
		return "invalid"
	case MissingID:
		return "missing_id"
	case Duplicate:
		return "duplicate"
	case NotFound:
		return "not_found"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// OK reports whether the mutation was applied.
func (o Outcome) OK() bool {
	return o == Applied
}

// PostsState is a snapshot of the posts collection.
type PostsState struct {
	Items   []models.Post
	Loading bool
	Error   string
}

// FetchTicket identifies one feed fetch. See BeginFetch.
type FetchTicket struct {
	seq uint64
	gen uint64
}

type prependRecord struct {
	id  string
	gen uint64
}

// PostStore is the ordered feed. At most one post per id.
type PostStore struct {
	mu      sync.Mutex
	items   []models.Post
	loading bool
	err     string

	// gen advances on every item mutation; fetchSeq on every BeginFetch.
	gen       uint64
	fetchSeq  uint64
	prepended []prependRecord

	subs notify.Fanout[PostsState]

	log *observability.ComponentLogger
}

// NewPostStore returns an empty store.
func NewPostStore() *PostStore {
	return &PostStore{log: observability.NewComponentLogger("post_store")}
}

// ReplaceAll swaps the whole collection, keeping the caller's order. A nil
// slice, a post without id, or a repeated id rejects the call.
func (s *PostStore) ReplaceAll(items []models.Post) Outcome {
	if o := checkBatch(items); o != Applied {
		return s.reject("replace_all", o)
	}

	s.mu.Lock()
	s.items = append(make([]models.Post, 0, len(items)), items...)
	s.gen++
	s.prepended = nil
	s.subs.Enqueue(s.snapshotLocked())
	s.mu.Unlock()

	s.subs.Flush()
	return Applied
}

// BeginFetch marks the start of a feed fetch. Pass the ticket to
// CompleteFetch with the result.
func (s *PostStore) BeginFetch() FetchTicket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchSeq++
	return FetchTicket{seq: s.fetchSeq, gen: s.gen}
}

// CompleteFetch applies a fetched feed. A fetch superseded by a later
// BeginFetch is dropped as Stale. Posts prepended after the ticket was issued
// and missing from items stay at the front, so a slow fetch cannot erase a
// post created while it was in flight.
func (s *PostStore) CompleteFetch(t FetchTicket, items []models.Post) Outcome {
	if o := checkBatch(items); o != Applied {
		return s.reject("complete_fetch", o)
	}

	s.mu.Lock()
	if t.seq != s.fetchSeq {
		s.mu.Unlock()
		return s.reject("complete_fetch", Stale)
	}

	fetched := make(map[string]struct{}, len(items))
	for _, p := range items {
		fetched[p.ID] = struct{}{}
	}

	merged := make([]models.Post, 0, len(items)+len(s.prepended))
	for _, rec := range s.prepended {
		if rec.gen <= t.gen {
			continue
		}
		if _, ok := fetched[rec.id]; ok {
			continue
		}
		if i := s.indexLocked(rec.id); i >= 0 {
			merged = append(merged, s.items[i])
		}
	}
	merged = append(merged, items...)

	s.items = merged
	s.gen++
	s.prepended = nil
	s.subs.Enqueue(s.snapshotLocked())
	s.mu.Unlock()

	s.subs.Flush()
	return Applied
}

// Prepend inserts item at the front.
func (s *PostStore) Prepend(item models.Post) Outcome {
	if item.ID == "" {
		return s.reject("prepend", MissingID)
	}

	s.mu.Lock()
	if s.indexLocked(item.ID) >= 0 {
		s.mu.Unlock()
		return s.reject("prepend", Duplicate)
	}
	s.items = append([]models.Post{item}, s.items...)
	s.gen++
	// Newest first, matching the order they sit in items.
	s.prepended = append([]prependRecord{{id: item.ID, gen: s.gen}}, s.prepended...)
	s.subs.Enqueue(s.snapshotLocked())
	s.mu.Unlock()

	s.subs.Flush()
	return Applied
}

// UpdateByID replaces the post with item's id in place.
func (s *PostStore) UpdateByID(item models.Post) Outcome {
	if item.ID == "" {
		return s.reject("update_by_id", MissingID)
	}

	s.mu.Lock()
	i := s.indexLocked(item.ID)
	if i < 0 {
		s.mu.Unlock()
		return s.reject("update_by_id", NotFound)
	}
	s.items[i] = item
	s.gen++
	s.subs.Enqueue(s.snapshotLocked())
	s.mu.Unlock()

	s.subs.Flush()
	return Applied
}

// Update applies fn to the current copy of post id under the store lock, so
// the read and the write cannot interleave with another mutation.
func (s *PostStore) Update(id string, fn func(models.Post) models.Post) (models.Post, Outcome) {
	if id == "" {
		return models.Post{}, s.reject("update", MissingID)
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return models.Post{}, s.reject("update", NotFound)
	}
	next := fn(s.items[i])
	next.ID = id
	s.items[i] = next
	s.gen++
	s.subs.Enqueue(s.snapshotLocked())
	s.mu.Unlock()

	s.subs.Flush()
	return next, Applied
}

// SetLoading sets the loading flag. Last write wins.
func (s *PostStore) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.subs.Enqueue(s.snapshotLocked())
	s.mu.Unlock()
	s.subs.Flush()
}

// SetError sets the error text; "" clears it. Last write wins.
func (s *PostStore) SetError(msg string) {
	s.mu.Lock()
	s.err = msg
	s.subs.Enqueue(s.snapshotLocked())
	s.mu.Unlock()
	s.subs.Flush()
}

// ClearError is SetError("").
func (s *PostStore) ClearError() {
	s.SetError("")
}

// Get returns the post with id.
func (s *PostStore) Get(id string) (models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.items[i], true
	}
	return models.Post{}, false
}

// Snapshot returns a copy of the current state.
func (s *PostStore) Snapshot() PostsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every change, in the
// order the changes were made. The returned func unsubscribes.
func (s *PostStore) Subscribe(fn func(PostsState)) func() {
	return s.subs.Subscribe(fn)
}

func (s *PostStore) indexLocked(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *PostStore) snapshotLocked() PostsState {
	return PostsState{
		Items:   append([]models.Post(nil), s.items...),
		Loading: s.loading,
		Error:   s.err,
	}
}

func (s *PostStore) reject(op string, o Outcome) Outcome {
	observability.StoreRejections.WithLabelValues("posts", o.String()).Inc()
	s.log.Warn(context.Background(), "post store mutation rejected",
		slog.String("operation", op),
		slog.String("reason", o.String()),
	)
	return o
}

func checkBatch(items []models.Post) Outcome {
	if items == nil {
		return Invalid
	}
	seen := make(map[string]struct{}, len(items))
	for _, p := range items {
		if p.ID == "" {
			return Invalid
		}
		if _, dup := seen[p.ID]; dup {
			return Invalid
		}
		seen[p.ID] = struct{}{}
	}
	return Applied
}
