// Package navigation tracks the client's current location, the equivalent of
// the page a user is looking at.
package navigation

import (
	"strings"
	"sync"
)

// Entry points the client navigates to on its own.
const (
	SignInPath = "/login"
	SignUpPath = "/register"
	FeedPath   = "/posts"
)

// Navigator is what the gateway needs to redirect a user.
type Navigator interface {
	Location() string
	Navigate(path string)
}

// Router is an in-memory Navigator with observers.
type Router struct {
	mu       sync.Mutex
	location string
	subs     []func(string)
}

// NewRouter starts at location.
func NewRouter(location string) *Router {
	return &Router{location: location}
}

// Location returns the current path.
func (r *Router) Location() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.location
}

// Navigate moves to path and notifies observers.
func (r *Router) Navigate(path string) {
	r.mu.Lock()
	r.location = path
	subs := append([]func(string){}, r.subs...)
	r.mu.Unlock()

	for _, fn := range subs {
		fn(path)
	}
}

// OnNavigate registers fn to be called after every Navigate.
func (r *Router) OnNavigate(fn func(path string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, fn)
}

// IsAuthEntry reports whether path is the sign-in or sign-up page.
func IsAuthEntry(path string) bool {
	return strings.Contains(path, SignInPath) || strings.Contains(path, SignUpPath)
}
