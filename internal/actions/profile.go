package actions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"

	"vibeclient/internal/gateway"
	"vibeclient/internal/models"
)

// Profile loads and edits user profiles. It keeps the last profile loaded so
// an update can be merged over it.
type Profile struct {
	api     API
	session Session
	reporter

	state Tracker

	mu      sync.Mutex
	current *models.User
}

// NewProfile wires the profile hooks. notify may be nil.
func NewProfile(api API, session Session, notify Notifier) *Profile {
	return &Profile{
		api:      api,
		session:  session,
		reporter: newReporter("profile", notify),
	}
}

// State is the profile hook state.
func (p *Profile) State() State { return p.state.State() }

// Current returns the last profile loaded or updated.
func (p *Profile) Current() (models.User, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return models.User{}, false
	}
	return *p.current, true
}

// Get loads the profile of userID, or the caller's own when userID is empty.
func (p *Profile) Get(ctx context.Context, userID string) (_ models.User, err error) {
	p.state.begin()
	defer func() { p.state.end(err) }()

	path, route := "/users/profile", "/users/profile"
	if userID != "" {
		path, route = "/users/"+url.PathEscape(userID), "/users/:id"
	}

	resp, err := p.api.Do(ctx, gateway.Request{Method: http.MethodGet, Path: path, Route: route})
	if err != nil {
		return models.User{}, p.fail(ctx, "get_profile", err, "Failed to load profile")
	}
	user, err := models.DecodeEnvelope[models.User](resp.Body)
	if err != nil {
		return models.User{}, p.fail(ctx, "get_profile", err, "Failed to load profile")
	}

	p.mu.Lock()
	p.current = &user
	p.mu.Unlock()
	return user, nil
}

// Update changes the caller's own profile. The server's answer is merged
// over the loaded profile, keeping its posts when the answer has none. The
// session user is refreshed as well.
func (p *Profile) Update(ctx context.Context, change models.ProfileUpdate) (_ models.User, err error) {
	p.state.begin()
	defer func() { p.state.end(err) }()

	if change.Empty() {
		return models.User{}, p.fail(ctx, "update_profile", models.NewValidationError("Nothing to update"), "Failed to update profile")
	}

	resp, err := p.api.Do(ctx, gateway.Request{Method: http.MethodPut, Path: "/users/profile", Body: change})
	if err != nil {
		return models.User{}, p.fail(ctx, "update_profile", err, "Failed to update profile")
	}
	data, err := models.DecodeEnvelope[json.RawMessage](resp.Body)
	if err != nil {
		return models.User{}, p.fail(ctx, "update_profile", err, "Failed to update profile")
	}
	updated, err := models.DecodeJSON[models.User](data)
	if err != nil {
		return models.User{}, p.fail(ctx, "update_profile", err, "Failed to update profile")
	}

	p.mu.Lock()
	merged := updated
	if p.current != nil && p.current.ID == updated.ID {
		// Decoding already succeeded once, so the merge cannot fail here.
		merged, _ = models.MergeUser(*p.current, data)
	}
	p.current = &merged
	p.mu.Unlock()

	if snap := p.session.Snapshot(); snap.User != nil && snap.User.ID == updated.ID {
		sessionUser, _ := models.MergeUser(*snap.User, data)
		sessionUser.Posts = nil
		if err := p.session.SetAuth(ctx, snap.Token, sessionUser); err != nil {
			p.log.Error(ctx, err, "failed to refresh session user after profile update")
		}
	}

	p.success("Profile updated")
	return merged, nil
}
