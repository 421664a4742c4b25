package render

import (
	"bytes"
	"testing"
	"time"

	"vibeclient/internal/models"
	"vibeclient/internal/toast"

	"github.com/stretchr/testify/assert"
)

func printer() *Printer {
	return New(&bytes.Buffer{})
}

func TestPost(t *testing.T) {
	out := printer().Post(models.Post{
		ID:        "p1",
		Content:   "hello world",
		ImageURL:  "/api/uploads/abc",
		LikeCount: 3,
		Liked:     true,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Author:    models.AuthorRef{Username: "alice"},
	})

	assert.Contains(t, out, "@alice")
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "image: /api/uploads/abc")
	assert.Contains(t, out, "♥ 3")
	assert.Contains(t, out, "id p1")
}

func TestPost_NotLiked(t *testing.T) {
	out := printer().Post(models.Post{ID: "p2", Content: "x"})
	assert.Contains(t, out, "@unknown")
	assert.Contains(t, out, "♡ 0")
}

func TestFeed(t *testing.T) {
	p := printer()
	assert.Contains(t, p.Feed(nil), "No posts yet")

	out := p.Feed([]models.Post{{ID: "a", Content: "first"}, {ID: "b", Content: "second"}})
	assert.Less(t, bytes.Index([]byte(out), []byte("first")), bytes.Index([]byte(out), []byte("second")))
}

func TestProfile(t *testing.T) {
	out := printer().Profile(models.User{
		ID:       "u1",
		Username: "alice",
		FullName: "Alice Liddell",
		Bio:      "curious",
		Posts:    []models.Post{{ID: "p1", Content: "tea party"}},
	})
	assert.Contains(t, out, "Alice Liddell")
	assert.Contains(t, out, "curious")
	assert.Contains(t, out, "Posts (1)")
	assert.Contains(t, out, "tea party")
}

func TestSession(t *testing.T) {
	p := printer()
	assert.Contains(t, p.Session(models.Session{}), "Not signed in")
	assert.Contains(t, p.Session(models.Session{Token: "t", IsAuthenticated: true}), "account not loaded")
	assert.Contains(t, p.Session(models.Session{
		Token: "t", IsAuthenticated: true, User: &models.User{ID: "u1", Username: "alice"},
	}), "@alice")
}

func TestToast(t *testing.T) {
	p := printer()
	assert.Empty(t, p.Toast(toast.State{Message: "gone", Kind: toast.Info}))
	assert.Contains(t, p.Toast(toast.State{Message: "Post created", Kind: toast.Success, Visible: true}), "✔ Post created")
	assert.Contains(t, p.Toast(toast.State{Message: "nope", Kind: toast.Error, Visible: true}), "✘ nope")
	assert.Contains(t, p.Toast(toast.State{Message: "fyi", Kind: toast.Info, Visible: true}), "• fyi")
}
