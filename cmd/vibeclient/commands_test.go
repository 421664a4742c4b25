package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vibeclient/internal/app"
	"vibeclient/internal/config"
	"vibeclient/internal/fakeapi"
	"vibeclient/internal/models"
	"vibeclient/internal/navigation"
	"vibeclient/internal/render"
	"vibeclient/internal/session"
	"vibeclient/internal/testutil"
	"vibeclient/internal/toast"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*app.App, *render.Printer) {
	t.Helper()
	srv := fakeapi.New(fakeapi.Options{JWTSecret: "test-secret"})
	_, err := srv.CreateUser(models.RegisterRequest{
		Username: "alice", Email: "a@b.com", Password: "secret1", FullName: "Alice",
	})
	require.NoError(t, err)

	cfg := &config.Config{
		APIBaseURL:      testutil.ServeFiber(t, srv.App()) + "/api",
		APITimeoutMS:    2000,
		SessionBackend:  config.BackendMemory,
		ToastDurationMS: 3000,
	}
	a := app.NewWithStorage(cfg, session.NewMemoryStorage())
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a, render.New(&bytes.Buffer{})
}

func run(t *testing.T, a *app.App, p *render.Printer, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := execute(context.Background(), a, p, &out, args)
	return out.String(), err
}

func TestExecute_Session(t *testing.T) {
	a, p := newClient(t)

	_, err := run(t, a, p, "feed")
	assert.True(t, models.IsCode(err, models.CodeNoSession))

	_, err = run(t, a, p, "login", "--email", "a@b.com", "--password", "wrong")
	assert.Error(t, err)
	assert.Equal(t, navigation.SignInPath, a.Router.Location())

	out, err := run(t, a, p, "login", "--email", "a@b.com", "--password", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "@alice")
	assert.Equal(t, navigation.FeedPath, a.Router.Location())

	out, err = run(t, a, p, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "@alice")

	require.NoError(t, execute(context.Background(), a, p, &bytes.Buffer{}, []string{"logout"}))
	assert.False(t, a.Session.IsAuthenticated())
	assert.Equal(t, navigation.SignInPath, a.Router.Location())

	out, err = run(t, a, p, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in")
}

func TestExecute_PostsAndProfile(t *testing.T) {
	a, p := newClient(t)
	_, err := run(t, a, p, "login", "--email", "a@b.com", "--password", "secret1")
	require.NoError(t, err)

	out, err := run(t, a, p, "feed")
	require.NoError(t, err)
	assert.Contains(t, out, "No posts yet")

	img := filepath.Join(t.TempDir(), "cat.png")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0o600))
	out, err = run(t, a, p, "post", "--content", "hello from the terminal", "--image", img)
	require.NoError(t, err)
	assert.Contains(t, out, "hello from the terminal")
	assert.Contains(t, out, "image: /api/uploads/")

	items := a.Posts.Snapshot().Items
	require.Len(t, items, 1)

	out, err = run(t, a, p, "like", items[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "♥ 1")

	out, err = run(t, a, p, "profile")
	require.NoError(t, err)
	assert.Contains(t, out, "Posts (1)")
	assert.Equal(t, "/profile", a.Router.Location())

	out, err = run(t, a, p, "profile-update", "--bio", "terminal enthusiast")
	require.NoError(t, err)
	assert.Contains(t, out, "terminal enthusiast")
	assert.Contains(t, out, "Posts (1)")
}

func TestExecute_Register(t *testing.T) {
	a, p := newClient(t)

	out, err := run(t, a, p, "register", "--username", "bob", "--email", "bob@example.com",
		"--password", "hunter22", "--full-name", "Bob Builder")
	require.NoError(t, err)
	assert.Contains(t, out, "Bob Builder")
	assert.False(t, a.Session.IsAuthenticated())
	assert.Equal(t, navigation.SignUpPath, a.Router.Location())
}

func TestExecute_UsageErrors(t *testing.T) {
	a, p := newClient(t)

	out, err := run(t, a, p, "like")
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, out, "usage")

	out, err = run(t, a, p, "dance")
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, out, "unknown command")

	_, err = run(t, a, p, "profile-update")
	assert.True(t, models.IsCode(err, models.CodeValidation))
}

func TestWatchToasts(t *testing.T) {
	ch := toast.NewChannel(time.Hour)
	t.Cleanup(ch.Close)

	var stderr bytes.Buffer
	unsubscribe := watchToasts(ch, &stderr)

	ch.Show("Post created", toast.Success)
	ch.Hide()
	assert.Contains(t, stderr.String(), "Post created")
	assert.Equal(t, 1, strings.Count(stderr.String(), "\n"), "hiding prints nothing")

	unsubscribe()
	ch.Show("Signed out", toast.Info)
	assert.NotContains(t, stderr.String(), "Signed out")
}
