package gateway

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"vibeclient/internal/models"
	"vibeclient/internal/navigation"
	"vibeclient/internal/session"
	"vibeclient/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoBody struct {
	Auth          string `json:"auth"`
	CorrelationID string `json:"correlationId"`
	ContentType   string `json:"contentType"`
	Custom        string `json:"custom"`
}

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.All("/echo", func(c *fiber.Ctx) error {
		return c.JSON(echoBody{
			Auth:          c.Get("Authorization"),
			CorrelationID: c.Get("X-Correlation-ID"),
			ContentType:   c.Get(fiber.HeaderContentType),
			Custom:        c.Get("X-Custom"),
		})
	})
	app.Get("/unauthorized", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{Message: "Invalid or expired token"})
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "database on fire"})
	})
	app.Get("/slow", func(c *fiber.Ctx) error {
		time.Sleep(300 * time.Millisecond)
		return c.SendString("late")
	})
	app.Get("/big", func(c *fiber.Ctx) error {
		return c.SendString(strings.Repeat("x", 64))
	})
	app.Get("/big-unauthorized", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusUnauthorized).SendString(strings.Repeat("x", 64))
	})
	app.Post("/upload", func(c *fiber.Ctx) error {
		fh, err := c.FormFile("image")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString(err.Error())
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"content":  c.FormValue("content"),
			"filename": fh.Filename,
			"type":     fh.Header.Get("Content-Type"),
			"image":    string(data),
		})
	})
	return app
}

type fixture struct {
	gw      *Gateway
	session *session.Store
	router  *navigation.Router
}

func setup(t *testing.T, location string, opts ...Option) fixture {
	t.Helper()
	baseURL := testutil.ServeFiber(t, newTestApp())

	store := session.NewStore(session.NewMemoryStorage())
	router := navigation.NewRouter(location)
	gw := New(Config{BaseURL: baseURL + "/", Timeout: 2 * time.Second}, store, router, opts...)
	return fixture{gw: gw, session: store, router: router}
}

func signIn(t *testing.T, s *session.Store) {
	t.Helper()
	require.NoError(t, s.SetAuth(context.Background(), "abc", models.User{ID: "u1"}))
}

func TestDo_AttachesBearerWhenSignedIn(t *testing.T) {
	f := setup(t, navigation.FeedPath)
	signIn(t, f.session)

	resp, err := f.gw.Get(context.Background(), "/echo", "")
	require.NoError(t, err)

	got, err := models.DecodeJSON[echoBody](resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", got.Auth)
	assert.NotEmpty(t, got.CorrelationID)
}

func TestDo_NoBearer(t *testing.T) {
	tests := []struct {
		name     string
		signedIn bool
		public   bool
	}{
		{"signed out", false, false},
		{"public endpoint", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, navigation.SignInPath)
			if tt.signedIn {
				signIn(t, f.session)
			}

			resp, err := f.gw.Do(context.Background(), Request{
				Method: http.MethodPost,
				Path:   "echo",
				Body:   models.LoginRequest{Email: "a@b.com", Password: "secret1"},
				Public: tt.public,
			})
			require.NoError(t, err)

			got, err := models.DecodeJSON[echoBody](resp.Body)
			require.NoError(t, err)
			assert.Empty(t, got.Auth)
			assert.Equal(t, "application/json", got.ContentType)
		})
	}
}

func TestDo_UnauthorizedClearsSessionAndRedirects(t *testing.T) {
	f := setup(t, navigation.FeedPath)
	signIn(t, f.session)

	resp, err := f.gw.Get(context.Background(), "/unauthorized", "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.True(t, IsUnauthorized(err))

	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, "Invalid or expired token", respErr.Message)

	assert.False(t, f.session.IsAuthenticated())
	assert.Empty(t, f.session.Token())
	assert.Equal(t, navigation.SignInPath, f.router.Location())
}

func TestDo_UnauthorizedOnAuthPageDoesNotNavigate(t *testing.T) {
	for _, loc := range []string{navigation.SignInPath, navigation.SignUpPath, "/app/login?next=/posts"} {
		t.Run(loc, func(t *testing.T) {
			f := setup(t, loc)
			signIn(t, f.session)

			var navigations int
			f.router.OnNavigate(func(string) { navigations++ })

			_, err := f.gw.Get(context.Background(), "/unauthorized", "")
			require.Error(t, err)
			assert.False(t, f.session.IsAuthenticated())
			assert.Equal(t, loc, f.router.Location())
			assert.Zero(t, navigations)
		})
	}
}

func TestDo_ConcurrentUnauthorized(t *testing.T) {
	f := setup(t, navigation.FeedPath)
	signIn(t, f.session)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.gw.Get(context.Background(), "/unauthorized", "")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.True(t, IsUnauthorized(err))
	}
	assert.False(t, f.session.IsAuthenticated())
	assert.Equal(t, navigation.SignInPath, f.router.Location())
}

func TestDo_ServerErrorPassesThrough(t *testing.T) {
	f := setup(t, navigation.FeedPath)
	signIn(t, f.session)

	resp, err := f.gw.Get(context.Background(), "/boom", "")
	require.Error(t, err)
	require.NotNil(t, resp)

	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, http.StatusInternalServerError, respErr.StatusCode)
	assert.Equal(t, "database on fire", respErr.Message)
	assert.False(t, IsUnauthorized(err))

	assert.True(t, f.session.IsAuthenticated())
	assert.Equal(t, navigation.FeedPath, f.router.Location())
}

func TestDo_Timeout(t *testing.T) {
	baseURL := testutil.ServeFiber(t, newTestApp())
	gw := New(Config{BaseURL: baseURL, Timeout: 50 * time.Millisecond},
		session.NewStore(session.NewMemoryStorage()), navigation.NewRouter(navigation.FeedPath))

	resp, err := gw.Get(context.Background(), "/slow", "")
	assert.Nil(t, resp)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.True(t, transportErr.Timeout)
}

func TestDo_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	store := session.NewStore(session.NewMemoryStorage())
	signIn(t, store)
	gw := New(Config{BaseURL: "http://" + addr, Timeout: time.Second}, store, navigation.NewRouter(navigation.FeedPath))

	_, err = gw.Get(context.Background(), "/posts", "")

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.False(t, transportErr.Timeout)
	assert.True(t, store.IsAuthenticated())
}

func TestDo_Multipart(t *testing.T) {
	f := setup(t, navigation.FeedPath)
	signIn(t, f.session)

	resp, err := f.gw.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/upload",
		Form: &Multipart{
			Fields: map[string]string{"content": "hello"},
			File: &FilePart{
				Field:       "image",
				Filename:    "cat.png",
				ContentType: "image/png",
				Content:     strings.NewReader("png-bytes"),
			},
		},
	})
	require.NoError(t, err)

	got, err := models.DecodeJSON[map[string]string](resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", got["content"])
	assert.Equal(t, "cat.png", got["filename"])
	assert.Equal(t, "image/png", got["type"])
	assert.Equal(t, "png-bytes", got["image"])
}

func TestDo_MultipartWithoutContent(t *testing.T) {
	f := setup(t, navigation.FeedPath)

	_, err := f.gw.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/upload",
		Form:   &Multipart{File: &FilePart{Field: "image", Filename: "x"}},
	})
	assert.Error(t, err)
}

func TestDo_CustomInterceptors(t *testing.T) {
	var statuses []int
	f := setup(t, navigation.FeedPath,
		WithRequestInterceptor(func(req *http.Request) error {
			req.Header.Set("X-Custom", "yes")
			return nil
		}),
		WithResponseInterceptor(func(_ *http.Request, resp *Response, err error) error {
			if resp != nil {
				statuses = append(statuses, resp.StatusCode)
			}
			return err
		}),
	)

	resp, err := f.gw.Get(context.Background(), "/echo", "")
	require.NoError(t, err)
	got, err := models.DecodeJSON[echoBody](resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "yes", got.Custom)

	_, err = f.gw.Get(context.Background(), "/boom", "")
	require.Error(t, err)
	assert.Equal(t, []int{http.StatusOK, http.StatusInternalServerError}, statuses)
}

func TestDo_RequestInterceptorErrorAborts(t *testing.T) {
	sentinel := errors.New("offline mode")
	var reached bool
	f := setup(t, navigation.FeedPath,
		WithRequestInterceptor(func(*http.Request) error { return sentinel }),
		WithResponseInterceptor(func(_ *http.Request, _ *Response, err error) error {
			reached = true
			return err
		}),
	)

	resp, err := f.gw.Get(context.Background(), "/echo", "")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, sentinel)
	assert.False(t, reached)
}

func TestBaseURLTrimsSlash(t *testing.T) {
	gw := New(Config{BaseURL: "http://localhost:3000/api/"}, session.NewStore(session.NewMemoryStorage()), nil)
	assert.Equal(t, "http://localhost:3000/api", gw.BaseURL())
}

func TestDo_ResponseTooLarge(t *testing.T) {
	f := setup(t, navigation.FeedPath, WithMaxResponseBytes(32))

	resp, err := f.gw.Get(context.Background(), "/big", "")
	require.ErrorIs(t, err, ErrResponseTooLarge)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, resp.Body)

	var transportErr *TransportError
	assert.False(t, errors.As(err, &transportErr))
}

func TestDo_ResponseAtLimit(t *testing.T) {
	f := setup(t, navigation.FeedPath, WithMaxResponseBytes(64))

	resp, err := f.gw.Get(context.Background(), "/big", "")
	require.NoError(t, err)
	assert.Len(t, resp.Body, 64)
}

func TestDo_OversizedUnauthorizedStillClearsSession(t *testing.T) {
	f := setup(t, navigation.FeedPath, WithMaxResponseBytes(32))
	signIn(t, f.session)

	_, err := f.gw.Get(context.Background(), "/big-unauthorized", "")
	require.ErrorIs(t, err, ErrResponseTooLarge)
	assert.False(t, f.session.IsAuthenticated())
	assert.Equal(t, navigation.SignInPath, f.router.Location())
}
