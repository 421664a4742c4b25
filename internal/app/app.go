// Package app is the application root. It owns the single instance of every
// shared store and injects them into the action hooks.
package app

import (
	"context"
	"errors"
	"fmt"

	"vibeclient/internal/actions"
	"vibeclient/internal/cache"
	"vibeclient/internal/config"
	"vibeclient/internal/gateway"
	"vibeclient/internal/navigation"
	"vibeclient/internal/observability"
	"vibeclient/internal/session"
	"vibeclient/internal/store"
	"vibeclient/internal/toast"

	"github.com/redis/go-redis/v9"
)

// App holds all client state and the hooks that act on it.
type App struct {
	Config  *config.Config
	Session *session.Store
	Router  *navigation.Router
	Gateway *gateway.Gateway
	Posts   *store.PostStore
	Toast   *toast.Channel

	Auth    *actions.Auth
	Feed    *actions.Posts
	Profile *actions.Profile

	redis *redis.Client
	log   *observability.ComponentLogger
}

// New opens the configured token storage and builds the application.
func New(ctx context.Context, cfg *config.Config, opts ...gateway.Option) (*App, error) {
	storage, rdb, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := NewWithStorage(cfg, storage, opts...)
	a.redis = rdb
	return a, nil
}

// NewWithStorage builds the application on an already opened token storage.
func NewWithStorage(cfg *config.Config, storage session.TokenStorage, opts ...gateway.Option) *App {
	sess := session.NewStore(storage)
	router := navigation.NewRouter(navigation.FeedPath)
	gw := gateway.New(gateway.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout(),
	}, sess, router, opts...)
	posts := store.NewPostStore()
	feedback := toast.NewChannel(cfg.ToastDuration())

	return &App{
		Config:  cfg,
		Session: sess,
		Router:  router,
		Gateway: gw,
		Posts:   posts,
		Toast:   feedback,
		Auth:    actions.NewAuth(gw, sess, router, feedback),
		Feed:    actions.NewPosts(gw, sess, posts, feedback),
		Profile: actions.NewProfile(gw, sess, feedback),
		log:     observability.NewComponentLogger("app"),
	}
}

// Start restores the session saved by an earlier run.
func (a *App) Start(ctx context.Context) error {
	if err := a.Session.Restore(ctx); err != nil {
		return err
	}
	if a.Session.IsAuthenticated() {
		a.log.Debug(ctx, "session restored")
	}
	return nil
}

// Shutdown stops pending timers and closes the storage connection.
func (a *App) Shutdown(_ context.Context) error {
	a.Toast.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			return fmt.Errorf("close redis: %w", err)
		}
	}
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config) (session.TokenStorage, *redis.Client, error) {
	switch cfg.SessionBackend {
	case config.BackendMemory:
		return session.NewMemoryStorage(), nil, nil
	case config.BackendRedis:
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("session storage: %w", err)
		}
		return session.NewRedisStorage(rdb, cfg.SessionKey), rdb, nil
	case config.BackendFile, "":
		return session.NewFileStorage(cfg.SessionFile, cfg.SessionKey), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}
