package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// TokenStorage is the durable home of the credential token. Implementations
// hold exactly one key.
type TokenStorage interface {
	Load(ctx context.Context) (token string, ok bool, err error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// MemoryStorage keeps the token for the lifetime of the process only.
type MemoryStorage struct {
	mu    sync.Mutex
	token string
	set   bool
}

// NewMemoryStorage returns an empty in-process storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load(_ context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.set, nil
}

func (m *MemoryStorage) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.set = token, true
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.set = "", false
	return nil
}

// FileStorage persists the token as a one-key YAML document.
type FileStorage struct {
	mu   sync.Mutex
	path string
	key  string
}

// NewFileStorage stores the token under key in the YAML file at path.
func NewFileStorage(path, key string) *FileStorage {
	return &FileStorage{path: path, key: key}
}

func (f *FileStorage) Load(_ context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read session file: %w", err)
	}

	doc := map[string]string{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", false, fmt.Errorf("parse session file %s: %w", f.path, err)
	}
	token, ok := doc[f.key]
	if !ok || token == "" {
		return "", false, nil
	}
	return token, true, nil
}

func (f *FileStorage) Save(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := yaml.Marshal(map[string]string{f.key: token})
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (f *FileStorage) Delete(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// RedisStorage keeps the token under a single Redis key.
type RedisStorage struct {
	rdb redis.Cmdable
	key string
}

// NewRedisStorage stores the token at key.
func NewRedisStorage(rdb redis.Cmdable, key string) *RedisStorage {
	return &RedisStorage{rdb: rdb, key: key}
}

func (r *RedisStorage) Load(ctx context.Context) (string, bool, error) {
	token, err := r.rdb.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return token, token != "", nil
}

func (r *RedisStorage) Save(ctx context.Context, token string) error {
	if err := r.rdb.Set(ctx, r.key, token, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisStorage) Delete(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}
