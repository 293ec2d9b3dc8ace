// Package storage keeps the small amount of client state that has to
// survive restarts: the admin token and the cart of every chat.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Storage is a string key/value store. Get reports ok=false for a missing key.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

var ErrClosed = errors.New("storage closed")

// Keys used by the stores. Namespaced per chat so every chat gets its own
// session and cart.
const (
	KeyAuthToken = "bria:authToken"
	KeyCart      = "bria:cart"
)

// Scoped prefixes every key with a namespace.
type Scoped struct {
	inner  Storage
	prefix string
}

func Scope(inner Storage, namespace string) *Scoped {
	return &Scoped{inner: inner, prefix: namespace + ":"}
}

func ChatScope(inner Storage, chatID int64) *Scoped {
	return Scope(inner, fmt.Sprintf("chat:%d", chatID))
}

func (s *Scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *Scoped) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// Memory is an in-process Storage, used in tests and when no backend is configured.
type Memory struct {
	mu     sync.RWMutex
	m      map[string]string
	closed bool
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string]string)}
}

func (s *Memory) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrClosed
	}
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *Memory) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.m[key] = value
	return nil
}

func (s *Memory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.m, key)
	return nil
}

func (s *Memory) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
