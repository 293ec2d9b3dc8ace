// Package session holds the admin login state of one chat. The stored token
// is the only source of truth: Init recomputes everything from storage.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/napryag/salon_bot/pkg/api"
	"github.com/napryag/salon_bot/pkg/repository/storage"
	"github.com/rs/zerolog"
)

const (
	// PlaceholderToken is stored when the backend reports success without a token.
	PlaceholderToken = "admin-token"
	// PlaceholderEmail is shown for a session restored from storage.
	PlaceholderEmail = "admin@admin.com"

	msgInvalidCredentials = "Invalid credentials"
	msgLoginFailed        = "Login failed. Please try again."
)

// Authenticator is the part of the auth access module the store needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (api.LoginResponse, error)
	Logout(ctx context.Context) error
}

type User struct {
	Email string
}

type LoginResult struct {
	Success bool
	Error   string
}

type Store struct {
	mu            sync.RWMutex
	storage       storage.Storage
	auth          Authenticator
	logger        zerolog.Logger
	loading       bool
	authenticated bool
	user          *User
	onChange      func(authenticated bool)
}

func New(st storage.Storage, auth Authenticator, logger zerolog.Logger) *Store {
	return &Store{
		storage: st,
		auth:    auth,
		logger:  logger,
		loading: true,
	}
}

// SetAuthenticator binds the auth module after construction. The API client
// needs the store as its token source, so the two are wired in two steps.
func (s *Store) SetAuthenticator(auth Authenticator) {
	s.mu.Lock()
	s.auth = auth
	s.mu.Unlock()
}

// OnChange registers a callback fired after every authenticated transition.
func (s *Store) OnChange(fn func(authenticated bool)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Init runs the one startup check. A storage error leaves the session
// unauthenticated rather than failing startup.
func (s *Store) Init(ctx context.Context) {
	token, ok, err := s.storage.Get(ctx, storage.KeyAuthToken)
	if err != nil {
		s.logger.Warn().Err(err).Msg("session: read token failed, starting unauthenticated")
	}

	s.mu.Lock()
	s.authenticated = err == nil && ok && token != ""
	if s.authenticated {
		s.user = &User{Email: PlaceholderEmail}
	} else {
		s.user = nil
	}
	s.loading = false
	s.mu.Unlock()
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token implements api.TokenSource.
func (s *Store) Token(ctx context.Context) (string, error) {
	token, _, err := s.storage.Get(ctx, storage.KeyAuthToken)
	return token, err
}

// Login never returns a Go error: the result carries exactly one of success,
// rejected credentials or a transport failure.
func (s *Store) Login(ctx context.Context, email, password string) LoginResult {
	s.mu.RLock()
	auth := s.auth
	s.mu.RUnlock()
	if auth == nil {
		return LoginResult{Error: msgLoginFailed}
	}

	resp, err := auth.Login(ctx, email, password)
	if err != nil {
		var apiErr *api.Error
		rejected := errors.Is(err, api.ErrUnauthorized) ||
			(errors.As(err, &apiErr) && !apiErr.Transport() && apiErr.Status < 500)
		if rejected {
			s.logger.Info().Str("email", email).Err(err).Msg("login rejected")
			return LoginResult{Error: msgInvalidCredentials}
		}
		s.logger.Error().Err(err).Msg("login error")
		return LoginResult{Error: msgLoginFailed}
	}
	if !resp.Success {
		return LoginResult{Error: msgInvalidCredentials}
	}

	token := resp.Token
	if token == "" {
		token = PlaceholderToken
	}
	if err := s.storage.Set(ctx, storage.KeyAuthToken, token); err != nil {
		s.logger.Error().Err(err).Msg("login: persist token failed")
		return LoginResult{Error: msgLoginFailed}
	}

	s.set(true, &User{Email: email})
	return LoginResult{Success: true}
}

// Logout clears the local session at once. The server call runs in the
// background and its outcome does not matter locally.
func (s *Store) Logout(ctx context.Context) {
	s.clear(ctx)

	s.mu.RLock()
	auth := s.auth
	s.mu.RUnlock()
	if auth == nil {
		return
	}
	go func() {
		if err := auth.Logout(context.WithoutCancel(ctx)); err != nil {
			s.logger.Debug().Err(err).Msg("server logout failed")
		}
	}()
}

// HandleUnauthorized is the 401 hook of the API client.
func (s *Store) HandleUnauthorized(ctx context.Context) {
	s.logger.Info().Msg("session: backend rejected token, clearing")
	s.clear(ctx)
}

func (s *Store) clear(ctx context.Context) {
	if err := s.storage.Delete(ctx, storage.KeyAuthToken); err != nil {
		s.logger.Warn().Err(err).Msg("session: delete token failed")
	}
	s.set(false, nil)
}

func (s *Store) set(authenticated bool, u *User) {
	s.mu.Lock()
	s.authenticated = authenticated
	s.user = u
	s.loading = false
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(authenticated)
	}
}
