// Package workspace wires one chat's session store, cart store and API
// client together. Nothing here is global: every chat gets its own instances.
package workspace

import (
	"context"
	"sync"

	"github.com/napryag/salon_bot/pkg/api"
	"github.com/napryag/salon_bot/pkg/domain/cart"
	"github.com/napryag/salon_bot/pkg/domain/session"
	"github.com/napryag/salon_bot/pkg/repository/storage"
	"github.com/rs/zerolog"
)

// RedirectFunc sends a chat to the login screen after its token was rejected.
type RedirectFunc func(ctx context.Context, chatID int64)

type Workspace struct {
	ChatID  int64
	Session *session.Store
	Cart    *cart.Store
	API     api.Resources
}

type Registry struct {
	mu       sync.Mutex
	m        map[int64]*Workspace
	storage  storage.Storage
	client   *api.Client
	logger   zerolog.Logger
	redirect RedirectFunc
}

func NewRegistry(st storage.Storage, client *api.Client, logger zerolog.Logger) *Registry {
	return &Registry{
		m:       make(map[int64]*Workspace),
		storage: st,
		client:  client,
		logger:  logger,
	}
}

// OnUnauthorized sets where chats go after a 401.
func (r *Registry) OnUnauthorized(fn RedirectFunc) {
	r.mu.Lock()
	r.redirect = fn
	r.mu.Unlock()
}

// Get returns the chat's workspace, building and rehydrating it on first use.
func (r *Registry) Get(ctx context.Context, chatID int64) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ws, ok := r.m[chatID]; ok {
		return ws
	}
	ws := r.build(ctx, chatID)
	r.m[chatID] = ws
	return ws
}

func (r *Registry) build(ctx context.Context, chatID int64) *Workspace {
	scoped := storage.ChatScope(r.storage, chatID)
	log := r.logger.With().Int64("chat_id", chatID).Logger()

	sess := session.New(scoped, nil, log.With().Str("component", "session").Logger())
	client := r.client.With(
		api.WithTokenSource(sess),
		api.WithUnauthorizedHandler(func(ctx context.Context) {
			// Only a chat that was logged in gets redirected; anonymous
			// calls and the server logout after clearing stay put.
			wasAuthenticated := sess.Authenticated()
			sess.HandleUnauthorized(ctx)
			r.mu.Lock()
			redirect := r.redirect
			r.mu.Unlock()
			if wasAuthenticated && redirect != nil {
				redirect(ctx, chatID)
			}
		}),
		api.WithLogger(log.With().Str("component", "api").Logger()),
	)
	res := api.NewResources(client)
	sess.SetAuthenticator(res.Auth)
	sess.Init(ctx)

	c := cart.New(scoped, log.With().Str("component", "cart").Logger())
	c.Load(ctx)

	return &Workspace{ChatID: chatID, Session: sess, Cart: c, API: res}
}
