// Package cart keeps the services a customer picked before booking. Each
// service appears at most once; there is no quantity.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/napryag/salon_bot/pkg/repository/model"
	"github.com/napryag/salon_bot/pkg/repository/storage"
	"github.com/napryag/salon_bot/pkg/utils/errs"
	"github.com/rs/zerolog"
)

var ErrAlreadyInCart = errors.New("service already in cart")

// NoticeAlreadyInCart is shown to the customer on a duplicate add.
const NoticeAlreadyInCart = "This service is already in your cart!"

// Store mirrors the item list to storage on every mutation. A mutation is
// committed in memory only after the write succeeded, so both sides always
// agree.
type Store struct {
	mu      sync.RWMutex
	storage storage.Storage
	logger  zerolog.Logger
	items   []model.CartItem
}

func New(st storage.Storage, logger zerolog.Logger) *Store {
	return &Store{storage: st, logger: logger, items: []model.CartItem{}}
}

// Load rehydrates the cart once. Missing or unparseable data is an empty cart.
func (s *Store) Load(ctx context.Context) {
	raw, ok, err := s.storage.Get(ctx, storage.KeyCart)
	items := []model.CartItem{}
	switch {
	case err != nil:
		s.logger.Warn().Err(err).Msg("cart: read failed, starting empty")
	case ok && raw != "":
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			s.logger.Warn().Err(err).Msg("cart: corrupt data, starting empty")
			items = []model.CartItem{}
		}
	}
	if items == nil {
		items = []model.CartItem{}
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

// Add appends svc. A service already in the cart is rejected with
// ErrAlreadyInCart and the list stays as it was.
func (s *Store) Add(ctx context.Context, svc model.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.ID == svc.ID {
			return ErrAlreadyInCart
		}
	}
	next := make([]model.CartItem, len(s.items), len(s.items)+1)
	copy(next, s.items)
	next = append(next, model.CartItemFrom(svc))
	return s.commit(ctx, next)
}

// Remove drops the item with id. Unknown ids are a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.CartItem, 0, len(s.items))
	for _, it := range s.items {
		if it.ID != id {
			next = append(next, it)
		}
	}
	if len(next) == len(s.items) {
		return nil
	}
	return s.commit(ctx, next)
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, []model.CartItem{})
}

// Total sums the prices; an item without a price counts as zero.
func (s *Store) Total() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, it := range s.items {
		if it.Price != nil {
			total += *it.Price
		}
	}
	return total
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.ID == id {
			return true
		}
	}
	return false
}

// Items returns a copy in insertion order.
func (s *Store) Items() []model.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// LineItems converts the cart into booking line items.
func (s *Store) LineItems() []model.LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.LineItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it.LineItem())
	}
	return out
}

// commit must be called with mu held.
func (s *Store) commit(ctx context.Context, next []model.CartItem) error {
	b, err := json.Marshal(next)
	if err != nil {
		return errs.New("failed to encode cart").Wrap(err)
	}
	if err := s.storage.Set(ctx, storage.KeyCart, string(b)); err != nil {
		return errs.New("failed to persist cart").Arg("items", len(next)).Wrap(err)
	}
	s.items = next
	return nil
}
