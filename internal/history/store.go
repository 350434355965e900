// Package history keeps the bounded, most-recent-first list of completed
// transformations and persists it wholesale to the key-value store.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"artshift/internal/domain"
	"artshift/internal/storage"
)

// StorageKey is the key the serialized list lives under.
const StorageKey = "art_shift_history"

type Store struct {
	// saveMu orders mutate-and-persist steps so storage always receives
	// lists in the order they were built.
	saveMu sync.Mutex
	mu     sync.RWMutex
	kv     storage.KV
	logger zerolog.Logger
	items  []domain.HistoryItem

	now   func() time.Time
	newID func() string
}

func NewStore(kv storage.KV, logger zerolog.Logger) *Store {
	return &Store{
		kv:     kv,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// Load rehydrates the list from storage. A corrupt value is logged and
// replaced by an empty list rather than failing startup.
func (s *Store) Load(ctx context.Context) error {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		return fmt.Errorf("history: load: %w", err)
	}

	var items []domain.HistoryItem
	if ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &items); err != nil {
			s.logger.Warn().Err(err).Msg("history: stored list is corrupt; starting empty")
			items = nil
		}
	}
	if len(items) > domain.HistoryLimit {
		items = items[:domain.HistoryLimit]
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// Add records a completed transformation at the front of the list, evicts
// anything past the cap and persists the whole list. The in-memory list is
// updated even when persisting fails.
func (s *Store) Add(ctx context.Context, originalURL, transformedURL, styleLabel string) (domain.HistoryItem, error) {
	item := domain.HistoryItem{
		ID:             s.newID(),
		OriginalURL:    originalURL,
		TransformedURL: transformedURL,
		StyleLabel:     styleLabel,
		Timestamp:      s.now().UnixMilli(),
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	next := make([]domain.HistoryItem, 0, domain.HistoryLimit)
	next = append(next, item)
	next = append(next, s.items...)
	if len(next) > domain.HistoryLimit {
		next = next[:domain.HistoryLimit]
	}
	s.items = next
	raw, err := json.Marshal(next)
	s.mu.Unlock()

	if err != nil {
		return item, fmt.Errorf("history: encode: %w", err)
	}
	if err := s.kv.Put(ctx, StorageKey, raw); err != nil {
		return item, fmt.Errorf("history: save: %w", err)
	}
	return item, nil
}

// List returns a copy of the list, newest first.
func (s *Store) List() []domain.HistoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.HistoryItem, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the item with the given identifier.
func (s *Store) Get(id string) (domain.HistoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.HistoryItem{}, domain.ErrNotFound
}

// Clear drops every entry and persists the empty list.
func (s *Store) Clear(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
	if err := s.kv.Put(ctx, StorageKey, []byte("[]")); err != nil {
		return fmt.Errorf("history: save: %w", err)
	}
	return nil
}
