package credentials

import (
	"context"
	"errors"
	"strings"

	"artshift/internal/storage"
)

// KeyGeminiAPIKey is the storage key holding the Gemini API key.
const KeyGeminiAPIKey = "gemini_api_key"

// ErrMissingAPIKey is returned when neither the environment nor the store
// provides a key.
var ErrMissingAPIKey = errors.New("gemini api key is not configured")

type Store struct {
	kv storage.KV
}

func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	value, ok, err := s.kv.Get(ctx, KeyGeminiAPIKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return strings.TrimSpace(string(value)), nil
}

func (s *Store) SetGeminiAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("gemini api key is required")
	}
	return s.kv.Put(ctx, KeyGeminiAPIKey, []byte(key))
}

// ResolveGeminiAPIKey prefers the configured key and falls back to the stored one.
func (s *Store) ResolveGeminiAPIKey(ctx context.Context, configured string) (string, error) {
	if key := strings.TrimSpace(configured); key != "" {
		return key, nil
	}
	key, err := s.GeminiAPIKey(ctx)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", ErrMissingAPIKey
	}
	return key, nil
}
