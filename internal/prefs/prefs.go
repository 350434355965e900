package prefs

import (
	"context"
	"strconv"
	"strings"

	"artshift/internal/storage"
)

// TutorialKey gates the first-run walkthrough.
const TutorialKey = "tutorial_done"

type Store struct {
	kv storage.KV
}

func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

// TutorialDone reports whether the walkthrough was completed. Missing or
// unparsable values read as false.
func (s *Store) TutorialDone(ctx context.Context) (bool, error) {
	raw, ok, err := s.kv.Get(ctx, TutorialKey)
	if err != nil || !ok {
		return false, err
	}
	done, err := strconv.ParseBool(strings.TrimSpace(string(raw)))
	if err != nil {
		return false, nil
	}
	return done, nil
}

func (s *Store) SetTutorialDone(ctx context.Context, done bool) error {
	return s.kv.Put(ctx, TutorialKey, []byte(strconv.FormatBool(done)))
}
