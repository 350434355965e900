package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"artshift/internal/domain"
	"artshift/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *storage.FileStore) {
	t.Helper()
	kv, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	store := NewStore(kv, zerolog.Nop())
	var seq int
	store.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	base := time.UnixMilli(1_700_000_000_000)
	store.now = func() time.Time {
		return base.Add(time.Duration(seq) * time.Second)
	}
	return store, kv
}

func TestAddKeepsTenMostRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore(t)

	for i := 1; i <= 11; i++ {
		if _, err := store.Add(ctx, "orig", fmt.Sprintf("result-%d", i), "Watercolor"); err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
	}

	items := store.List()
	if len(items) != domain.HistoryLimit {
		t.Fatalf("expected %d items, got %d", domain.HistoryLimit, len(items))
	}
	if items[0].TransformedURL != "result-11" {
		t.Fatalf("expected newest first, got %s", items[0].TransformedURL)
	}
	if items[len(items)-1].TransformedURL != "result-2" {
		t.Fatalf("expected oldest kept to be result-2, got %s", items[len(items)-1].TransformedURL)
	}

	raw, ok, err := kv.Get(ctx, StorageKey)
	if err != nil || !ok {
		t.Fatalf("expected persisted list: ok=%v err=%v", ok, err)
	}
	var persisted []domain.HistoryItem
	if err := json.Unmarshal(raw, &persisted); err != nil {
		t.Fatalf("decode persisted: %v", err)
	}
	if len(persisted) != domain.HistoryLimit || persisted[0].ID != items[0].ID {
		t.Fatalf("persisted list does not match memory: %d items", len(persisted))
	}
}

func TestAddPopulatesItem(t *testing.T) {
	store, _ := newTestStore(t)
	item, err := store.Add(context.Background(), "data:image/png;base64,AA==", "data:image/png;base64,BB==", "Cyberpunk")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if item.ID != "id-1" || item.StyleLabel != "Cyberpunk" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.Timestamp <= 0 {
		t.Fatalf("expected unix millisecond timestamp, got %d", item.Timestamp)
	}
}

func TestLoadRehydrates(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore(t)
	if _, err := store.Add(ctx, "o", "t", "Manga"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	reloaded := NewStore(kv, zerolog.Nop())
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	items := reloaded.List()
	if len(items) != 1 || items[0].StyleLabel != "Manga" {
		t.Fatalf("unexpected items after reload: %+v", items)
	}
	if _, err := reloaded.Get(items[0].ID); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := reloaded.Get("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadToleratesCorruptValue(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore(t)
	if err := kv.Put(ctx, StorageKey, []byte("{not json")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := store.List(); len(got) != 0 {
		t.Fatalf("expected empty list, got %+v", got)
	}
}

func TestLoadEmptyStore(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := store.List(); len(got) != 0 {
		t.Fatalf("expected empty list, got %+v", got)
	}
}

func TestListReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t)
	if _, err := store.Add(context.Background(), "o", "t", "Anime Film"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	items := store.List()
	items[0].StyleLabel = "mutated"
	if store.List()[0].StyleLabel != "Anime Film" {
		t.Fatalf("List exposed internal slice")
	}
}

func TestClearPersistsEmptyList(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore(t)
	if _, err := store.Add(ctx, "o", "t", "3D Render"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(store.List()) != 0 {
		t.Fatalf("expected empty list")
	}
	raw, _, _ := kv.Get(ctx, StorageKey)
	if string(raw) != "[]" {
		t.Fatalf("expected persisted empty list, got %s", raw)
	}
}

// gatedKV holds the first Put until release is closed.
type gatedKV struct {
	storage.KV
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedKV) Put(ctx context.Context, key string, value []byte) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.KV.Put(ctx, key, value)
}

func TestOverlappingAddsPersistInOrder(t *testing.T) {
	ctx := context.Background()
	fs, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	kv := &gatedKV{KV: fs, entered: make(chan struct{}), release: make(chan struct{})}
	store := NewStore(kv, zerolog.Nop())

	errs := make(chan error, 2)
	go func() {
		_, err := store.Add(ctx, "orig-a", "res-a", "A")
		errs <- err
	}()
	<-kv.entered

	secondDone := make(chan struct{})
	go func() {
		_, err := store.Add(ctx, "orig-b", "res-b", "B")
		errs <- err
		close(secondDone)
	}()

	select {
	case <-secondDone:
		t.Fatalf("second save finished while the first was still writing")
	case <-time.After(50 * time.Millisecond):
	}
	close(kv.release)
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	reloaded := NewStore(fs, zerolog.Nop())
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := reloaded.List()
	if len(got) != 2 || got[0].StyleLabel != "B" || got[1].StyleLabel != "A" {
		t.Fatalf("persisted list diverged from memory: %+v", got)
	}
	if mem := store.List(); len(mem) != len(got) || mem[0].ID != got[0].ID {
		t.Fatalf("memory %+v != persisted %+v", mem, got)
	}
}
