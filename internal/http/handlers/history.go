package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"artshift/internal/domain"
	"artshift/internal/history"
)

func (a *App) ListHistory(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": a.History.List()})
}

func (a *App) GetHistoryItem(w http.ResponseWriter, r *http.Request) {
	item, err := a.History.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, item)
}

// ClearHistory empties the history held by this process and its storage.
func (a *App) ClearHistory(w http.ResponseWriter, r *http.Request) {
	n := len(a.History.List())
	if err := a.History.Clear(r.Context()); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]int{"cleared": n})
}

// HistoryArchive bundles every result image in the history into one zip,
// newest first. Entries whose payload cannot be decoded are skipped.
func (a *App) HistoryArchive(w http.ResponseWriter, r *http.Request) {
	archive, _, err := history.Archive(a.History.List(), func(item domain.HistoryItem, err error) {
		a.Logger.Warn().Err(err).Str("id", item.ID).Msg("history archive: skipping entry")
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=ArtShift-history-%d.zip", time.Now().UnixMilli()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
