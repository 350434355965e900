package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"artshift/internal/history"
	"artshift/internal/infra"
	"artshift/internal/prefs"
	"artshift/internal/studio"
)

type App struct {
	Config  *infra.Config
	Logger  zerolog.Logger
	Studio  *studio.Studio
	History *history.Store
	Prefs   *prefs.Store
}

func NewApp(cfg *infra.Config, logger zerolog.Logger, st *studio.Studio, hist *history.Store, pf *prefs.Store) *App {
	return &App{Config: cfg, Logger: logger, Studio: st, History: hist, Prefs: pf}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

var errEmptyBody = errors.New("request body is empty")

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}
