package handlers

import (
	"net/http"
)

type tutorialPayload struct {
	Done bool `json:"done"`
}

func (a *App) GetTutorial(w http.ResponseWriter, r *http.Request) {
	done, err := a.Prefs.TutorialDone(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, tutorialPayload{Done: done})
}

func (a *App) SetTutorial(w http.ResponseWriter, r *http.Request) {
	var req tutorialPayload
	if err := decodeJSON(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, codeBadRequest, localize(r, codeBadRequest))
		return
	}
	if err := a.Prefs.SetTutorialDone(r.Context(), req.Done); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, req)
}
