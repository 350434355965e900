package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"artshift/internal/domain"
)

func (a *App) Workspace(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Studio.Snapshot())
}

// UploadImage accepts a multipart "image" file or a JSON {"image": dataURL}
// body, sniffs the payload and runs detection before answering.
func (a *App) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.Config.MaxUploadBytes)
	img, err := a.readUpload(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	snap, err := a.Studio.Upload(r.Context(), img.String())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, snap)
}

func (a *App) readUpload(r *http.Request) (domain.EmbeddedImage, error) {
	var data []byte
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("image")
		if err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				return domain.EmbeddedImage{}, err
			}
			return domain.EmbeddedImage{}, fmt.Errorf("%w: missing image field", domain.ErrInvalidImage)
		}
		defer file.Close()
		data, err = io.ReadAll(file)
		if err != nil {
			return domain.EmbeddedImage{}, err
		}
	} else {
		var body struct {
			Image string `json:"image"`
		}
		if err := decodeJSON(r, &body); err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				return domain.EmbeddedImage{}, err
			}
			return domain.EmbeddedImage{}, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
		}
		parsed, err := domain.ParseDataURL(body.Image)
		if err != nil {
			return domain.EmbeddedImage{}, err
		}
		data, err = parsed.Bytes()
		if err != nil {
			return domain.EmbeddedImage{}, err
		}
	}
	return sniffImage(data)
}

// sniffImage trusts the bytes over any declared media type.
func sniffImage(data []byte) (domain.EmbeddedImage, error) {
	if len(data) == 0 {
		return domain.EmbeddedImage{}, fmt.Errorf("%w: empty upload", domain.ErrInvalidImage)
	}
	mime := mimetype.Detect(data).String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		return domain.EmbeddedImage{}, fmt.Errorf("%w: detected %s", domain.ErrInvalidImage, mime)
	}
	return domain.NewEmbeddedImage(mime, data), nil
}

type styleRequest struct {
	Style        string  `json:"style"`
	CustomPrompt *string `json:"custom_prompt"`
}

func (a *App) SelectStyle(w http.ResponseWriter, r *http.Request) {
	var req styleRequest
	if err := decodeJSON(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, codeBadRequest, localize(r, codeBadRequest))
		return
	}
	if strings.TrimSpace(req.Style) != "" {
		if _, err := a.Studio.SelectStyle(req.Style); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	if req.CustomPrompt != nil {
		a.Studio.SetCustomPrompt(*req.CustomPrompt)
	}
	a.json(w, http.StatusOK, a.Studio.Snapshot())
}

func (a *App) SetAspectRatio(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AspectRatio string `json:"aspect_ratio"`
	}
	if err := decodeJSON(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, codeBadRequest, localize(r, codeBadRequest))
		return
	}
	if _, err := a.Studio.SetAspectRatio(req.AspectRatio); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, a.Studio.Snapshot())
}

func (a *App) EditText(w http.ResponseWriter, r *http.Request) {
	index, ok := a.indexParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Replacement string `json:"replacement"`
	}
	if err := decodeJSON(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, codeBadRequest, localize(r, codeBadRequest))
		return
	}
	item, err := a.Studio.EditReplacement(index, req.Replacement)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, item)
}

func (a *App) EditEntity(w http.ResponseWriter, r *http.Request) {
	index, ok := a.indexParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Instruction string `json:"instruction"`
	}
	if err := decodeJSON(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, codeBadRequest, localize(r, codeBadRequest))
		return
	}
	item, err := a.Studio.EditInstruction(index, req.Instruction)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, item)
}

func (a *App) indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		a.error(w, http.StatusBadRequest, codeBadRequest, localize(r, codeBadRequest))
		return 0, false
	}
	return index, true
}

func (a *App) Prompt(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"prompt": a.Studio.Prompt()})
}

func (a *App) Transform(w http.ResponseWriter, r *http.Request) {
	outcome, err := a.Studio.Transform(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, outcome)
}

func (a *App) Result(w http.ResponseWriter, r *http.Request) {
	dl, err := a.Studio.Result()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", dl.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(dl.Data)
}

func (a *App) ResetWorkspace(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Studio.Reset())
}
