package httpapi

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"artshift/internal/domain"
	"artshift/internal/history"
	"artshift/internal/http/handlers"
	"artshift/internal/imagegen"
	"artshift/internal/infra"
	"artshift/internal/prefs"
	"artshift/internal/storage"
	"artshift/internal/studio"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R', 0, 0, 0, 1, 0, 0, 0, 1, 8, 2, 0, 0, 0}

type stubDetector struct{}

func (stubDetector) DetectText(ctx context.Context, image domain.EmbeddedImage) []string {
	return []string{"SALE"}
}

func (stubDetector) DetectEntities(ctx context.Context, image domain.EmbeddedImage) []string {
	return []string{"red car", "city street"}
}

type stubSynth struct {
	prompt string
	err    error
}

func (s *stubSynth) Transform(ctx context.Context, req imagegen.TransformRequest) (string, error) {
	s.prompt = req.Prompt
	if s.err != nil {
		return "", s.err
	}
	return domain.NewEmbeddedImage("image/png", pngBytes).String(), nil
}

func newTestServer(t *testing.T, synth *stubSynth) http.Handler {
	t.Helper()
	return newTestServerWithOptions(t, synth, Options{AllowedOrigins: []string{"*"}, DefaultLocale: "en", RateLimitPerMin: 100})
}

func newTestServerWithOptions(t *testing.T, synth *stubSynth, opts Options) http.Handler {
	t.Helper()
	logger := zerolog.Nop()
	kv, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	hist := history.NewStore(kv, logger)
	if err := hist.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	st, err := studio.New(studio.Options{
		Detector:    stubDetector{},
		Synthesizer: synth,
		History:     hist,
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("studio.New: %v", err)
	}
	cfg := &infra.Config{MaxUploadBytes: 1 << 20, DefaultLocale: "en"}
	app := handlers.NewApp(cfg, logger, st, hist, prefs.NewStore(kv))
	return NewRouter(app, opts)
}

func do(t *testing.T, h http.Handler, method, path string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil && header["Content-Type"] == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return env
}

func multipartUpload(t *testing.T, data []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "photo.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = fw.Write(data)
	_ = mw.Close()
	return buf.Bytes(), mw.FormDataContentType()
}

func TestCatalogEndpoints(t *testing.T) {
	h := newTestServer(t, &stubSynth{})

	rec := do(t, h, http.MethodGet, "/v1/styles", nil, nil)
	var styles struct {
		Items []domain.StyleOption `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &styles); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("styles: %d %v", rec.Code, err)
	}
	if len(styles.Items) != 10 || styles.Items[9].ID != domain.StyleCustom {
		t.Fatalf("unexpected styles: %d", len(styles.Items))
	}

	rec = do(t, h, http.MethodGet, "/v1/aspect-ratios", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"16:9"`) {
		t.Fatalf("aspect ratios: %d %s", rec.Code, rec.Body.String())
	}

	if rec := do(t, h, http.MethodGet, "/v1/healthz", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
}

func TestTransformWithoutImageIsLocalized(t *testing.T) {
	h := newTestServer(t, &stubSynth{})

	rec := do(t, h, http.MethodPost, "/v1/workspace/transform", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeError(t, rec)
	if env.Error.Code != "missing_image" || env.Error.Message != "Please upload an image first." {
		t.Fatalf("unexpected error: %+v", env)
	}

	rec = do(t, h, http.MethodPost, "/v1/workspace/transform", nil, map[string]string{"Accept-Language": "zh-CN,zh;q=0.9"})
	if env := decodeError(t, rec); env.Error.Message != "请先上传一张图片。" {
		t.Fatalf("expected zh message, got %+v", env)
	}
}

func TestWorkspaceFlow(t *testing.T) {
	synth := &stubSynth{}
	h := newTestServer(t, synth)

	body, contentType := multipartUpload(t, pngBytes)
	rec := do(t, h, http.MethodPost, "/v1/workspace/image", body, map[string]string{"Content-Type": contentType})
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body.String())
	}
	var snap studio.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if !snap.HasImage || len(snap.TextReplacements) != 1 || len(snap.EntityModifications) != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if !strings.HasPrefix(snap.Image, "data:image/png;base64,") {
		t.Fatalf("expected sniffed png, got %.40s", snap.Image)
	}

	steps := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodPut, "/v1/workspace/style", `{"style":"comic"}`, http.StatusOK},
		{http.MethodPut, "/v1/workspace/style", `{"style":"baroque"}`, http.StatusBadRequest},
		{http.MethodPut, "/v1/workspace/aspect-ratio", `{"aspect_ratio":"9:16"}`, http.StatusOK},
		{http.MethodPut, "/v1/workspace/aspect-ratio", `{"aspect_ratio":"2:1"}`, http.StatusBadRequest},
		{http.MethodPut, "/v1/workspace/texts/0", `{"replacement":"OPEN"}`, http.StatusOK},
		{http.MethodPut, "/v1/workspace/texts/5", `{"replacement":"x"}`, http.StatusNotFound},
		{http.MethodPut, "/v1/workspace/texts/abc", `{"replacement":"x"}`, http.StatusBadRequest},
		{http.MethodPut, "/v1/workspace/entities/1", `{"instruction":"add rain"}`, http.StatusOK},
	}
	for _, step := range steps {
		rec := do(t, h, step.method, step.path, []byte(step.body), nil)
		if rec.Code != step.want {
			t.Fatalf("%s %s %s: got %d want %d (%s)", step.method, step.path, step.body, rec.Code, step.want, rec.Body.String())
		}
	}

	rec = do(t, h, http.MethodGet, "/v1/workspace/prompt", nil, nil)
	var preview struct {
		Prompt string `json:"prompt"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &preview)
	for _, want := range []string{"comic", "9:16", `"SALE" to "OPEN"`, `"city street", modify it as follows: add rain.`} {
		if !strings.Contains(preview.Prompt, want) {
			t.Fatalf("prompt missing %q: %s", want, preview.Prompt)
		}
	}

	rec = do(t, h, http.MethodPost, "/v1/workspace/transform", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("transform: %d %s", rec.Code, rec.Body.String())
	}
	if synth.prompt != preview.Prompt {
		t.Fatalf("synthesizer received a different prompt than previewed")
	}

	rec = do(t, h, http.MethodGet, "/v1/workspace/result", nil, nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("result: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "ArtShift-comic-") || !strings.Contains(cd, ".png") {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if !bytes.Equal(rec.Body.Bytes(), pngBytes) {
		t.Fatalf("unexpected result bytes")
	}

	rec = do(t, h, http.MethodGet, "/v1/history", nil, nil)
	var hist struct {
		Items []domain.HistoryItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &hist); err != nil || len(hist.Items) != 1 {
		t.Fatalf("history: %v %s", err, rec.Body.String())
	}
	if hist.Items[0].StyleLabel != "American Comic" {
		t.Fatalf("unexpected style label %q", hist.Items[0].StyleLabel)
	}
	if rec := do(t, h, http.MethodGet, "/v1/history/"+hist.Items[0].ID, nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("history item: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/history/nope", nil, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing history item: %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/v1/history/archive", nil, nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/zip" {
		t.Fatalf("archive: %d", rec.Code)
	}
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil || len(zr.File) != 1 || !strings.HasSuffix(zr.File[0].Name, ".png") {
		t.Fatalf("unexpected archive: %v", err)
	}

	rec = do(t, h, http.MethodDelete, "/v1/workspace", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/workspace/result", nil, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected no result after reset, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodDelete, "/v1/history", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"cleared":1`) {
		t.Fatalf("clear history: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodGet, "/v1/history", nil, nil)
	if !strings.Contains(rec.Body.String(), `"items":[]`) {
		t.Fatalf("expected empty history after clear, got %s", rec.Body.String())
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	h := newTestServer(t, &stubSynth{})

	payload := `{"image":"data:image/png;base64,` + base64.StdEncoding.EncodeToString([]byte("plain text, not an image")) + `"}`
	rec := do(t, h, http.MethodPost, "/v1/workspace/image", []byte(payload), nil)
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Error.Code != "invalid_image" {
		t.Fatalf("expected invalid_image, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/v1/workspace/image", []byte(`{}`), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty payload, got %d", rec.Code)
	}
}

func TestUploadAcceptsDataURL(t *testing.T) {
	h := newTestServer(t, &stubSynth{})
	// Declared type is wrong; the sniffed type wins.
	payload := `{"image":"data:image/jpeg;base64,` + base64.StdEncoding.EncodeToString(pngBytes) + `"}`
	rec := do(t, h, http.MethodPost, "/v1/workspace/image", []byte(payload), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "data:image/png;base64,") {
		t.Fatalf("expected sniffed png in snapshot")
	}
}

func TestTransformFailureStatus(t *testing.T) {
	cases := []struct {
		kind   imagegen.FailureKind
		status int
	}{
		{imagegen.FailureSafety, http.StatusUnprocessableEntity},
		{imagegen.FailureRateLimited, http.StatusTooManyRequests},
		{imagegen.FailureNoImage, http.StatusBadGateway},
		{imagegen.FailureNetwork, http.StatusBadGateway},
		{imagegen.FailureInvalidImage, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			h := newTestServer(t, &stubSynth{err: imagegen.NewTransformError(tc.kind, errors.New("upstream"))})
			body, contentType := multipartUpload(t, pngBytes)
			if rec := do(t, h, http.MethodPost, "/v1/workspace/image", body, map[string]string{"Content-Type": contentType}); rec.Code != http.StatusOK {
				t.Fatalf("upload: %d", rec.Code)
			}
			rec := do(t, h, http.MethodPost, "/v1/workspace/transform", nil, nil)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if env := decodeError(t, rec); env.Error.Code != string(tc.kind) || env.Error.Message == "" {
				t.Fatalf("unexpected envelope: %+v", env)
			}
		})
	}
}

func TestTutorialPreference(t *testing.T) {
	h := newTestServer(t, &stubSynth{})

	rec := do(t, h, http.MethodGet, "/v1/preferences/tutorial", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"done":false`) {
		t.Fatalf("initial tutorial flag: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodPut, "/v1/preferences/tutorial", []byte(`{"done":true}`), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("set tutorial: %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/v1/preferences/tutorial", nil, nil)
	if !strings.Contains(rec.Body.String(), `"done":true`) {
		t.Fatalf("tutorial flag not persisted: %s", rec.Body.String())
	}
	if rec := do(t, h, http.MethodPut, "/v1/preferences/tutorial", []byte(`{"done":"maybe"}`), nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad payload, got %d", rec.Code)
	}
}

func TestOpenAPIServed(t *testing.T) {
	h := newTestServer(t, &stubSynth{})
	rec := do(t, h, http.MethodGet, "/v1/openapi.json", nil, nil)
	if rec.Code != http.StatusOK || !json.Valid(rec.Body.Bytes()) {
		t.Fatalf("openapi: %d", rec.Code)
	}
}

func TestDocsPointAtOpenAPIDocument(t *testing.T) {
	h := newTestServer(t, &stubSynth{})
	rec := do(t, h, http.MethodGet, "/v1/docs", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `spec-url="/v1/openapi.json"`) {
		t.Fatalf("docs: %d %s", rec.Code, rec.Body.String())
	}
}

func TestTransformLimitNotBypassedByForwardedFor(t *testing.T) {
	h := newTestServerWithOptions(t, &stubSynth{}, Options{DefaultLocale: "en", RateLimitPerMin: 1})

	codes := make([]int, 0, 2)
	for _, xff := range []string{"203.0.113.1", "203.0.113.2"} {
		rec := do(t, h, http.MethodPost, "/v1/workspace/transform", nil, map[string]string{"X-Forwarded-For": xff})
		codes = append(codes, rec.Code)
	}
	if codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected second transform to be limited, got %v", codes)
	}
}
