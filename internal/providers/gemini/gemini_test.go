package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"artshift/internal/domain"
	"artshift/internal/imagegen"
)

var samplePNG = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13}

type recordedRequest struct {
	Path string
	Body string
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Path: r.URL.Path, Body: string(raw)})
	status, body := f.status, f.body
	f.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *fakeAPI) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatalf("no request recorded")
	}
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	client, err := NewClient(context.Background(), Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func textResponse(text string) string {
	quoted := strings.ReplaceAll(strings.ReplaceAll(text, `\`, `\\`), `"`, `\"`)
	quoted = strings.ReplaceAll(quoted, "\n", `\n`)
	return fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":"%s"}]},"finishReason":"STOP"}]}`, quoted)
}

func sourceImage() domain.EmbeddedImage {
	return domain.NewEmbeddedImage("image/jpeg", []byte("jpeg-bytes"))
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), Options{APIKey: "  "}); err == nil {
		t.Fatalf("expected error for blank api key")
	}
}

func TestNewClientDefaultsModels(t *testing.T) {
	client := newTestClient(t, &fakeAPI{})
	if client.TextModel() != defaultTextModel {
		t.Fatalf("text model = %q", client.TextModel())
	}
	if client.ImageModel() != defaultImageModel {
		t.Fatalf("image model = %q", client.ImageModel())
	}
}

func TestParseStringList(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{name: "plain", raw: `["SALE","50% OFF"]`, want: []string{"SALE", "50% OFF"}},
		{name: "fenced", raw: "```json\n[\"a\", \"b\"]\n```", want: []string{"a", "b"}},
		{name: "prose", raw: "Here you go: [\"x\"] hope it helps", want: []string{"x"}},
		{name: "blank entries", raw: `["", "  ", "kept"]`, want: []string{"kept"}},
		{name: "empty array", raw: `[]`, want: []string{}},
		{name: "malformed", raw: `not json`, wantErr: true},
		{name: "object", raw: `{"a":1}`, wantErr: true},
		{name: "empty", raw: "  ", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseStringList(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(got, "|") != strings.Join(tc.want, "|") || len(got) != len(tc.want) {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDetectTextParsesFencedResponse(t *testing.T) {
	api := &fakeAPI{body: textResponse("```json\n[\"SALE\", \"Open 9-5\"]\n```")}
	client := newTestClient(t, api)

	got := client.DetectText(context.Background(), sourceImage())
	if len(got) != 2 || got[0] != "SALE" || got[1] != "Open 9-5" {
		t.Fatalf("unexpected text: %q", got)
	}
	req := api.last(t)
	if !strings.Contains(req.Path, defaultTextModel) {
		t.Fatalf("expected text model in path, got %s", req.Path)
	}
	if !strings.Contains(req.Body, "application/json") {
		t.Fatalf("expected json response mime in body: %s", req.Body)
	}
}

func TestDetectTextReturnsEmptyOnFailure(t *testing.T) {
	api := &fakeAPI{body: textResponse("I cannot read that")}
	client := newTestClient(t, api)

	got := client.DetectText(context.Background(), sourceImage())
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
}

func TestDetectEntitiesFallback(t *testing.T) {
	cases := map[string]*fakeAPI{
		"malformed":    {body: textResponse("nope")},
		"empty list":   {body: textResponse("[]")},
		"server error": {status: http.StatusInternalServerError, body: `{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`},
	}
	for name, api := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, api)
			got := client.DetectEntities(context.Background(), sourceImage())
			want := FallbackEntities()
			if strings.Join(got, "|") != strings.Join(want, "|") {
				t.Fatalf("got %q, want %q", got, want)
			}
		})
	}
}

func TestDetectEntitiesSuccess(t *testing.T) {
	api := &fakeAPI{body: textResponse(`["Woman in red dress","Lush forest background","Vintage wooden table"]`)}
	client := newTestClient(t, api)

	got := client.DetectEntities(context.Background(), sourceImage())
	if len(got) != 3 || got[0] != "Woman in red dress" {
		t.Fatalf("unexpected entities: %q", got)
	}
}

func TestTransformReturnsFirstInlineImage(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(samplePNG)
	api := &fakeAPI{body: fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":"here is your image"},{"inlineData":{"mimeType":"image/png","data":"%s"}}]},"finishReason":"STOP"}]}`, encoded)}
	client := newTestClient(t, api)

	got, err := client.Transform(context.Background(), imagegen.TransformRequest{
		Image:       sourceImage(),
		Prompt:      "make it blue",
		AspectRatio: domain.AspectWide,
	})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if got != "data:image/png;base64,"+encoded {
		t.Fatalf("unexpected data url: %s", got)
	}

	req := api.last(t)
	if !strings.Contains(req.Path, defaultImageModel) {
		t.Fatalf("expected image model in path, got %s", req.Path)
	}
	if !strings.Contains(req.Body, `"aspectRatio":"16:9"`) {
		t.Fatalf("expected aspect ratio in request body: %s", req.Body)
	}
	if !strings.Contains(req.Body, "make it blue") {
		t.Fatalf("expected prompt in request body: %s", req.Body)
	}
}

func TestTransformOmitsAspectRatioForOriginal(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(samplePNG)
	api := &fakeAPI{body: fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"%s"}}]}}]}`, encoded)}
	client := newTestClient(t, api)

	if _, err := client.Transform(context.Background(), imagegen.TransformRequest{
		Image:       sourceImage(),
		Prompt:      "x",
		AspectRatio: domain.AspectOriginal,
	}); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if strings.Contains(api.last(t).Body, "aspectRatio") {
		t.Fatalf("did not expect aspect ratio in body: %s", api.last(t).Body)
	}
}

func TestTransformFailureKinds(t *testing.T) {
	cases := []struct {
		name string
		api  *fakeAPI
		want imagegen.FailureKind
	}{
		{
			name: "no candidates",
			api:  &fakeAPI{body: `{"candidates":[]}`},
			want: imagegen.FailureNoImage,
		},
		{
			name: "text only",
			api:  &fakeAPI{body: textResponse("I can only describe it")},
			want: imagegen.FailureNoImage,
		},
		{
			name: "safety finish",
			api:  &fakeAPI{body: `{"candidates":[{"finishReason":"IMAGE_SAFETY"}]}`},
			want: imagegen.FailureSafety,
		},
		{
			name: "prompt blocked",
			api:  &fakeAPI{body: `{"promptFeedback":{"blockReason":"SAFETY"}}`},
			want: imagegen.FailureSafety,
		},
		{
			name: "rate limited",
			api:  &fakeAPI{status: http.StatusTooManyRequests, body: `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`},
			want: imagegen.FailureRateLimited,
		},
		{
			name: "bad request",
			api:  &fakeAPI{status: http.StatusBadRequest, body: `{"error":{"code":400,"message":"invalid argument","status":"INVALID_ARGUMENT"}}`},
			want: imagegen.FailureNetwork,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, tc.api)
			_, err := client.Transform(context.Background(), imagegen.TransformRequest{Image: sourceImage(), Prompt: "p"})
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := imagegen.KindOf(err); got != tc.want {
				t.Fatalf("kind = %s, want %s (err=%v)", got, tc.want, err)
			}
		})
	}
}

func TestTransformNoImageUnwraps(t *testing.T) {
	client := newTestClient(t, &fakeAPI{body: `{"candidates":[]}`})
	_, err := client.Transform(context.Background(), imagegen.TransformRequest{Image: sourceImage(), Prompt: "p"})
	if !errors.Is(err, imagegen.ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

func TestClassifyErrorMessageFallback(t *testing.T) {
	cases := map[string]imagegen.FailureKind{
		"blocked for SAFETY reasons":   imagegen.FailureSafety,
		"status 429 too many requests": imagegen.FailureRateLimited,
		"RESOURCE_EXHAUSTED: quota":    imagegen.FailureRateLimited,
		"dial tcp: connection refused": imagegen.FailureNetwork,
	}
	for msg, want := range cases {
		if got := imagegen.KindOf(classifyError(errors.New(msg))); got != want {
			t.Fatalf("%q: kind = %s, want %s", msg, got, want)
		}
	}
	if got := imagegen.KindOf(classifyError(context.DeadlineExceeded)); got != imagegen.FailureNetwork {
		t.Fatalf("deadline: kind = %s", got)
	}
}

func TestTransformRejectsUndecodableSourceLocally(t *testing.T) {
	api := &fakeAPI{body: `{}`}
	client := newTestClient(t, api)

	_, err := client.Transform(context.Background(), imagegen.TransformRequest{
		Image:  domain.EmbeddedImage{MIMEType: "image/png", Payload: "!!not-base64!!"},
		Prompt: "x",
	})
	if imagegen.KindOf(err) != imagegen.FailureInvalidImage {
		t.Fatalf("expected invalid_image kind, got %v", err)
	}
	if !errors.Is(err, domain.ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage in chain, got %v", err)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.requests) != 0 {
		t.Fatalf("expected no remote call, got %d", len(api.requests))
	}
}
