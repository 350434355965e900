package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"artshift/internal/imagegen"
	"artshift/internal/infra"
)

const (
	defaultTextModel  = "gemini-2.5-flash"
	defaultImageModel = "gemini-2.5-flash-image"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client adapts the Gemini generateContent API to the detection and
// synthesis contracts. It holds no per-request state and is safe for
// concurrent use.
type Client struct {
	sdk        *genai.Client
	textModel  string
	imageModel string
	logger     *infra.Logger
}

// NewClient constructs a Gemini client with injected credentials. Callers may
// provide a nil HTTP client; one with a generous timeout is created.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}

	sdk, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	textModel := strings.TrimSpace(opts.TextModel)
	if textModel == "" {
		textModel = defaultTextModel
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = defaultImageModel
	}

	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Client{
		sdk:        sdk,
		textModel:  textModel,
		imageModel: imageModel,
		logger:     logger,
	}, nil
}

// TextModel returns the model used for detection.
func (c *Client) TextModel() string {
	return c.textModel
}

// ImageModel returns the model used for synthesis.
func (c *Client) ImageModel() string {
	return c.imageModel
}

var (
	_ imagegen.Detector    = (*Client)(nil)
	_ imagegen.Synthesizer = (*Client)(nil)
)
