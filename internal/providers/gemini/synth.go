package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"artshift/internal/domain"
	"artshift/internal/imagegen"
)

// Finish and block reasons that indicate a safety refusal.
var safetyReasons = map[string]struct{}{
	"SAFETY":             {},
	"IMAGE_SAFETY":       {},
	"PROHIBITED_CONTENT": {},
	"BLOCKLIST":          {},
	"SPII":               {},
}

// Transform sends the source image and instruction to the image model and
// returns the first inline image of the first candidate as a PNG data URL.
func (c *Client) Transform(ctx context.Context, req imagegen.TransformRequest) (string, error) {
	data, err := req.Image.Bytes()
	if err != nil {
		return "", imagegen.NewTransformError(imagegen.FailureInvalidImage, err)
	}

	parts := []*genai.Part{genai.NewPartFromBytes(data, req.Image.MIMEType)}
	// An empty text part is rejected upstream; the image alone is still a
	// valid request.
	if req.Prompt != "" {
		parts = append(parts, genai.NewPartFromText(req.Prompt))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{}
	if req.AspectRatio.Changes() {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: string(req.AspectRatio)}
	}

	c.logger.Debug().
		Str("model", c.imageModel).
		Str("aspect_ratio", string(req.AspectRatio)).
		Int("prompt_len", len(req.Prompt)).
		Msg("gemini: transform request")

	resp, err := c.sdk.Models.GenerateContent(ctx, c.imageModel, contents, cfg)
	if err != nil {
		classified := classifyError(err)
		c.logger.Warn().Err(err).Str("kind", string(imagegen.KindOf(classified))).Msg("gemini: transform failed")
		return "", classified
	}
	return extractImage(resp)
}

func extractImage(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		if reason := blockReason(resp); reason != "" {
			return "", imagegen.NewTransformError(imagegen.FailureSafety, fmt.Errorf("prompt blocked: %s", reason))
		}
		return "", imagegen.NewTransformError(imagegen.FailureNoImage, imagegen.ErrNoImage)
	}

	cand := resp.Candidates[0]
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			return domain.NewEmbeddedImage(domain.DefaultImageMIME, part.InlineData.Data).String(), nil
		}
	}

	if isSafetyReason(string(cand.FinishReason)) {
		return "", imagegen.NewTransformError(imagegen.FailureSafety, fmt.Errorf("candidate finished with %s", cand.FinishReason))
	}
	return "", imagegen.NewTransformError(imagegen.FailureNoImage, imagegen.ErrNoImage)
}

func blockReason(resp *genai.GenerateContentResponse) string {
	if resp == nil || resp.PromptFeedback == nil {
		return ""
	}
	reason := string(resp.PromptFeedback.BlockReason)
	if reason == "" || strings.EqualFold(reason, "BLOCKED_REASON_UNSPECIFIED") {
		return ""
	}
	return reason
}

func isSafetyReason(reason string) bool {
	_, ok := safetyReasons[strings.ToUpper(strings.TrimSpace(reason))]
	return ok
}

// classifyError maps transport and API errors onto failure kinds. Structured
// status codes win; message markers are the fallback.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return imagegen.NewTransformError(imagegen.FailureNetwork, err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || strings.EqualFold(apiErr.Status, "RESOURCE_EXHAUSTED") {
			return imagegen.NewTransformError(imagegen.FailureRateLimited, err)
		}
		if strings.Contains(strings.ToUpper(apiErr.Message), "SAFETY") {
			return imagegen.NewTransformError(imagegen.FailureSafety, err)
		}
	}

	msg := strings.ToUpper(err.Error())
	switch {
	case strings.Contains(msg, "SAFETY"):
		return imagegen.NewTransformError(imagegen.FailureSafety, err)
	case strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "429"):
		return imagegen.NewTransformError(imagegen.FailureRateLimited, err)
	}
	return imagegen.NewTransformError(imagegen.FailureNetwork, err)
}
