package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"artshift/internal/domain"
)

const (
	textDetectionInstruction   = "Please extract all visible text strings from this image. Return them as a simple JSON array of strings. Only return the JSON array, nothing else."
	entityDetectionInstruction = "Analyze this image and identify the 3-5 most distinct visual entities or subjects. Be descriptive and granular (e.g., 'Woman in red dress', 'Modern skyscraper', 'Lush forest background', 'Vintage wooden table', 'Neon city lights'). These entities will be presented to the user for individual modification. Return ONLY a valid JSON array of strings. Do not include markdown formatting or conversational text."
)

// FallbackEntities is returned when entity detection fails or finds nothing,
// so the workspace always has at least one editable row.
func FallbackEntities() []string {
	return []string{"primary subject", "background", "focal object"}
}

// DetectText returns the visible text strings of the image, or an empty list
// on any failure.
func (c *Client) DetectText(ctx context.Context, image domain.EmbeddedImage) []string {
	items, err := c.detectList(ctx, image, textDetectionInstruction)
	if err != nil {
		c.logger.Warn().Err(err).Str("model", c.textModel).Msg("gemini: text detection failed; returning empty list")
		return []string{}
	}
	return items
}

// DetectEntities returns 3-5 salient entity descriptions, or FallbackEntities
// on failure or an empty result.
func (c *Client) DetectEntities(ctx context.Context, image domain.EmbeddedImage) []string {
	items, err := c.detectList(ctx, image, entityDetectionInstruction)
	if err != nil {
		c.logger.Warn().Err(err).Str("model", c.textModel).Msg("gemini: entity detection failed; using fallback entities")
		return FallbackEntities()
	}
	if len(items) == 0 {
		c.logger.Debug().Str("model", c.textModel).Msg("gemini: entity detection returned nothing; using fallback entities")
		return FallbackEntities()
	}
	return items
}

func (c *Client) detectList(ctx context.Context, image domain.EmbeddedImage, instruction string) ([]string, error) {
	data, err := image.Bytes()
	if err != nil {
		return nil, err
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, image.MIMEType),
			genai.NewPartFromText(instruction),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	}

	resp, err := c.sdk.Models.GenerateContent(ctx, c.textModel, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return nil, fmt.Errorf("empty response")
	}
	items, err := ParseStringList(text)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return items, nil
}
