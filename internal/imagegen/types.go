package imagegen

import (
	"context"
	"errors"
	"fmt"

	"artshift/internal/domain"
)

// TransformRequest is the input of a synthesis call.
type TransformRequest struct {
	Image       domain.EmbeddedImage
	Prompt      string
	AspectRatio domain.AspectRatio
}

// Detector extracts structured information from an image. Implementations
// never fail: they return documented fallbacks instead.
type Detector interface {
	DetectText(ctx context.Context, image domain.EmbeddedImage) []string
	DetectEntities(ctx context.Context, image domain.EmbeddedImage) []string
}

// Synthesizer produces a new image from a source image and an instruction.
// The result is an embedded-data string.
type Synthesizer interface {
	Transform(ctx context.Context, req TransformRequest) (string, error)
}

// FailureKind classifies transform failures for user-facing messaging.
type FailureKind string

const (
	FailureMissingImage FailureKind = "missing_image"
	FailureNoImage      FailureKind = "no_image"
	FailureSafety       FailureKind = "safety"
	FailureRateLimited  FailureKind = "rate_limited"
	FailureNetwork      FailureKind = "network"
	// FailureInvalidImage marks a local source image that cannot be decoded.
	FailureInvalidImage FailureKind = "invalid_image"
)

// ErrNoImage is returned when the model response carries no inline image.
var ErrNoImage = errors.New("no image data returned from model")

// ErrMissingImage is returned when a transform is requested without an upload.
var ErrMissingImage = errors.New("no source image uploaded")

// TransformError wraps a synthesis failure with its kind.
type TransformError struct {
	Kind FailureKind
	Err  error
}

func (e *TransformError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("transform %s: %v", e.Kind, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// NewTransformError wraps err with kind.
func NewTransformError(kind FailureKind, err error) *TransformError {
	return &TransformError{Kind: kind, Err: err}
}

// KindOf returns the failure kind of err. Errors that carry no kind are
// treated as network/other failures.
func KindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	var te *TransformError
	if errors.As(err, &te) {
		return te.Kind
	}
	switch {
	case errors.Is(err, ErrMissingImage):
		return FailureMissingImage
	case errors.Is(err, ErrNoImage):
		return FailureNoImage
	case errors.Is(err, domain.ErrInvalidImage):
		return FailureInvalidImage
	}
	return FailureNetwork
}
