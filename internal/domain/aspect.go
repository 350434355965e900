package domain

import (
	"fmt"
	"strings"
)

// AspectRatio is a nominal output ratio hint for the remote model.
type AspectRatio string

const (
	// AspectOriginal leaves the framing unchanged.
	AspectOriginal AspectRatio = "original"
	AspectSquare   AspectRatio = "1:1"
	AspectClassic  AspectRatio = "4:3"
	AspectPortrait AspectRatio = "3:4"
	AspectWide     AspectRatio = "16:9"
	AspectVertical AspectRatio = "9:16"
)

// AspectRatioOption pairs a ratio with its display label.
type AspectRatioOption struct {
	Value AspectRatio `json:"value"`
	Label string      `json:"label"`
}

var aspectRatios = []AspectRatioOption{
	{Value: AspectOriginal, Label: "Original"},
	{Value: AspectSquare, Label: "Square"},
	{Value: AspectClassic, Label: "Retro"},
	{Value: AspectPortrait, Label: "Portrait"},
	{Value: AspectWide, Label: "Widescreen"},
	{Value: AspectVertical, Label: "Vertical"},
}

// AspectRatios lists the closed ratio enumeration.
func AspectRatios() []AspectRatioOption {
	out := make([]AspectRatioOption, len(aspectRatios))
	copy(out, aspectRatios)
	return out
}

// ParseAspectRatio validates a ratio. An empty value means AspectOriginal.
func ParseAspectRatio(v string) (AspectRatio, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return AspectOriginal, nil
	}
	for _, opt := range aspectRatios {
		if string(opt.Value) == v {
			return opt.Value, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAspectRatio, v)
}

// Label returns the display label, or the raw value for unknown ratios.
func (a AspectRatio) Label() string {
	for _, opt := range aspectRatios {
		if opt.Value == a {
			return opt.Label
		}
	}
	return string(a)
}

// Changes reports whether the ratio asks the model to reframe.
func (a AspectRatio) Changes() bool {
	return a != "" && a != AspectOriginal
}
