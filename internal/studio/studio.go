// Package studio holds the single editing workspace: the uploaded image, its
// detected edit model, the selected style and ratio, and the last result.
// Remote calls run without the lock held; a generation counter discards
// results that arrive after the workspace was replaced or reset.
package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"artshift/internal/domain"
	"artshift/internal/imagegen"
)

var (
	ErrTransformInProgress = errors.New("studio: a transform is already running")
	ErrSuperseded          = errors.New("studio: workspace changed while the request was running")
	ErrNoResult            = errors.New("studio: no transformed image yet")
)

const (
	defaultDetectTimeout    = 45 * time.Second
	defaultTransformTimeout = 120 * time.Second
)

// HistoryRecorder stores completed transformations.
type HistoryRecorder interface {
	Add(ctx context.Context, originalURL, transformedURL, styleLabel string) (domain.HistoryItem, error)
}

type Options struct {
	Detector         imagegen.Detector
	Synthesizer      imagegen.Synthesizer
	History          HistoryRecorder
	Logger           zerolog.Logger
	DetectTimeout    time.Duration
	TransformTimeout time.Duration
	Now              func() time.Time
}

type Studio struct {
	detector         imagegen.Detector
	synth            imagegen.Synthesizer
	history          HistoryRecorder
	logger           zerolog.Logger
	detectTimeout    time.Duration
	transformTimeout time.Duration
	now              func() time.Time

	mu            sync.Mutex
	image         *domain.EmbeddedImage
	style         domain.StyleOption
	customPrompt  string
	ratio         domain.AspectRatio
	replacements  []domain.TextReplacement
	modifications []domain.EntityModification
	analyzing     bool
	transforming  bool
	result        string
	generation    uint64
}

func New(opts Options) (*Studio, error) {
	if opts.Detector == nil {
		return nil, errors.New("studio: detector is required")
	}
	if opts.Synthesizer == nil {
		return nil, errors.New("studio: synthesizer is required")
	}
	if opts.History == nil {
		return nil, errors.New("studio: history is required")
	}
	s := &Studio{
		detector:         opts.Detector,
		synth:            opts.Synthesizer,
		history:          opts.History,
		logger:           opts.Logger,
		detectTimeout:    opts.DetectTimeout,
		transformTimeout: opts.TransformTimeout,
		now:              opts.Now,
		style:            domain.DefaultStyle(),
		ratio:            domain.AspectOriginal,
	}
	if s.detectTimeout <= 0 {
		s.detectTimeout = defaultDetectTimeout
	}
	if s.transformTimeout <= 0 {
		s.transformTimeout = defaultTransformTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Snapshot is a copy of the workspace state.
type Snapshot struct {
	HasImage            bool                        `json:"has_image"`
	Image               string                      `json:"image,omitempty"`
	Style               domain.StyleOption          `json:"style"`
	CustomPrompt        string                      `json:"custom_prompt"`
	AspectRatio         domain.AspectRatio          `json:"aspect_ratio"`
	TextReplacements    []domain.TextReplacement    `json:"text_replacements"`
	EntityModifications []domain.EntityModification `json:"entity_modifications"`
	Analyzing           bool                        `json:"analyzing"`
	Transforming        bool                        `json:"transforming"`
	Result              string                      `json:"result,omitempty"`
	Generation          uint64                      `json:"generation"`
}

func (s *Studio) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Studio) snapshotLocked() Snapshot {
	snap := Snapshot{
		HasImage:            s.image != nil,
		Style:               s.style,
		CustomPrompt:        s.customPrompt,
		AspectRatio:         s.ratio,
		TextReplacements:    append([]domain.TextReplacement{}, s.replacements...),
		EntityModifications: append([]domain.EntityModification{}, s.modifications...),
		Analyzing:           s.analyzing,
		Transforming:        s.transforming,
		Result:              s.result,
		Generation:          s.generation,
	}
	if s.image != nil {
		snap.Image = s.image.String()
	}
	return snap
}

// Upload replaces the workspace image, clears edits and the last result, and
// runs text and entity detection concurrently. Detection outlives the caller's
// cancellation but is bounded by the detect timeout. Results are applied only
// if nothing replaced the workspace in the meantime; otherwise ErrSuperseded
// is returned alongside the current state.
func (s *Studio) Upload(ctx context.Context, raw string) (Snapshot, error) {
	img, err := domain.ParseDataURL(raw)
	if err != nil {
		return Snapshot{}, err
	}
	if _, err := img.Bytes(); err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.image = &img
	s.result = ""
	s.replacements = nil
	s.modifications = nil
	s.analyzing = true
	s.mu.Unlock()

	texts, entities := s.detect(ctx, img)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		s.logger.Debug().Uint64("generation", gen).Uint64("current", s.generation).Msg("studio: discarding stale detection results")
		return s.snapshotLocked(), ErrSuperseded
	}
	s.replacements = domain.NewTextReplacements(texts)
	s.modifications = domain.NewEntityModifications(entities)
	s.analyzing = false
	s.logger.Info().
		Int("texts", len(texts)).
		Int("entities", len(entities)).
		Str("mime", img.MIMEType).
		Msg("studio: image analyzed")
	return s.snapshotLocked(), nil
}

func (s *Studio) detect(ctx context.Context, img domain.EmbeddedImage) ([]string, []string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.detectTimeout)
	defer cancel()

	var texts, entities []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		texts = s.detector.DetectText(gctx, img)
		return nil
	})
	g.Go(func() error {
		entities = s.detector.DetectEntities(gctx, img)
		return nil
	})
	_ = g.Wait()
	return texts, entities
}

// SelectStyle switches the active style.
func (s *Studio) SelectStyle(id string) (domain.StyleOption, error) {
	style, ok := domain.LookupStyle(id)
	if !ok {
		return domain.StyleOption{}, fmt.Errorf("%w: %q", domain.ErrUnknownStyle, id)
	}
	s.mu.Lock()
	s.style = style
	s.mu.Unlock()
	return style, nil
}

// SetCustomPrompt stores the custom style text. It is forwarded verbatim.
func (s *Studio) SetCustomPrompt(text string) {
	s.mu.Lock()
	s.customPrompt = text
	s.mu.Unlock()
}

func (s *Studio) SetAspectRatio(raw string) (domain.AspectRatio, error) {
	ratio, err := domain.ParseAspectRatio(raw)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.ratio = ratio
	s.mu.Unlock()
	return ratio, nil
}

// EditReplacement sets the replacement text of the i-th detected string.
func (s *Studio) EditReplacement(i int, text string) (domain.TextReplacement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.replacements) {
		return domain.TextReplacement{}, fmt.Errorf("%w: text %d", domain.ErrIndexOutOfRange, i)
	}
	s.replacements[i].Replacement = text
	return s.replacements[i], nil
}

// EditInstruction sets the instruction of the i-th detected entity.
func (s *Studio) EditInstruction(i int, text string) (domain.EntityModification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.modifications) {
		return domain.EntityModification{}, fmt.Errorf("%w: entity %d", domain.ErrIndexOutOfRange, i)
	}
	s.modifications[i].Instruction = text
	return s.modifications[i], nil
}

// Prompt previews the instruction a transform would send now.
func (s *Studio) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composeLocked()
}

func (s *Studio) composeLocked() string {
	return imagegen.Compose(imagegen.ComposeInput{
		Style:        s.style,
		CustomPrompt: s.customPrompt,
		Replacements: s.replacements,
		Modifiers:    s.modifications,
		AspectRatio:  s.ratio,
	})
}

// Outcome describes a completed transform.
type Outcome struct {
	Result  string             `json:"result"`
	Prompt  string             `json:"prompt"`
	History domain.HistoryItem `json:"history"`
}

// Transform sends the current image and composed instruction to the
// synthesizer. Only one transform runs at a time. A missing image fails
// without a remote call. If the workspace is uploaded over or reset while
// the call is outstanding, the result is dropped and ErrSuperseded returned.
func (s *Studio) Transform(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	if s.image == nil {
		s.mu.Unlock()
		return Outcome{}, imagegen.NewTransformError(imagegen.FailureMissingImage, imagegen.ErrMissingImage)
	}
	if s.transforming {
		s.mu.Unlock()
		return Outcome{}, ErrTransformInProgress
	}
	s.transforming = true
	defer func() {
		s.mu.Lock()
		s.transforming = false
		s.mu.Unlock()
	}()
	gen := s.generation
	img := *s.image
	style := s.style
	ratio := s.ratio
	prompt := s.composeLocked()
	s.mu.Unlock()

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.transformTimeout)
	defer cancel()

	started := s.now()
	result, err := s.synth.Transform(callCtx, imagegen.TransformRequest{
		Image:       img,
		Prompt:      prompt,
		AspectRatio: ratio,
	})

	s.mu.Lock()
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn().Err(err).Str("kind", string(imagegen.KindOf(err))).Str("style", string(style.ID)).Msg("studio: transform failed")
		return Outcome{}, err
	}
	if s.generation != gen {
		s.mu.Unlock()
		s.logger.Debug().Uint64("generation", gen).Msg("studio: discarding stale transform result")
		return Outcome{}, ErrSuperseded
	}
	s.result = result
	s.mu.Unlock()

	s.logger.Info().
		Str("style", string(style.ID)).
		Str("aspect_ratio", string(ratio)).
		Dur("took", s.now().Sub(started)).
		Msg("studio: transform complete")

	item, err := s.history.Add(callCtx, img.String(), result, style.Label)
	if err != nil {
		s.logger.Error().Err(err).Msg("studio: record history")
	}
	return Outcome{Result: result, Prompt: prompt, History: item}, nil
}

// Reset clears the image, edits, custom text and result. The selected style
// and aspect ratio are kept.
func (s *Studio) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.image = nil
	s.result = ""
	s.replacements = nil
	s.modifications = nil
	s.customPrompt = ""
	s.analyzing = false
	return s.snapshotLocked()
}

// Download is the last result ready to be served as a file.
type Download struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Result returns the last transformed image named
// ArtShift-<style>-<unix-ms>.png after the currently selected style.
func (s *Studio) Result() (Download, error) {
	s.mu.Lock()
	result := s.result
	styleID := s.style.ID
	s.mu.Unlock()

	if strings.TrimSpace(result) == "" {
		return Download{}, ErrNoResult
	}
	img, err := domain.ParseDataURL(result)
	if err != nil {
		return Download{}, err
	}
	data, err := img.Bytes()
	if err != nil {
		return Download{}, err
	}
	return Download{
		Filename: fmt.Sprintf("ArtShift-%s-%d.png", styleID, s.now().UnixMilli()),
		MIMEType: img.MIMEType,
		Data:     data,
	}, nil
}
