package imagegen

import (
	"fmt"
	"strings"

	"artshift/internal/domain"
)

// ComposeInput carries the workspace state the instruction is built from.
type ComposeInput struct {
	Style        domain.StyleOption
	CustomPrompt string
	Replacements []domain.TextReplacement
	Modifiers    []domain.EntityModification
	AspectRatio  domain.AspectRatio
}

// Compose merges the style instruction and the structured edits into the
// single instruction sent with the image. Segments are appended in a fixed
// order: base, aspect ratio, text replacements, entity modifications; the
// model weights trailing instructions more heavily.
func Compose(in ComposeInput) string {
	parts := []string{}
	if base := basePrompt(in); base != "" {
		parts = append(parts, base)
	}
	if in.AspectRatio.Changes() {
		parts = append(parts, aspectClause(in.AspectRatio))
	}
	if clause := replacementClause(in.Replacements); clause != "" {
		parts = append(parts, clause)
	}
	if clause := modificationClause(in.Modifiers); clause != "" {
		parts = append(parts, clause)
	}
	return strings.Join(parts, " ")
}

func basePrompt(in ComposeInput) string {
	if !in.Style.IsCustom() {
		return in.Style.Prompt
	}
	if strings.TrimSpace(in.CustomPrompt) == "" {
		return ""
	}
	return in.CustomPrompt
}

func aspectClause(ratio domain.AspectRatio) string {
	return fmt.Sprintf("Adjust the composition to a %s (%s) aspect ratio, extending or reframing the scene naturally.", ratio, ratio.Label())
}

// EffectiveReplacements keeps entries that actually change visible text.
func EffectiveReplacements(reps []domain.TextReplacement) []domain.TextReplacement {
	var out []domain.TextReplacement
	for _, tr := range reps {
		if strings.TrimSpace(tr.Original) == "" || strings.TrimSpace(tr.Replacement) == "" {
			continue
		}
		if tr.Original == tr.Replacement {
			continue
		}
		out = append(out, tr)
	}
	return out
}

// EffectiveModifications keeps entries with a non-blank instruction.
func EffectiveModifications(mods []domain.EntityModification) []domain.EntityModification {
	var out []domain.EntityModification
	for _, em := range mods {
		if strings.TrimSpace(em.Instruction) == "" {
			continue
		}
		out = append(out, em)
	}
	return out
}

func replacementClause(reps []domain.TextReplacement) string {
	kept := EffectiveReplacements(reps)
	if len(kept) == 0 {
		return ""
	}
	directives := make([]string, 0, len(kept)+2)
	directives = append(directives, "IMPORTANT:")
	for _, tr := range kept {
		directives = append(directives, fmt.Sprintf(`Change the text that says "%s" to "%s".`, tr.Original, tr.Replacement))
	}
	directives = append(directives, "Ensure the new text is rendered clearly and integrated naturally.")
	return strings.Join(directives, " ")
}

func modificationClause(mods []domain.EntityModification) string {
	kept := EffectiveModifications(mods)
	if len(kept) == 0 {
		return ""
	}
	directives := make([]string, 0, len(kept)+1)
	directives = append(directives, "SUBJECT MODIFICATIONS:")
	for _, em := range kept {
		directives = append(directives, fmt.Sprintf(`Specifically for the "%s", modify it as follows: %s.`, em.Entity, em.Instruction))
	}
	return strings.Join(directives, " ")
}
