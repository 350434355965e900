package domain

// TextReplacement pairs a detected text string with the user's replacement.
// Original is fixed at detection time; only Replacement is edited.
type TextReplacement struct {
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
}

// EntityModification pairs a detected entity with a free-text instruction.
// Entity is fixed at detection time; only Instruction is edited.
type EntityModification struct {
	Entity      string `json:"entity"`
	Instruction string `json:"instruction"`
}

// NewTextReplacements seeds one replacement per detected string, each
// initialised to its original text.
func NewTextReplacements(texts []string) []TextReplacement {
	out := make([]TextReplacement, 0, len(texts))
	for _, t := range texts {
		out = append(out, TextReplacement{Original: t, Replacement: t})
	}
	return out
}

// NewEntityModifications seeds one modification per entity with an empty instruction.
func NewEntityModifications(entities []string) []EntityModification {
	out := make([]EntityModification, 0, len(entities))
	for _, e := range entities {
		out = append(out, EntityModification{Entity: e})
	}
	return out
}
