package prompts

import "strings"

// Labels of the structured fallback form.
const (
	FieldObjective = "Objective"
	FieldAudience  = "Target Audience"
	FieldTone      = "Tone of Voice"
)

// StructuredField describes one input of the structured fallback form.
type StructuredField struct {
	Label       string
	Placeholder string
}

// StructuredFields returns the fixed fields shown when the model asks for more information.
func StructuredFields() []StructuredField {
	return []StructuredField{
		{Label: FieldObjective, Placeholder: "What are you trying to achieve?"},
		{Label: FieldAudience, Placeholder: "Who is this for?"},
		{Label: FieldTone, Placeholder: "Formal, Friendly, Technical, etc."},
	}
}

// StructuredAnswers maps a field label to the user's answer.
type StructuredAnswers map[string]string

// Complete reports whether every structured field has a non-empty answer.
func (a StructuredAnswers) Complete() bool {
	for _, f := range StructuredFields() {
		if strings.TrimSpace(a[f.Label]) == "" {
			return false
		}
	}
	return true
}

// ComposeStructured builds the three-line prompt from the form answers.
// ok is false when any field is blank.
func ComposeStructured(a StructuredAnswers) (prompt string, ok bool) {
	if !a.Complete() {
		return "", false
	}
	var sb strings.Builder
	sb.WriteString("Objective: " + a[FieldObjective] + "\n")
	sb.WriteString("Audience: " + a[FieldAudience] + "\n")
	sb.WriteString("Tone: " + a[FieldTone] + "\n")
	return sb.String(), true
}
