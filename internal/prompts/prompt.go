package prompts

// PromptVersion is a semantic version string. Versions of one prompt compare
// lexically, so components are kept to a single digit.
type PromptVersion string

// PromptV1 is the version of the instructions the tool shipped with.
const PromptV1 PromptVersion = "1.0.0"

// Prompt is one version of a system instruction.
type Prompt struct {
	ID          string
	Version     PromptVersion
	Content     string
	Description string
	Deprecated  bool
}
