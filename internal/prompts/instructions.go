package prompts

// Built-in instruction IDs.
const (
	RefineID  = "refine"
	ExecuteID = "execute"
)

const refineInstruction = "You are a prompt engineering expert. " +
	"Given a raw prompt, do ALL of the following: " +
	"1. Extract the user's intent and any entities. " +
	"2. Clarify ambiguities or missing context. " +
	"3. Structure the prompt with persona, tone, and output format. " +
	"4. Make it more specific and actionable. " +
	"If any part of the prompt could be a user-supplied value, always use the {{variable}} format " +
	"(e.g., {{audience}}, {{topic}}, {{goal}}, etc.). " +
	"Return ONLY the improved prompt, no commentary."

const executeInstruction = "You are an expert assistant. Perform the user's request as specified in the prompt. " +
	"Do not explain, do not guide, just generate the output as requested."

func registerBuiltins(r *PromptRegistry) {
	r.Register(&Prompt{
		ID:          RefineID,
		Version:     PromptV1,
		Content:     refineInstruction,
		Description: "Turns a raw prompt into a structured, variablized prompt",
	})
	r.Register(&Prompt{
		ID:          ExecuteID,
		Version:     PromptV1,
		Content:     executeInstruction,
		Description: "Executes a filled-in prompt without commentary",
	})
}

// RefineInstruction returns the system instruction used for refinement.
func RefineInstruction() string {
	return DefaultRegistry().MustLatest(RefineID)
}

// ExecuteInstruction returns the system instruction used to run a refined prompt.
func ExecuteInstruction() string {
	return DefaultRegistry().MustLatest(ExecuteID)
}
