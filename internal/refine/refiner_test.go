package refine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/promptcraft/internal/engine"
	"github.com/ChamsBouzaiene/promptcraft/internal/gateway"
	"github.com/ChamsBouzaiene/promptcraft/internal/prompts"
)

type stubLLM struct {
	response string
	err      error
	calls    int
	user     string
	system   string
}

func (s *stubLLM) Chat(ctx context.Context, model string, messages []engine.ChatMessage, opts engine.ChatOptions) (engine.LLMResponse, error) {
	s.calls++
	s.system = messages[0].Content
	s.user = messages[1].Content
	if s.err != nil {
		return engine.LLMResponse{}, s.err
	}
	return engine.LLMResponse{Assistant: engine.ChatMessage{Role: engine.RoleAssistant, Content: s.response}}, nil
}

func TestNeedsMoreInfo(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Please Provide More Details", true},
		{"please provide more details", true},
		{"This is unrelated text", false},
		{"Please provide more details about the audience.", true},
		{"CAN YOU CLARIFY the goal?", true},
		{"Input required: topic", true},
		{"please specify the format", true},
		{"I need more information first", true},
		{"Could you elaborate on that?", true},
		{"Here is your refined prompt about {{topic}}.", false},
		{"", false},
		{"please provide details", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsMoreInfo(tt.text))
			assert.Equal(t, tt.want, KeywordClassifier{}.NeedsMoreInfo(tt.text))
		})
	}
}

func TestRefineSendsInstructionAndRaw(t *testing.T) {
	llm := &stubLLM{response: "Write a poem about {{topic}}."}
	r := New(gateway.New(llm, "m"), nil, nil)

	res := r.Refine(context.Background(), "poem pls")

	require.False(t, res.Failed())
	assert.Equal(t, "Write a poem about {{topic}}.", res.String())
	assert.Equal(t, prompts.RefineInstruction(), llm.system)
	assert.Equal(t, "poem pls", llm.user)
}

func TestRefineFailureIsRenderedNotReturned(t *testing.T) {
	llm := &stubLLM{err: errors.New("401 unauthorized")}
	r := New(gateway.New(llm, "m"), nil, nil)

	res := r.Refine(context.Background(), "anything")

	assert.True(t, res.Failed())
	assert.Equal(t, "[Error refining prompt: 401 unauthorized]", res.String())
	assert.Regexp(t, `^\[Error .*\]$`, res.String())
	assert.False(t, NeedsMoreInfo(res.String()))
}

func TestRefineUnavailableGateway(t *testing.T) {
	r := New(gateway.Unavailable(errors.New("AZURE_OPENAI_ENDPOINT not set")), nil, nil)

	res := r.Refine(context.Background(), "anything")

	assert.Equal(t, "[Error refining prompt: AZURE_OPENAI_ENDPOINT not set]", res.String())
}

func TestGenerateFromStructuredInput(t *testing.T) {
	llm := &stubLLM{response: "refined"}
	r := New(gateway.New(llm, "m"), nil, nil)

	res, fired := r.GenerateFromStructuredInput(context.Background(), prompts.StructuredAnswers{
		prompts.FieldObjective: "sell shoes",
		prompts.FieldAudience:  "runners",
		prompts.FieldTone:      "friendly",
	})

	require.True(t, fired)
	assert.Equal(t, "refined", res.String())
	assert.Equal(t, "Objective: sell shoes\nAudience: runners\nTone: friendly\n", llm.user)
}

func TestGenerateFromStructuredInputIncomplete(t *testing.T) {
	llm := &stubLLM{response: "refined"}
	r := New(gateway.New(llm, "m"), nil, nil)

	_, fired := r.GenerateFromStructuredInput(context.Background(), prompts.StructuredAnswers{
		prompts.FieldObjective: "sell shoes",
		prompts.FieldAudience:  "  ",
		prompts.FieldTone:      "friendly",
	})

	assert.False(t, fired)
	assert.Zero(t, llm.calls)
}

func TestCustomClassifier(t *testing.T) {
	r := New(gateway.New(&stubLLM{}, "m"), ClassifierFunc(func(text string) bool {
		return text == "?"
	}), nil)

	assert.True(t, r.NeedsMoreInfo("?"))
	assert.False(t, r.NeedsMoreInfo("please specify"))
}
