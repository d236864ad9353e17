package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/promptcraft/internal/config"
	"github.com/ChamsBouzaiene/promptcraft/internal/engine"
	"github.com/ChamsBouzaiene/promptcraft/internal/gateway"
	"github.com/ChamsBouzaiene/promptcraft/internal/library"
)

// MockLLM replies with the next scripted answer; the last one repeats.
type MockLLM struct {
	Replies []string
	Calls   int
	Users   []string
}

func (m *MockLLM) Chat(ctx context.Context, model string, messages []engine.ChatMessage, opts engine.ChatOptions) (engine.LLMResponse, error) {
	m.Calls++
	m.Users = append(m.Users, messages[len(messages)-1].Content)
	reply := ""
	if len(m.Replies) > 0 {
		reply = m.Replies[0]
		if len(m.Replies) > 1 {
			m.Replies = m.Replies[1:]
		}
	}
	return engine.LLMResponse{Assistant: engine.ChatMessage{Role: engine.RoleAssistant, Content: reply}}, nil
}

type harness struct {
	app     *app
	out     *bytes.Buffer
	errOut  *bytes.Buffer
	library string
}

func newHarness(t *testing.T, llm *MockLLM, stdin string) *harness {
	t.Helper()
	dir := t.TempDir()
	libPath := filepath.Join(dir, "prompts.json")
	t.Setenv("PROMPTCRAFT_LIBRARY_PATH", libPath)
	t.Setenv("PROMPTCRAFT_LOG_FILE", filepath.Join(dir, "promptcraft.log"))

	h := &harness{out: &bytes.Buffer{}, errOut: &bytes.Buffer{}, library: libPath}
	h.app = &app{
		v:      config.New(),
		in:     strings.NewReader(stdin),
		out:    h.out,
		errOut: h.errOut,
	}
	if llm != nil {
		h.app.gw = gateway.New(llm, "test-model")
	}
	return h
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	root := h.app.rootCmd()
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	return root.Execute()
}

func TestREPLWorkflow(t *testing.T) {
	llm := &MockLLM{Replies: []string{
		"Write a {{form}} about {{topic}}.",
		"Autumn leaves fall",
	}}
	script := strings.Join([]string{
		"refine write me a poem",
		"vars",
		"set form=haiku",
		"set topic=autumn",
		"generate",
		"render",
		"save Poem | poetry, nature",
		"history",
		"quit",
	}, "\n")
	h := newHarness(t, llm, script)

	require.NoError(t, h.run(t, "repl"))

	out := h.out.String()
	assert.Contains(t, out, "Version 1:\nWrite a {{form}} about {{topic}}.")
	assert.Contains(t, out, `form = ""`)
	assert.Contains(t, out, "Model output:\nAutumn leaves fall")
	assert.Equal(t, 2, strings.Count(out, "Model output:\nAutumn leaves fall"))
	assert.Contains(t, out, `Saved "Poem" to the library.`)
	assert.Contains(t, out, "* Version 1 (")
	assert.Equal(t, 2, llm.Calls)
	assert.Equal(t, "Write a haiku about autumn.", llm.Users[1])

	entries, err := library.NewFileStore(h.library).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Poem", entries[0].Title)
	assert.Equal(t, []string{"poetry", "nature"}, entries[0].Tags)
}

func TestREPLStructuredForm(t *testing.T) {
	llm := &MockLLM{Replies: []string{"Can you clarify the audience?", "Refined from form"}}
	script := strings.Join([]string{
		"refine make an ad",
		"form",
		"sell bikes",
		"commuters",
		"upbeat",
		"show",
	}, "\n")
	h := newHarness(t, llm, script)

	require.NoError(t, h.run(t))

	out := h.out.String()
	assert.Contains(t, out, "Run 'form'")
	assert.Contains(t, out, "Version 2:\nRefined from form")
	assert.Contains(t, out, "Raw: make an ad\n---\nRefined: Refined from form")
	assert.Equal(t, "Objective: sell bikes\nAudience: commuters\nTone: upbeat\n", llm.Users[1])
}

func TestREPLErrors(t *testing.T) {
	script := strings.Join([]string{
		"show",
		"restore 3",
		"save x",
		"bogus",
		"diff 1",
	}, "\n")
	h := newHarness(t, &MockLLM{}, script)

	require.NoError(t, h.run(t, "repl"))

	out := h.out.String()
	assert.Contains(t, out, "error: no prompt version yet")
	assert.Contains(t, out, "error: restore version 2 of 0")
	assert.Contains(t, out, `error: unknown command "bogus"`)
	assert.Contains(t, out, "error: usage: diff <a> <b>")
}

func TestREPLLoadAndDiff(t *testing.T) {
	llm := &MockLLM{Replies: []string{"Summarize {{doc}}"}}
	h := newHarness(t, llm, "load 1\nhistory\ndiff 1 1\nlibrary\nsearch weekly\n")
	require.NoError(t, library.NewFileStore(h.library).Save(context.Background(), []library.Entry{
		{Title: "Weekly report", Prompt: "Summarize {{doc}}", Tags: []string{"work"}, Timestamp: "2025-01-01T00:00:00.000000"},
	}))

	require.NoError(t, h.run(t, "repl"))

	out := h.out.String()
	assert.Contains(t, out, "Loaded as version 1.")
	assert.Contains(t, out, "Raw: Summarize {{doc}}")
	assert.Contains(t, out, "[1] Weekly report")
	assert.Zero(t, llm.Calls)
}

func TestREPLCorruptLibraryFails(t *testing.T) {
	h := newHarness(t, &MockLLM{}, "")
	require.NoError(t, os.WriteFile(h.library, []byte("{broken"), 0o644))

	err := h.run(t, "repl")
	assert.ErrorIs(t, err, library.ErrDataIntegrity)
}

func TestRefineCommand(t *testing.T) {
	llm := &MockLLM{Replies: []string{"Explain {{concept}} simply."}}
	h := newHarness(t, llm, "")

	require.NoError(t, h.run(t, "refine", "explain", "stuff"))

	assert.Equal(t, "Explain {{concept}} simply.\n", h.out.String())
	assert.Equal(t, "explain stuff", llm.Users[0])
}

func TestRefineCommandUnconfigured(t *testing.T) {
	t.Setenv("AZURE_OPENAI_ENDPOINT", "")
	h := newHarness(t, nil, "")

	require.NoError(t, h.run(t, "refine", "--provider", "azure", "hello"))

	assert.True(t, strings.HasPrefix(h.out.String(), "[Error refining prompt: "))
}

func TestRunCommand(t *testing.T) {
	llm := &MockLLM{Replies: []string{"Bonjour"}}
	h := newHarness(t, llm, "")

	require.NoError(t, h.run(t, "run", "--var", "word=hello", "--var", "lang=French", "Translate {{word}} to {{lang}}"))

	assert.Equal(t, "Bonjour\n", h.out.String())
	assert.Equal(t, "Translate hello to French", llm.Users[0])
}

func TestRunCommandFromFile(t *testing.T) {
	llm := &MockLLM{Replies: []string{"ok"}}
	h := newHarness(t, llm, "")
	path := filepath.Join(t.TempDir(), "tmpl.txt")
	require.NoError(t, os.WriteFile(path, []byte("Hello {{name}}"), 0o644))

	require.NoError(t, h.run(t, "run", "--var", "name=Ada", path))
	assert.Equal(t, "Hello Ada", llm.Users[0])

	assert.Error(t, h.run(t, "run", "--var", "novalue", path))
}

func TestLibraryCommands(t *testing.T) {
	h := newHarness(t, nil, "")
	require.NoError(t, library.NewFileStore(h.library).Save(context.Background(), []library.Entry{
		{Title: "First", Prompt: "one", Tags: []string{}},
		{Title: "Second", Prompt: "two about dragons", Tags: []string{"fantasy"}},
	}))

	require.NoError(t, h.run(t, "library", "list"))
	out := h.out.String()
	assert.Less(t, strings.Index(out, "[2] Second"), strings.Index(out, "[1] First"))

	h.out.Reset()
	require.NoError(t, h.run(t, "library", "search", "dragons"))
	assert.Contains(t, h.out.String(), "[2] Second")
	assert.NotContains(t, h.out.String(), "First")
}

func TestEnvCommandMasksSecrets(t *testing.T) {
	t.Setenv("AZURE_OPENAI_KEY", "supersecretkey")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com/")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT", "")
	h := newHarness(t, nil, "")

	require.NoError(t, h.run(t, "env", "--provider", "azure"))

	out := h.out.String()
	assert.Contains(t, out, "AZURE_OPENAI_KEY: ✓ Set (supe****)")
	assert.NotContains(t, out, "supersecretkey")
	assert.Contains(t, out, "AZURE_OPENAI_ENDPOINT: ✓ Set (https://example.openai.azure.com/)")
	assert.Contains(t, out, "AZURE_OPENAI_DEPLOYMENT: ✗ Not Set")
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"a=1", " b =x=y", "c="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "x=y", "c": ""}, got)

	_, err = parseAssignments([]string{"=v"})
	assert.Error(t, err)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "****", mask("abc"))
	assert.Equal(t, "abcd****", mask("abcdefgh"))
}
