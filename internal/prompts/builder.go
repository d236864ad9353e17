package prompts

import (
	"regexp"
	"sort"
	"strings"
)

var placeholderRe = regexp.MustCompile(`{{(.*?)}}`)

// ExtractVariables returns the names of all {{name}} placeholders in template,
// in order of appearance. Duplicates are kept.
func ExtractVariables(template string) []string {
	matches := placeholderRe.FindAllStringSubmatch(template, -1)
	if len(matches) == 0 {
		return nil
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// UniqueVariables is ExtractVariables with duplicates removed, first occurrence wins.
func UniqueVariables(template string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, name := range ExtractVariables(template) {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// PromptBuilder fills {{name}} placeholders in a template.
type PromptBuilder struct {
	template  string
	variables map[string]string
}

// NewPromptBuilder creates a builder over template.
func NewPromptBuilder(template string) *PromptBuilder {
	return &PromptBuilder{
		template:  template,
		variables: make(map[string]string),
	}
}

// SetVariable sets a variable for template substitution.
func (b *PromptBuilder) SetVariable(key, value string) *PromptBuilder {
	b.variables[key] = value
	return b
}

// SetVariables sets every variable in values.
func (b *PromptBuilder) SetVariables(values map[string]string) *PromptBuilder {
	for k, v := range values {
		b.variables[k] = v
	}
	return b
}

// Build replaces every occurrence of each set variable. Placeholders without
// a value are left as-is.
func (b *PromptBuilder) Build() string {
	keys := make([]string, 0, len(b.variables))
	for k := range b.variables {
		keys = append(keys, k)
	}
	// Stable order so a value that itself contains a placeholder behaves the same on every run.
	sort.Strings(keys)

	result := b.template
	for _, key := range keys {
		result = strings.ReplaceAll(result, "{{"+key+"}}", b.variables[key])
	}
	return result
}

// Substitute is a shorthand for NewPromptBuilder(template).SetVariables(inputs).Build().
func Substitute(template string, inputs map[string]string) string {
	return NewPromptBuilder(template).SetVariables(inputs).Build()
}
