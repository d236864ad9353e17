// Package library persists saved prompts and makes them searchable.
package library

import (
	"fmt"
	"strings"
)

// Entry is one saved prompt. Field order matches the on-disk JSON layout.
type Entry struct {
	Title     string   `json:"title"`
	Prompt    string   `json:"prompt"`
	Tags      []string `json:"tags"`
	Timestamp string   `json:"timestamp"`
}

// ParseTags splits a comma-separated tag list. Tags are trimmed, empty tags
// are dropped and duplicates are removed keeping the first occurrence.
// The result is never nil.
func ParseTags(input string) []string {
	tags := []string{}
	seen := make(map[string]bool)
	for _, part := range strings.Split(input, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// DefaultTitle is the title given to the n-th saved prompt (1-based) when
// the user leaves it blank.
func DefaultTitle(n int) string {
	return fmt.Sprintf("Prompt %d", n)
}
