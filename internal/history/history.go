// Package history keeps the append-only list of prompt versions of a session.
package history

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// TimestampLayout is the ISO-8601 layout used for version and library
// timestamps: local time with microseconds and no zone.
const TimestampLayout = "2006-01-02T15:04:05.000000"

var (
	// ErrOutOfRange is returned when an index does not name a version.
	ErrOutOfRange = errors.New("version index out of range")
	// ErrEmptyHistory is returned when a version is required but none exists.
	ErrEmptyHistory = errors.New("history is empty")
)

// PromptVersion is one refinement result. Versions are never modified.
type PromptVersion struct {
	Timestamp string `json:"timestamp"`
	Raw       string `json:"raw"`
	Refined   string `json:"refined"`
}

// Date returns the calendar-date part of the timestamp.
func (v PromptVersion) Date() string {
	date, _, _ := strings.Cut(v.Timestamp, "T")
	return date
}

// History is an ordered list of versions with a current-version pointer.
// The pointer is unset while the list is empty.
type History struct {
	versions []PromptVersion
	current  int
	now      func() time.Time
}

// New creates an empty history.
func New() *History {
	return &History{current: -1, now: time.Now}
}

// NewWithClock creates an empty history that stamps versions with now.
func NewWithClock(now func() time.Time) *History {
	h := New()
	if now != nil {
		h.now = now
	}
	return h
}

// Append records a new version and makes it current. It returns its index.
func (h *History) Append(raw, refined string) int {
	h.versions = append(h.versions, PromptVersion{
		Timestamp: h.now().Format(TimestampLayout),
		Raw:       raw,
		Refined:   refined,
	})
	h.current = len(h.versions) - 1
	return h.current
}

// Restore makes version i current.
func (h *History) Restore(i int) error {
	if i < 0 || i >= len(h.versions) {
		return fmt.Errorf("restore version %d of %d: %w", i, len(h.versions), ErrOutOfRange)
	}
	h.current = i
	return nil
}

// Current returns the current version.
func (h *History) Current() (PromptVersion, error) {
	if len(h.versions) == 0 {
		return PromptVersion{}, ErrEmptyHistory
	}
	return h.versions[h.current], nil
}

// Get returns version i.
func (h *History) Get(i int) (PromptVersion, error) {
	if i < 0 || i >= len(h.versions) {
		return PromptVersion{}, fmt.Errorf("get version %d of %d: %w", i, len(h.versions), ErrOutOfRange)
	}
	return h.versions[i], nil
}

// CurrentIndex returns the current pointer; ok is false while empty.
func (h *History) CurrentIndex() (int, bool) {
	if len(h.versions) == 0 {
		return 0, false
	}
	return h.current, true
}

// Versions returns a copy of all versions, oldest first.
func (h *History) Versions() []PromptVersion {
	out := make([]PromptVersion, len(h.versions))
	copy(out, h.versions)
	return out
}

// Len returns the number of versions.
func (h *History) Len() int {
	return len(h.versions)
}

// Label returns the display label "Version N (YYYY-MM-DD)" for version i.
func (h *History) Label(i int) (string, error) {
	v, err := h.Get(i)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Version %d (%s)", i+1, v.Date()), nil
}

// Diff compares the refined text of two versions.
func (h *History) Diff(from, to int) ([]diffmatchpatch.Diff, error) {
	a, err := h.Get(from)
	if err != nil {
		return nil, err
	}
	b, err := h.Get(to)
	if err != nil {
		return nil, err
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a.Refined, b.Refined, false)
	return dmp.DiffCleanupSemantic(diffs), nil
}

// FormatDiff renders diffs as plain text with [-removed-] and {+added+} markers.
func FormatDiff(diffs []diffmatchpatch.Diff) string {
	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			sb.WriteString("{+" + d.Text + "+}")
		case diffmatchpatch.DiffDelete:
			sb.WriteString("[-" + d.Text + "-]")
		default:
			sb.WriteString(d.Text)
		}
	}
	return sb.String()
}
