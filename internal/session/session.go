// Package session holds the per-user state of one PromptCraft run and exposes
// the operations a UI driver calls.
package session

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/promptcraft/internal/gateway"
	"github.com/ChamsBouzaiene/promptcraft/internal/history"
	"github.com/ChamsBouzaiene/promptcraft/internal/library"
	"github.com/ChamsBouzaiene/promptcraft/internal/output"
	"github.com/ChamsBouzaiene/promptcraft/internal/prompts"
	"github.com/ChamsBouzaiene/promptcraft/internal/refine"
)

// ErrNoVersion is returned by operations that need a current prompt version.
var ErrNoVersion = fmt.Errorf("no prompt version yet: %w", history.ErrEmptyHistory)

// Session owns the version history, the output cache and the remembered
// inputs of one user, plus a handle on the shared prompt library.
// A Session is not safe for concurrent use.
type Session struct {
	ID        string
	StartedAt time.Time

	history    *history.History
	library    *library.Library
	cache      *output.Cache
	lastInputs map[string]string

	refiner   *refine.Refiner
	generator *output.Generator
	logger    *zap.Logger
}

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	now    func() time.Time
	logger *zap.Logger
}

// WithClock sets the clock used to stamp versions.
func WithClock(now func() time.Time) Option {
	return func(o *sessionOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(o *sessionOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates a session with an empty history over an opened library.
func New(lib *library.Library, refiner *refine.Refiner, generator *output.Generator, opts ...Option) *Session {
	o := sessionOptions{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.NewString()
	return &Session{
		ID:         id,
		StartedAt:  o.now(),
		history:    history.NewWithClock(o.now),
		library:    lib,
		cache:      output.NewCache(),
		lastInputs: map[string]string{},
		refiner:    refiner,
		generator:  generator,
		logger:     o.logger.With(zap.String("session", id)),
	}
}

// History returns the version history.
func (s *Session) History() *history.History {
	return s.history
}

// Library returns the prompt library.
func (s *Session) Library() *library.Library {
	return s.library
}

// Current returns the current version.
func (s *Session) Current() (history.PromptVersion, error) {
	v, err := s.history.Current()
	if err != nil {
		return history.PromptVersion{}, ErrNoVersion
	}
	return v, nil
}

// Refine sends raw to the refiner and records the outcome as a new version.
// A blank raw prompt does nothing and fired is false. Failures are recorded
// too, as their rendered error text.
func (s *Session) Refine(ctx context.Context, raw string) (index int, res gateway.Result, fired bool) {
	if strings.TrimSpace(raw) == "" {
		return 0, gateway.Result{}, false
	}
	res = s.refiner.Refine(ctx, raw)
	index = s.history.Append(raw, res.String())
	s.logger.Info("prompt refined", zap.Int("version", index), zap.Bool("failed", res.Failed()))
	return index, res, true
}

// RefineStructured refines the Objective/Audience/Tone answers and records
// the outcome as a new version whose raw text is raw. fired is false, and
// nothing is recorded, when any answer is blank.
func (s *Session) RefineStructured(ctx context.Context, raw string, answers prompts.StructuredAnswers) (index int, res gateway.Result, fired bool) {
	res, fired = s.refiner.GenerateFromStructuredInput(ctx, answers)
	if !fired {
		return 0, res, false
	}
	index = s.history.Append(raw, res.String())
	s.logger.Info("prompt refined from structured input", zap.Int("version", index), zap.Bool("failed", res.Failed()))
	return index, res, true
}

// RefinedNeedsMoreInfo reports whether the current refined prompt asks the
// user for more details. It is false while the history is empty.
func (s *Session) RefinedNeedsMoreInfo() bool {
	v, err := s.history.Current()
	if err != nil {
		return false
	}
	return s.refiner.NeedsMoreInfo(v.Refined)
}

// Variables returns the distinct variable names of the current refined
// prompt in order of first appearance.
func (s *Session) Variables() []string {
	v, err := s.history.Current()
	if err != nil {
		return nil
	}
	return prompts.UniqueVariables(v.Refined)
}

// LastInputs returns a copy of the inputs used by the last generation.
func (s *Session) LastInputs() map[string]string {
	return maps.Clone(s.lastInputs)
}

// Render returns the output for the current version and inputs. With generate
// set it runs the prompt and caches the result; otherwise it returns the
// cached output when inputs match the last generation for this version, and
// "" when they do not. needsMore reports whether the output asks for more
// details.
func (s *Session) Render(ctx context.Context, inputs map[string]string, generate bool) (out string, needsMore bool) {
	version, refined := s.currentKey()

	if generate {
		res := s.generator.Generate(ctx, refined, inputs)
		out = res.String()
		s.cache.Store(version, inputs, out)
		s.lastInputs = maps.Clone(inputs)
		if s.lastInputs == nil {
			s.lastInputs = map[string]string{}
		}
		s.logger.Info("output generated", zap.Int("version", version), zap.Bool("failed", res.Failed()))
	} else {
		cached, ok := s.cache.Lookup(version, inputs)
		if !ok {
			return "", false
		}
		out = cached
	}

	return out, out != "" && s.refiner.NeedsMoreInfo(out)
}

// GenerateStructured runs the Objective/Audience/Tone prompt directly and
// replaces the cached output with the result. Remembered inputs are kept.
// fired is false, and nothing changes, when any answer is blank.
func (s *Session) GenerateStructured(ctx context.Context, answers prompts.StructuredAnswers) (out string, fired bool) {
	res, fired := s.generator.GenerateFromStructuredInput(ctx, answers)
	if !fired {
		return "", false
	}
	out = res.String()
	s.cache.ReplaceOutput(out)
	s.logger.Info("output generated from structured input", zap.Bool("failed", res.Failed()))
	return out, true
}

// SaveToLibrary stores the current refined prompt in the library.
func (s *Session) SaveToLibrary(ctx context.Context, title, tags string) (library.Entry, error) {
	v, err := s.history.Current()
	if err != nil {
		return library.Entry{}, ErrNoVersion
	}
	return s.library.Append(ctx, title, v.Refined, tags)
}

// LoadIntoRefiner appends library entry i as a new version whose raw and
// refined text are both the saved prompt.
func (s *Session) LoadIntoRefiner(i int) (int, error) {
	e, err := s.library.Get(i)
	if err != nil {
		return 0, err
	}
	index := s.history.Append(e.Prompt, e.Prompt)
	s.logger.Info("library prompt loaded", zap.String("title", e.Title), zap.Int("version", index))
	return index, nil
}

// Restore makes version i current.
func (s *Session) Restore(i int) error {
	if err := s.history.Restore(i); err != nil {
		return err
	}
	s.logger.Debug("version restored", zap.Int("version", i))
	return nil
}

// Close releases the library.
func (s *Session) Close() error {
	return s.library.Close()
}

// currentKey returns the cache key and refined text of the current version.
// With no version the refined text is empty and the key is -1.
func (s *Session) currentKey() (int, string) {
	idx, ok := s.history.CurrentIndex()
	if !ok {
		return -1, ""
	}
	v, _ := s.history.Current()
	return idx, v.Refined
}
