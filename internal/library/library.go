package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/promptcraft/internal/history"
)

// ErrOutOfRange is returned when an index does not name a saved entry.
var ErrOutOfRange = errors.New("library index out of range")

// Library is the ordered list of saved prompts loaded from a Store.
type Library struct {
	store   Store
	entries []Entry
	index   *searchIndex
	now     func() time.Time
	logger  *zap.Logger
}

// Option configures a Library.
type Option func(*Library)

// WithClock sets the clock used to stamp new entries.
func WithClock(now func() time.Time) Option {
	return func(l *Library) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Open loads every entry from store and indexes it for search.
// Corrupt data surfaces as ErrDataIntegrity.
func Open(ctx context.Context, store Store, opts ...Option) (*Library, error) {
	l := &Library{
		store:  store,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	entries, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	index, err := newSearchIndex()
	if err != nil {
		return nil, err
	}
	for i, e := range entries {
		if err := index.add(i, e); err != nil {
			index.close()
			return nil, fmt.Errorf("failed to index entry %d: %w", i, err)
		}
	}

	l.entries = entries
	l.index = index
	l.logger.Debug("library loaded", zap.Int("entries", len(entries)))
	return l, nil
}

// Append saves prompt under title with the comma-separated tags and persists
// the whole library. A blank title becomes "Prompt N".
func (l *Library) Append(ctx context.Context, title, prompt, tagsInput string) (Entry, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle(len(l.entries) + 1)
	}
	entry := Entry{
		Title:     title,
		Prompt:    prompt,
		Tags:      ParseTags(tagsInput),
		Timestamp: l.now().Format(history.TimestampLayout),
	}

	pos := len(l.entries)
	l.entries = append(l.entries, entry)
	if err := l.store.Save(ctx, l.entries); err != nil {
		l.entries = l.entries[:pos]
		return Entry{}, fmt.Errorf("failed to save library: %w", err)
	}

	if err := l.index.add(pos, entry); err != nil {
		l.logger.Warn("failed to index saved prompt", zap.Int("position", pos), zap.Error(err))
	}
	l.logger.Info("prompt saved to library", zap.String("title", title), zap.Strings("tags", entry.Tags))
	return entry, nil
}

// Entries returns a copy of all entries in saved order.
func (l *Library) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Library) Len() int {
	return len(l.entries)
}

// Get returns entry i.
func (l *Library) Get(i int) (Entry, error) {
	if i < 0 || i >= len(l.entries) {
		return Entry{}, fmt.Errorf("entry %d of %d: %w", i, len(l.entries), ErrOutOfRange)
	}
	return l.entries[i], nil
}

// Search returns the positions of entries whose title, prompt or tags match
// query, best match first. A blank query matches nothing.
func (l *Library) Search(query string) ([]int, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	return l.index.search(query, len(l.entries))
}

// Close releases the search index and closes the store if it holds resources.
func (l *Library) Close() error {
	err := l.index.close()
	if c, ok := l.store.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	return err
}
