package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t := time.Date(2025, 1, 2, 3, 4, 5, 600000000, time.Local)
	return func() time.Time { return t }
}

type failingStore struct {
	entries []Entry
}

func (f *failingStore) Load(ctx context.Context) ([]Entry, error) { return f.entries, nil }
func (f *failingStore) Save(ctx context.Context, entries []Entry) error {
	return errors.New("disk full")
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{" , ,", []string{}},
		{"poetry, cats", []string{"poetry", "cats"}},
		{" a ,b,, a ,c,b", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTags(tt.in))
		})
	}
}

func TestAppendDefaultsAndPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prompts.json")

	lib, err := Open(ctx, NewFileStore(path), WithClock(fixedClock()))
	require.NoError(t, err)
	defer lib.Close()
	assert.Zero(t, lib.Len())

	first, err := lib.Append(ctx, "", "Write about {{topic}}", "writing, , blog")
	require.NoError(t, err)
	assert.Equal(t, Entry{
		Title:     "Prompt 1",
		Prompt:    "Write about {{topic}}",
		Tags:      []string{"writing", "blog"},
		Timestamp: "2025-01-02T03:04:05.600000",
	}, first)

	second, err := lib.Append(ctx, "   ", "Second", "")
	require.NoError(t, err)
	assert.Equal(t, "Prompt 2", second.Title)
	assert.Equal(t, []string{}, second.Tags)

	reopened, err := Open(ctx, NewFileStore(path))
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, lib.Entries(), reopened.Entries())
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "prompts.json"))
	entries := []Entry{
		{Title: "A", Prompt: "alpha", Tags: []string{"x"}, Timestamp: "2024-05-01T10:00:00.000001"},
		{Title: "B", Prompt: "beta {{v}}", Tags: []string{}, Timestamp: "2024-05-02T10:00:00.000002"},
	}

	require.NoError(t, store.Save(ctx, entries))
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, entries, loaded)
}

func TestFileStoreFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prompts.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save(ctx, []Entry{{Title: "T", Prompt: "P", Tags: []string{"a"}, Timestamp: "ts"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := `[
  {
    "title": "T",
    "prompt": "P",
    "tags": [
      "a"
    ],
    "timestamp": "ts"
  }
]`
	assert.Equal(t, want, string(data))
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	entries, err := NewFileStore(filepath.Join(t.TempDir(), "none.json")).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStoreLegacyEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"prompt": "only a prompt"}]`), 0o644))

	entries, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "only a prompt", entries[0].Prompt)
	assert.Equal(t, []string{}, entries[0].Tags)
}

func TestFileStoreCorrupt(t *testing.T) {
	tests := map[string]string{
		"not json":       `{{{`,
		"empty":          ``,
		"object":         `{"title": "x"}`,
		"missing prompt": `[{"title": "x"}]`,
		"bad tags":       `[{"prompt": "p", "tags": "a,b"}]`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "prompts.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			_, err := Open(context.Background(), NewFileStore(path))
			assert.ErrorIs(t, err, ErrDataIntegrity)
		})
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "library.db")

	store, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)

	lib, err := Open(ctx, store, WithClock(fixedClock()))
	require.NoError(t, err)
	_, err = lib.Append(ctx, "Cats", "Write a poem about cats", "poetry, animals")
	require.NoError(t, err)
	_, err = lib.Append(ctx, "", "Summarize {{doc}}", "")
	require.NoError(t, err)
	require.NoError(t, lib.Close())

	store, err = NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Title: "Cats", Prompt: "Write a poem about cats", Tags: []string{"poetry", "animals"}, Timestamp: "2025-01-02T03:04:05.600000"},
		{Title: "Prompt 2", Prompt: "Summarize {{doc}}", Tags: []string{}, Timestamp: "2025-01-02T03:04:05.600000"},
	}, entries)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := OpenStore(ctx, BackendJSON, filepath.Join(dir, "p.json"))
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = OpenStore(ctx, BackendSQLite, filepath.Join(dir, "p.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.(*SQLiteStore).Close())

	_, err = OpenStore(ctx, "redis", "x")
	assert.ErrorContains(t, err, "unknown library backend")
}

func TestAppendSaveFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	lib, err := Open(ctx, &failingStore{entries: []Entry{{Title: "kept", Prompt: "p", Tags: []string{}}}})
	require.NoError(t, err)

	_, err = lib.Append(ctx, "new", "q", "")
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, lib.Len())
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	lib, err := Open(ctx, NewFileStore(filepath.Join(t.TempDir(), "p.json")))
	require.NoError(t, err)
	_, err = lib.Append(ctx, "one", "first", "")
	require.NoError(t, err)

	e, err := lib.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "first", e.Prompt)

	_, err = lib.Get(1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = lib.Get(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "p.json")
	require.NoError(t, NewFileStore(path).Save(ctx, []Entry{
		{Title: "Cat poem", Prompt: "Write a poem about {{animal}}", Tags: []string{"poetry"}},
		{Title: "Release notes", Prompt: "Summarize the changes in {{version}}", Tags: []string{"engineering"}},
	}))

	lib, err := Open(ctx, NewFileStore(path))
	require.NoError(t, err)
	defer lib.Close()

	hits, err := lib.Search("poem")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, hits)

	hits, err = lib.Search("engineering")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, hits)

	_, err = lib.Append(ctx, "Haiku", "Write a haiku", "poetry")
	require.NoError(t, err)
	hits, err = lib.Search("poetry")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 2}, hits)

	hits, err = lib.Search("  ")
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = lib.Search("zebra")
	require.NoError(t, err)
	assert.Empty(t, hits)
}
