package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/sys/atomicwriter"
	"github.com/xeipuuv/gojsonschema"
)

// ErrDataIntegrity is returned when persisted library data exists but cannot
// be read as a list of entries.
var ErrDataIntegrity = errors.New("library data is corrupt")

// Store loads and saves the whole library at once.
type Store interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
}

const entriesSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["prompt"],
		"properties": {
			"title": {"type": "string"},
			"prompt": {"type": "string"},
			"tags": {"type": "array", "items": {"type": "string"}},
			"timestamp": {"type": "string"}
		}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(entriesSchema)

// FileStore keeps the library in a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the library. A missing file is an empty library.
func (s *FileStore) Load(ctx context.Context) ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrDataIntegrity, s.path, err)
	}

	if err := validateEntries(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataIntegrity, s.path, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataIntegrity, s.path, err)
	}
	for i := range entries {
		if entries[i].Tags == nil {
			entries[i].Tags = []string{}
		}
	}
	return entries, nil
}

// Save overwrites the file with all entries, indented by two spaces.
// The file is replaced atomically.
func (s *FileStore) Save(ctx context.Context, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal library: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create library directory: %w", err)
		}
	}
	if err := atomicwriter.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write library file: %w", err)
	}
	return nil
}

func validateEntries(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return err
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return nil
}

// Backend names accepted by OpenStore.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// OpenStore creates the Store for backend at path.
func OpenStore(ctx context.Context, backend, path string) (Store, error) {
	switch backend {
	case "", BackendJSON:
		return NewFileStore(path), nil
	case BackendSQLite:
		return NewSQLiteStore(ctx, path)
	default:
		return nil, fmt.Errorf("unknown library backend: %s", backend)
	}
}
