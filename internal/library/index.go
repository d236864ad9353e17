package library

import (
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// searchIndex is an in-memory full-text index over library entries, keyed by
// entry position.
type searchIndex struct {
	index bleve.Index
}

func newSearchIndex() (*searchIndex, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	return &searchIndex{index: index}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	entryMapping := bleve.NewDocumentMapping()

	for _, name := range []string{"title", "prompt", "tags"} {
		field := bleve.NewTextFieldMapping()
		field.Analyzer = standard.Name
		field.Store = false
		field.Index = true
		entryMapping.AddFieldMappingsAt(name, field)
	}

	indexMapping.DefaultMapping = entryMapping
	return indexMapping
}

func (s *searchIndex) add(position int, e Entry) error {
	doc := map[string]interface{}{
		"title":  e.Title,
		"prompt": e.Prompt,
		"tags":   e.Tags,
	}
	return s.index.Index(strconv.Itoa(position), doc)
}

// search returns matching positions, best match first.
func (s *searchIndex) search(query string, size int) ([]int, error) {
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = size

	result, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("library search failed: %w", err)
	}

	positions := make([]int, 0, len(result.Hits))
	for _, hit := range result.Hits {
		pos, err := strconv.Atoi(hit.ID)
		if err != nil {
			continue
		}
		positions = append(positions, pos)
	}
	return positions, nil
}

func (s *searchIndex) close() error {
	return s.index.Close()
}
