package catalog

import (
	"fmt"

	"github.com/kailas-cloud/assessmatch/internal/domain"
	"github.com/kailas-cloud/assessmatch/internal/domain/assessment"
)

// Store is the read-only, in-memory catalog. Insertion order is preserved
// and used to break score ties. Safe for concurrent use.
type Store struct {
	records []assessment.Record
	byID    map[string]int
	texts   []string
}

// NewStore creates a Store. An empty catalog is a configuration error and
// record IDs must be unique.
func NewStore(records []assessment.Record) (*Store, error) {
	if len(records) == 0 {
		return nil, domain.ErrEmptyCatalog
	}
	s := &Store{
		records: make([]assessment.Record, len(records)),
		byID:    make(map[string]int, len(records)),
		texts:   make([]string, len(records)),
	}
	copy(s.records, records)
	for i, r := range s.records {
		if prev, dup := s.byID[r.ID()]; dup {
			return nil, fmt.Errorf("record %d duplicates record %d (id %s): %w",
				i, prev, r.ID(), domain.ErrInvalidCatalog)
		}
		s.byID[r.ID()] = i
		s.texts[i] = r.EmbeddingText()
	}
	return s, nil
}

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// All returns every record in insertion order.
func (s *Store) All() []assessment.Record {
	out := make([]assessment.Record, len(s.records))
	copy(out, s.records)
	return out
}

// List returns at most limit records in insertion order. limit <= 0 returns all.
func (s *Store) List(limit int) []assessment.Record {
	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}
	out := make([]assessment.Record, limit)
	copy(out, s.records[:limit])
	return out
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (assessment.Record, bool) {
	i, ok := s.byID[id]
	if !ok {
		return assessment.Record{}, false
	}
	return s.records[i], true
}

// Texts returns the embedding text of every record, aligned with All.
func (s *Store) Texts() []string {
	out := make([]string, len(s.texts))
	copy(out, s.texts)
	return out
}
