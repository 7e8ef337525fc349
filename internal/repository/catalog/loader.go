package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/assessmatch/internal/domain"
	"github.com/kailas-cloud/assessmatch/internal/domain/assessment"
)

// Stats describes what a load kept and dropped.
type Stats struct {
	Loaded      int
	PrePackaged int // bundled job solutions, excluded from recommendations
}

// LoadFile reads a JSON or YAML catalog snapshot into a Store.
func LoadFile(path string) (*Store, Stats, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, Stats{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	records, stats, err := Parse(data)
	if err != nil {
		return nil, stats, fmt.Errorf("catalog %s: %w", path, err)
	}
	store, err := NewStore(records)
	if err != nil {
		return nil, stats, fmt.Errorf("catalog %s: %w", path, err)
	}
	return store, stats, nil
}

// Parse decodes a snapshot. JSON is accepted as YAML.
// Pre-packaged entries are dropped here, never at query time.
func Parse(data []byte) ([]assessment.Record, Stats, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, Stats{}, fmt.Errorf("decode snapshot: %v: %w", err, domain.ErrInvalidCatalog)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, Stats{}, domain.ErrEmptyCatalog
	}

	var dtos []recordDTO
	switch doc := root.Content[0]; doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&dtos); err != nil {
			return nil, Stats{}, fmt.Errorf("decode records: %v: %w", err, domain.ErrInvalidCatalog)
		}
	case yaml.MappingNode:
		var snap snapshot
		if err := doc.Decode(&snap); err != nil {
			return nil, Stats{}, fmt.Errorf("decode records: %v: %w", err, domain.ErrInvalidCatalog)
		}
		dtos = snap.Assessments
	default:
		return nil, Stats{}, fmt.Errorf("snapshot must be a list or a mapping: %w", domain.ErrInvalidCatalog)
	}

	var stats Stats
	records := make([]assessment.Record, 0, len(dtos))
	seen := make(map[string]int, len(dtos))
	for i, d := range dtos {
		if d.PrePackaged {
			stats.PrePackaged++
			continue
		}
		rec, err := d.toDomain()
		if err != nil {
			return nil, stats, fmt.Errorf("record %d (%q): %v: %w", i, d.Name, err, domain.ErrInvalidCatalog)
		}
		if prev, dup := seen[rec.ID()]; dup {
			return nil, stats, fmt.Errorf("record %d duplicates record %d (id %s): %w",
				i, prev, rec.ID(), domain.ErrInvalidCatalog)
		}
		seen[rec.ID()] = i
		records = append(records, rec)
	}
	stats.Loaded = len(records)

	if len(records) == 0 {
		return nil, stats, domain.ErrEmptyCatalog
	}
	return records, stats, nil
}
