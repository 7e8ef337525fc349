package evalset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoQueries signals an evaluation file without queries.
var ErrNoQueries = errors.New("evaluation set has no queries")

// Set is a list of queries with optional relevance labels.
type Set struct {
	Queries []string            // file order, deduplicated
	Labels  map[string][]string // query -> relevant assessment URLs
}

// Labeled reports whether any query carries relevance labels.
func (s Set) Labeled() bool { return len(s.Labels) > 0 }

// LoadFile reads a .json/.yaml, .csv or plain-text (one query per line) set.
func LoadFile(path string) (Set, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Set{}, fmt.Errorf("read evaluation set %s: %w", path, err)
	}

	var set Set
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		set, err = ParseJSON(data)
	case ".csv":
		set, err = ParseCSV(bytes.NewReader(data))
	default:
		set, err = ParseText(bytes.NewReader(data))
	}
	if err != nil {
		return Set{}, fmt.Errorf("evaluation set %s: %w", path, err)
	}
	return set, nil
}

// labeledQuery is one {query, urls} entry.
type labeledQuery struct {
	Query string   `yaml:"query"`
	URLs  []string `yaml:"urls"`
}

// document is the {queries, ground_truth} layout.
type document struct {
	Queries     []string            `yaml:"queries"`
	GroundTruth map[string][]string `yaml:"ground_truth"`
}

// ParseJSON accepts a list of query strings, a list of {query, urls}
// objects, or a {queries, ground_truth} mapping.
func ParseJSON(data []byte) (Set, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Set{}, fmt.Errorf("decode: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return Set{}, ErrNoQueries
	}

	b := newBuilder()
	switch doc := root.Content[0]; doc.Kind {
	case yaml.SequenceNode:
		for _, item := range doc.Content {
			switch item.Kind {
			case yaml.ScalarNode:
				b.add(item.Value)
			case yaml.MappingNode:
				var lq labeledQuery
				if err := item.Decode(&lq); err != nil {
					return Set{}, fmt.Errorf("decode entry at line %d: %w", item.Line, err)
				}
				b.add(lq.Query, lq.URLs...)
			default:
				return Set{}, fmt.Errorf("unexpected entry at line %d", item.Line)
			}
		}
	case yaml.MappingNode:
		var d document
		if err := doc.Decode(&d); err != nil {
			return Set{}, fmt.Errorf("decode: %w", err)
		}
		for _, q := range d.Queries {
			b.add(q)
		}
		// labeled queries missing from the list are still evaluated
		keys := make([]string, 0, len(d.GroundTruth))
		for q := range d.GroundTruth {
			keys = append(keys, q)
		}
		sort.Strings(keys)
		for _, q := range keys {
			b.add(q, d.GroundTruth[q]...)
		}
	default:
		return Set{}, errors.New("evaluation set must be a list or a mapping")
	}
	return b.set()
}

// ParseCSV reads rows with a query/Query column and an optional
// url/Assessment_url column. Repeated queries collect their URLs.
func ParseCSV(r io.Reader) (Set, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Set{}, ErrNoQueries
		}
		return Set{}, fmt.Errorf("read header: %w", err)
	}
	qCol, uCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "query":
			qCol = i
		case "url", "assessment_url":
			uCol = i
		}
	}
	if qCol < 0 {
		return Set{}, errors.New("csv header has no query column")
	}

	b := newBuilder()
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Set{}, fmt.Errorf("read row: %w", err)
		}
		if qCol >= len(row) {
			continue
		}
		if uCol >= 0 && uCol < len(row) {
			b.add(row[qCol], row[uCol])
		} else {
			b.add(row[qCol])
		}
	}
	return b.set()
}

// ParseText reads one query per non-blank line.
func ParseText(r io.Reader) (Set, error) {
	b := newBuilder()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		b.add(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return Set{}, fmt.Errorf("read lines: %w", err)
	}
	return b.set()
}

type builder struct {
	queries []string
	seen    map[string]bool
	labels  map[string][]string
}

func newBuilder() *builder {
	return &builder{seen: make(map[string]bool), labels: make(map[string][]string)}
}

func (b *builder) add(query string, urls ...string) {
	q := strings.TrimSpace(query)
	if q == "" {
		return
	}
	if !b.seen[q] {
		b.seen[q] = true
		b.queries = append(b.queries, q)
	}
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			b.labels[q] = append(b.labels[q], u)
		}
	}
}

func (b *builder) set() (Set, error) {
	if len(b.queries) == 0 {
		return Set{}, ErrNoQueries
	}
	return Set{Queries: b.queries, Labels: b.labels}, nil
}
