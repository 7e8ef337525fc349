package evalset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		queries []string
		labels  map[string][]string
	}{
		{
			name:    "list of strings",
			data:    `["java developer", "sales manager", "java developer"]`,
			queries: []string{"java developer", "sales manager"},
			labels:  map[string][]string{},
		},
		{
			name:    "list of labeled objects",
			data:    `[{"query": "java developer", "urls": ["https://x/java/", "https://x/opq/"]}, {"query": "analyst"}]`,
			queries: []string{"java developer", "analyst"},
			labels:  map[string][]string{"java developer": {"https://x/java/", "https://x/opq/"}},
		},
		{
			name: "queries with ground truth",
			data: `{"queries": ["a query", "b query"],
			        "ground_truth": {"b query": ["https://x/b/"], "c query": ["https://x/c/"]}}`,
			queries: []string{"a query", "b query", "c query"},
			labels:  map[string][]string{"b query": {"https://x/b/"}, "c query": {"https://x/c/"}},
		},
		{
			name:    "yaml",
			data:    "- query: java developer\n  urls: [https://x/java/]\n",
			queries: []string{"java developer"},
			labels:  map[string][]string{"java developer": {"https://x/java/"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := ParseJSON([]byte(tt.data))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(set.Queries, tt.queries) {
				t.Errorf("queries = %v, want %v", set.Queries, tt.queries)
			}
			if !reflect.DeepEqual(set.Labels, tt.labels) {
				t.Errorf("labels = %v, want %v", set.Labels, tt.labels)
			}
		})
	}
}

func TestParseJSON_Errors(t *testing.T) {
	for _, data := range []string{"", "[]", `{"queries": []}`, `"just a string"`, `[[1, 2]]`} {
		if _, err := ParseJSON([]byte(data)); err == nil {
			t.Errorf("ParseJSON(%q): expected error", data)
		}
	}
	if _, err := ParseJSON([]byte("[]")); !errors.Is(err, ErrNoQueries) {
		t.Errorf("expected ErrNoQueries, got %v", err)
	}
}

func TestParseCSV(t *testing.T) {
	data := "Query,Assessment_url\n" +
		"java developer,https://x/java/\n" +
		"java developer,https://x/opq/\n" +
		"\"sales, retail\",https://x/sales/\n"
	set, err := ParseCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(set.Queries, []string{"java developer", "sales, retail"}) {
		t.Errorf("unexpected queries %v", set.Queries)
	}
	if got := set.Labels["java developer"]; len(got) != 2 {
		t.Errorf("expected 2 labels, got %v", got)
	}
	if !set.Labeled() {
		t.Error("expected a labeled set")
	}
}

func TestParseCSV_QueriesOnly(t *testing.T) {
	set, err := ParseCSV(strings.NewReader("query\nfirst query\nsecond query\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set.Queries) != 2 || set.Labeled() {
		t.Errorf("unexpected set %+v", set)
	}
}

func TestParseCSV_Errors(t *testing.T) {
	if _, err := ParseCSV(strings.NewReader("")); !errors.Is(err, ErrNoQueries) {
		t.Errorf("expected ErrNoQueries, got %v", err)
	}
	if _, err := ParseCSV(strings.NewReader("name,url\nx,y\n")); err == nil {
		t.Error("expected error for missing query column")
	}
}

func TestParseText(t *testing.T) {
	set, err := ParseText(strings.NewReader("  first query \n\n second query\nfirst query\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(set.Queries, []string{"first query", "second query"}) {
		t.Errorf("unexpected queries %v", set.Queries)
	}
	if set.Labeled() {
		t.Error("text sets are unlabeled")
	}
}

func TestLoadFile_ByExtension(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"set.json": `["json query"]`,
		"set.csv":  "query\ncsv query\n",
		"set.txt":  "txt query\n",
	}
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		set, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile(%s): %v", name, err)
		}
		want := name[len("set."):] + " query"
		if set.Queries[0] != want {
			t.Errorf("LoadFile(%s) = %v, want %q", name, set.Queries, want)
		}
	}
}

func TestWritePredictions(t *testing.T) {
	var buf bytes.Buffer
	err := WritePredictions(&buf, []Prediction{
		{Query: "java developer", URLs: []string{"https://x/java/", "https://x/opq/"}},
		{Query: "sales, retail", URLs: []string{"https://x/sales/"}},
		{Query: "nothing found"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Query,Assessment_url\n" +
		"java developer,https://x/java/\n" +
		"java developer,https://x/opq/\n" +
		"\"sales, retail\",https://x/sales/\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWritePredictionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := WritePredictionsFile(path, []Prediction{{Query: "q", URLs: []string{"u"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	set, err := LoadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !reflect.DeepEqual(set.Labels["q"], []string{"u"}) {
		t.Errorf("unexpected round trip %+v", set)
	}
}
