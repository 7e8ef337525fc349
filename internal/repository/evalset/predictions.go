package evalset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Prediction is the ordered list of URLs recommended for a query.
type Prediction struct {
	Query string
	URLs  []string
}

// WritePredictions writes the "Query,Assessment_url" CSV, one row per URL.
func WritePredictions(w io.Writer, preds []Prediction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Query", "Assessment_url"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range preds {
		for _, u := range p.URLs {
			if err := cw.Write([]string{p.Query, u}); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePredictionsFile writes predictions to path, replacing it.
func WritePredictionsFile(path string, preds []Prediction) (err error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return WritePredictions(f, preds)
}
