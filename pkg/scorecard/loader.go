package scorecard

import (
	"encoding/csv"
	"os"

	"github.com/pkg/errors"
)

// RawTable is the parsed CSV: the header and one column-keyed map per
// row. Rows shorter than the header simply omit the trailing columns.
type RawTable struct {
	Columns []string
	Rows    []map[string]string
}

// HasColumn reports whether the source header contains the column.
func (t *RawTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// LoadCSV reads the scorecard summary file. A missing or unparsable
// file is a hard error: the dashboard must not start on empty or
// corrupt data. Missing columns are not checked here; they default
// downstream in Transform.
func LoadCSV(path string) (*RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "scorecard file not found: %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse scorecard file: %s", path)
	}

	if len(records) == 0 {
		return nil, errors.Errorf("scorecard file has no header row: %s", path)
	}

	t := &RawTable{
		Columns: records[0],
		Rows:    make([]map[string]string, 0, len(records)-1),
	}

	for _, rec := range records[1:] {
		row := make(map[string]string, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// LoadPapers runs the full pipeline: CSV load plus per-row transform.
func LoadPapers(path string, ru *Rubric) ([]*Paper, error) {
	t, err := LoadCSV(path)
	if err != nil {
		return nil, err
	}
	return Transform(t.Rows, ru), nil
}
