// Package export writes filtered comparison records to JSON, CSV or SQLite.
package export

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/serpdiff/internal/comparison"
	"github.com/KaramelBytes/serpdiff/internal/dataset"
	"github.com/KaramelBytes/serpdiff/internal/filter"
	"github.com/KaramelBytes/serpdiff/internal/utils"
)

// Format is an output format.
type Format string

const (
	JSON   Format = "json"
	CSV    Format = "csv"
	SQLite Format = "sqlite"
)

// ParseFormat accepts a format name; empty means infer from path.
func ParseFormat(name, path string) (Format, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv":
			return CSV, nil
		case ".db", ".sqlite", ".sqlite3":
			return SQLite, nil
		default:
			return JSON, nil
		}
	}
	switch Format(n) {
	case JSON, CSV, SQLite:
		return Format(n), nil
	case "db", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unknown export format: %s (use json, csv or sqlite)", name)
	}
}

// Snapshot is the filtered view being exported.
type Snapshot struct {
	DatasetID   string               `json:"dataset_id"`
	DatasetName string               `json:"dataset_name"`
	Generation  uint64               `json:"generation"`
	Fingerprint string               `json:"fingerprint"`
	ExportedAt  time.Time            `json:"exported_at"`
	Labels      comparison.LabelPair `json:"labels"`
	Query       filter.Query         `json:"query"`
	Summary     filter.Summary       `json:"summary"`
	Records     []dataset.Item       `json:"records"`
}

// NewSnapshot collects the records at indices together with their summary.
func NewSnapshot(d *dataset.Dataset, q filter.Query, indices []int) Snapshot {
	items := make([]dataset.Item, len(indices))
	for i, j := range indices {
		items[i] = dataset.Item{Index: j, Record: &d.Records[j]}
	}
	return Snapshot{
		DatasetID:   d.ID,
		DatasetName: d.Name,
		Generation:  d.Generation,
		Fingerprint: d.Fingerprint,
		ExportedAt:  time.Now().UTC(),
		Labels:      d.Labels,
		Query:       q,
		Summary:     filter.Aggregate(d.Records, indices),
		Records:     items,
	}
}

// WriteFile writes snap to path in the given format.
func WriteFile(path string, f Format, snap Snapshot) error {
	switch f {
	case JSON:
		b, err := utils.PrettyJSON(snap)
		if err != nil {
			return err
		}
		return utils.SafeWriteFile(path, b)
	case CSV:
		var buf bytes.Buffer
		if err := WriteCSV(&buf, snap); err != nil {
			return err
		}
		return utils.SafeWriteFile(path, buf.Bytes())
	case SQLite:
		return WriteSQLite(path, snap)
	default:
		return fmt.Errorf("unknown export format: %s", f)
	}
}
