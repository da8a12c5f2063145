// Package dataset holds the loaded comparison dataset in a versioned store
// and the per-client session bound to one store generation.
package dataset

import (
	"bytes"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/KaramelBytes/serpdiff/internal/comparison"
	"github.com/KaramelBytes/serpdiff/internal/filter"
	"github.com/KaramelBytes/serpdiff/internal/tabular"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"
)

// Dataset is one immutable, fully built load. Records are in canonical order.
type Dataset struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Generation  uint64               `json:"generation"`
	Labels      comparison.LabelPair `json:"labels"`
	Records     []comparison.Record  `json:"-"`
	Tags        []string             `json:"tags"`
	QueryLength filter.LengthRange   `json:"query_length"`
	RowsRead    int                  `json:"rows_read"`
	Fingerprint string               `json:"fingerprint"`
	LoadedAt    time.Time            `json:"loaded_at"`
}

// Build detects the label pair and builds every record of tbl. A schema
// failure is returned as *comparison.SchemaError.
func Build(tbl *tabular.Table) (*Dataset, error) {
	labels, err := comparison.DetectLabels(tbl.Headers)
	if err != nil {
		return nil, err
	}
	records := comparison.BuildRecords(tbl.Rows, labels)
	d := &Dataset{
		ID:          uuid.NewString(),
		Name:        tbl.Name,
		Labels:      labels,
		Records:     records,
		Tags:        tagFacet(records),
		QueryLength: lengthFacet(records),
		RowsRead:    len(tbl.Rows),
		Fingerprint: fmt.Sprintf("%016x", fingerprint(tbl)),
		LoadedAt:    time.Now().UTC(),
	}
	return d, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.Records) }

// Record returns the record at canonical index i.
func (d *Dataset) Record(i int) (*comparison.Record, bool) {
	if i < 0 || i >= len(d.Records) {
		return nil, false
	}
	return &d.Records[i], true
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (d *Dataset) MarshalZerologObject(e *zerolog.Event) {
	e.Str("dataset_id", d.ID).
		Str("name", d.Name).
		Uint64("generation", d.Generation).
		Str("control", d.Labels.Control).
		Str("experiment", d.Labels.Experiment).
		Int("rows_read", d.RowsRead).
		Int("records", len(d.Records)).
		Int("tags", len(d.Tags)).
		Str("fingerprint", d.Fingerprint)
}

// tagFacet lists every distinct tag, sorted.
func tagFacet(records []comparison.Record) []string {
	seen := map[string]struct{}{}
	for i := range records {
		for _, t := range records[i].Tags {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// lengthFacet is the min/max key length in runes; zero range when empty.
func lengthFacet(records []comparison.Record) filter.LengthRange {
	if len(records) == 0 {
		return filter.LengthRange{}
	}
	n := utf8.RuneCountInString(records[0].Key)
	r := filter.LengthRange{Min: n, Max: n}
	for i := 1; i < len(records); i++ {
		n := utf8.RuneCountInString(records[i].Key)
		if n < r.Min {
			r.Min = n
		}
		if n > r.Max {
			r.Max = n
		}
	}
	return r
}

// fingerprint hashes the decoded content so re-uploads of the same export
// can be recognized regardless of file name or encoding details.
func fingerprint(tbl *tabular.Table) uint64 {
	var buf bytes.Buffer
	for _, h := range tbl.Headers {
		buf.WriteString(h)
		buf.WriteByte(0x1f)
	}
	buf.WriteByte(0x1e)
	for _, row := range tbl.Rows {
		for _, h := range tbl.Headers {
			buf.WriteString(row[h])
			buf.WriteByte(0x1f)
		}
		buf.WriteByte(0x1e)
	}
	return xxh3.Hash(buf.Bytes())
}
