package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/KaramelBytes/serpdiff/internal/dataset"
)

// Columns returns the flat column set for the snapshot's labels.
func Columns(snap Snapshot) []string {
	return []string{
		"index", "key", "total_clicks", "search_count",
		"ctr_" + snap.Labels.Control, "ctr_" + snap.Labels.Experiment, "delta",
		"large_gap", "meaningful_change", "set1_p1_change", "tags", "top_entity",
	}
}

func flatten(it dataset.Item) []string {
	r := it.Record
	return []string{
		strconv.Itoa(it.Index),
		r.Key,
		strconv.Itoa(r.TotalClicks),
		strconv.Itoa(r.SearchCount),
		strconv.FormatFloat(r.CTRControl, 'f', -1, 64),
		strconv.FormatFloat(r.CTRExperiment, 'f', -1, 64),
		strconv.FormatFloat(r.SignedDelta(), 'f', 4, 64),
		strconv.FormatBool(r.LargeGap),
		strconv.FormatBool(r.MeaningfulChange),
		strconv.FormatBool(r.Set1P1Change),
		strings.Join(r.Tags, ","),
		topEntity(it),
	}
}

func topEntity(it dataset.Item) string {
	if len(it.Entities) == 0 {
		return ""
	}
	return it.Entities[0].Name
}

// WriteCSV writes one row per record.
func WriteCSV(w io.Writer, snap Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns(snap)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, it := range snap.Records {
		if err := cw.Write(flatten(it)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
