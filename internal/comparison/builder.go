package comparison

import (
	"sort"
	"strings"
)

// BuildRecords turns raw rows into comparison records in canonical order:
// total clicks descending, ties in input order. Malformed cells fall back to
// zero values; no row is ever dropped.
func BuildRecords(rows []Row, labels LabelPair) []Record {
	cols := Columns{Labels: labels}
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = BuildRecord(r, cols)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalClicks > out[j].TotalClicks
	})
	return out
}

// BuildRecord assembles a single record.
func BuildRecord(row Row, cols Columns) Record {
	key := row.First(keyColumns...)
	if key == "" {
		key = BlankKey
	}
	rec := Record{
		Key:              key,
		TotalClicks:      AsCount(row[colTotalClicks]),
		SearchCount:      AsCount(row[colSearchCount]),
		CTRControl:       AsPercentage(row[cols.CTR(Control)]),
		CTRExperiment:    AsPercentage(row[cols.CTR(Experiment)]),
		LargeGap:         AsBoolean(row[colLargeGap]),
		MeaningfulChange: AsBoolean(row[colMeaningfulChange]),
		Set1P1Change:     AsBoolean(row[colSet1P1Change]),
		Tags:             splitTags(row[colTags]),
	}
	for _, a := range Arms {
		for _, s := range Slots {
			rec.Titles[a][s] = Clean(row[cols.Title(a, s)])
			for rank := 1; rank <= ResultsPerSet; rank++ {
				rec.Results[a][s][rank-1] = buildEntry(row, cols, a, s, rank)
			}
		}
	}
	rec.Entities = buildEntities(row, cols, rec.SearchCount)
	return rec
}

func buildEntry(row Row, cols Columns, a Arm, s Slot, rank int) ResultEntry {
	field := func(name string) string { return cols.ResultField(a, s, rank, name) }
	return ResultEntry{
		Title:    Clean(row[field("title")]),
		Type:     Clean(row[field("type")]),
		ImageURL: Clean(row[field("img")]),
		URL:      firstClean(row, field("id_hyperlink"), field("hyperlink")),
	}
}

func buildEntities(row Row, cols Columns, searchCount int) []Entity {
	var out []Entity
	for rank := 1; rank <= MaxEntities; rank++ {
		name := Clean(row[cols.EntityField(rank, "name")])
		clicks := AsCount(row[cols.EntityClicks(rank)])
		if name == "" || clicks <= 0 {
			continue
		}
		id := Clean(row[cols.EntityField(rank, "id")])
		e := Entity{
			Name:       name,
			Type:       Clean(row[cols.EntityField(rank, "type")]),
			ID:         id,
			URL:        Clean(row[cols.EntityField(rank, "id_hyperlink")]),
			ImageURL:   entityImage(row, cols, id),
			ClickCount: clicks,
		}
		if searchCount > 0 {
			e.Percentage = float64(clicks) / float64(searchCount) * 100
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ClickCount > out[j].ClickCount
	})
	return out
}

// entityImage finds the image of the first fixed result column whose ID
// matches the entity.
func entityImage(row Row, cols Columns, id string) string {
	if id == "" {
		return ""
	}
	for _, ref := range cols.EntityImageRefs() {
		if row.Get(ref.ID) != id {
			continue
		}
		if img := Clean(row[ref.Image]); img != "" {
			return img
		}
	}
	return ""
}

// firstClean returns the first column value that survives Clean.
func firstClean(row Row, cols ...string) string {
	for _, c := range cols {
		if v := Clean(row[c]); v != "" {
			return v
		}
	}
	return ""
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = Clean(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
