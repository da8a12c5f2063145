package comparison

import "strings"

// ResultEntry is one ranked search result. Sentinel values are already
// stripped, so an empty field simply means "not available".
type ResultEntry struct {
	Title    string `json:"title"`
	Type     string `json:"type"`
	ImageURL string `json:"image_url"`
	URL      string `json:"url"`
}

// Label composes the display text "title (type)"; either part may be missing.
func (e ResultEntry) Label() string {
	parts := make([]string, 0, 2)
	if e.Title != "" {
		parts = append(parts, e.Title)
	}
	if e.Type != "" {
		parts = append(parts, "("+e.Type+")")
	}
	return strings.Join(parts, " ")
}

// ResultSet holds the ranked results of one slot.
type ResultSet [ResultsPerSet]ResultEntry

// Entity is a clicked entity for the query.
type Entity struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	ID         string  `json:"id"`
	URL        string  `json:"url"`
	ImageURL   string  `json:"image_url"`
	ClickCount int     `json:"click_count"`
	Percentage float64 `json:"percentage"`
}

// Record is the typed comparison of one query. Records are never mutated
// after BuildRecords returns.
type Record struct {
	Key              string          `json:"key"`
	TotalClicks      int             `json:"total_clicks"`
	SearchCount      int             `json:"search_count"`
	CTRControl       float64         `json:"ctr_control"`
	CTRExperiment    float64         `json:"ctr_experiment"`
	LargeGap         bool            `json:"large_gap"`
	MeaningfulChange bool            `json:"meaningful_change"`
	Set1P1Change     bool            `json:"set1_p1_change"`
	Tags             []string        `json:"tags"`
	Titles           [2][2]string    `json:"titles"`  // [arm][slot]
	Results          [2][2]ResultSet `json:"results"` // [arm][slot]
	Entities         []Entity        `json:"entities"`
}

// Title returns the slot title shown for an arm.
func (r *Record) Title(a Arm, s Slot) string { return r.Titles[a][s] }

// Result returns the result set of an arm and slot.
func (r *Record) Result(a Arm, s Slot) ResultSet { return r.Results[a][s] }

// Delta is CTRExperiment - CTRControl.
func (r *Record) Delta() Delta { return DeltaOf(r.CTRExperiment, r.CTRControl) }

// SignedDelta is the raw signed CTR difference used by range filters.
func (r *Record) SignedDelta() float64 { return r.CTRExperiment - r.CTRControl }

// HasTag reports whether the record carries tag.
func (r *Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SlotDiff marks where control and experiment disagree within one slot.
type SlotDiff struct {
	Slot         string              `json:"slot"`
	TitleChanged bool                `json:"title_changed"`
	RankChanged  [ResultsPerSet]bool `json:"rank_changed"`
}

// Diff compares the two arms slot by slot, on display text.
func (r *Record) Diff() []SlotDiff {
	out := make([]SlotDiff, 0, len(Slots))
	for _, s := range Slots {
		d := SlotDiff{
			Slot:         s.String(),
			TitleChanged: r.Titles[Control][s] != r.Titles[Experiment][s],
		}
		for i := 0; i < ResultsPerSet; i++ {
			c := strings.TrimSpace(r.Results[Control][s][i].Label())
			e := strings.TrimSpace(r.Results[Experiment][s][i].Label())
			d.RankChanged[i] = c != e
		}
		out = append(out, d)
	}
	return out
}
