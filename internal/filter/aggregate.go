package filter

import (
	"fmt"

	"github.com/KaramelBytes/serpdiff/internal/comparison"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary is the click-weighted CTR over a filtered record set.
type Summary struct {
	Queries               int     `json:"queries"`
	TotalClicks           int     `json:"total_clicks"`
	WeightedControlCTR    float64 `json:"weighted_control_ctr"`
	WeightedExperimentCTR float64 `json:"weighted_experiment_ctr"`
	Delta                 float64 `json:"delta"`
	NoMatches             bool    `json:"no_matches"`
}

// Aggregate summarizes the records at indices. It must be given the full
// filtered set, not just the revealed pages. An empty set yields a summary
// with NoMatches set and all figures zero.
func Aggregate(records []comparison.Record, indices []int) Summary {
	if len(indices) == 0 {
		return Summary{NoMatches: true}
	}
	s := Summary{Queries: len(indices)}
	var ctrl, exp float64
	for _, i := range indices {
		r := &records[i]
		c := float64(r.TotalClicks)
		s.TotalClicks += r.TotalClicks
		ctrl += c * r.CTRControl
		exp += c * r.CTRExperiment
	}
	if s.TotalClicks > 0 {
		s.WeightedControlCTR = ctrl / float64(s.TotalClicks)
		s.WeightedExperimentCTR = exp / float64(s.TotalClicks)
	}
	s.Delta = s.WeightedExperimentCTR - s.WeightedControlCTR
	return s
}

// DeltaOf returns the summary delta in its display form.
func (s Summary) DeltaOf() comparison.Delta {
	return comparison.DeltaOf(s.WeightedExperimentCTR, s.WeightedControlCTR)
}

// Text renders the summary as two plain lines, with thousands separators.
func (s Summary) Text(labels comparison.LabelPair) string {
	if s.NoMatches {
		return "No queries match current filters"
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("Filtered results: %d queries, %d total clicks\n", s.Queries, s.TotalClicks) +
		fmt.Sprintf("%s CTR: %.2f%% | %s CTR: %.2f%% | Difference: %s",
			labels.Control, s.WeightedControlCTR, labels.Experiment, s.WeightedExperimentCTR, s.DeltaOf())
}
