package comparison

import (
	"fmt"
	"strings"
)

const ctrPrefix = "CTR_"

// LabelPair names the two arms of a dataset, e.g. {"BK", "DU"}.
type LabelPair struct {
	Control    string `json:"control"`
	Experiment string `json:"experiment"`
}

// Label returns the label for the given arm.
func (p LabelPair) Label(a Arm) string {
	if a == Experiment {
		return p.Experiment
	}
	return p.Control
}

// SchemaError reports a header row the detector cannot make sense of.
type SchemaError struct {
	Headers []string
	Found   []string
}

func (e *SchemaError) Error() string {
	if len(e.Found) == 1 {
		return fmt.Sprintf("CSV must contain two CTR_* or *_set1_* columns (found only %q)", e.Found[0])
	}
	return "CSV must contain two CTR_* or *_set1_* columns"
}

// DetectLabels infers the control/experiment label pair from the header row.
//
// Two or more CTR_<label> columns win outright: the first two, in header
// order. Otherwise the distinct <label> prefixes of <label>_set1_* columns are
// used, again first two in first-seen order.
func DetectLabels(headers []string) (LabelPair, error) {
	var ctr []string
	for _, h := range headers {
		h = strings.TrimSpace(h)
		if strings.HasPrefix(h, ctrPrefix) {
			ctr = append(ctr, strings.TrimPrefix(h, ctrPrefix))
		}
	}
	labels := ctr
	if len(ctr) < 2 {
		labels = setLabels(headers)
	}
	if len(labels) < 2 || labels[0] == "" || labels[1] == "" || labels[0] == labels[1] {
		return LabelPair{}, &SchemaError{Headers: headers, Found: labels}
	}
	return LabelPair{Control: labels[0], Experiment: labels[1]}, nil
}

func setLabels(headers []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, h := range headers {
		h = strings.TrimSpace(h)
		i := strings.IndexByte(h, '_')
		if i <= 0 || !strings.HasPrefix(h[i:], "_set1_") {
			continue
		}
		label := h[:i]
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}
