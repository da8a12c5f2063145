package comparison_test

import (
	"errors"
	"testing"

	"github.com/KaramelBytes/serpdiff/internal/comparison"
)

func TestDetectLabels(t *testing.T) {
	cases := []struct {
		name    string
		headers []string
		want    comparison.LabelPair
	}{
		{
			name:    "ctr columns in header order",
			headers: []string{"search_string", "CTR_BK", "CTR_DU", "total_clicks"},
			want:    comparison.LabelPair{Control: "BK", Experiment: "DU"},
		},
		{
			name:    "ctr columns win over set1 columns",
			headers: []string{"Exp_set1_title", "Ctrl_set1_title", "CTR_A", "CTR_B"},
			want:    comparison.LabelPair{Control: "A", Experiment: "B"},
		},
		{
			name:    "only first two ctr columns count",
			headers: []string{"CTR_X", "CTR_Y", "CTR_Z"},
			want:    comparison.LabelPair{Control: "X", Experiment: "Y"},
		},
		{
			name:    "set1 fallback first seen",
			headers: []string{"q", "Ctrl_set1_title", "Ctrl_set1_result1_title", "Exp_set1_title", "Ctrl_set2_title"},
			want:    comparison.LabelPair{Control: "Ctrl", Experiment: "Exp"},
		},
		{
			name:    "single ctr column falls back to set1",
			headers: []string{"CTR_BK", "BK_set1_title", "DU_set1_title"},
			want:    comparison.LabelPair{Control: "BK", Experiment: "DU"},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := comparison.DetectLabels(c.headers)
			if err != nil {
				t.Fatalf("detect: %v", err)
			}
			if got != c.want {
				t.Fatalf("got %+v, want %+v", got, c.want)
			}
		})
	}
}

func TestDetectLabelsFailure(t *testing.T) {
	for _, headers := range [][]string{
		nil,
		{"search_string", "total_clicks"},
		{"CTR_BK"},
		{"BK_set1_title", "BK_set1_result1_title"},
		{"BK_set2_title", "DU_set2_title"},
	} {
		_, err := comparison.DetectLabels(headers)
		var se *comparison.SchemaError
		if !errors.As(err, &se) {
			t.Fatalf("headers %v: expected SchemaError, got %v", headers, err)
		}
		if se.Error() == "" {
			t.Fatalf("empty error message")
		}
	}
}
