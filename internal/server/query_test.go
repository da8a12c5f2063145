package server_test

import (
	"math"
	"net/url"
	"testing"

	"github.com/KaramelBytes/serpdiff/internal/filter"
	"github.com/KaramelBytes/serpdiff/internal/server"
)

func TestParseQuery(t *testing.T) {
	v := url.Values{
		"q":       {"  star "},
		"ctrl_op": {"<="},
		"ctrl":    {"12.5"},
		"exp":     {"3"},
		"d_op":    {"lte"},
		"d":       {"-1"},
		"lg":      {"1"},
		"mc":      {"-1"},
		"p1":      {"any"},
		"tag":     {"a", " ", "b"},
		"len_min": {"3"},
	}
	q, err := server.ParseQuery(v)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if q.Text != "star" {
		t.Fatalf("text %q", q.Text)
	}
	if q.ControlCTR == nil || *q.ControlCTR != (filter.Bound{Op: filter.AtMost, Value: 12.5}) {
		t.Fatalf("control bound %+v", q.ControlCTR)
	}
	if q.ExperimentCTR == nil || q.ExperimentCTR.Op != filter.AtLeast || q.Delta.Value != -1 || q.Delta.Op != filter.AtMost {
		t.Fatalf("bounds %+v %+v", q.ExperimentCTR, q.Delta)
	}
	if q.LargeGap != filter.True || q.MeaningfulChange != filter.False || q.Set1P1Change != filter.Any {
		t.Fatalf("tri-states %v %v %v", q.LargeGap, q.MeaningfulChange, q.Set1P1Change)
	}
	if len(q.Tags) != 2 || q.Tags[0] != "a" || q.Tags[1] != "b" {
		t.Fatalf("tags %v", q.Tags)
	}
	if q.QueryLength == nil || q.QueryLength.Min != 3 || q.QueryLength.Max != math.MaxInt {
		t.Fatalf("length range %+v", q.QueryLength)
	}
}

func TestParseQueryEmpty(t *testing.T) {
	q, err := server.ParseQuery(url.Values{"ctrl": {""}, "lg": {""}})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !q.IsZero() {
		t.Fatalf("expected zero query, got %+v", q)
	}
}

func TestParseQueryErrors(t *testing.T) {
	for _, v := range []url.Values{
		{"ctrl": {"ten"}},
		{"exp": {"NaN"}},
		{"d": {"1"}, "d_op": {"=="}},
		{"mc": {"perhaps"}},
		{"len_max": {"long"}},
	} {
		if _, err := server.ParseQuery(v); err == nil {
			t.Fatalf("expected error for %v", v)
		}
	}
}
