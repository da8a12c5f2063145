package server

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/KaramelBytes/serpdiff/internal/filter"
)

// ParseQuery reads filter options from URL parameters:
//
//	q                 search text
//	ctrl_op, ctrl     control CTR bound (op defaults to >=)
//	exp_op, exp       experiment CTR bound
//	d_op, d           signed delta bound
//	lg, mc, p1        tri-state flags as dial values -1/0/1 or any/true/false
//	tag               repeatable; records carrying any of them match
//	len_min, len_max  inclusive key length range
//
// Empty values are treated as absent.
func ParseQuery(v url.Values) (filter.Query, error) {
	q := filter.Query{Text: strings.TrimSpace(v.Get("q"))}

	var err error
	if q.ControlCTR, err = parseBound(v, "ctrl"); err != nil {
		return filter.Query{}, err
	}
	if q.ExperimentCTR, err = parseBound(v, "exp"); err != nil {
		return filter.Query{}, err
	}
	if q.Delta, err = parseBound(v, "d"); err != nil {
		return filter.Query{}, err
	}
	if q.LargeGap, err = parseDial(v, "lg"); err != nil {
		return filter.Query{}, err
	}
	if q.MeaningfulChange, err = parseDial(v, "mc"); err != nil {
		return filter.Query{}, err
	}
	if q.Set1P1Change, err = parseDial(v, "p1"); err != nil {
		return filter.Query{}, err
	}
	for _, t := range v["tag"] {
		if t = strings.TrimSpace(t); t != "" {
			q.Tags = append(q.Tags, t)
		}
	}

	minS, maxS := strings.TrimSpace(v.Get("len_min")), strings.TrimSpace(v.Get("len_max"))
	if minS != "" || maxS != "" {
		lr := filter.LengthRange{Min: 0, Max: math.MaxInt}
		if minS != "" {
			if lr.Min, err = strconv.Atoi(minS); err != nil {
				return filter.Query{}, fmt.Errorf("invalid len_min: %q", minS)
			}
		}
		if maxS != "" {
			if lr.Max, err = strconv.Atoi(maxS); err != nil {
				return filter.Query{}, fmt.Errorf("invalid len_max: %q", maxS)
			}
		}
		q.QueryLength = &lr
	}
	return q, nil
}

func parseBound(v url.Values, name string) (*filter.Bound, error) {
	raw := strings.TrimSpace(v.Get(name))
	if raw == "" {
		return nil, nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		return nil, fmt.Errorf("invalid %s: %q", name, raw)
	}
	op, err := filter.ParseOp(v.Get(name + "_op"))
	if err != nil {
		return nil, fmt.Errorf("%s_op: %w", name, err)
	}
	return &filter.Bound{Op: op, Value: val}, nil
}

// parseDial converts the -1/0/1 slider encoding; words are accepted too.
func parseDial(v url.Values, name string) (filter.TriState, error) {
	raw := strings.TrimSpace(v.Get(name))
	if n, err := strconv.Atoi(raw); err == nil {
		return filter.TriStateFromDial(n), nil
	}
	t, err := filter.ParseTriState(raw)
	if err != nil {
		return filter.Any, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}
