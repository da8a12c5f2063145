// Package filter evaluates filter queries over comparison records, pages
// through the matches and aggregates click-weighted CTR over them.
package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is a numeric comparison operator.
type Op string

const (
	AtLeast Op = ">="
	AtMost  Op = "<="
)

// ParseOp accepts ">=", "<=" and the spelled-out "gte"/"lte". Empty means AtLeast.
func ParseOp(s string) (Op, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", ">=", "gte", "ge":
		return AtLeast, nil
	case "<=", "lte", "le":
		return AtMost, nil
	default:
		return "", fmt.Errorf("invalid operator %q (use >= or <=)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler so query files accept
// the same spellings as ParseOp and reject anything else.
func (o *Op) UnmarshalText(b []byte) error {
	v, err := ParseOp(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Bound is a one-sided numeric constraint such as ">= 10".
type Bound struct {
	Op    Op      `json:"op" yaml:"op"`
	Value float64 `json:"value" yaml:"value"`
}

// Holds reports whether v satisfies the bound.
func (b Bound) Holds(v float64) bool {
	if b.Op == AtMost {
		return v <= b.Value
	}
	return v >= b.Value
}

func (b Bound) String() string {
	op := b.Op
	if op == "" {
		op = AtLeast
	}
	return fmt.Sprintf("%s %s", op, strconv.FormatFloat(b.Value, 'f', -1, 64))
}

// TriState is a boolean filter that can also accept everything.
type TriState int

const (
	Any TriState = iota
	True
	False
)

// Accepts reports whether a flag value passes.
func (t TriState) Accepts(v bool) bool {
	switch t {
	case True:
		return v
	case False:
		return !v
	default:
		return true
	}
}

func (t TriState) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "any"
	}
}

// TriStateFromDial converts the UI dial encoding (1 true, -1 false, 0 any).
func TriStateFromDial(v int) TriState {
	switch {
	case v > 0:
		return True
	case v < 0:
		return False
	default:
		return Any
	}
}

// ParseTriState accepts "any"/"true"/"false" as well as dial values.
func ParseTriState(s string) (TriState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any", "0":
		return Any, nil
	case "true", "yes", "1":
		return True, nil
	case "false", "no", "-1":
		return False, nil
	default:
		return Any, fmt.Errorf("invalid tri-state %q (use any, true or false)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t TriState) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TriState) UnmarshalText(b []byte) error {
	v, err := ParseTriState(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// LengthRange bounds the key length, both ends inclusive.
type LengthRange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Contains reports whether n lies within the range.
func (r LengthRange) Contains(n int) bool { return n >= r.Min && n <= r.Max }

// Query is the full set of filter options. The zero value matches everything.
type Query struct {
	Text             string       `json:"text,omitempty" yaml:"text,omitempty"`
	ControlCTR       *Bound       `json:"control_ctr,omitempty" yaml:"control_ctr,omitempty"`
	ExperimentCTR    *Bound       `json:"experiment_ctr,omitempty" yaml:"experiment_ctr,omitempty"`
	Delta            *Bound       `json:"delta,omitempty" yaml:"delta,omitempty"`
	LargeGap         TriState     `json:"large_gap" yaml:"large_gap"`
	MeaningfulChange TriState     `json:"meaningful_change" yaml:"meaningful_change"`
	Set1P1Change     TriState     `json:"set1_p1_change" yaml:"set1_p1_change"`
	Tags             []string     `json:"tags,omitempty" yaml:"tags,omitempty"`
	QueryLength      *LengthRange `json:"query_length,omitempty" yaml:"query_length,omitempty"`
}

// IsZero reports whether the query applies no constraint at all.
func (q Query) IsZero() bool {
	return strings.TrimSpace(q.Text) == "" &&
		q.ControlCTR == nil && q.ExperimentCTR == nil && q.Delta == nil &&
		q.LargeGap == Any && q.MeaningfulChange == Any && q.Set1P1Change == Any &&
		len(q.Tags) == 0 && q.QueryLength == nil
}
