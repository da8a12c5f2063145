package comparison

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Sentinel is the "not applicable" marker used throughout search exports.
const Sentinel = "NA"

// Clean trims a raw cell and maps the "NA" sentinel to the empty string.
// Every display-bound field goes through Clean exactly once, at build time.
func Clean(raw string) string {
	v := strings.TrimSpace(raw)
	if strings.EqualFold(v, Sentinel) {
		return ""
	}
	return v
}

// AsPercentage converts a CTR cell into a value on the 0–100 scale.
//
// The source exports mix two encodings and the cell itself does not say which
// one it uses, so a heuristic decides:
//
//   - a parsed value > 1 is taken to be a percentage already ("5", "75", "12.5%")
//     and returned unchanged;
//   - a parsed value <= 1 is taken to be a fraction ("0.05") and multiplied by 100.
//
// So "0.5" always reads as 50%, never as half a percent, and "1" reads as 100%
// by either interpretation. A trailing "%" is ignored, so "0.5%" is also 50%.
// Empty, non-numeric and non-finite cells yield 0; negative results clamp to 0.
func AsPercentage(raw string) float64 {
	v := strings.TrimSpace(raw)
	v = strings.TrimSpace(strings.TrimSuffix(v, "%"))
	if v == "" {
		return 0
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	if n <= 1 {
		n *= 100
	}
	if n < 0 {
		return 0
	}
	return n
}

// AsBoolean reports whether the trimmed cell equals "true", ignoring case.
func AsBoolean(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}

// AsCount parses a non-negative integer count. Decimal input is truncated;
// anything unparseable or negative yields 0.
func AsCount(raw string) int {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f >= math.MaxInt64 {
		return 0
	}
	return int(f)
}

// Delta is the signed difference between two CTR values.
type Delta struct {
	Magnitude float64 `json:"magnitude"`
	Sign      int     `json:"sign"` // -1, 0 or 1
}

// DeltaOf returns experiment - control. A zero or non-finite difference is neutral.
func DeltaOf(experiment, control float64) Delta {
	d := experiment - control
	if math.IsNaN(d) || math.IsInf(d, 0) || d == 0 {
		return Delta{}
	}
	if d > 0 {
		return Delta{Magnitude: d, Sign: 1}
	}
	return Delta{Magnitude: -d, Sign: -1}
}

// Signed returns the delta as a signed value.
func (d Delta) Signed() float64 { return float64(d.Sign) * d.Magnitude }

// String renders the delta for plain-text output: "▲1.25%", "▼0.40%" or "0".
func (d Delta) String() string {
	switch d.Sign {
	case 1:
		return fmt.Sprintf("▲%.2f%%", d.Magnitude)
	case -1:
		return fmt.Sprintf("▼%.2f%%", d.Magnitude)
	default:
		return "0"
	}
}
