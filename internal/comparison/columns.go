package comparison

import (
	"fmt"
	"strings"
)

// Arm is one side of the comparison.
type Arm int

const (
	Control Arm = iota
	Experiment
)

// Arms lists both arms in display order.
var Arms = [...]Arm{Control, Experiment}

func (a Arm) String() string {
	if a == Experiment {
		return "experiment"
	}
	return "control"
}

// Slot is a named group of three ranked results per arm.
type Slot int

const (
	Set1 Slot = iota
	Set2
)

// Slots lists both slots in display order.
var Slots = [...]Slot{Set1, Set2}

func (s Slot) String() string {
	if s == Set2 {
		return "set2"
	}
	return "set1"
}

const (
	// ResultsPerSet is the fixed number of ranked results in a slot.
	ResultsPerSet = 3
	// MaxEntities is the number of top-entity column groups in an export.
	MaxEntities = 5
)

// Column names that do not depend on the label pair.
const (
	colSearchString     = "search_string"
	colID               = "id"
	colQuery            = "query"
	colTotalClicks      = "total_clicks"
	colSearchCount      = "search_count"
	colLargeGap         = "large_gap"
	colMeaningfulChange = "meaningful_change"
	colSet1P1Change     = "set1_p1_change"
	colTags             = "tags"
)

// keyColumns are tried in order when resolving a record key.
var keyColumns = []string{colSearchString, colID, colQuery}

// BlankKey is used when no key column has a value.
const BlankKey = "(blank)"

// entityImagePrefixes are the fixed arm prefixes scanned when matching an
// entity ID to a result image. They do not follow the detected labels.
var entityImagePrefixes = [...]string{"Ctrl", "Exp"}

// Columns resolves column names for one dataset's label pair. All
// name interpolation in the package happens here.
type Columns struct {
	Labels LabelPair
}

// CTR returns the CTR_<label> column of an arm.
func (c Columns) CTR(a Arm) string { return ctrPrefix + c.Labels.Label(a) }

// Title returns the <label>_<slot>_title column.
func (c Columns) Title(a Arm, s Slot) string {
	return fmt.Sprintf("%s_%s_title", c.Labels.Label(a), s)
}

// ResultField returns <label>_<slot>_result<rank>_<field>; rank is 1-based.
func (c Columns) ResultField(a Arm, s Slot, rank int, field string) string {
	return resultColumn(c.Labels.Label(a), s, rank, field)
}

// EntityField returns top<rank>_entity_<field>; rank is 1-based.
func (c Columns) EntityField(rank int, field string) string {
	return fmt.Sprintf("top%d_entity_%s", rank, field)
}

// EntityClicks returns top<rank>_click_count.
func (c Columns) EntityClicks(rank int) string {
	return fmt.Sprintf("top%d_click_count", rank)
}

// ImageRef pairs an ID column with the image column of the same result.
type ImageRef struct {
	ID    string
	Image string
}

// EntityImageRefs lists the twelve fixed result columns checked for entity images.
func (c Columns) EntityImageRefs() []ImageRef {
	refs := make([]ImageRef, 0, len(entityImagePrefixes)*len(Slots)*ResultsPerSet)
	for _, p := range entityImagePrefixes {
		for _, s := range Slots {
			for rank := 1; rank <= ResultsPerSet; rank++ {
				refs = append(refs, ImageRef{
					ID:    resultColumn(p, s, rank, "id"),
					Image: resultColumn(p, s, rank, "img"),
				})
			}
		}
	}
	return refs
}

func resultColumn(label string, s Slot, rank int, field string) string {
	return fmt.Sprintf("%s_%s_result%d_%s", label, s, rank, field)
}

// Row is one raw input row keyed by column name.
type Row map[string]string

// Get returns the trimmed value of a column, or "" when missing.
func (r Row) Get(col string) string { return strings.TrimSpace(r[col]) }

// First returns the first non-empty value among cols.
func (r Row) First(cols ...string) string {
	for _, c := range cols {
		if v := r.Get(c); v != "" {
			return v
		}
	}
	return ""
}
