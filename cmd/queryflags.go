package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/KaramelBytes/serpdiff/internal/filter"
	"github.com/KaramelBytes/serpdiff/internal/server"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// queryFlags carries the filter flags shared by filter and export.
type queryFlags struct {
	text      string
	ctrlOp    string
	ctrl      string
	expOp     string
	exp       string
	deltaOp   string
	delta     string
	largeGap  string
	meaning   string
	p1Change  string
	tags      []string
	lenMin    int
	lenMax    int
	queryFile string
}

func (f *queryFlags) register(c *cobra.Command) {
	fs := c.Flags()
	fs.StringVarP(&f.text, "text", "q", "", "case-insensitive substring of the query key")
	fs.StringVar(&f.ctrlOp, "ctrl-op", ">=", "control CTR operator: >= | <=")
	fs.StringVar(&f.ctrl, "ctrl", "", "control CTR bound in percent")
	fs.StringVar(&f.expOp, "exp-op", ">=", "experiment CTR operator: >= | <=")
	fs.StringVar(&f.exp, "exp", "", "experiment CTR bound in percent")
	fs.StringVar(&f.deltaOp, "delta-op", ">=", "CTR difference operator: >= | <=")
	fs.StringVar(&f.delta, "delta", "", "signed CTR difference bound (experiment - control)")
	fs.StringVar(&f.largeGap, "large-gap", "", "large_gap flag: any | true | false")
	fs.StringVar(&f.meaning, "meaningful-change", "", "meaningful_change flag: any | true | false")
	fs.StringVar(&f.p1Change, "p1-change", "", "set1_p1_change flag: any | true | false")
	fs.StringSliceVar(&f.tags, "tag", nil, "keep records carrying any of these tags (repeatable)")
	fs.IntVar(&f.lenMin, "len-min", -1, "minimum query key length in characters")
	fs.IntVar(&f.lenMax, "len-max", -1, "maximum query key length in characters")
	fs.StringVar(&f.queryFile, "query-file", "", "YAML file with a saved query; flags given here override it")
}

// values renders the flags in the URL form understood by server.ParseQuery.
func (f *queryFlags) values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("q", f.text)
	set("ctrl_op", f.ctrlOp)
	set("ctrl", f.ctrl)
	set("exp_op", f.expOp)
	set("exp", f.exp)
	set("d_op", f.deltaOp)
	set("d", f.delta)
	set("lg", f.largeGap)
	set("mc", f.meaning)
	set("p1", f.p1Change)
	for _, t := range f.tags {
		v.Add("tag", t)
	}
	if f.lenMin >= 0 {
		v.Set("len_min", strconv.Itoa(f.lenMin))
	}
	if f.lenMax >= 0 {
		v.Set("len_max", strconv.Itoa(f.lenMax))
	}
	return v
}

// query builds the effective query: the saved query file (if any) with every
// criterion given on the command line laid over it.
func (f *queryFlags) query() (filter.Query, error) {
	fromFlags, err := server.ParseQuery(f.values())
	if err != nil {
		return filter.Query{}, err
	}
	if f.queryFile == "" {
		return fromFlags, nil
	}
	base, err := readQueryFile(f.queryFile)
	if err != nil {
		return filter.Query{}, err
	}
	return overlay(base, fromFlags), nil
}

func readQueryFile(path string) (filter.Query, error) {
	var q filter.Query
	b, err := os.ReadFile(path)
	if err != nil {
		return q, fmt.Errorf("read query file: %w", err)
	}
	if err := yaml.Unmarshal(b, &q); err != nil {
		return q, fmt.Errorf("parse query file %s: %w", path, err)
	}
	return q, nil
}

func overlay(base, top filter.Query) filter.Query {
	if top.Text != "" {
		base.Text = top.Text
	}
	if top.ControlCTR != nil {
		base.ControlCTR = top.ControlCTR
	}
	if top.ExperimentCTR != nil {
		base.ExperimentCTR = top.ExperimentCTR
	}
	if top.Delta != nil {
		base.Delta = top.Delta
	}
	if top.LargeGap != filter.Any {
		base.LargeGap = top.LargeGap
	}
	if top.MeaningfulChange != filter.Any {
		base.MeaningfulChange = top.MeaningfulChange
	}
	if top.Set1P1Change != filter.Any {
		base.Set1P1Change = top.Set1P1Change
	}
	if len(top.Tags) > 0 {
		base.Tags = top.Tags
	}
	if top.QueryLength != nil {
		base.QueryLength = top.QueryLength
	}
	return base
}
