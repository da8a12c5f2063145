package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/serpdiff/internal/filter"
	"github.com/KaramelBytes/serpdiff/internal/utils"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show labels, facets and the overall CTR summary of an export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, d, err := loadFile(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Loaded %s\n", d.Name)
		fmt.Fprintf(out, "Labels: control=%s experiment=%s\n", d.Labels.Control, d.Labels.Experiment)
		fmt.Fprintf(out, "Records: %s\n", utils.FormatCount(d.Len()))
		if len(d.Tags) > 0 {
			fmt.Fprintf(out, "Tags: %s\n", strings.Join(d.Tags, ", "))
		} else {
			fmt.Fprintln(out, "Tags: (none)")
		}
		fmt.Fprintf(out, "Query length: %d-%d\n", d.QueryLength.Min, d.QueryLength.Max)
		fmt.Fprintf(out, "Fingerprint: %s\n", d.Fingerprint)

		all := filter.Apply(d.Records, filter.Query{})
		fmt.Fprintln(out, filter.Aggregate(d.Records, all).Text(d.Labels))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	addLoadFlags(inspectCmd)
}
