package cmd

import (
	"fmt"
	"io"

	"github.com/KaramelBytes/serpdiff/internal/comparison"
	"github.com/KaramelBytes/serpdiff/internal/dataset"
	"github.com/KaramelBytes/serpdiff/internal/utils"
	"github.com/spf13/cobra"
)

var (
	filterQuery queryFlags
	filterPages int
	filterAll   bool
	filterJSON  bool
)

var filterCmd = &cobra.Command{
	Use:   "filter <file>",
	Short: "Filter an export and print matching queries page by page",
	Long: `Apply a filter query to an export and print the first page of matches
followed by the click-weighted CTR summary of the whole filtered set.
Use --pages to reveal more pages or --all to print every match.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := filterQuery.query()
		if err != nil {
			return err
		}
		store, d, err := loadFile(args[0])
		if err != nil {
			return err
		}
		sess := dataset.NewSession(store, pageSize())
		page, err := sess.Apply(q)
		if err != nil {
			return err
		}
		items := append([]dataset.Item(nil), page.Items...)
		for n := 1; !page.Done && (filterAll || n < filterPages); n++ {
			if page, err = sess.Next(); err != nil {
				return err
			}
			items = append(items, page.Items...)
		}
		sum, err := sess.Summary()
		if err != nil {
			return err
		}
		logger.Debug().Int("matches", page.Total).Int("shown", len(items)).Msg("filter applied")

		out := cmd.OutOrStdout()
		if filterJSON {
			b, err := utils.PrettyJSON(map[string]any{
				"labels":  d.Labels,
				"query":   q,
				"summary": sum,
				"records": items,
				"loaded":  page.Loaded,
				"total":   page.Total,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		printItems(out, d.Labels, items)
		if !page.Done {
			fmt.Fprintf(out, "… %s more (use --pages or --all)\n", utils.FormatCount(page.Total-page.Loaded))
		}
		fmt.Fprintln(out, sum.Text(d.Labels))
		return nil
	},
}

func printItems(w io.Writer, labels comparison.LabelPair, items []dataset.Item) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%-5s %-40s %10s %9s %9s %9s\n", "#", "QUERY", "CLICKS",
		utils.Truncate(labels.Control, 9), utils.Truncate(labels.Experiment, 9), "DIFF")
	for _, it := range items {
		fmt.Fprintf(w, "%-5d %-40s %10s %9s %9s %9s\n",
			it.Index,
			utils.Truncate(it.Key, 40),
			utils.FormatCount(it.TotalClicks),
			utils.FormatPercent(it.CTRControl),
			utils.FormatPercent(it.CTRExperiment),
			it.Delta().String(),
		)
	}
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterQuery.register(filterCmd)
	addLoadFlags(filterCmd)
	filterCmd.Flags().IntVar(&filterPages, "pages", 1, "number of pages to reveal")
	filterCmd.Flags().BoolVar(&filterAll, "all", false, "reveal every matching record")
	filterCmd.Flags().BoolVar(&filterJSON, "json", false, "print JSON instead of a table")
}
