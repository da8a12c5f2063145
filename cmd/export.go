package cmd

import (
	"fmt"

	"github.com/KaramelBytes/serpdiff/internal/dataset"
	"github.com/KaramelBytes/serpdiff/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportQuery  queryFlags
	exportOutput string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the filtered records and their summary to JSON, CSV or SQLite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportOutput == "" {
			return fmt.Errorf("--output is required")
		}
		f, err := export.ParseFormat(exportFormat, exportOutput)
		if err != nil {
			return err
		}
		q, err := exportQuery.query()
		if err != nil {
			return err
		}
		store, d, err := loadFile(args[0])
		if err != nil {
			return err
		}
		sess := dataset.NewSession(store, pageSize())
		if _, err := sess.Apply(q); err != nil {
			return err
		}
		indices, err := sess.Matches()
		if err != nil {
			return err
		}
		snap := export.NewSnapshot(d, q, indices)
		if err := export.WriteFile(exportOutput, f, snap); err != nil {
			return err
		}
		logger.Info().Str("format", string(f)).Str("path", exportOutput).Int("records", len(snap.Records)).Msg("export written")
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d records to %s\n", len(snap.Records), exportOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportQuery.register(exportCmd)
	addLoadFlags(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "json | csv | sqlite (inferred from the extension if omitted)")
}
