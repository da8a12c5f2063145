package cmd

import (
	"fmt"

	"github.com/KaramelBytes/serpdiff/internal/dataset"
	"github.com/KaramelBytes/serpdiff/internal/tabular"
	"github.com/spf13/cobra"
)

var (
	loadDelimiter string
	loadSheet     string
)

// addLoadFlags registers the input decoding flags shared by commands that
// read an export.
func addLoadFlags(c *cobra.Command) {
	c.Flags().StringVar(&loadDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (auto-detect if omitted)")
	c.Flags().StringVar(&loadSheet, "sheet", "", "XLSX: sheet name (first sheet if omitted)")
}

func decodeOptions() (tabular.Options, error) {
	opt := tabular.Options{Sheet: loadSheet}
	switch loadDelimiter {
	case "":
		if cfg != nil {
			opt.Delimiter = cfg.DelimiterRune()
		}
	case ",":
		opt.Delimiter = ','
	case ";":
		opt.Delimiter = ';'
	case "\t", "tab":
		opt.Delimiter = '\t'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", loadDelimiter)
	}
	return opt, nil
}

// loadInto decodes path and installs it into store.
func loadInto(store *dataset.Store, path string) (*dataset.Dataset, error) {
	opt, err := decodeOptions()
	if err != nil {
		return nil, err
	}
	tbl, err := tabular.ReadFile(path, opt)
	if err != nil {
		return nil, err
	}
	d, err := store.Load(tbl)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	logger.Info().EmbedObject(d).Msg("dataset loaded")
	if tbl.Skipped > 0 {
		logger.Warn().Int("skipped", tbl.Skipped).Str("file", path).Msg("blank rows skipped")
	}
	return d, nil
}

// loadFile loads path into a fresh store.
func loadFile(path string) (*dataset.Store, *dataset.Dataset, error) {
	store := dataset.NewStore()
	d, err := loadInto(store, path)
	if err != nil {
		return nil, nil, err
	}
	return store, d, nil
}

func pageSize() int {
	if cfg != nil && cfg.PageSize > 0 {
		return cfg.PageSize
	}
	return 0
}
