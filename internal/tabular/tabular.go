// Package tabular reads uploaded comparison exports (CSV, TSV or XLSX) into
// header-keyed rows.
package tabular

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/serpdiff/internal/comparison"
)

// ErrUnsupported indicates a file format with no registered reader.
var ErrUnsupported = errors.New("unsupported tabular format")

// Table is a decoded sheet. Rows are keyed by trimmed header name.
type Table struct {
	Name    string
	Headers []string
	Rows    []comparison.Row
	// Skipped counts blank lines dropped while decoding.
	Skipped int
}

// Options tunes decoding.
type Options struct {
	// Delimiter for CSV. If 0, it is sniffed from the header line.
	Delimiter rune
	// Sheet selects an XLSX sheet by name; empty means the first sheet.
	Sheet string
}

// Reader decodes one tabular format.
type Reader interface {
	CanRead(filename string) bool
	Read(data []byte, opt Options) (headers []string, records [][]string, err error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

// Decode picks a reader by filename and decodes data into a Table.
// Unknown extensions are tried as CSV, which is what browsers often send
// for exports without a proper name.
func Decode(name string, data []byte, opt Options) (*Table, error) {
	var rd Reader
	for _, r := range registry {
		if r.CanRead(name) {
			rd = r
			break
		}
	}
	if rd == nil {
		if ext := strings.ToLower(filepath.Ext(name)); ext != "" && ext != ".txt" {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
		}
		rd = csvReader{}
	}
	headers, records, err := rd.Read(data, opt)
	if err != nil {
		return nil, err
	}
	return build(filepath.Base(name), headers, records), nil
}

// ReadFrom decodes everything from r under the given file name.
func ReadFrom(name string, r io.Reader, opt Options) (*Table, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return Decode(name, buf.Bytes(), opt)
}

// ReadFile decodes a file from disk.
func ReadFile(path string, opt Options) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Decode(path, data, opt)
}

func build(name string, headers []string, records [][]string) *Table {
	t := &Table{Name: name, Headers: make([]string, len(headers))}
	for i, h := range headers {
		t.Headers[i] = strings.TrimSpace(h)
	}
	t.Rows = make([]comparison.Row, 0, len(records))
	for _, rec := range records {
		if blank(rec) {
			t.Skipped++
			continue
		}
		row := make(comparison.Row, len(t.Headers))
		for i, h := range t.Headers {
			if h == "" || i >= len(rec) {
				continue
			}
			// first occurrence of a duplicated header wins
			if _, dup := row[h]; dup {
				continue
			}
			row[h] = rec[i]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
