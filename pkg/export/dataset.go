// Package export renders tabular datasets into downloadable documents.
package export

import (
	"errors"
	"fmt"
)

// Supported output formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// ErrNoColumns is returned when rendering a dataset without columns.
var ErrNoColumns = errors.New("export: dataset has no columns")

// Dataset is an ordered table. Rows shorter than Columns are padded with
// empty cells when rendered.
type Dataset struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// AddRow appends one row.
func (d *Dataset) AddRow(cells ...string) {
	d.Rows = append(d.Rows, cells)
}

func (d Dataset) cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// Renderer turns a dataset into bytes of a single format.
type Renderer interface {
	Render(Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// RendererFor returns the renderer registered for format.
func RendererFor(format string) (Renderer, error) {
	switch format {
	case FormatCSV:
		return CSV{}, nil
	case FormatPDF:
		return PDF{}, nil
	default:
		return nil, fmt.Errorf("export: unsupported format %q", format)
	}
}
