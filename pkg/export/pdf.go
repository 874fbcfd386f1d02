package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const pageWidth = 277.0 // A4 landscape minus margins

// PDF renders datasets as a landscape A4 table with a repeated header row.
type PDF struct{}

func (PDF) ContentType() string { return "application/pdf" }
func (PDF) Extension() string   { return ".pdf" }

func (PDF) Render(d Dataset) ([]byte, error) {
	if len(d.Columns) == 0 {
		return nil, ErrNoColumns
	}
	doc := gofpdf.New("L", "mm", "A4", "")
	doc.SetMargins(10, 12, 10)
	doc.SetAutoPageBreak(true, 12)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	width := pageWidth / float64(len(d.Columns))

	header := func() {
		doc.SetFont("Helvetica", "B", 9)
		doc.SetFillColor(230, 230, 230)
		for _, col := range d.Columns {
			doc.CellFormat(width, 7, tr(col), "1", 0, "C", true, 0, "")
		}
		doc.Ln(-1)
		doc.SetFont("Helvetica", "", 9)
	}
	doc.SetHeaderFunc(func() {
		if d.Title != "" {
			doc.SetFont("Helvetica", "B", 13)
			doc.CellFormat(0, 8, tr(d.Title), "", 1, "L", false, 0, "")
			doc.SetFont("Helvetica", "", 8)
			doc.CellFormat(0, 5, "Generated "+time.Now().UTC().Format("2006-01-02 15:04 UTC"), "", 1, "L", false, 0, "")
			doc.Ln(2)
		}
		header()
	})
	doc.AddPage()

	for _, row := range d.Rows {
		for i := range d.Columns {
			doc.CellFormat(width, 6, tr(d.cell(row, i)), "1", 0, "", false, 0, "")
		}
		doc.Ln(-1)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
