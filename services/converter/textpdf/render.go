package textpdf

import (
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pkg/errors"
)

const fontFamily = "Helvetica"

// Render draws every line left-aligned at the margin, in black, one PDF page per page.
func (l Layout) Render(w io.Writer, pages [][]string) error {
	if len(pages) == 0 {
		return errors.New("nothing to render")
	}
	l = l.withDefaults()

	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: l.PageWidth, Ht: l.PageHeight},
	})
	pdf.SetCreator("Sanggar Belajar", true)
	pdf.SetMargins(l.Margin, l.Margin, l.Margin)
	pdf.SetAutoPageBreak(false, l.Margin)
	pdf.SetFont(fontFamily, "", l.FontSize)
	pdf.SetTextColor(0, 0, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("") // core fonts are cp1252

	for _, page := range pages {
		pdf.AddPage()
		baseline := l.Margin + l.FontSize
		for _, line := range page {
			if line != "" {
				pdf.Text(l.Margin, baseline, tr(line))
			}
			baseline += l.LineHeight
		}
	}
	if err := pdf.Error(); err != nil {
		return errors.Wrap(err, "laying out pdf")
	}
	return errors.Wrap(pdf.Output(w), "serializing pdf")
}

// PageCount reads back the number of pages of the PDF at `path`.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	return n, errors.Wrap(err, "counting pdf pages")
}
