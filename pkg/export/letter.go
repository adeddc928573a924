package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Letter describes a formal notice rendered as a one-page PDF.
type Letter struct {
	Institution string
	Title       string
	Reference   string
	Date        string
	Recipient   string
	Paragraphs  []string
	SignedBy    string
	SignedRole  string
}

// LetterRenderer produces PDF letters for operator-facing downloads.
type LetterRenderer struct{}

// NewLetterRenderer builds a letter renderer.
func NewLetterRenderer() *LetterRenderer {
	return &LetterRenderer{}
}

// Render lays out the letter on an A4 page.
func (r *LetterRenderer) Render(letter Letter) ([]byte, error) {
	if letter.Title == "" {
		return nil, fmt.Errorf("letter requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	if letter.Institution != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 8, letter.Institution, "", 1, "C", false, 0, "")
		pdf.Ln(2)
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, letter.Title, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	if letter.Reference != "" {
		pdf.CellFormat(0, 6, "Ref: "+letter.Reference, "", 1, "L", false, 0, "")
	}
	if letter.Date != "" {
		pdf.CellFormat(0, 6, "Date: "+letter.Date, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	if letter.Recipient != "" {
		pdf.CellFormat(0, 6, "To: "+letter.Recipient, "", 1, "L", false, 0, "")
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "", 11)
	for _, paragraph := range letter.Paragraphs {
		pdf.MultiCell(0, 6, paragraph, "", "L", false)
		pdf.Ln(3)
	}

	if letter.SignedBy != "" {
		pdf.Ln(8)
		pdf.CellFormat(0, 6, letter.SignedBy, "", 1, "L", false, 0, "")
		if letter.SignedRole != "" {
			pdf.SetFont("Arial", "I", 10)
			pdf.CellFormat(0, 6, letter.SignedRole, "", 1, "L", false, 0, "")
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render letter pdf: %w", err)
	}
	return buf.Bytes(), nil
}
