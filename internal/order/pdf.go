package order

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
)

// BuildPDF converts a confirmed order summary into a two-column PDF table
// for the customer. The file is written under dir and its path returned.
func BuildPDF(confirmedText, dir string) (string, error) {
	lines, err := ParseConfirmed(confirmedText)
	if err != nil {
		return "", err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Pedido de productos"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFillColor(211, 211, 211)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(100, 8, tr("Código"), "1", 0, "C", true, 0, "")
	pdf.CellFormat(50, 8, tr("Cantidad"), "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range lines {
		pdf.CellFormat(100, 8, tr(line.Code), "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 8, tr(line.Quantity), "1", 1, "C", false, 0, "")
	}

	path := filepath.Join(dir, fmt.Sprintf("pedido_%s.pdf", uuid.NewString()))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("order: save pdf: %w", err)
	}
	return path, nil
}

// SummaryLine is one row of the pre-confirmation order summary sent to the
// customer, already enriched with the catalog description.
type SummaryLine struct {
	Code        string
	Quantity    int
	Description string
}

// BuildSummaryPDF renders the pre-confirmation order summary as a PDF table.
// It is the default summary artifact when no image renderer is configured.
func BuildSummaryPDF(lines []SummaryLine, dir string) (string, error) {
	if len(lines) == 0 {
		return "", fmt.Errorf("order: no lines to render")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Resumen del pedido"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFillColor(211, 211, 211)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(45, 8, tr("Código"), "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 8, tr("Cantidad"), "1", 0, "C", true, 0, "")
	pdf.CellFormat(120, 8, tr("Descripción"), "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range lines {
		pdf.CellFormat(45, 8, tr(line.Code), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 8, strconv.Itoa(line.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(120, 8, tr(line.Description), "1", 1, "L", false, 0, "")
	}

	path := filepath.Join(dir, fmt.Sprintf("resumen_%s.pdf", uuid.NewString()))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("order: save summary pdf: %w", err)
	}
	return path, nil
}
