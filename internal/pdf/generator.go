package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/nurpe/freelance-market/internal/model"
)

const fontName = "Helvetica"

type Generator struct {
	translate func(string) string
}

func NewGenerator() *Generator {
	return &Generator{
		translate: gofpdf.New("P", "mm", "A4", "").UnicodeTranslatorFromDescriptor(""),
	}
}

// Generate renders a single-page receipt for a paid job.
func (g *Generator) Generate(receipt model.PaymentReceipt) ([]byte, error) {
	if !receipt.Job.Paid {
		return nil, fmt.Errorf("job %d is not paid", receipt.Job.ID)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle(fmt.Sprintf("Payment receipt for job %d", receipt.Job.ID), true)
	pdf.AddPage()

	pdf.SetFont(fontName, "B", 14)
	pdf.CellFormat(0, 10, "Payment receipt", "", 1, "C", false, 0, "")

	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Job #%d, contract #%d", receipt.Job.ID, receipt.Contract.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Issued %s", formatDateTime(receipt.IssuedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	g.partyBlock(pdf, "Client", receipt.Client)
	pdf.Ln(2)
	g.partyBlock(pdf, "Contractor", receipt.Contractor)
	pdf.Ln(4)

	pdf.SetFont(fontName, "B", 12)
	pdf.CellFormat(0, 8, "Work", "", 1, "L", false, 0, "")

	widths := []float64{120, 60}
	g.tableRow(pdf, []string{"Description", "Amount"}, widths, true)
	g.tableRow(pdf, []string{safeValue(receipt.Job.Description), formatAmount(receipt.Job.Price)}, widths, false)

	pdf.Ln(2)
	pdf.SetFont(fontName, "", 11)
	paidAt := time.Time{}
	if receipt.Job.PaymentDate != nil {
		paidAt = *receipt.Job.PaymentDate
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Paid on %s", formatDateTime(paidAt)), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Total: %s", formatAmount(receipt.Job.Price)), "", 1, "R", false, 0, "")

	if terms := strings.TrimSpace(receipt.Contract.Terms); terms != "" {
		pdf.Ln(4)
		pdf.SetFont(fontName, "B", 12)
		pdf.CellFormat(0, 8, "Contract terms", "", 1, "L", false, 0, "")
		pdf.SetFont(fontName, "", 10)
		pdf.MultiCell(0, 5, g.translate(terms), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) partyBlock(pdf *gofpdf.Fpdf, title string, profile model.Profile) {
	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(0, 6, title, "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	lines := []string{
		fmt.Sprintf("%s (#%d)", safeValue(profile.FullName()), profile.ID),
		fmt.Sprintf("Profession: %s", safeValue(profile.Profession)),
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, g.translate(line), "", "L", false)
	}
}

func (g *Generator) tableRow(pdf *gofpdf.Fpdf, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, g.translate(col), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatAmount(value decimal.Decimal) string {
	return value.StringFixed(2)
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04 MST")
}
