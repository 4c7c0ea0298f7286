package excel

import (
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/freelance-market/internal/model"
)

const (
	summarySheet = "Summary"
	clientsSheet = "Clients"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.ClientsReport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if err := g.writeSummary(file, report); err != nil {
		return nil, err
	}

	if _, err := file.NewSheet(clientsSheet); err != nil {
		return nil, err
	}
	if err := g.writeClients(file, report); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, report model.ClientsReport) error {
	total := 0.0
	for _, client := range report.Clients {
		total += client.Paid.InexactFloat64()
	}

	rows := [][]interface{}{
		{"Report", "Best clients"},
		{"Period start", formatDate(report.Period.Start)},
		{"Period end", formatDate(report.Period.End)},
		{"Clients", len(report.Clients)},
		{"Total paid", total},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := file.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}

	return file.SetColWidth(summarySheet, "A", "B", 20)
}

func (g *Generator) writeClients(file *excelize.File, report model.ClientsReport) error {
	header := []interface{}{"Rank", "Client ID", "Full name", "Paid"}
	if err := file.SetSheetRow(clientsSheet, "A1", &header); err != nil {
		return err
	}

	for i, client := range report.Clients {
		row := []interface{}{i + 1, client.ID, client.FullName, client.Paid.InexactFloat64()}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := file.SetSheetRow(clientsSheet, cell, &row); err != nil {
			return err
		}
	}

	_ = file.SetColWidth(clientsSheet, "A", "B", 10)
	_ = file.SetColWidth(clientsSheet, "C", "C", 32)
	_ = file.SetColWidth(clientsSheet, "D", "D", 14)
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
