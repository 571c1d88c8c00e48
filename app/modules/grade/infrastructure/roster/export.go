package graderoster

import (
	"fmt"

	gradeservice "github.com/Black-And-White-Club/grade-bot/app/modules/grade/application"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	membersSheet = "Members"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pngContentType  = "image/png"
)

// File is a rendered attachment.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Exporter renders a roster as a workbook and a chart.
type Exporter struct {
	palette ChartPalette
}

// NewExporter creates an Exporter using palette for the chart.
func NewExporter(palette ChartPalette) *Exporter {
	return &Exporter{palette: palette}
}

// Export returns the XLSX workbook followed by the PNG chart.
func (e *Exporter) Export(roster gradeservice.Roster) ([]File, error) {
	stamp := roster.GeneratedAt.Format("20060102")

	workbook, err := Workbook(roster)
	if err != nil {
		return nil, err
	}
	chartPNG, err := Chart(roster, e.palette)
	if err != nil {
		return nil, err
	}

	return []File{
		{Name: fmt.Sprintf("grade-roster-%s.xlsx", stamp), ContentType: xlsxContentType, Data: workbook},
		{Name: fmt.Sprintf("grade-roster-%s.png", stamp), ContentType: pngContentType, Data: chartPNG},
	}, nil
}

// Workbook builds a two-sheet workbook: per-grade counts and one row per
// graded member.
func Workbook(roster gradeservice.Roster) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(membersSheet); err != nil {
		return nil, fmt.Errorf("failed to create members sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeRow(f, summarySheet, 1, "Grade", "Role ID", "Members"); err != nil {
		return nil, err
	}
	row := 2
	for _, g := range roster.Groups {
		if err := writeRow(f, summarySheet, row, g.Marker.String(), g.RoleID, len(g.Members)); err != nil {
			return nil, err
		}
		row++
	}
	if err := writeRow(f, summarySheet, row, "No grade", "", roster.Gradeless); err != nil {
		return nil, err
	}
	if err := writeRow(f, summarySheet, row+1, "Total graded", "", roster.Total()); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "C1", bold); err != nil {
		return nil, err
	}

	if err := writeRow(f, membersSheet, 1, "Grade", "Member ID", "Display Name"); err != nil {
		return nil, err
	}
	row = 2
	for _, g := range roster.Groups {
		for _, m := range g.Members {
			if err := writeRow(f, membersSheet, row, g.Marker.String(), m.ID, m.DisplayName); err != nil {
				return nil, err
			}
			row++
		}
	}
	if err := f.SetCellStyle(membersSheet, "A1", "C1", bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(membersSheet, "B", "C", 24); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
