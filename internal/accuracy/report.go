package accuracy

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

const hourLayout = "2006-01-02 15:04"

// BuildReportPDF renders a minimal PDF accuracy report for one location.
func BuildReportPDF(locationName string, start, end time.Time, matches []Match) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Forecast Accuracy Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Location: %s", locationName))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Range: %s to %s", start.Format("2006-01-02"), end.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Matched hours: %d", len(matches)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Mean absolute error: %.2f", meanAbsoluteError(matches)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(34, 6, "Hour", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Lead (h)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Predicted", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Actual", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Error", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Abs Error", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, m := range matches {
		pdf.CellFormat(34, 6, m.ForecastForHour.Format(hourLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%.1f", m.LeadHours), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 6, fmt.Sprintf("%.1f", m.PredictedTemperature), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 6, fmt.Sprintf("%.1f", m.ActualTemperature), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 6, fmt.Sprintf("%.2f", m.SignedError), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 6, fmt.Sprintf("%.2f", m.AbsoluteError), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReportXLSX renders a minimal XLSX accuracy report for one location.
func BuildReportXLSX(locationName string, start, end time.Time, matches []Match) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	matchesSheet := "matches"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(matchesSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Forecast Accuracy Report")
	_ = f.SetCellValue(summarySheet, "A3", "Location")
	_ = f.SetCellValue(summarySheet, "B3", locationName)
	_ = f.SetCellValue(summarySheet, "A4", "From")
	_ = f.SetCellValue(summarySheet, "B4", start.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A5", "To")
	_ = f.SetCellValue(summarySheet, "B5", end.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A6", "Matched hours")
	_ = f.SetCellValue(summarySheet, "B6", len(matches))
	_ = f.SetCellValue(summarySheet, "A7", "Mean absolute error")
	_ = f.SetCellValue(summarySheet, "B7", meanAbsoluteError(matches))

	headers := []string{"Hour", "Forecast made at", "Lead (h)", "Predicted", "Actual", "Error", "Abs error"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(matchesSheet, cell, header)
	}
	for i, m := range matches {
		row := i + 2
		_ = f.SetCellValue(matchesSheet, fmt.Sprintf("A%d", row), m.ForecastForHour.Format(hourLayout))
		_ = f.SetCellValue(matchesSheet, fmt.Sprintf("B%d", row), m.ForecastMadeAt.Format(time.RFC3339))
		_ = f.SetCellValue(matchesSheet, fmt.Sprintf("C%d", row), m.LeadHours)
		_ = f.SetCellValue(matchesSheet, fmt.Sprintf("D%d", row), m.PredictedTemperature)
		_ = f.SetCellValue(matchesSheet, fmt.Sprintf("E%d", row), m.ActualTemperature)
		_ = f.SetCellValue(matchesSheet, fmt.Sprintf("F%d", row), m.SignedError)
		_ = f.SetCellValue(matchesSheet, fmt.Sprintf("G%d", row), m.AbsoluteError)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func meanAbsoluteError(matches []Match) float64 {
	if len(matches) == 0 {
		return 0
	}
	var sum float64
	for _, m := range matches {
		sum += m.AbsoluteError
	}
	return sum / float64(len(matches))
}
