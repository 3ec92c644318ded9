package accuracy

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func sampleMatches() []Match {
	base := time.Date(2025, 1, 21, 16, 0, 0, 0, time.UTC)
	return []Match{
		{
			LocationID:           1,
			ForecastForHour:      base,
			ActualReadingID:      10,
			PredictionID:         20,
			ForecastMadeAt:       base.Add(-11 * time.Hour),
			LeadHours:            11,
			PredictedTemperature: 24.4,
			ActualTemperature:    23.9,
			SignedError:          0.5,
			AbsoluteError:        0.5,
		},
		{
			LocationID:           1,
			ForecastForHour:      base.Add(time.Hour),
			ActualReadingID:      11,
			PredictionID:         21,
			ForecastMadeAt:       base.Add(-10 * time.Hour),
			LeadHours:            11,
			PredictedTemperature: 23.1,
			ActualTemperature:    24.1,
			SignedError:          -1.0,
			AbsoluteError:        1.0,
		},
	}
}

func TestBuildReportPDF(t *testing.T) {
	start := time.Date(2025, 1, 21, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	out, err := BuildReportPDF("Dwarka", start, end, sampleMatches())
	if err != nil {
		t.Fatalf("BuildReportPDF: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output is not a PDF, starts with %q", out[:min(8, len(out))])
	}
}

func TestBuildReportXLSX(t *testing.T) {
	start := time.Date(2025, 1, 21, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	matches := sampleMatches()

	out, err := BuildReportXLSX("Dwarka", start, end, matches)
	if err != nil {
		t.Fatalf("BuildReportXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	location, err := f.GetCellValue("summary", "B3")
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if location != "Dwarka" {
		t.Fatalf("unexpected location cell: %q", location)
	}

	rows, err := f.GetRows("matches")
	if err != nil {
		t.Fatalf("read matches sheet: %v", err)
	}
	if len(rows) != len(matches)+1 {
		t.Fatalf("expected %d rows incl header, got %d", len(matches)+1, len(rows))
	}
}

func TestBuildReportEmptyMatches(t *testing.T) {
	start := time.Date(2025, 1, 21, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	if _, err := BuildReportPDF("Dwarka", start, end, nil); err != nil {
		t.Fatalf("BuildReportPDF empty: %v", err)
	}
	if _, err := BuildReportXLSX("Dwarka", start, end, nil); err != nil {
		t.Fatalf("BuildReportXLSX empty: %v", err)
	}
}

func TestMeanAbsoluteError(t *testing.T) {
	if got := meanAbsoluteError(nil); got != 0 {
		t.Fatalf("empty mean should be 0, got %f", got)
	}
	if got := meanAbsoluteError(sampleMatches()); got != 0.75 {
		t.Fatalf("unexpected mean: %f", got)
	}
}
