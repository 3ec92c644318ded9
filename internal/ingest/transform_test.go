package ingest

import (
	"testing"
	"time"

	"weathertrack/internal/provider/accuweather"
)

func hourlyRecord(t *testing.T, at string, temp float64, phrase string) accuweather.HourlyRecord {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, at)
	if err != nil {
		t.Fatalf("parse %s: %v", at, err)
	}
	var record accuweather.HourlyRecord
	record.DateTime = parsed
	record.Temperature.Value = temp
	record.Temperature.Unit = "C"
	record.IconPhrase = phrase
	return record
}

func TestTransformOneReadingPerRecordInOrder(t *testing.T) {
	raw := map[string][]accuweather.HourlyRecord{
		"Dwarka": {
			hourlyRecord(t, "2025-01-21T16:00:00+05:30", 24.4, "Sunny"),
			hourlyRecord(t, "2025-01-21T17:00:00+05:30", 23.1, "Hazy"),
			hourlyRecord(t, "2025-01-21T18:00:00+05:30", 21.9, "Clear"),
		},
	}
	observedAt := time.Date(2025, 1, 21, 10, 0, 0, 0, time.UTC)

	out := Transform(raw, observedAt)

	readings := out["Dwarka"]
	if len(readings) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(readings))
	}
	for i, reading := range readings {
		if !reading.ForecastForHour.Equal(raw["Dwarka"][i].DateTime) {
			t.Fatalf("reading %d out of order: got %s", i, reading.ForecastForHour)
		}
		if reading.TemperatureC != raw["Dwarka"][i].Temperature.Value {
			t.Fatalf("reading %d temperature mismatch: got %f", i, reading.TemperatureC)
		}
	}
}

func TestTransformSharedObservedAt(t *testing.T) {
	raw := map[string][]accuweather.HourlyRecord{
		"Dwarka": {
			hourlyRecord(t, "2025-01-21T16:00:00Z", 24.4, "Sunny"),
			hourlyRecord(t, "2025-01-21T17:00:00Z", 23.1, "Hazy"),
		},
		"Najafgarh": {
			hourlyRecord(t, "2025-01-21T16:00:00Z", 25.0, "Sunny"),
		},
	}
	observedAt := time.Date(2025, 1, 21, 10, 30, 0, 0, time.UTC)

	out := Transform(raw, observedAt)

	for location, readings := range out {
		for _, reading := range readings {
			if !reading.ObservedAt.Equal(observedAt) {
				t.Fatalf("location %s reading has observedAt %s, want %s", location, reading.ObservedAt, observedAt)
			}
		}
	}
}

func TestTransformEmptyInput(t *testing.T) {
	out := Transform(map[string][]accuweather.HourlyRecord{}, time.Now().UTC())
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %d entries", len(out))
	}
}

func TestTransformLocationWithZeroRecords(t *testing.T) {
	raw := map[string][]accuweather.HourlyRecord{"Nawada": {}}

	out := Transform(raw, time.Now().UTC())

	readings, ok := out["Nawada"]
	if !ok {
		t.Fatal("location missing from output")
	}
	if len(readings) != 0 {
		t.Fatalf("expected no readings, got %d", len(readings))
	}
}
