package ingest

import (
	"time"

	"weathertrack/internal/provider/accuweather"
)

// Reading is one normalized forecast point ready for persistence.
type Reading struct {
	ObservedAt      time.Time
	ForecastForHour time.Time
	TemperatureC    float64
	Condition       string
}

// Transform converts raw provider records into normalized readings, one per
// hourly record, preserving order. Every reading produced in one invocation
// shares the same observedAt. No filtering or deduplication happens here; a
// location with zero records maps to an empty slice.
func Transform(raw map[string][]accuweather.HourlyRecord, observedAt time.Time) map[string][]Reading {
	out := make(map[string][]Reading, len(raw))
	for location, records := range raw {
		readings := make([]Reading, 0, len(records))
		for _, record := range records {
			readings = append(readings, Reading{
				ObservedAt:      observedAt,
				ForecastForHour: record.DateTime,
				TemperatureC:    record.Temperature.Value,
				Condition:       record.IconPhrase,
			})
		}
		out[location] = readings
	}
	return out
}
