package accuracy

import (
	"context"
	"time"
)

// NominalLeadHours is the forecast horizon the pipeline targets: predictions
// are matched against the actual reading they anticipated about 11 hours out.
const (
	NominalLeadHours = 11.0
	MinLeadHours     = 10.0
	MaxLeadHours     = 12.0
)

// Match pairs one actual reading with the prediction made closest to the
// nominal lead before it.
type Match struct {
	LocationID           int64
	ForecastForHour      time.Time
	ActualReadingID      int64
	PredictionID         int64
	ForecastMadeAt       time.Time
	LeadHours            float64
	PredictedTemperature float64
	ActualTemperature    float64
	SignedError          float64
	AbsoluteError        float64
}

// Matcher produces prediction-vs-actual pairs for a location and date range.
type Matcher interface {
	MatchRange(ctx context.Context, locationID int64, start, end time.Time) ([]Match, error)
}
