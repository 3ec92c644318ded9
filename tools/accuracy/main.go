// accuracy runs the prediction-vs-actual matcher for one city and date range
// and writes the result to stdout and, optionally, XLSX/PDF report files.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"weathertrack/internal/accuracy"
	accuracyquery "weathertrack/internal/accuracy/postgres"
	locationsrepo "weathertrack/internal/locations/postgres"
)

const dateLayout = "2006-01-02"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	var (
		city   = flag.String("city", "", "location name, e.g. Dwarka")
		start  = flag.String("start", "", "range start date (YYYY-MM-DD)")
		end    = flag.String("end", "", "range end date (YYYY-MM-DD, inclusive)")
		outDir = flag.String("out", "", "directory for XLSX/PDF reports (omit to skip files)")
	)
	flag.Parse()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("PG_DSN")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if *city == "" || *start == "" || *end == "" {
		log.Fatal("-city, -start and -end are required")
	}
	startDate, err := time.ParseInLocation(dateLayout, *start, time.UTC)
	if err != nil {
		log.Fatalf("bad -start: %v", err)
	}
	endDate, err := time.ParseInLocation(dateLayout, *end, time.UTC)
	if err != nil {
		log.Fatalf("bad -end: %v", err)
	}
	// Inclusive end date: cover its whole day.
	endOfRange := endDate.Add(24*time.Hour - time.Second)

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	locationRepo := locationsrepo.NewRepository(db)
	locationID, ok, err := locationRepo.IDByName(ctx, *city)
	if err != nil {
		log.Fatalf("location lookup error: %v", err)
	}
	if !ok {
		// One retry, then report empty rather than fail.
		locationID, ok, err = locationRepo.IDByName(ctx, *city)
		if err != nil {
			log.Fatalf("location lookup error: %v", err)
		}
	}
	if !ok {
		fmt.Printf("no location named %q; nothing to report\n", *city)
		return
	}

	matcher := accuracyquery.NewQuery(db)
	matches, err := matcher.MatchRange(ctx, locationID, startDate, endOfRange)
	if err != nil {
		log.Fatalf("match query error: %v", err)
	}

	fmt.Printf("%-20s %8s %10s %8s %8s %9s\n", "hour", "lead(h)", "predicted", "actual", "error", "abs error")
	for _, m := range matches {
		fmt.Printf("%-20s %8.1f %10.1f %8.1f %8.2f %9.2f\n",
			m.ForecastForHour.Format("2006-01-02 15:04"),
			m.LeadHours, m.PredictedTemperature, m.ActualTemperature, m.SignedError, m.AbsoluteError)
	}
	fmt.Printf("%d matched hours\n", len(matches))

	if *outDir == "" {
		return
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("out dir error: %v", err)
	}
	stem := fmt.Sprintf("accuracy-%s-%s-%s", *city, *start, *end)

	xlsx, err := accuracy.BuildReportXLSX(*city, startDate, endDate, matches)
	if err != nil {
		log.Fatalf("xlsx build error: %v", err)
	}
	xlsxPath := filepath.Join(*outDir, stem+".xlsx")
	if err := os.WriteFile(xlsxPath, xlsx, 0o644); err != nil {
		log.Fatalf("xlsx write error: %v", err)
	}

	pdf, err := accuracy.BuildReportPDF(*city, startDate, endDate, matches)
	if err != nil {
		log.Fatalf("pdf build error: %v", err)
	}
	pdfPath := filepath.Join(*outDir, stem+".pdf")
	if err := os.WriteFile(pdfPath, pdf, 0o644); err != nil {
		log.Fatalf("pdf write error: %v", err)
	}
	fmt.Printf("wrote %s and %s\n", xlsxPath, pdfPath)
}
