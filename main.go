package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"weathertrack/internal/ingest"
	"weathertrack/internal/locations"
	locationsrepo "weathertrack/internal/locations/postgres"
	obsmetrics "weathertrack/internal/observability/metrics"
	predictionsrepo "weathertrack/internal/predictions/postgres"
	"weathertrack/internal/provider/accuweather"
	runlogrepo "weathertrack/internal/runlog/postgres"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	ingestCfg, err := ingest.LoadConfig()
	if err != nil {
		logger.Fatalf("ingest config error: %v", err)
	}

	metrics := obsmetrics.New()
	obsmetrics.RegisterDBGauges(db, logger)

	keyStore, err := locations.NewKeyStore(ingestCfg.KeyFile)
	if err != nil {
		logger.Fatalf("key store error: %v", err)
	}
	keys, err := keyStore.Load()
	if err != nil {
		logger.Fatalf("key load error: %v", err)
	}
	if len(keys) == 0 {
		logger.Printf("no location keys in %s; ingestion will be a no-op until keys are added", ingestCfg.KeyFile)
	}

	runRepo := runlogrepo.NewRepository(db)
	locationRepo := locationsrepo.NewRepository(db)
	predictionRepo := predictionsrepo.NewRepository(db)

	client, err := accuweather.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey, runRepo, logger,
		accuweather.WithMetrics(metrics))
	if err != nil {
		logger.Fatalf("provider client error: %v", err)
	}

	reconciler, err := locations.NewReconciler(locationRepo, runRepo, keys, logger)
	if err != nil {
		logger.Fatalf("reconciler error: %v", err)
	}
	reconciler = reconciler.WithMetrics(metrics)

	orchestrator, err := ingest.NewOrchestrator(client, reconciler, predictionRepo, runRepo, keys, metrics, logger, ingest.SystemClock{})
	if err != nil {
		logger.Fatalf("orchestrator error: %v", err)
	}

	if ingestCfg.RunOnStartup {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), ingestCfg.FetchTimeout)
			defer cancel()
			if _, err := orchestrator.Run(ctx); err != nil {
				logger.Printf("startup ingest failed: %v", err)
			}
		}()
	}

	scheduler := ingest.NewScheduler(orchestrator, ingestCfg.Interval, ingestCfg.FetchTimeout, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatalf("scheduler error: %v", err)
	}
	defer scheduler.Stop()
	logger.Printf("ingestion scheduled every %s", ingestCfg.Interval)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(mux, logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL     string
	HTTPAddr        string
	ProviderBaseURL string
	ProviderAPIKey  string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:     getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:        getenvDefault("HTTP_ADDR", ":8080"),
		ProviderBaseURL: getenvDefault("ACCUWEATHER_BASE_URL", accuweather.DefaultBaseURL),
		ProviderAPIKey:  getenvDefault("ACCUWEATHER_API_KEY", getenvDefault("API_KEY", "")),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.ProviderAPIKey == "" {
		log.Fatal("ACCUWEATHER_API_KEY is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
