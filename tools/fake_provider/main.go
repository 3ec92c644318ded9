// fake_provider is a local stand-in for the AccuWeather data service, for
// development and load testing without burning real API quota.
package main

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

type fakeProvider struct {
	latency    time.Duration
	failRate   float64
	failStatus int
	totalCalls int64
}

func main() {
	addr := getenvDefault("FAKE_AW_ADDR", ":18080")
	latencyMs := getenvIntDefault("FAKE_AW_LATENCY_MS", 0)
	failRate := getenvFloatDefault("FAKE_AW_FAIL_RATE", 0)
	failStatus := getenvIntDefault("FAKE_AW_FAIL_STATUS", http.StatusServiceUnavailable)

	srv := &fakeProvider{
		latency:    time.Duration(latencyMs) * time.Millisecond,
		failRate:   failRate,
		failStatus: failStatus,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/forecasts/v1/hourly/12hour/", srv.handleForecast)
	mux.HandleFunc("/locations/v1/cities/search", srv.handleSearch)

	log.Printf("fake provider listening on %s (latency=%s fail_rate=%.2f)", addr, srv.latency, srv.failRate)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func (s *fakeProvider) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ok calls=%d\n", atomic.LoadInt64(&s.totalCalls))
}

func (s *fakeProvider) handleForecast(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&s.totalCalls, 1)
	if s.latency > 0 {
		time.Sleep(s.latency)
	}
	if r.URL.Query().Get("apikey") == "" {
		http.Error(w, `{"Message":"Api Authorization failed"}`, http.StatusUnauthorized)
		return
	}
	if s.failRate > 0 && rand.Float64() < s.failRate {
		http.Error(w, `{"Message":"ServiceUnavailable"}`, s.failStatus)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/forecasts/v1/hourly/12hour/")
	base := time.Now().UTC().Truncate(time.Hour).Add(time.Hour)
	seed := hashKey(key)

	type temperature struct {
		Value float64 `json:"Value"`
		Unit  string  `json:"Unit"`
	}
	type record struct {
		DateTime    string      `json:"DateTime"`
		Temperature temperature `json:"Temperature"`
		IconPhrase  string      `json:"IconPhrase"`
	}
	phrases := []string{"Sunny", "Partly sunny", "Cloudy", "Showers", "Hazy"}
	records := make([]record, 0, 12)
	for i := 0; i < 12; i++ {
		hour := base.Add(time.Duration(i) * time.Hour)
		temp := 18 + float64((seed+uint32(i))%15) + rand.Float64()
		records = append(records, record{
			DateTime:    hour.Format(time.RFC3339),
			Temperature: temperature{Value: roundTenth(temp), Unit: "C"},
			IconPhrase:  phrases[(int(seed)+i)%len(phrases)],
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(records)
}

func (s *fakeProvider) handleSearch(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&s.totalCalls, 1)
	if s.latency > 0 {
		time.Sleep(s.latency)
	}
	name := r.URL.Query().Get("q")
	if name == "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
		return
	}
	type cityResult struct {
		Key           string `json:"Key"`
		LocalizedName string `json:"LocalizedName"`
	}
	results := []cityResult{{
		Key:           strconv.FormatUint(uint64(hashKey(name)), 10),
		LocalizedName: name,
	}}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(results)
}

func hashKey(value string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(value))
	return h.Sum32() % 1000000
}

func roundTenth(value float64) float64 {
	return float64(int(value*10)) / 10
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
