package accuweather

import (
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"weathertrack/internal/runlog"
)

type recordingCallLogger struct {
	mu    sync.Mutex
	calls []runlog.APICall
}

func (r *recordingCallLogger) LogAPICall(_ context.Context, call runlog.APICall) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	return nil
}

func (r *recordingCallLogger) snapshot() []runlog.APICall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]runlog.APICall, len(r.calls))
	copy(out, r.calls)
	return out
}

func testLogger() *log.Logger {
	return log.New(os.Stderr, "test ", log.LstdFlags)
}

const forecastPayload = `[
  {"DateTime":"2025-01-21T16:00:00+05:30","Temperature":{"Value":24.4,"Unit":"C"},"IconPhrase":"Sunny"},
  {"DateTime":"2025-01-21T17:00:00+05:30","Temperature":{"Value":23.1,"Unit":"C"},"IconPhrase":"Hazy"}
]`

func TestFetch12HourParsesRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/forecasts/v1/hourly/12hour/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("apikey") != "test-key" {
			t.Errorf("missing apikey in query: %s", r.URL.RawQuery)
		}
		if r.URL.Query().Get("metric") != "true" {
			t.Errorf("missing metric=true in query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(forecastPayload))
	}))
	defer server.Close()

	calls := &recordingCallLogger{}
	client, err := NewClient(server.URL, "test-key", calls, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	out, err := client.Fetch12Hour(context.Background(), 7, map[string]string{"Dwarka": "189928"})
	if err != nil {
		t.Fatalf("Fetch12Hour: %v", err)
	}
	records := out["Dwarka"]
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Temperature.Value != 24.4 {
		t.Fatalf("unexpected temperature %f", records[0].Temperature.Value)
	}
	if records[0].IconPhrase != "Sunny" {
		t.Fatalf("unexpected icon phrase %q", records[0].IconPhrase)
	}

	logged := calls.snapshot()
	if len(logged) != 1 {
		t.Fatalf("expected 1 logged call, got %d", len(logged))
	}
	if logged[0].RunID != 7 || logged[0].Status != http.StatusOK || logged[0].ErrorMessage != "" {
		t.Fatalf("unexpected call log: %+v", logged[0])
	}
}

func TestFetch12HourFailedLocationOmitted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "bad-key") {
			http.Error(w, "ServiceUnavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(forecastPayload))
	}))
	defer server.Close()

	calls := &recordingCallLogger{}
	client, err := NewClient(server.URL, "test-key", calls, testLogger(), WithSequentialFetch())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	out, err := client.Fetch12Hour(context.Background(), 3, map[string]string{
		"Dwarka":    "189928",
		"Najafgarh": "bad-key",
	})
	if err != nil {
		t.Fatalf("Fetch12Hour: %v", err)
	}
	if _, ok := out["Najafgarh"]; ok {
		t.Fatal("failed location should be omitted from the result")
	}
	if len(out["Dwarka"]) != 2 {
		t.Fatalf("healthy location missing records: %d", len(out["Dwarka"]))
	}

	var failed int
	for _, call := range calls.snapshot() {
		if call.Status == http.StatusServiceUnavailable {
			failed++
			if call.ErrorMessage == "" {
				t.Fatal("failed call logged without an error message")
			}
		}
	}
	if failed != 1 {
		t.Fatalf("expected 1 failed call log, got %d", failed)
	}
}

func TestFetch12HourSlowLocationOmittedNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "slow-key") {
			time.Sleep(500 * time.Millisecond)
		}
		w.Write([]byte(forecastPayload))
	}))
	defer server.Close()

	calls := &recordingCallLogger{}
	client, err := NewClient(server.URL, "test-key", calls, testLogger(),
		WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	out, err := client.Fetch12Hour(context.Background(), 4, map[string]string{
		"Dwarka":    "189928",
		"Najafgarh": "slow-key",
	})
	if err != nil {
		t.Fatalf("a per-location timeout must not fail the batch: %v", err)
	}
	if _, ok := out["Najafgarh"]; ok {
		t.Fatal("timed-out location should be omitted from the result")
	}
	if len(out["Dwarka"]) != 2 {
		t.Fatalf("healthy location missing records: %d", len(out["Dwarka"]))
	}

	var timedOut int
	for _, call := range calls.snapshot() {
		if call.Status == 0 {
			timedOut++
			if call.ErrorMessage == "" {
				t.Fatal("timed-out call logged without an error message")
			}
		}
	}
	if timedOut != 1 {
		t.Fatalf("expected 1 timed-out call log, got %d", timedOut)
	}
}

func TestFetch12HourCancelledContextIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(forecastPayload))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "test-key", &recordingCallLogger{}, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Fetch12Hour(ctx, 1, map[string]string{"Dwarka": "189928"}); err == nil {
		t.Fatal("expected cancelled batch to fail")
	}
}

func TestFetch12HourEmptyKeys(t *testing.T) {
	client, err := NewClient(DefaultBaseURL, "test-key", &recordingCallLogger{}, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	out, err := client.Fetch12Hour(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("Fetch12Hour: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty result, got %d entries", len(out))
	}
}

func TestSearchLocationKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/locations/v1/cities/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("q") != "Dwarka" {
			t.Errorf("unexpected q: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[{"Key":"189928","LocalizedName":"Dwarka"}]`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "test-key", nil, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	key, err := client.SearchLocationKey(context.Background(), "Dwarka")
	if err != nil {
		t.Fatalf("SearchLocationKey: %v", err)
	}
	if key != "189928" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestSearchLocationKeyNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "test-key", nil, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.SearchLocationKey(context.Background(), "Atlantis"); err == nil {
		t.Fatal("expected error for empty search result")
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient("", "key", nil, testLogger()); err == nil {
		t.Fatal("expected error for empty base url")
	}
	if _, err := NewClient(DefaultBaseURL, "", nil, testLogger()); err == nil {
		t.Fatal("expected error for empty api key")
	}
}
