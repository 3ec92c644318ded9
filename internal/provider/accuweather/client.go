package accuweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	obsmetrics "weathertrack/internal/observability/metrics"
	"weathertrack/internal/runlog"
)

// DefaultBaseURL is the public AccuWeather data service endpoint.
const DefaultBaseURL = "http://dataservice.accuweather.com"

// HourlyRecord is one raw hourly forecast point as returned by the provider.
type HourlyRecord struct {
	DateTime    time.Time `json:"DateTime"`
	Temperature struct {
		Value float64 `json:"Value"`
		Unit  string  `json:"Unit"`
	} `json:"Temperature"`
	IconPhrase string `json:"IconPhrase"`
}

// Client is a minimal AccuWeather REST client.
type Client struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	calls    runlog.CallLogger
	metrics  *obsmetrics.Metrics
	logger   *log.Logger
	parallel bool
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithSequentialFetch disables per-location fetch parallelism. Used by tests
// that need a deterministic call order.
func WithSequentialFetch() Option {
	return func(c *Client) { c.parallel = false }
}

// WithMetrics records failed provider calls by status.
func WithMetrics(m *obsmetrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient constructs an AccuWeather client. calls receives a log entry for
// every request issued, success or failure.
func NewClient(baseURL, apiKey string, calls runlog.CallLogger, logger *log.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("accuweather: empty base url")
	}
	if apiKey == "" {
		return nil, errors.New("accuweather: empty api key")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "accuweather",
			MaxRequests: 5,
			Interval:    time.Minute,
			Timeout:     2 * time.Minute,
		}),
		calls:    calls,
		logger:   logger,
		parallel: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch12Hour requests the next 12 hourly forecast points in metric units for
// each location in keys (location name -> provider key). A location whose
// request fails is omitted from the result; its failure is logged against
// runID and the remaining locations are still fetched. The returned error is
// non-nil only when the whole batch cannot proceed (context cancelled or the
// circuit breaker open).
func (c *Client) Fetch12Hour(ctx context.Context, runID int64, keys map[string]string) (map[string][]HourlyRecord, error) {
	if c == nil {
		return nil, errors.New("accuweather: nil client")
	}
	result := make(map[string][]HourlyRecord, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	var fatal error
	fetchOne := func(name, providerKey string) {
		records, err := c.fetchLocation(ctx, runID, providerKey)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			if isBatchFatal(ctx, err) && fatal == nil {
				fatal = err
			}
			c.logf("forecast fetch failed: location=%s run_id=%d error=%v", name, runID, err)
			return
		}
		result[name] = records
	}

	if c.parallel {
		var wg sync.WaitGroup
		for name, providerKey := range keys {
			wg.Add(1)
			go func(name, providerKey string) {
				defer wg.Done()
				fetchOne(name, providerKey)
			}(name, providerKey)
		}
		wg.Wait()
	} else {
		for name, providerKey := range keys {
			fetchOne(name, providerKey)
		}
	}
	if fatal != nil {
		return nil, fatal
	}
	return result, nil
}

func (c *Client) fetchLocation(ctx context.Context, runID int64, providerKey string) ([]HourlyRecord, error) {
	if providerKey == "" {
		return nil, errors.New("accuweather: empty provider key")
	}
	query := url.Values{}
	query.Set("apikey", c.apiKey)
	query.Set("metric", "true")
	requestURL := fmt.Sprintf("%s/forecasts/v1/hourly/12hour/%s?%s", c.baseURL, providerKey, query.Encode())

	status, body, err := c.do(ctx, requestURL)
	c.logAPICall(ctx, runlog.APICall{
		RunID:        runID,
		Method:       http.MethodGet,
		URL:          requestURL,
		Status:       status,
		ErrorMessage: errText(err),
	})
	if err != nil {
		if c.metrics != nil {
			c.metrics.ProviderErrors.WithLabelValues(strconv.Itoa(status)).Inc()
		}
		return nil, err
	}

	var records []HourlyRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("accuweather: decode forecast: %w", err)
	}
	return records, nil
}

// SearchLocationKey resolves a city name to its provider key via the city
// search endpoint. Used by the key refresh tool, not by the pipeline.
func (c *Client) SearchLocationKey(ctx context.Context, name string) (string, error) {
	if c == nil {
		return "", errors.New("accuweather: nil client")
	}
	if name == "" {
		return "", errors.New("accuweather: empty location name")
	}
	query := url.Values{}
	query.Set("apikey", c.apiKey)
	query.Set("q", name)
	requestURL := fmt.Sprintf("%s/locations/v1/cities/search?%s", c.baseURL, query.Encode())

	_, body, err := c.do(ctx, requestURL)
	if err != nil {
		return "", err
	}
	var results []struct {
		Key string `json:"Key"`
	}
	if err := json.Unmarshal(body, &results); err != nil {
		return "", fmt.Errorf("accuweather: decode search: %w", err)
	}
	if len(results) == 0 || results[0].Key == "" {
		return "", fmt.Errorf("accuweather: no key found for %q", name)
	}
	return results[0].Key, nil
}

// do executes one GET through the circuit breaker and returns the response
// status and body. A non-200 status is an error; the failure body is not
// parsed. The returned status is 0 when no response was received.
func (c *Client) do(ctx context.Context, requestURL string) (int, []byte, error) {
	type response struct {
		status int
		body   []byte
	}
	result, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return response{status: resp.StatusCode}, fmt.Errorf("accuweather: http %d", resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return response{status: resp.StatusCode}, err
		}
		return response{status: resp.StatusCode, body: body}, nil
	})
	resp, _ := result.(response)
	if err != nil {
		return resp.status, nil, err
	}
	return resp.status, resp.body, nil
}

func (c *Client) logAPICall(ctx context.Context, call runlog.APICall) {
	if c.calls == nil {
		return
	}
	if err := c.calls.LogAPICall(ctx, call); err != nil {
		c.logf("api call log failed: run_id=%d error=%v", call.RunID, err)
	}
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// isBatchFatal reports whether an error should abort the remaining
// locations. Only the caller's context being done or the breaker refusing
// requests qualifies; a per-request timeout wraps context.DeadlineExceeded
// too, so the error itself is not checked against the context sentinels and
// a slow location degrades to an omitted one like any non-200.
func isBatchFatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
