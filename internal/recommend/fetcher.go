package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/apexathon/careerdash/internal/metrics"
)

const (
	predictPath    = "/api/llm/predict-jobs"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
	maxTitlesBody  = 1 << 20
)

// Fetcher asks the remote prediction endpoint for job titles. It makes
// exactly one attempt per call and never fails: any problem yields the
// fixed fallback list.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher for the given base URL. A non-positive
// timeout selects the default of 30s.
func NewFetcher(baseURL string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewFetcherWithClient(baseURL, &http.Client{Timeout: timeout})
}

// NewFetcherWithClient creates a Fetcher using a caller-supplied HTTP client
// (for testing).
func NewFetcherWithClient(baseURL string, hc *http.Client) *Fetcher {
	return &Fetcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
		logger:     slog.Default(),
	}
}

// Fetch returns ranked recommendations for req, or Fallback on any failure.
func (f *Fetcher) Fetch(ctx context.Context, req PredictRequest) []Recommendation {
	titles, err := f.predict(ctx, req)
	if err != nil {
		f.logger.Warn("job prediction failed, using fallback list", "error", err)
		metrics.RecommendationFetches.WithLabelValues("fallback").Inc()
		return Fallback()
	}
	metrics.RecommendationFetches.WithLabelValues("ok").Inc()
	return FromTitles(titles)
}

func (f *Fetcher) predict(ctx context.Context, req PredictRequest) ([]string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+predictPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var titles []string
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTitlesBody)).Decode(&titles); err != nil {
		return nil, fmt.Errorf("decoding job titles: %w", err)
	}
	// A JSON null decodes cleanly into a nil slice.
	if titles == nil {
		return nil, errors.New("prediction response is not a JSON array")
	}
	return titles, nil
}
