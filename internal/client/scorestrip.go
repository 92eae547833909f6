package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"spreadpool/internal/metrics"
	"spreadpool/internal/models"
	"spreadpool/internal/season"

	"github.com/rs/zerolog/log"
)

// Normalizer converts a raw feed body into scores
type Normalizer interface {
	Normalize(raw []byte) ([]models.Score, error)
}

// Config holds scoreboard client settings
type Config struct {
	RegularURL    string
	PostseasonURL string
	Timeout       time.Duration
	// MaxRetries is the number of extra attempts after a failed request.
	// Zero issues exactly one request per fetch.
	MaxRetries int
	RetryDelay time.Duration
}

// ScoreboardClient reads the public scorestrip feed.
// It is the read-only source tier at the end of the score chain.
type ScoreboardClient struct {
	regularURL    string
	postseasonURL string
	httpClient    *http.Client
	calendar      *season.Calendar
	normalizer    Normalizer
	inflight      chan struct{}
	maxRetries    int
	retryDelay    time.Duration
}

// NewScoreboardClient creates a scoreboard client
func NewScoreboardClient(cfg Config, calendar *season.Calendar, normalizer Normalizer) *ScoreboardClient {
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	// At most four concurrent upstream requests
	inflight := make(chan struct{}, 4)
	for i := 0; i < cap(inflight); i++ {
		inflight <- struct{}{}
	}

	return &ScoreboardClient{
		regularURL:    cfg.RegularURL,
		postseasonURL: cfg.PostseasonURL,
		calendar:      calendar,
		normalizer:    normalizer,
		inflight:      inflight,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    retryDelay,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Name identifies the tier
func (c *ScoreboardClient) Name() string {
	return "source"
}

// Fetch returns the feed's current scores for the namespaced week.
// Failures are logged and reported as an empty result.
func (c *ScoreboardClient) Fetch(ctx context.Context, week int) ([]models.Score, error) {
	url, variant := c.regularURL, "regular"
	if c.calendar.IsPostseason(week) {
		url, variant = c.postseasonURL, "postseason"
	}

	start := time.Now()
	body, err := c.get(ctx, url)
	if err != nil {
		metrics.RecordAPICall(variant, "error", time.Since(start).Seconds())
		metrics.RecordError("source", "fetch")
		log.Warn().
			Err(err).
			Str("url", url).
			Int("week", week).
			Msg("Scoreboard fetch failed, returning no scores")
		return []models.Score{}, nil
	}
	metrics.RecordAPICall(variant, "success", time.Since(start).Seconds())

	scores, err := c.normalizer.Normalize(body)
	if err != nil {
		metrics.RecordError("source", "normalize")
		log.Warn().
			Err(err).
			Str("url", url).
			Int("size", len(body)).
			Msg("Scoreboard feed could not be normalized")
		return []models.Score{}, nil
	}

	log.Debug().
		Str("variant", variant).
		Int("week", week).
		Int("games", len(scores)).
		Msg("Scoreboard fetched")

	return scores, nil
}

// Save does not persist anything; the feed is read-only
func (c *ScoreboardClient) Save(_ context.Context, _ int, records []models.Score) (int, error) {
	return len(records), nil
}

// get performs a GET with optional retries for transient statuses
func (c *ScoreboardClient) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1x, 2x, 4x the base delay
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying scoreboard request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, retryable, err := c.do(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, lastErr
}

func (c *ScoreboardClient) do(ctx context.Context, url string) ([]byte, bool, error) {
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case <-c.inflight:
	}
	defer func() { c.inflight <- struct{}{} }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, &models.SourceFetchError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "spreadpool/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, &models.SourceFetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, &models.SourceFetchError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, false, nil
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, true, &models.SourceFetchError{URL: url, Status: resp.StatusCode}
	default:
		return nil, false, &models.SourceFetchError{URL: url, Status: resp.StatusCode}
	}
}
