// Package openrouteservice computes road distances between locations with the
// OpenRouteService matrix API.
package openrouteservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rodaje/rodaje/internal/provider/resilience"
	"github.com/rodaje/rodaje/pkg/distance"
	apperrors "github.com/rodaje/rodaje/pkg/errors"
	"github.com/rodaje/rodaje/pkg/model"
)

const (
	ProviderName   = "openrouteservice"
	DefaultBaseURL = "https://api.openrouteservice.org"
	DefaultProfile = "driving-car"
	DefaultTimeout = 10 * time.Second

	// MaxLocations keeps requests within the public API's matrix quota.
	MaxLocations = 50
)

// ClientConfig configures the client. Only APIKey is required.
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Profile string
	Timeout time.Duration

	// HTTPClient defaults to a resilience.Client.
	HTTPClient resilience.HTTPDoer

	Logger zerolog.Logger
}

// Client implements distance.Provider.
type Client struct {
	apiKey     string
	baseURL    string
	profile    string
	httpClient resilience.HTTPDoer
	logger     zerolog.Logger
}

var _ distance.Provider = (*Client)(nil)

// NewClient creates a client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Profile == "" {
		cfg.Profile = DefaultProfile
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		rc := resilience.DefaultClientConfig(ProviderName)
		rc.Timeout = cfg.Timeout
		httpClient = resilience.NewClient(rc)
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		profile:    cfg.Profile,
		httpClient: httpClient,
		logger:     cfg.Logger.With().Str("provider", ProviderName).Logger(),
	}
}

// Name implements distance.Provider.
func (c *Client) Name() string {
	return ProviderName
}

type matrixRequest struct {
	Locations [][2]float64 `json:"locations"`
	Metrics   []string     `json:"metrics"`
	Units     string       `json:"units"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"` // seconds
}

type errorResponse struct {
	Error json.RawMessage `json:"error"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Matrix returns road distances in km and durations in minutes between every pair of
// locations. All locations must have coordinates.
func (c *Client) Matrix(ctx context.Context, locations []model.Location) (*distance.Matrix, error) {
	if len(locations) > MaxLocations {
		return nil, apperrors.InvalidInput("locations",
			fmt.Sprintf("at most %d locations per matrix request, got %d", MaxLocations, len(locations)))
	}

	body := matrixRequest{
		Locations: make([][2]float64, len(locations)),
		Metrics:   []string{"distance", "duration"},
		Units:     "km",
	}
	for i, l := range locations {
		if !l.HasCoordinates() {
			return nil, apperrors.InvalidInput("locations", fmt.Sprintf("%s has no coordinates", l.Key()))
		}
		body.Locations[i] = [2]float64{*l.Longitude, *l.Latitude}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/matrix/%s", c.baseURL, c.profile)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Int("locations", len(locations)).Msg("matrix request failed")
		if errors.Is(err, resilience.ErrCircuitOpen) {
			err = &Error{StatusCode: http.StatusServiceUnavailable, Message: "circuit open", Err: ErrUnavailable}
		}
		return nil, apperrors.ProviderUnavailable(ProviderName, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.ProviderUnavailable(ProviderName, fmt.Errorf("read response: %w", err))
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Int("locations", len(locations)).
		Dur("duration", time.Since(start)).
		Msg("matrix response")

	if resp.StatusCode != http.StatusOK {
		return nil, toAppError(errorFromResponse(resp.StatusCode, respBody))
	}

	var parsed matrixResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, apperrors.ProviderUnavailable(ProviderName, fmt.Errorf("decode response: %w", err))
	}
	return toMatrix(parsed, len(locations))
}

func toMatrix(r matrixResponse, n int) (*distance.Matrix, error) {
	if len(r.Distances) != n || len(r.Durations) != n {
		return nil, apperrors.ProviderUnavailable(ProviderName,
			fmt.Errorf("expected %dx%d matrix, got %d distance rows and %d duration rows", n, n, len(r.Distances), len(r.Durations)))
	}
	m := &distance.Matrix{Cells: make([][]distance.Cell, n)}
	for i := 0; i < n; i++ {
		if len(r.Distances[i]) != n || len(r.Durations[i]) != n {
			return nil, apperrors.ProviderUnavailable(ProviderName, fmt.Errorf("row %d has the wrong length", i))
		}
		m.Cells[i] = make([]distance.Cell, n)
		for j := 0; j < n; j++ {
			km, secs := r.Distances[i][j], r.Durations[i][j]
			if km == nil || secs == nil {
				continue
			}
			m.Cells[i][j] = distance.Cell{DistanceKm: *km, DurationMinutes: *secs / 60, OK: true}
		}
	}
	return m, nil
}

// errorFromResponse maps a non-200 response to an *Error.
func errorFromResponse(status int, body []byte) *Error {
	e := &Error{StatusCode: status, Message: http.StatusText(status)}

	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Error) > 0 {
		var eb errorBody
		var msg string
		switch {
		case json.Unmarshal(parsed.Error, &eb) == nil && eb.Message != "":
			e.Code, e.Message = eb.Code, eb.Message
		case json.Unmarshal(parsed.Error, &msg) == nil && msg != "":
			e.Message = msg
		}
	}

	switch {
	case status == http.StatusTooManyRequests:
		e.Err = ErrRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Err = ErrUnauthorized
	case status >= 400 && status < 500:
		e.Err = ErrBadRequest
	default:
		e.Err = ErrUnavailable
	}
	return e
}

func toAppError(e *Error) error {
	if errors.Is(e, ErrRateLimited) {
		return apperrors.Wrap(e, apperrors.CodeRateLimited, "distance provider rate limit exceeded")
	}
	return apperrors.ProviderUnavailable(ProviderName, e)
}
