package resilience

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

var (
	// ErrCircuitOpen is returned without contacting the provider while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// HTTPDoer is the subset of *http.Client used by Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig configures a resilient client.
type ClientConfig struct {
	Name            string
	Timeout         time.Duration // per attempt
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	CircuitBreaker  CircuitBreakerConfig

	// Transport overrides the underlying HTTP client, mainly for tests.
	Transport HTTPDoer
}

// DefaultClientConfig returns the configuration used for routing providers.
func DefaultClientConfig(name string) ClientConfig {
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      2,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		CircuitBreaker:  DefaultCircuitBreakerConfig(name),
	}
}

// Client retries transient failures and trips a breaker when a provider keeps failing.
type Client struct {
	config         ClientConfig
	httpClient     HTTPDoer
	circuitBreaker *gobreaker.CircuitBreaker[*http.Response]
}

// NewClient builds a Client, filling zero values from DefaultClientConfig.
func NewClient(cfg ClientConfig) *Client {
	def := DefaultClientConfig(cfg.Name)
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = def.MaxInterval
	}
	if cfg.CircuitBreaker.Name == "" {
		cfg.CircuitBreaker = def.CircuitBreaker
	}
	if cfg.CircuitBreaker.ReadyToTrip == nil {
		cfg.CircuitBreaker.ReadyToTrip = DefaultReadyToTrip
	}

	httpClient := cfg.Transport
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		config:         cfg,
		httpClient:     httpClient,
		circuitBreaker: NewCircuitBreaker[*http.Response](cfg.CircuitBreaker),
	}
}

// Do sends req through the breaker, retrying network errors and 5xx responses.
// When retries run out on a 5xx the last response is returned without error so the
// caller can read the provider's message.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var lastResp *http.Response

	operation := func() error {
		if lastResp != nil {
			drain(lastResp)
			lastResp = nil
		}

		resp, err := c.circuitBreaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // returned to caller
			attempt, err := rewind(ctx, req)
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			r, err := c.httpClient.Do(attempt)
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= 500 {
				return r, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			lastResp = resp
			return err
		}
		lastResp = resp
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		if lastResp != nil {
			return lastResp, nil
		}
		return nil, err
	}
	return lastResp, nil
}

// rewind clones req with a fresh body for another attempt.
func rewind(ctx context.Context, req *http.Request) (*http.Request, error) {
	clone := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	return clone, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// ServerError is a 5xx response.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "server error: " + http.StatusText(e.StatusCode)
}

// State returns the breaker state.
func (c *Client) State() gobreaker.State {
	return c.circuitBreaker.State()
}

// Counts returns the breaker counts.
func (c *Client) Counts() gobreaker.Counts {
	return c.circuitBreaker.Counts()
}
