package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"payment-reconciler/internal/config"
	"payment-reconciler/internal/logger"
	"payment-reconciler/internal/metrics"
	"payment-reconciler/internal/models"
)

var (
	ErrNotFound        = errors.New("backend payment not found")
	ErrVersionConflict = errors.New("backend version conflict")
	ErrUpstream        = errors.New("commerce backend error")
)

// Client talks to the commerce backend's payment API. Writes go through
// update actions only; the backend enforces consistency with the version
// token it hands out on every read.
type Client struct {
	baseURL    string
	projectKey string
	authToken  string
	maxRetries int
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        *logger.Logger
}

func NewClient(cfg config.CommerceConfig, log *logger.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "commerce-backend",
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// Not-found keys and stale versions are expected business
			// outcomes, not backend health signals; only real upstream
			// failures count against the breaker.
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrVersionConflict)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			state := float64(0)
			switch to {
			case gobreaker.StateOpen:
				state = 1
			case gobreaker.StateHalfOpen:
				state = 2
			}
			metrics.CircuitBreakerState.WithLabelValues(name).Set(state)
			log.Warn("COMMERCE", fmt.Sprintf("Circuit breaker %s changed state: %s -> %s", name, from, to))
		},
	})

	return &Client{
		baseURL:    cfg.BaseURL,
		projectKey: cfg.ProjectKey,
		authToken:  cfg.AuthToken,
		maxRetries: cfg.MaxRetries,
		client:     &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		log:        log,
	}
}

// GetPaymentByKey fetches the stored payment, including its transaction list
// and the current version token.
func (c *Client) GetPaymentByKey(ctx context.Context, key string) (*models.BackendPayment, error) {
	c.log.LogPayment("FETCH_BACKEND", key, "Fetching backend payment by key")

	path := fmt.Sprintf("/%s/payments/key=%s", c.projectKey, url.PathEscape(key))

	var payment models.BackendPayment
	if err := c.do(ctx, http.MethodGet, path, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

type updateRequest struct {
	Version int                   `json:"version"`
	Actions []models.UpdateAction `json:"actions"`
}

// ApplyActions posts the action list against the given version. A stale
// version comes back as ErrVersionConflict; the caller decides whether the
// PSP's webhook redelivery is retry enough.
func (c *Client) ApplyActions(ctx context.Context, key string, version int, actions []models.UpdateAction) (*models.BackendPayment, error) {
	c.log.LogPayment("APPLY_ACTIONS", key, fmt.Sprintf("Applying %d actions at version %d", len(actions), version))

	path := fmt.Sprintf("/%s/payments/key=%s", c.projectKey, url.PathEscape(key))
	body := updateRequest{Version: version, Actions: actions}

	var payment models.BackendPayment
	if err := c.do(ctx, http.MethodPost, path, &body, &payment); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			metrics.VersionConflicts.Inc()
		}
		return nil, err
	}
	return &payment, nil
}

// do runs one request through the circuit breaker, retrying transient 5xx
// responses. Version conflicts and not-found are never retried here; webhook
// redelivery is the retry mechanism for those.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		var lastErr error
		for attempt := 0; attempt <= c.maxRetries; attempt++ {
			if attempt > 0 {
				c.log.Warn("COMMERCE", fmt.Sprintf("Retrying %s %s (attempt %d)", method, path, attempt+1))
				time.Sleep(time.Duration(attempt) * 200 * time.Millisecond)
			}

			retriable, err := c.doOnce(ctx, method, path, body, out)
			if err == nil {
				return nil, nil
			}
			lastErr = err
			if !retriable {
				return nil, err
			}
		}
		return nil, lastErr
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		return err
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, out interface{}) (retriable bool, err error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("%w: marshal request: %v", ErrUpstream, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return true, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return false, ErrVersionConflict
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, string(data))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	return false, nil
}
