package psp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"payment-reconciler/internal/config"
	"payment-reconciler/internal/logger"
	"payment-reconciler/internal/models"
)

var (
	ErrNotFound = errors.New("psp resource not found")
	ErrUpstream = errors.New("psp API error")
)

// Client talks to the payment service provider's REST API. It only reads:
// the PSP is the source of truth and this service never mutates its state.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *logger.Logger
}

func NewClient(cfg config.PSPConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     log,
	}
}

// FetchOrder retrieves the current order state with its payment attempts embedded.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (*models.PSPOrder, error) {
	c.log.LogPayment("FETCH_ORDER", orderID, "Fetching order from PSP")

	var order models.PSPOrder
	if err := c.get(ctx, fmt.Sprintf("/orders/%s?embed=payments", url.PathEscape(orderID)), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// FetchPayment retrieves the current payment state with its refunds embedded.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*models.PSPPayment, error) {
	c.log.LogPayment("FETCH_PAYMENT", paymentID, "Fetching payment from PSP")

	var payment models.PSPPayment
	if err := c.get(ctx, fmt.Sprintf("/payments/%s?embed=refunds", url.PathEscape(paymentID)), &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("PSP", fmt.Sprintf("Request to %s failed: %v", path, err))
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Error("PSP", fmt.Sprintf("Unexpected status %d from %s: %s", resp.StatusCode, path, string(body)))
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	return nil
}
