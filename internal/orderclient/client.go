// Package orderclient talks to the order service over HTTP and classifies its
// answers into the payment error taxonomy.
package orderclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/and161185/vpay/internal/errs"
	"github.com/and161185/vpay/internal/model"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const IdempotencyHeader = "Idempotency-Key"

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.SugaredLogger
}

func New(baseURL string, httpClient *http.Client, logger *zap.SugaredLogger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	settings := gobreaker.Settings{
		Name:        "order-service",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("circuit breaker %s: %s -> %s", name, from, to)
		},
		// answers from the service, even negative ones, mean it is reachable
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, errs.ErrServiceUnavailable)
		},
	}

	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

func (c *Client) CreateOrder(ctx context.Context, req model.OrderRequest, token string) (model.OrderReceipt, error) {
	var receipt model.OrderReceipt

	// one key per call: a new attempt always gets a new order
	headers := map[string]string{IdempotencyHeader: uuid.NewString()}

	err := c.do(ctx, "/api/payment/create-order", token, headers, req, func(resp *http.Response) error {
		switch {
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
			if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
				return fmt.Errorf("decode response: %w: %w", errs.ErrRejected, err)
			}
			return nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return errs.ErrUnauthorized
		case resp.StatusCode == http.StatusPaymentRequired:
			return fmt.Errorf("%w: %w", errs.ErrRejected, errs.ErrInsufficientFunds)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("status %d: %w", resp.StatusCode, errs.ErrServiceUnavailable)
		default:
			return fmt.Errorf("status %d: %w", resp.StatusCode, errs.ErrRejected)
		}
	})
	if err != nil {
		return model.OrderReceipt{}, fmt.Errorf("create order: %w", err)
	}

	return receipt, nil
}

func (c *Client) VerifyPayment(ctx context.Context, orderID string, amount int64, token string) (bool, error) {
	var response model.VerifyResponse

	body := model.VerifyRequest{OrderID: orderID, Amount: amount}
	err := c.do(ctx, "/api/payment/verify-payment", token, nil, body, func(resp *http.Response) error {
		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
				// the service answered, but what it said is unknown
				return fmt.Errorf("decode response: %w: %w", errs.ErrServiceUnavailable, err)
			}
			return nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return errs.ErrUnauthorized
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("status %d: %w", resp.StatusCode, errs.ErrServiceUnavailable)
		default:
			return fmt.Errorf("status %d: %w", resp.StatusCode, errs.ErrVerificationFailed)
		}
	})
	if err != nil {
		return false, fmt.Errorf("verify payment: %w", err)
	}

	return response.Settled, nil
}

func (c *Client) do(ctx context.Context, path, token string, headers map[string]string, payload any, handle func(*http.Response) error) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w: %w", errs.ErrRejected, err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w: %w", errs.ErrRejected, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("send request: %w: %w", errs.ErrServiceUnavailable, err)
		}
		defer resp.Body.Close()

		return nil, handle(resp)
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", errs.ErrServiceUnavailable, err)
	}
	return err
}
