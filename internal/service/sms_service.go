package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/config"
)

// ErrSMSGatewayUnavailable signals the balance endpoint could not answer.
var ErrSMSGatewayUnavailable = errors.New("service: sms gateway unavailable")

// SMSService queries the SMS gateway used for order notifications. Only the
// admin console reads the balance.
type SMSService struct {
	client     *http.Client
	balanceURL string
	apiKey     string
}

// NewSMSService builds the client.
func NewSMSService(cfg config.SMSConfig) *SMSService {
	return &SMSService{
		client:     &http.Client{Timeout: cfg.Timeout()},
		balanceURL: cfg.BalanceURL,
		apiKey:     cfg.APIKey,
	}
}

// Balance fetches the remaining gateway credit.
func (s *SMSService) Balance(ctx context.Context) (float64, error) {
	if s.balanceURL == "" {
		return 0, errors.New("service: sms gateway not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.balanceURL, nil)
	if err != nil {
		return 0, err
	}
	q := req.URL.Query()
	q.Set("api_key", s.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSMSGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("%w: %s: %s", ErrSMSGatewayUnavailable, resp.Status, body)
	}

	var payload struct {
		Balance float64 `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("%w: decode: %v", ErrSMSGatewayUnavailable, err)
	}
	return payload.Balance, nil
}
