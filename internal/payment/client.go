package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vogiaan1904/ticketbottle-checkout/config"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/monitoring"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/logger"
)

// Client talks to the external payment processor. Never called inside
// a database transaction.
type Client interface {
	CreateIntent(ctx context.Context, in CreateIntentInput) (*Intent, error)
}

type CreateIntentInput struct {
	PaymentReference   string `json:"payment_reference"`
	AmountCents        int64  `json:"amount"`
	Currency           string `json:"currency"`
	DestinationAccount string `json:"destination_account,omitempty"`
	ApplicationFee     int64  `json:"application_fee,omitempty"`
	ReceiptEmail       string `json:"receipt_email,omitempty"`
}

type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type httpClient struct {
	baseURL string
	secret  string
	cli     *http.Client
	l       logger.Logger
}

func NewClient(cfg config.PaymentConfig, l logger.Logger) Client {
	return &httpClient{
		baseURL: cfg.BaseURL,
		secret:  cfg.SecretKey,
		cli:     &http.Client{Timeout: cfg.RequestTimeout},
		l:       l,
	}
}

func (c *httpClient) CreateIntent(ctx context.Context, in CreateIntentInput) (*Intent, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal intent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment_intents", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secret)
	// The processor deduplicates retried creations on this key.
	req.Header.Set("Idempotency-Key", in.PaymentReference)

	start := time.Now()
	resp, err := c.cli.Do(req)
	monitoring.ObservePaymentCall("create_intent", time.Since(start), err == nil)
	if err != nil {
		c.l.Errorf(ctx, "payment.httpClient.CreateIntent: %v", err)
		return nil, fmt.Errorf("payment provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.l.Errorf(ctx, "payment.httpClient.CreateIntent: status %d: %s", resp.StatusCode, raw)
		return nil, fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var intent Intent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("failed to decode intent response: %w", err)
	}

	return &intent, nil
}
