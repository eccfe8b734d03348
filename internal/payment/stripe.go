package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultStripeBaseURL = "https://api.stripe.com"

// StripeGateway creates payment intents against the Stripe REST API.
type StripeGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewStripeGateway returns a gateway using the given secret key. The HTTP
// client carries a hard timeout so a hung gateway call cannot stall order
// creation; callers may additionally bound the context.
func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{
		secretKey: secretKey,
		baseURL:   defaultStripeBaseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// NewStripeGatewayWithBaseURL is used by tests to point at a local server.
func NewStripeGatewayWithBaseURL(secretKey, baseURL string) *StripeGateway {
	g := NewStripeGateway(secretKey)
	g.baseURL = baseURL
	return g
}

type stripeIntentResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	ClientSecret string `json:"client_secret"`
	Error        *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent POSTs /v1/payment_intents with a form-encoded body, the way the
// Stripe API expects. The idempotency key is forwarded as the Idempotency-Key
// header so a retried call cannot double-charge.
func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountMinor, 10))
	form.Set("currency", req.Currency)
	if req.Method != "" {
		form.Set("payment_method_types[]", req.Method)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+g.secretKey)
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out stripeIntentResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := "unknown gateway error"
		if out.Error != nil {
			msg = out.Error.Message
		}
		return nil, fmt.Errorf("gateway rejected intent (status %d): %s", resp.StatusCode, msg)
	}

	return &Intent{
		ID:           out.ID,
		Status:       out.Status,
		ClientSecret: out.ClientSecret,
	}, nil
}

var _ Gateway = (*StripeGateway)(nil)
