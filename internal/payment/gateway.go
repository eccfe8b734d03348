package payment

import "context"

// Intent is a gateway-side record of an attempted charge.
type Intent struct {
	ID           string
	Status       string
	ClientSecret string
}

// IntentRequest describes the charge to create. Amount is in minor units
// (cents). IdempotencyKey deduplicates retried requests on the gateway side.
type IntentRequest struct {
	AmountMinor    int64
	Currency       string
	Method         string
	IdempotencyKey string
}

// Gateway is the external payment capability. OrderService receives it at
// construction; a nil gateway means payments are not configured.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
}
