package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/storefrontd/storefront/internal/auth"
	"github.com/storefrontd/storefront/internal/httperr"
	"github.com/storefrontd/storefront/internal/idempotency"
	"github.com/storefrontd/storefront/internal/metrics"
	"github.com/storefrontd/storefront/internal/payment"
	"github.com/storefrontd/storefront/internal/validation"
)

// gatewayTimeout bounds every payment gateway call. On timeout the order
// creation fails cleanly with nothing persisted.
const gatewayTimeout = 10 * time.Second

// Repository is the persistence contract the service needs. *Store satisfies
// it; tests supply in-memory fakes.
type Repository interface {
	CreateWithIdempotency(ctx context.Context, rec idempotency.Record, order Order) error
	Get(ctx context.Context, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	MarkPaid(ctx context.Context, orderID string, res PaymentResult) (*Order, error)
	MarkDelivered(ctx context.Context, orderID string) (*Order, error)
}

// IdempotencyStore is the slice of the idempotency store the service uses.
type IdempotencyStore interface {
	CreateIfNotExists(ctx context.Context, key, orderID string) (bool, error)
	NewRecord(key, orderID string) idempotency.Record
	Get(ctx context.Context, key string) (*idempotency.Record, error)
	MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error
	MarkFailed(ctx context.Context, key, note string) error
}

// FulfillmentPublisher pushes paid orders onto the fulfillment queue.
type FulfillmentPublisher interface {
	SendFulfillmentMessage(ctx context.Context, messageBody string, attributes map[string]string) error
}

// Service implements the order lifecycle: creation with payment authorization,
// status queries and the guarded paid/delivered transitions.
type Service struct {
	repo      Repository
	idemp     IdempotencyStore
	gateway   payment.Gateway // nil when payments are not configured
	publisher FulfillmentPublisher
	metrics   *metrics.Publisher
	validate  *validatorv10.Validate
	currency  string
	nowFunc   func() time.Time
}

// NewService wires an order service. gateway may be nil (payments unconfigured);
// publisher and metrics may be nil.
func NewService(repo Repository, idemp IdempotencyStore, gateway payment.Gateway,
	publisher FulfillmentPublisher, m *metrics.Publisher, validate *validatorv10.Validate, currency string) *Service {
	return &Service{
		repo:      repo,
		idemp:     idemp,
		gateway:   gateway,
		publisher: publisher,
		metrics:   m,
		validate:  validate,
		currency:  currency,
		nowFunc:   time.Now,
	}
}

// MinorUnits converts a major-unit amount to whole minor units (cents).
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Create validates the draft, reserves the idempotency key, authorizes the
// payment and persists a paid order. The key is reserved IN_PROGRESS before
// the gateway call, so a concurrent duplicate fails with
// httperr.ErrDuplicateRequest without ever reaching the gateway; callers
// replay the stored outcome via ReplayRecord. A gateway rejection marks the
// reservation FAILED (freed by TTL expiry).
func (s *Service) Create(ctx context.Context, caller auth.Context, draft validation.CreateOrderRequest, idempKey string) (*Order, error) {
	if caller.UserID == "" {
		return nil, httperr.ErrUnauthorized
	}
	if err := s.validate.Struct(draft); err != nil {
		return nil, httperr.NewValidation(validation.FieldErrors(err))
	}
	if s.gateway == nil {
		return nil, httperr.ErrPaymentUnavailable
	}

	orderID := uuid.NewString()

	created, err := s.idemp.CreateIfNotExists(ctx, idempKey, orderID)
	if err != nil {
		return nil, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if !created {
		return nil, httperr.ErrDuplicateRequest
	}

	gwCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	intent, err := s.gateway.CreateIntent(gwCtx, payment.IntentRequest{
		AmountMinor:    MinorUnits(draft.TotalPrice),
		Currency:       s.currency,
		Method:         draft.PaymentMethod,
		IdempotencyKey: idempKey,
	})
	if err != nil {
		s.metrics.Count(ctx, metrics.PaymentFailures, 1)
		if ferr := s.idemp.MarkFailed(ctx, idempKey, fmt.Sprintf("gateway: %v", err)); ferr != nil {
			log.WithError(ferr).WithField("idempotency_key", idempKey).Warn("failed to mark idempotency record failed")
		}
		log.WithError(err).WithField("user_id", caller.UserID).Warn("payment authorization failed")
		return nil, fmt.Errorf("%w: %v", httperr.ErrPaymentFailed, err)
	}

	now := s.nowFunc().UTC()
	items := make([]Item, 0, len(draft.Items))
	for _, it := range draft.Items {
		items = append(items, Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	order := Order{
		OrderID:   orderID,
		UserID:    caller.UserID,
		UserName:  caller.Name,
		UserEmail: caller.Email,
		Items:     items,
		ShippingAddress: Address{
			Street:     draft.ShippingAddress.Street,
			City:       draft.ShippingAddress.City,
			PostalCode: draft.ShippingAddress.PostalCode,
			Country:    draft.ShippingAddress.Country,
		},
		PaymentMethod: draft.PaymentMethod,
		ItemsPrice:    draft.ItemsPrice,
		TaxPrice:      draft.TaxPrice,
		ShippingPrice: draft.ShippingPrice,
		TotalPrice:    draft.TotalPrice,
		PaymentResult: &PaymentResult{
			TransactionID: intent.ID,
			Status:        intent.Status,
			SettledAt:     now,
			PayerEmail:    caller.Email,
		},
		IsPaid:    true,
		PaidAt:    &now,
		Status:    StatusPaid,
		CreatedAt: now,
		UpdatedAt: now,
	}

	rec := s.idemp.NewRecord(idempKey, order.OrderID)
	if err := s.repo.CreateWithIdempotency(ctx, rec, order); err != nil {
		// The charge is durable at the gateway under this key; FAILED lets the
		// client retry after TTL expiry without a second charge.
		if ferr := s.idemp.MarkFailed(ctx, idempKey, fmt.Sprintf("persist: %v", err)); ferr != nil {
			log.WithError(ferr).WithField("idempotency_key", idempKey).Warn("failed to mark idempotency record failed")
		}
		return nil, fmt.Errorf("persist order: %w", err)
	}

	s.publishFulfillment(ctx, order)

	if body, merr := json.Marshal(order); merr == nil {
		if derr := s.idemp.MarkDone(ctx, idempKey, string(body), http.StatusCreated); derr != nil {
			log.WithError(derr).WithField("order_id", order.OrderID).Warn("failed to mark idempotency record done")
		}
	}

	s.metrics.Count(ctx, metrics.OrdersCreated, 1)
	log.WithFields(log.Fields{
		"order_id":    order.OrderID,
		"user_id":     caller.UserID,
		"total_price": order.TotalPrice,
	}).Info("order created")

	return &order, nil
}

// publishFulfillment is best-effort: the order and charge are already durable,
// so a queue hiccup must not fail the request.
func (s *Service) publishFulfillment(ctx context.Context, order Order) {
	if s.publisher == nil {
		return
	}
	msg := FulfillmentMessage{
		OrderID:    order.OrderID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice,
	}
	body, _ := json.Marshal(msg)
	attrs := map[string]string{
		"order_id": order.OrderID,
		"user_id":  order.UserID,
	}
	if err := s.publisher.SendFulfillmentMessage(ctx, string(body), attrs); err != nil {
		s.metrics.Count(ctx, metrics.FulfillmentPublishFailures, 1)
		log.WithError(err).WithField("order_id", order.OrderID).Error("failed to enqueue fulfillment message")
	}
}

// ReplayRecord fetches the idempotency record for a duplicate submission so
// the HTTP layer can return the original outcome.
func (s *Service) ReplayRecord(ctx context.Context, idempKey string) (*idempotency.Record, error) {
	return s.idemp.Get(ctx, idempKey)
}

// GetOrder returns an order by id.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o == nil {
		return nil, httperr.ErrNotFound
	}
	return o, nil
}

// ListForUser returns all orders owned by userID, in no particular order.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return list, nil
}

// MarkPaid applies a client-driven payment confirmation to a created order.
// Re-paying a paid or delivered order is rejected.
func (s *Service) MarkPaid(ctx context.Context, orderID string, req validation.PayOrderRequest) (*Order, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, httperr.NewValidation(validation.FieldErrors(err))
	}

	existing, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if existing == nil {
		return nil, httperr.ErrNotFound
	}

	// Gateway confirmations carry their own settlement timestamp; fall back to
	// the server clock when the client omits it.
	settled := s.nowFunc().UTC()
	if req.UpdateTime != "" {
		if ts, perr := time.Parse(time.RFC3339, req.UpdateTime); perr == nil {
			settled = ts.UTC()
		}
	}

	res := PaymentResult{
		TransactionID: req.TransactionID,
		Status:        req.Status,
		SettledAt:     settled,
		PayerEmail:    req.PayerEmail,
	}
	o, err := s.repo.MarkPaid(ctx, orderID, res)
	if errors.Is(err, ErrStatusMismatch) {
		return nil, fmt.Errorf("order %s is not awaiting payment: %w", orderID, httperr.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("mark paid: %w", err)
	}
	log.WithField("order_id", orderID).Info("order marked paid")
	return o, nil
}

// MarkDelivered transitions a paid order to delivered.
func (s *Service) MarkDelivered(ctx context.Context, orderID string) (*Order, error) {
	existing, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if existing == nil {
		return nil, httperr.ErrNotFound
	}

	o, err := s.repo.MarkDelivered(ctx, orderID)
	if errors.Is(err, ErrStatusMismatch) {
		return nil, fmt.Errorf("order %s is not awaiting delivery: %w", orderID, httperr.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("mark delivered: %w", err)
	}

	s.metrics.Count(ctx, metrics.OrdersDelivered, 1)
	log.WithField("order_id", orderID).Info("order marked delivered")
	return o, nil
}

// CreatePaymentIntent creates a standalone gateway intent for client-driven
// payment flows and returns the client secret. Amount is in major units.
func (s *Service) CreatePaymentIntent(ctx context.Context, amount float64) (string, error) {
	if s.gateway == nil {
		return "", httperr.ErrPaymentUnavailable
	}
	if amount <= 0 {
		return "", httperr.NewValidation(map[string]string{"amount": "must be greater than zero"})
	}

	gwCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	intent, err := s.gateway.CreateIntent(gwCtx, payment.IntentRequest{
		AmountMinor: MinorUnits(amount),
		Currency:    s.currency,
	})
	if err != nil {
		s.metrics.Count(ctx, metrics.PaymentFailures, 1)
		return "", fmt.Errorf("%w: %v", httperr.ErrPaymentFailed, err)
	}
	return intent.ClientSecret, nil
}
