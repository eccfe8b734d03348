package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	log "github.com/sirupsen/logrus"

	"github.com/storefrontd/storefront/internal/metrics"
	"github.com/storefrontd/storefront/internal/orders"
)

// OrderStore is the slice of the orders store the worker needs.
type OrderStore interface {
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	MarkDelivered(ctx context.Context, orderID string) (*orders.Order, error)
}

// Processor consumes fulfillment queue messages and transitions paid orders
// to delivered once the fulfillment pipeline hands them off.
type Processor struct {
	store   OrderStore
	metrics *metrics.Publisher
}

// NewProcessor creates a worker processor.
func NewProcessor(store OrderStore, m *metrics.Publisher) *Processor {
	return &Processor{store: store, metrics: m}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			log.WithError(err).Error("worker error")
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg orders.FulfillmentMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	logger := log.WithFields(log.Fields{"order_id": msg.OrderID, "user_id": msg.UserID})
	logger.Info("fulfillment message received")

	order, err := p.store.Get(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("failed to fetch order: %w", err)
	}
	if order == nil {
		// Should never happen — DLQ if it does
		return fmt.Errorf("order not found: %s", msg.OrderID)
	}

	if order.Status == orders.StatusDelivered {
		logger.Info("order already delivered, swallowing duplicate message")
		return nil
	}

	_, err = p.store.MarkDelivered(ctx, msg.OrderID)
	if errors.Is(err, orders.ErrStatusMismatch) {
		// Competing worker or out-of-band transition: re-read and decide.
		o2, gerr := p.store.Get(ctx, msg.OrderID)
		if gerr != nil {
			return fmt.Errorf("failed to re-fetch order: %w", gerr)
		}
		if o2 != nil && o2.Status == orders.StatusDelivered {
			logger.Info("order delivered by a competing worker")
			return nil
		}
		return fmt.Errorf("order %s is not ready for delivery (status %s)", msg.OrderID, order.Status)
	}
	if err != nil {
		return fmt.Errorf("failed to mark delivered: %w", err)
	}

	p.metrics.Count(ctx, metrics.OrdersDelivered, 1)
	logger.Info("order delivered")
	return nil
}
