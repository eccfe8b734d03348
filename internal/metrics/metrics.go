package metrics

import (
	"context"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	log "github.com/sirupsen/logrus"

	"github.com/storefrontd/storefront/internal/aws"
)

// Metric names published to CloudWatch.
const (
	OrdersCreated              = "OrdersCreated"
	OrdersDelivered            = "OrdersDelivered"
	PaymentFailures            = "PaymentFailures"
	ReviewConflicts            = "ReviewConflicts"
	FulfillmentPublishFailures = "FulfillmentPublishFailures"
)

// Publisher emits business counters to CloudWatch. Metrics are best-effort:
// failures are logged and never propagated to the caller.
type Publisher struct {
	client    aws.CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

// NewPublisher returns a Publisher for the given namespace (e.g. "Storefront").
func NewPublisher(client aws.CloudWatchAPI, namespace string) *Publisher {
	return &Publisher{
		client:    client,
		namespace: namespace,
		nowFunc:   time.Now,
	}
}

// Count adds n to the named counter. Safe to call on a nil Publisher.
func (p *Publisher) Count(ctx context.Context, name string, n float64) {
	if p == nil || p.client == nil {
		return
	}
	now := p.nowFunc()
	_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &p.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Timestamp:  &now,
				Value:      sdkaws.Float64(n),
				Unit:       cwtypes.StandardUnitCount,
			},
		},
	})
	if err != nil {
		log.WithError(err).WithField("metric", name).Warn("failed to publish metric")
	}
}
