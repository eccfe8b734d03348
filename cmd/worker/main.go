package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	log "github.com/sirupsen/logrus"

	"github.com/storefrontd/storefront/internal/aws"
	"github.com/storefrontd/storefront/internal/config"
	"github.com/storefrontd/storefront/internal/metrics"
	"github.com/storefrontd/storefront/internal/orders"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	if cfg.RunLocal {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{})
	}

	clients, err := aws.NewClients(context.Background(), cfg.AWSRegion)
	if err != nil {
		log.WithError(err).Fatal("failed to init aws clients")
	}

	store := orders.NewStore(clients.DynamoDB, cfg.OrdersTable, cfg.IdempotencyTable)
	m := metrics.NewPublisher(clients.CloudWatch, "Storefront")
	p := NewProcessor(store, m)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if cfg.RunLocal {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"order_id":"local-order-1","user_id":"local-user-1"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{Body: testBody},
			},
		}
		if err := p.Handle(context.Background(), event); err != nil {
			log.WithError(err).Fatal("local handler error")
		}
		return
	}

	lambda.Start(p.Handle)
}
