package main

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/storefrontd/storefront/internal/auth"
	"github.com/storefrontd/storefront/internal/aws"
	"github.com/storefrontd/storefront/internal/catalog"
	"github.com/storefrontd/storefront/internal/config"
	"github.com/storefrontd/storefront/internal/handlers"
	"github.com/storefrontd/storefront/internal/idempotency"
	"github.com/storefrontd/storefront/internal/metrics"
	"github.com/storefrontd/storefront/internal/orders"
	"github.com/storefrontd/storefront/internal/payment"
	"github.com/storefrontd/storefront/internal/validation"
)

const metricsNamespace = "Storefront"

func setupRouter(cfg *config.Config, clients *aws.Clients) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(auth.Middleware())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v := validation.New()
	m := metrics.NewPublisher(clients.CloudWatch, metricsNamespace)
	idempStore := idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL)
	orderStore := orders.NewStore(clients.DynamoDB, cfg.OrdersTable, cfg.IdempotencyTable)
	productStore := catalog.NewStore(clients.DynamoDB, cfg.ProductsTable)

	// absent gateway stays a nil interface; order creation then fails with
	// payment-unavailable instead of panicking on a global
	var gateway payment.Gateway
	if cfg.StripeSecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.StripeSecretKey)
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, order creation will fail with payment unavailable")
	}

	var publisher orders.FulfillmentPublisher
	if cfg.FulfillmentQueueURL != "" {
		publisher = aws.NewPublisher(clients.SQS, cfg.FulfillmentQueueURL)
	} else {
		log.Warn("FULFILLMENT_QUEUE_URL not set, paid orders will not be enqueued for fulfillment")
	}

	orderSvc := orders.NewService(orderStore, idempStore, gateway, publisher, m, v, cfg.Currency)
	catalogSvc := catalog.NewService(productStore, v, m)

	handlers.RegisterOrderRoutes(r, orderSvc)
	handlers.RegisterProductRoutes(r, catalogSvc)

	return r
}

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

	r := setupRouter(cfg, clients)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if cfg.RunLocal {
		addr := ":" + cfg.Port
		log.WithField("addr", addr).Info("running local server")
		if err := r.Run(addr); err != nil {
			log.WithError(err).Fatal("failed to run local server")
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
