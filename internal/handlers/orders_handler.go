package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/storefrontd/storefront/internal/auth"
	"github.com/storefrontd/storefront/internal/httperr"
	"github.com/storefrontd/storefront/internal/idempotency"
	"github.com/storefrontd/storefront/internal/orders"
	"github.com/storefrontd/storefront/internal/validation"
)

// RegisterOrderRoutes registers the order API on the router.
func RegisterOrderRoutes(r *gin.Engine, svc *orders.Service) {
	grp := r.Group("/orders")

	grp.POST("", auth.RequireUser(), func(c *gin.Context) {
		ctx := c.Request.Context()
		caller, _ := auth.FromContext(c)

		var draft validation.CreateOrderRequest
		if err := validation.BindJSON(c, &draft); err != nil {
			// BindJSON already wrote a 400
			return
		}

		// Header wins; otherwise derive a deterministic key from the draft so
		// a blind client retry cannot double-charge.
		idempKey := c.GetHeader("Idempotency-Key")
		if idempKey == "" {
			derived, err := idempotency.DeriveKey(caller.UserID, draft)
			if err != nil {
				httperr.Write(c, err)
				return
			}
			idempKey = derived
		}

		order, err := svc.Create(ctx, caller, draft, idempKey)
		if err == httperr.ErrDuplicateRequest {
			replayDuplicate(c, svc, idempKey)
			return
		}
		if err != nil {
			httperr.Write(c, err)
			return
		}

		c.Header("Location", "/orders/"+order.OrderID)
		c.JSON(http.StatusCreated, order)
	})

	grp.GET("", auth.RequireUser(), func(c *gin.Context) {
		caller, _ := auth.FromContext(c)
		list, err := svc.ListForUser(c.Request.Context(), caller.UserID)
		if err != nil {
			httperr.Write(c, err)
			return
		}
		if list == nil {
			list = []orders.Order{}
		}
		c.JSON(http.StatusOK, list)
	})

	grp.GET("/:id", auth.RequireUser(), func(c *gin.Context) {
		caller, _ := auth.FromContext(c)
		order, err := svc.GetOrder(c.Request.Context(), c.Param("id"))
		if err != nil {
			httperr.Write(c, err)
			return
		}
		// non-admins only see their own orders; hide the rest
		if !caller.IsAdmin() && order.UserID != caller.UserID {
			httperr.Write(c, httperr.ErrNotFound)
			return
		}
		c.JSON(http.StatusOK, order)
	})

	grp.PUT("/:id/pay", auth.RequireUser(), func(c *gin.Context) {
		var req validation.PayOrderRequest
		if err := validation.BindJSON(c, &req); err != nil {
			return
		}
		order, err := svc.MarkPaid(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	})

	grp.PUT("/:id/deliver", auth.RequireAdmin(), func(c *gin.Context) {
		order, err := svc.MarkDelivered(c.Request.Context(), c.Param("id"))
		if err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	})

	grp.POST("/create-payment-intent", auth.RequireUser(), func(c *gin.Context) {
		var req validation.PaymentIntentRequest
		if err := validation.BindJSON(c, &req); err != nil {
			return
		}
		secret, err := svc.CreatePaymentIntent(c.Request.Context(), req.Amount)
		if err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"clientSecret": secret})
	})
}

// replayDuplicate returns the outcome of the original submission for a reused
// idempotency key.
func replayDuplicate(c *gin.Context, svc *orders.Service, idempKey string) {
	rec, err := svc.ReplayRecord(c.Request.Context(), idempKey)
	if err != nil {
		httperr.Write(c, err)
		return
	}
	if rec == nil {
		// reservation hit a key but the record is gone (likely TTL-expired
		// between the two reads); treat as a server fault
		log.WithField("idempotency_key", idempKey).Error("duplicate request with no idempotency record")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
		return
	}
	switch rec.Status {
	case idempotency.StatusDone:
		if rec.ResponseBody != "" {
			c.Data(rec.ResponseStatus, "application/json", []byte(rec.ResponseBody))
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": rec.OrderID})
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress", "id": rec.OrderID})
	case idempotency.StatusFailed:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "previous attempt failed, retry later"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
	}
}
