package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/storefrontd/storefront/internal/auth"
	"github.com/storefrontd/storefront/internal/catalog"
	"github.com/storefrontd/storefront/internal/httperr"
	"github.com/storefrontd/storefront/internal/validation"
)

// RegisterProductRoutes registers the catalog API on the router.
func RegisterProductRoutes(r *gin.Engine, svc *catalog.Service) {
	grp := r.Group("/products")

	grp.GET("", func(c *gin.Context) {
		products, err := svc.ListProducts(c.Request.Context(), catalog.Filter{
			Category: c.Query("category"),
			Search:   c.Query("search"),
			Sort:     c.Query("sort"),
		})
		if err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	})

	grp.GET("/:id", func(c *gin.Context) {
		p, err := svc.GetProduct(c.Request.Context(), c.Param("id"))
		if err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	grp.POST("", auth.RequireAdmin(), func(c *gin.Context) {
		var req validation.CreateProductRequest
		if err := validation.BindJSON(c, &req); err != nil {
			return
		}
		p, err := svc.CreateProduct(c.Request.Context(), req)
		if err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	})

	grp.PUT("/:id", auth.RequireAdmin(), func(c *gin.Context) {
		var req validation.UpdateProductRequest
		if err := validation.BindJSON(c, &req); err != nil {
			return
		}
		p, err := svc.UpdateProduct(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	grp.DELETE("/:id", auth.RequireAdmin(), func(c *gin.Context) {
		if err := svc.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "product removed"})
	})

	grp.POST("/:id/reviews", auth.RequireUser(), func(c *gin.Context) {
		caller, _ := auth.FromContext(c)
		var req validation.AddReviewRequest
		if err := validation.BindJSON(c, &req); err != nil {
			return
		}
		if _, err := svc.AddReview(c.Request.Context(), c.Param("id"), caller, req); err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "review added"})
	})
}
