package validation

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BindJSON binds the request body into `out`. On malformed JSON it writes a
// 400 response and returns an error for the handler to short-circuit.
// Semantic validation happens in the services, which see the bound value.
func BindJSON(c *gin.Context, out interface{}) error {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid_request_body",
			"msg":   err.Error(),
		})
		return err
	}
	return nil
}
