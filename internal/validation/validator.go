package validation

import (
	"fmt"
	"math"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// register struct-level validation for CreateOrderRequest to ensure
	// the pricing breakdown adds up to TotalPrice.
	v.RegisterStructValidation(createOrderStructValidation, CreateOrderRequest{})

	return v
}

// createOrderStructValidation verifies TotalPrice == ItemsPrice + TaxPrice +
// ShippingPrice. Comparison happens in whole cents to dodge float rounding.
func createOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateOrderRequest)

	sum := req.ItemsPrice + req.TaxPrice + req.ShippingPrice

	sumCents := int64(math.Round(sum * 100))
	totalCents := int64(math.Round(req.TotalPrice * 100))
	if sumCents != totalCents {
		sl.ReportError(req.TotalPrice, "totalPrice", "TotalPrice", "total_match_breakdown",
			fmt.Sprintf("breakdown sum %.2f != total %.2f", sum, req.TotalPrice))
	}
}

// FieldErrors flattens a validator error into field -> message pairs so every
// violation is reported, not just the first.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	if ve, ok := err.(validatorv10.ValidationErrors); ok {
		for _, fe := range ve {
			out[fe.StructNamespace()] = fe.Error()
		}
	} else if err != nil {
		out["error"] = err.Error()
	}
	return out
}
