package api

import (
	"errors"
	"net/http"
	"strings"

	"karupatti-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError maps business-rule errors to HTTP status codes. Unmapped
// errors surface as 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	var couponErr *service.CouponError
	if errors.As(err, &couponErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": couponErr.Reason})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrCartEmpty),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrMissingReason),
		errors.Is(err, service.ErrUnsupportedPayMethod),
		errors.Is(err, service.ErrInvalidSignature):
		status = http.StatusBadRequest

	case errors.Is(err, service.ErrCouponNotFound),
		errors.Is(err, service.ErrProductUnavailable):
		status = http.StatusNotFound

	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrOrderNotCancellable),
		errors.Is(err, service.ErrOrderAlreadyPaid),
		errors.Is(err, service.ErrOrderNotRefundable),
		errors.Is(err, service.ErrRefundAlreadyOpen),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, service.ErrCheckoutInProgress):
		status = http.StatusConflict

	case strings.Contains(err.Error(), "not found"):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
