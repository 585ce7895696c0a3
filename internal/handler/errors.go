package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/dorneles/workshop-api/internal/domain/catalog"
	"github.com/dorneles/workshop-api/internal/domain/customer"
	"github.com/dorneles/workshop-api/internal/domain/inventory"
	"github.com/dorneles/workshop-api/internal/domain/order"
	"github.com/dorneles/workshop-api/internal/domain/vehicle"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

// writeDomainError maps a domain error onto an HTTP status and the error
// envelope. Unknown errors are logged and surfaced as 500.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		notFound    *order.NotFoundError
		badQuantity *order.InvalidQuantityError
		noLine      *order.LineNotFoundError
		rule        *order.BusinessRuleError
		noStock     *inventory.InsufficientStockError
		badMove     *order.InvalidTransitionError
		conflict    *order.ActiveOrderConflictError
	)

	switch {
	case errors.Is(err, customer.ErrNotFound),
		errors.Is(err, vehicle.ErrNotFound),
		errors.Is(err, catalog.ErrServiceNotFound),
		errors.Is(err, catalog.ErrPartNotFound),
		errors.Is(err, order.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: err.Error()})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: notFound.Error()})
	case errors.As(err, &noLine):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: noLine.Error()})
	case errors.As(err, &badQuantity):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_argument", Message: badQuantity.Error()})
	case errors.As(err, &rule):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "business_rule", Message: rule.Error()})
	case errors.As(err, &noStock):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "insufficient_stock", Message: noStock.Error()})
	case errors.As(err, &badMove):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_transition", Message: badMove.Error()})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:   "active_order_conflict",
			Message: conflict.Error(),
			Status:  string(conflict.Status),
		})
	default:
		zctx.From(ctx).Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal", Message: "internal server error"})
	}
}

func writeInvalidRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: message})
}
