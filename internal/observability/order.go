// Package observability decorates the workflow entry points with tracing
// and timing, keeping instrumentation out of the domain code.
package observability

import (
	"context"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dorneles/workshop-api/internal/domain/order"
)

var _ order.API = (*OrderAPI)(nil)

// OrderAPI wraps an order.API with a span and a duration log per operation.
type OrderAPI struct {
	inner  order.API
	tracer trace.Tracer
}

// NewOrderAPI wraps the given workflow implementation.
func NewOrderAPI(inner order.API, tracer trace.Tracer) *OrderAPI {
	return &OrderAPI{inner: inner, tracer: tracer}
}

func (a *OrderAPI) observe(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := a.tracer.Start(ctx, op, trace.WithAttributes(attrs...))
	start := time.Now()
	return ctx, func(err error) {
		elapsed := time.Since(start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		zctx.From(ctx).Debug("workflow operation finished",
			zap.String("operation", op),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	}
}

func (a *OrderAPI) CreateOrder(ctx context.Context, req order.CreateOrderRequest) (o *order.ServiceOrder, err error) {
	ctx, done := a.observe(ctx, "OrderAPI.CreateOrder",
		attribute.String("vehicle.plate", req.VehiclePlate),
		attribute.Int("order.services", len(req.ServiceIDs)),
		attribute.Int("order.parts", len(req.PartIDs)),
	)
	defer func() { done(err) }()
	return a.inner.CreateOrder(ctx, req)
}

func (a *OrderAPI) TransitionStatus(ctx context.Context, orderID string, target order.Status) (o *order.ServiceOrder, err error) {
	ctx, done := a.observe(ctx, "OrderAPI.TransitionStatus",
		attribute.String("order.id", orderID),
		attribute.String("order.target_status", string(target)),
	)
	defer func() { done(err) }()
	return a.inner.TransitionStatus(ctx, orderID, target)
}

func (a *OrderAPI) GetOrder(ctx context.Context, orderID string) (d *order.Detail, err error) {
	ctx, done := a.observe(ctx, "OrderAPI.GetOrder", attribute.String("order.id", orderID))
	defer func() { done(err) }()
	return a.inner.GetOrder(ctx, orderID)
}

func (a *OrderAPI) ListOrders(ctx context.Context) (os []*order.ServiceOrder, err error) {
	ctx, done := a.observe(ctx, "OrderAPI.ListOrders")
	defer func() { done(err) }()
	return a.inner.ListOrders(ctx)
}

func (a *OrderAPI) AverageDuration(ctx context.Context, serviceID string) (r *order.DurationReport, err error) {
	ctx, done := a.observe(ctx, "OrderAPI.AverageDuration", attribute.String("service.id", serviceID))
	defer func() { done(err) }()
	return a.inner.AverageDuration(ctx, serviceID)
}
