// Package notify implements the order completion notification port.
package notify

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/dorneles/workshop-api/internal/domain/customer"
	"github.com/dorneles/workshop-api/internal/domain/order"
)

var _ order.Notifier = (*LogNotifier)(nil)

// LogNotifier records completion notifications in the application log. It
// stands in for a real delivery channel (e-mail, SMS) and never fails, so
// the workflow's swallow-and-log policy is exercised only by outages of a
// real channel.
type LogNotifier struct{}

// NewLogNotifier returns a LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// NotifyCompletion logs that the customer's order is ready for pickup.
func (n *LogNotifier) NotifyCompletion(ctx context.Context, o *order.ServiceOrder, c *customer.Customer) error {
	zctx.From(ctx).Info("order completed, customer notified",
		zap.String("order_id", o.ID),
		zap.String("customer_id", c.ID),
		zap.String("customer_email", c.Email),
		zap.String("total", o.Total.String()),
	)
	return nil
}
