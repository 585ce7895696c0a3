package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"

	"github.com/dorneles/workshop-api/internal/domain/catalog"
)

// DurationReport is the average turnaround time for orders that billed a
// given catalog service. Available is false when no completed order carries
// the service, in which case Formatted reads "N/A".
type DurationReport struct {
	ServiceID      string
	ServiceName    string
	Available      bool
	AverageMinutes int64
	Formatted      string
	AnalyzedOrders int
}

// AverageDuration computes the mean elapsed time between creation and
// completion across all orders carrying the given service.
//
// An order counts when it reached Completed or Delivered and its completion
// timestamp is set; orders marked completed without a timestamp are
// skipped. Elapsed time is truncated to whole minutes, and so is the mean.
func (s *Service) AverageDuration(ctx context.Context, serviceID string) (*DurationReport, error) {
	svc, err := s.services.FindByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, catalog.ErrServiceNotFound) {
			return nil, &NotFoundError{Kind: "service", Key: serviceID}
		}
		return nil, errors.Wrap(err, "find service")
	}

	all, err := s.orders.FindAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}

	var (
		count int
		sum   int64
	)
	for _, o := range all {
		if o.Status != StatusCompleted && o.Status != StatusDelivered {
			continue
		}
		if o.CompletedAt == nil || !o.HasService(serviceID) {
			continue
		}
		sum += int64(o.CompletedAt.Sub(o.CreatedAt) / time.Minute)
		count++
	}

	report := &DurationReport{
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
	}
	if count == 0 {
		report.Formatted = "N/A"
		return report, nil
	}

	mean := sum / int64(count)
	report.Available = true
	report.AverageMinutes = mean
	report.Formatted = fmt.Sprintf("%d hour(s) and %d minutes", mean/60, mean%60)
	report.AnalyzedOrders = count
	return report, nil
}
