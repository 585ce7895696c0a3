package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedOrder(serviceID string, status Status, elapsed time.Duration) *ServiceOrder {
	created := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	completed := created.Add(elapsed)
	return &ServiceOrder{
		ID:         "ord-" + serviceID + "-" + elapsed.String(),
		CustomerID: "cust-1",
		VehicleID:  "veh-1",
		Status:     status,
		ServiceLines: []ServiceLine{
			{ID: "line-1", ServiceID: serviceID, Name: "Service", Quantity: 1},
		},
		CreatedAt:   created,
		CompletedAt: &completed,
	}
}

func TestAverageDuration_MeanAcrossOrders(t *testing.T) {
	f := newFixture()
	f.store.orders["a"] = completedOrder("svc-oil", StatusCompleted, 60*time.Minute)
	f.store.orders["b"] = completedOrder("svc-oil", StatusDelivered, 120*time.Minute)

	report, err := f.svc.AverageDuration(context.Background(), "svc-oil")

	require.NoError(t, err)
	assert.True(t, report.Available)
	assert.Equal(t, int64(90), report.AverageMinutes)
	assert.Equal(t, "1 hour(s) and 30 minutes", report.Formatted)
	assert.Equal(t, 2, report.AnalyzedOrders)
	assert.Equal(t, "Oil change", report.ServiceName)
}

func TestAverageDuration_SubHourFormat(t *testing.T) {
	f := newFixture()
	f.store.orders["a"] = completedOrder("svc-oil", StatusCompleted, 45*time.Minute)

	report, err := f.svc.AverageDuration(context.Background(), "svc-oil")

	require.NoError(t, err)
	assert.Equal(t, "0 hour(s) and 45 minutes", report.Formatted)
	assert.Equal(t, int64(45), report.AverageMinutes)
}

func TestAverageDuration_TruncatesToWholeMinutes(t *testing.T) {
	f := newFixture()
	f.store.orders["a"] = completedOrder("svc-oil", StatusCompleted, 30*time.Minute+59*time.Second)
	f.store.orders["b"] = completedOrder("svc-oil", StatusCompleted, 31*time.Minute)

	report, err := f.svc.AverageDuration(context.Background(), "svc-oil")

	require.NoError(t, err)
	// 30m59s truncates to 30 before averaging with 31.
	assert.Equal(t, int64(30), report.AverageMinutes)
}

func TestAverageDuration_NoQualifyingOrders(t *testing.T) {
	f := newFixture()

	report, err := f.svc.AverageDuration(context.Background(), "svc-oil")

	require.NoError(t, err)
	assert.False(t, report.Available)
	assert.Equal(t, "N/A", report.Formatted)
	assert.Equal(t, 0, report.AnalyzedOrders)
	assert.Equal(t, int64(0), report.AverageMinutes)
}

func TestAverageDuration_SkipsNonQualifyingOrders(t *testing.T) {
	f := newFixture()

	inProgress := completedOrder("svc-oil", StatusInExecution, 600*time.Minute)
	f.store.orders["in-progress"] = inProgress

	noTimestamp := completedOrder("svc-oil", StatusCompleted, 600*time.Minute)
	noTimestamp.CompletedAt = nil
	f.store.orders["no-timestamp"] = noTimestamp

	f.store.orders["other-service"] = completedOrder("svc-other", StatusCompleted, 600*time.Minute)
	f.store.orders["qualifying"] = completedOrder("svc-oil", StatusCompleted, 60*time.Minute)

	report, err := f.svc.AverageDuration(context.Background(), "svc-oil")

	require.NoError(t, err)
	assert.Equal(t, 1, report.AnalyzedOrders)
	assert.Equal(t, int64(60), report.AverageMinutes)
	assert.Equal(t, "1 hour(s) and 0 minutes", report.Formatted)
}

func TestAverageDuration_ServiceNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.AverageDuration(context.Background(), "svc-missing")

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "service", nfErr.Kind)
}
