package service

import (
	"testing"
	"time"

	"vendor-service/internal/model"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func rating(v float64) *float64 { return &v }

func po(status string, delivery time.Time) model.PurchaseOrder {
	return model.PurchaseOrder{
		Status:       status,
		OrderDate:    testNow.Add(-72 * time.Hour),
		DeliveryDate: delivery,
		IssueDate:    testNow.Add(-72 * time.Hour),
	}
}

func TestMetricsZeroWhenNoOrders(t *testing.T) {
	var orders []model.PurchaseOrder

	assert.Zero(t, OnTimeDeliveryRate(orders, testNow))
	assert.Zero(t, QualityRatingAvg(orders))
	assert.Zero(t, AverageResponseTime(orders))
	assert.Zero(t, FulfillmentRate(orders))
}

func TestMetricsZeroWhenNoCompletedOrders(t *testing.T) {
	orders := []model.PurchaseOrder{
		po(model.StatusPending, testNow.Add(-time.Hour)),
		po(model.StatusCanceled, testNow.Add(-time.Hour)),
	}

	assert.Zero(t, OnTimeDeliveryRate(orders, testNow))
	assert.Zero(t, QualityRatingAvg(orders))
	assert.Zero(t, AverageResponseTime(orders))
}

func TestOnTimeDeliveryRate(t *testing.T) {
	past := testNow.Add(-24 * time.Hour)
	future := testNow.Add(24 * time.Hour)

	orders := []model.PurchaseOrder{
		po(model.StatusCompleted, past),
		po(model.StatusCompleted, future),
		// pending orders never count, past delivery date or not
		po(model.StatusPending, past),
	}
	assert.InDelta(t, 0.5, OnTimeDeliveryRate(orders, testNow), 1e-9)

	// delivery date exactly at the evaluation moment is on time
	orders = append(orders, po(model.StatusCompleted, testNow))
	assert.InDelta(t, 2.0/3.0, OnTimeDeliveryRate(orders, testNow), 1e-9)
}

func TestOnTimeDeliveryRateMonotonicUnderPastCompletions(t *testing.T) {
	past := testNow.Add(-24 * time.Hour)
	orders := []model.PurchaseOrder{
		po(model.StatusCompleted, past),
		po(model.StatusCompleted, testNow.Add(48*time.Hour)),
	}

	prev := OnTimeDeliveryRate(orders, testNow)
	for i := 0; i < 5; i++ {
		orders = append(orders, po(model.StatusCompleted, past))
		cur := OnTimeDeliveryRate(orders, testNow)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestQualityRatingAvgIgnoresUnrated(t *testing.T) {
	rated := po(model.StatusCompleted, testNow)
	rated.QualityRating = rating(4.0)
	ratedHigh := po(model.StatusCompleted, testNow)
	ratedHigh.QualityRating = rating(5.0)
	unrated := po(model.StatusCompleted, testNow)
	pendingRated := po(model.StatusPending, testNow)
	pendingRated.QualityRating = rating(1.0)

	orders := []model.PurchaseOrder{rated, ratedHigh, unrated, pendingRated}
	assert.InDelta(t, 4.5, QualityRatingAvg(orders), 1e-9)
}

func TestAverageResponseTimeExcludesUnacknowledged(t *testing.T) {
	acked := po(model.StatusCompleted, testNow)
	ackTime := acked.IssueDate.Add(2 * time.Hour)
	acked.AcknowledgmentDate = &ackTime

	slow := po(model.StatusCompleted, testNow)
	slowAck := slow.IssueDate.Add(4 * time.Hour)
	slow.AcknowledgmentDate = &slowAck

	unacked := po(model.StatusCompleted, testNow)

	orders := []model.PurchaseOrder{acked, slow, unacked}
	assert.InDelta(t, 3*3600.0, AverageResponseTime(orders), 1e-9)
}

func TestFulfillmentRate(t *testing.T) {
	orders := []model.PurchaseOrder{
		po(model.StatusCompleted, testNow),
		po(model.StatusPending, testNow),
		po(model.StatusCanceled, testNow),
		po(model.StatusCompleted, testNow),
	}
	assert.InDelta(t, 0.5, FulfillmentRate(orders), 1e-9)
}

// Worked scenario: two completed orders with past delivery dates and one
// pending order; one completed order rated 5.0 and acknowledged an hour
// after issue, the other unrated and unacknowledged.
func TestVendorScenario(t *testing.T) {
	first := po(model.StatusCompleted, testNow.Add(-48*time.Hour))
	first.QualityRating = rating(5.0)
	ack := first.IssueDate.Add(3600 * time.Second)
	first.AcknowledgmentDate = &ack

	second := po(model.StatusCompleted, testNow.Add(-24*time.Hour))
	third := po(model.StatusPending, testNow.Add(24*time.Hour))

	orders := []model.PurchaseOrder{first, second, third}

	assert.InDelta(t, 1.0, OnTimeDeliveryRate(orders, testNow), 1e-9)
	assert.InDelta(t, 5.0, QualityRatingAvg(orders), 1e-9)
	assert.InDelta(t, 3600.0, AverageResponseTime(orders), 1e-9)
	assert.InDelta(t, 2.0/3.0, FulfillmentRate(orders), 1e-9)
}
