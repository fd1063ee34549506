package service

import (
	"time"

	"vendor-service/internal/model"

	"gorm.io/gorm"
)

// OnTimeDeliveryRate returns the fraction of completed orders whose
// delivery date has already passed at the evaluation moment.
// An order counts as on time iff its scheduled delivery date <= now;
// there is no actual-delivery timestamp to compare against.
func OnTimeDeliveryRate(orders []model.PurchaseOrder, now time.Time) float64 {
	var completed, onTime int
	for _, o := range orders {
		if o.Status != model.StatusCompleted {
			continue
		}
		completed++
		if !o.DeliveryDate.After(now) {
			onTime++
		}
	}
	if completed == 0 {
		return 0
	}
	return float64(onTime) / float64(completed)
}

// QualityRatingAvg returns the mean quality rating over completed orders
// that have a rating set. Unrated orders are excluded, not counted as zero.
func QualityRatingAvg(orders []model.PurchaseOrder) float64 {
	var sum float64
	var rated int
	for _, o := range orders {
		if o.Status != model.StatusCompleted || o.QualityRating == nil {
			continue
		}
		sum += *o.QualityRating
		rated++
	}
	if rated == 0 {
		return 0
	}
	return sum / float64(rated)
}

// AverageResponseTime returns the mean acknowledgment delay in seconds
// over completed orders that have been acknowledged.
func AverageResponseTime(orders []model.PurchaseOrder) float64 {
	var sum float64
	var acked int
	for _, o := range orders {
		if o.Status != model.StatusCompleted || o.AcknowledgmentDate == nil {
			continue
		}
		sum += o.AcknowledgmentDate.Sub(o.IssueDate).Seconds()
		acked++
	}
	if acked == 0 {
		return 0
	}
	return sum / float64(acked)
}

// FulfillmentRate returns completed orders over all orders.
func FulfillmentRate(orders []model.PurchaseOrder) float64 {
	var completed int
	if len(orders) == 0 {
		return 0
	}
	for _, o := range orders {
		if o.Status == model.StatusCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(orders))
}

// Calculator derives a vendor's performance metrics from its purchase
// order history and persists them back onto the vendor record.
type Calculator struct {
	DB  *gorm.DB
	Now func() time.Time
}

// NewCalculator constructs a Calculator using wall-clock time.
func NewCalculator(db *gorm.DB) *Calculator {
	return &Calculator{DB: db, Now: time.Now}
}

func (c *Calculator) orders(vendorID uint) ([]model.PurchaseOrder, error) {
	var orders []model.PurchaseOrder
	err := c.DB.Where("vendor_id = ?", vendorID).Find(&orders).Error
	return orders, err
}

// RefreshResponseTime recomputes and persists the vendor's average
// response time. Invoked on the acknowledgment path.
func (c *Calculator) RefreshResponseTime(vendor *model.Vendor) error {
	orders, err := c.orders(vendor.ID)
	if err != nil {
		return err
	}
	vendor.AverageResponseTime = AverageResponseTime(orders)
	return c.DB.Model(vendor).
		Update("average_response_time", vendor.AverageResponseTime).Error
}

// RefreshCompletionMetrics recomputes and persists the metrics affected
// by an order reaching completed status: on-time delivery rate, quality
// rating average and fulfillment rate. Response time is deliberately
// left alone here; it only moves on acknowledgment.
func (c *Calculator) RefreshCompletionMetrics(vendor *model.Vendor) error {
	orders, err := c.orders(vendor.ID)
	if err != nil {
		return err
	}
	vendor.OnTimeDeliveryRate = OnTimeDeliveryRate(orders, c.Now())
	vendor.QualityRatingAvg = QualityRatingAvg(orders)
	vendor.FulfillmentRate = FulfillmentRate(orders)
	return c.DB.Model(vendor).Updates(map[string]interface{}{
		"on_time_delivery_rate": vendor.OnTimeDeliveryRate,
		"quality_rating_avg":    vendor.QualityRatingAvg,
		"fulfillment_rate":      vendor.FulfillmentRate,
	}).Error
}

// RefreshAll recomputes and persists all four metrics. Used by the
// vendor performance endpoint.
func (c *Calculator) RefreshAll(vendor *model.Vendor) error {
	orders, err := c.orders(vendor.ID)
	if err != nil {
		return err
	}
	vendor.OnTimeDeliveryRate = OnTimeDeliveryRate(orders, c.Now())
	vendor.QualityRatingAvg = QualityRatingAvg(orders)
	vendor.AverageResponseTime = AverageResponseTime(orders)
	vendor.FulfillmentRate = FulfillmentRate(orders)
	return c.DB.Model(vendor).Updates(map[string]interface{}{
		"on_time_delivery_rate": vendor.OnTimeDeliveryRate,
		"quality_rating_avg":    vendor.QualityRatingAvg,
		"average_response_time": vendor.AverageResponseTime,
		"fulfillment_rate":      vendor.FulfillmentRate,
	}).Error
}
