package service

import (
	"time"

	"vendor-service/internal/model"

	"gorm.io/gorm"
)

// OrderService applies purchase order lifecycle transitions and triggers
// the vendor metric recomputations they imply. Triggering is an explicit
// call from these methods, not a save hook, so each transition fires its
// side effects exactly once.
type OrderService struct {
	DB   *gorm.DB
	Calc *Calculator
	Now  func() time.Time
}

// NewOrderService constructs an OrderService using wall-clock time.
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{DB: db, Calc: NewCalculator(db), Now: time.Now}
}

func (s *OrderService) vendor(id uint) (*model.Vendor, error) {
	var vendor model.Vendor
	if err := s.DB.First(&vendor, id).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

// Acknowledge stamps the order's acknowledgment date and refreshes the
// vendor's average response time. Idempotent: an already-acknowledged
// order is left untouched and no recomputation runs. Orders that have
// already completed can no longer be acknowledged.
// Returns whether the stamp was applied.
func (s *OrderService) Acknowledge(order *model.PurchaseOrder) (bool, error) {
	if order.AcknowledgmentDate != nil || order.Status == model.StatusCompleted {
		return false, nil
	}

	now := s.Now()
	order.AcknowledgmentDate = &now
	if err := s.DB.Model(order).Update("acknowledgment_date", now).Error; err != nil {
		return false, err
	}

	vendor, err := s.vendor(order.VendorID)
	if err != nil {
		return false, err
	}
	return true, s.Calc.RefreshResponseTime(vendor)
}

// UpdateStatus moves the order to newStatus. Unchanged status is a no-op.
// A transition into completed refreshes the vendor's completion metrics
// and, on the order's first-ever completion, appends one historical
// performance snapshot dated at the order's delivery date.
func (s *OrderService) UpdateStatus(order *model.PurchaseOrder, newStatus string) error {
	if order.Status == newStatus {
		return nil
	}

	order.Status = newStatus
	if err := s.DB.Model(order).Update("status", newStatus).Error; err != nil {
		return err
	}

	if newStatus != model.StatusCompleted {
		return nil
	}
	return s.completeOrder(order)
}

// RecordCompletion runs the completion side effects for an order that was
// created directly in completed status, so the snapshot contract holds
// regardless of how the order reached completion.
func (s *OrderService) RecordCompletion(order *model.PurchaseOrder) error {
	if order.Status != model.StatusCompleted {
		return nil
	}
	return s.completeOrder(order)
}

func (s *OrderService) completeOrder(order *model.PurchaseOrder) error {
	vendor, err := s.vendor(order.VendorID)
	if err != nil {
		return err
	}

	if err := s.Calc.RefreshCompletionMetrics(vendor); err != nil {
		return err
	}

	// Snapshot fires at most once per order, on the first completion.
	if order.MetricsRecorded {
		return nil
	}

	record := model.HistoricalPerformance{
		VendorID:            vendor.ID,
		Date:                order.DeliveryDate,
		OnTimeDeliveryRate:  vendor.OnTimeDeliveryRate,
		QualityRatingAvg:    vendor.QualityRatingAvg,
		AverageResponseTime: vendor.AverageResponseTime,
		FulfillmentRate:     vendor.FulfillmentRate,
	}
	if err := s.DB.Create(&record).Error; err != nil {
		return err
	}

	order.MetricsRecorded = true
	return s.DB.Model(order).Update("metrics_recorded", true).Error
}
