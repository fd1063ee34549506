package model

import "time"

// HistoricalPerformance is an immutable snapshot of a vendor's four
// performance metrics, appended when a purchase order first reaches
// completed status. Records are create-once: never updated or deleted
// outside of a vendor cascade.
type HistoricalPerformance struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	VendorID            uint      `json:"vendor_id" gorm:"index;not null"`
	Vendor              *Vendor   `json:"-" gorm:"foreignKey:VendorID"`
	Date                time.Time `json:"date" gorm:"index"`
	OnTimeDeliveryRate  float64   `json:"on_time_delivery_rate"`
	QualityRatingAvg    float64   `json:"quality_rating_avg"`
	AverageResponseTime float64   `json:"average_response_time"`
	FulfillmentRate     float64   `json:"fulfillment_rate"`
	CreatedAt           time.Time `json:"created_at"`
}
