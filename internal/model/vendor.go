package model

import (
	"time"

	"gorm.io/gorm"
)

// Vendor represents a supplier tracked with aggregate performance metrics.
// The four metric fields are derived from the vendor's purchase orders and
// cached here for fast reads; they are refreshed by the service layer
// whenever the underlying orders change.
type Vendor struct {
	ID                  uint           `json:"id" gorm:"primaryKey"`
	Name                string         `json:"name" gorm:"type:varchar(100);not null"`
	ContactDetails      string         `json:"contact_details" gorm:"type:text"`
	Address             string         `json:"address" gorm:"type:text"`
	VendorCode          string         `json:"vendor_code" gorm:"type:varchar(50);uniqueIndex;not null"`
	Email               string         `json:"email" gorm:"type:varchar(100)"`
	OnTimeDeliveryRate  float64        `json:"on_time_delivery_rate" gorm:"default:0"`
	QualityRatingAvg    float64        `json:"quality_rating_avg" gorm:"default:0"`
	AverageResponseTime float64        `json:"average_response_time" gorm:"default:0"`
	FulfillmentRate     float64        `json:"fulfillment_rate" gorm:"default:0"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
