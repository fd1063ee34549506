package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Purchase order lifecycle statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

// ValidStatus reports whether s is a known purchase order status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// ItemMap stores the ordered item manifest as a JSON column (item name -> quantity).
type ItemMap map[string]int

// Value implements driver.Valuer for JSON serialization
func (m ItemMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSON deserialization
func (m *ItemMap) Scan(value interface{}) error {
	if value == nil {
		*m = ItemMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for ItemMap")
	}
	return json.Unmarshal(data, m)
}

// PurchaseOrder represents a single transactional order placed with a vendor.
//
// AcknowledgmentDate, once set, is never cleared or changed.
// MetricsRecorded tracks whether this order has already produced a
// historical performance snapshot, so the snapshot fires exactly once
// on the first transition into completed status.
type PurchaseOrder struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	VendorID           uint           `json:"vendor_id" gorm:"index;not null"`
	Vendor             *Vendor        `json:"-" gorm:"foreignKey:VendorID"`
	PONumber           string         `json:"po_number" gorm:"type:varchar(50);uniqueIndex;not null"`
	OrderDate          time.Time      `json:"order_date"`
	DeliveryDate       time.Time      `json:"delivery_date"`
	Items              ItemMap        `json:"items" gorm:"type:jsonb"`
	Quantity           int            `json:"quantity" gorm:"default:0"`
	Status             string         `json:"status" gorm:"type:varchar(20);index;default:pending"`
	QualityRating      *float64       `json:"quality_rating,omitempty"`
	IssueDate          time.Time      `json:"issue_date"`
	AcknowledgmentDate *time.Time     `json:"acknowledgment_date,omitempty"`
	MetricsRecorded    bool           `json:"-"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
