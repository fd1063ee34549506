package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vendor-service/internal/model"
	"vendor-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Mailer delivers a single message to an external mail transport.
type Mailer interface {
	Send(to, subject, body string) error
}

// Notifier sends each vendor its most recent performance snapshot by email.
// Delivery failures are logged and skipped; there is no retry.
type Notifier struct {
	DB     *gorm.DB
	Mailer Mailer
	Now    func() time.Time
}

// NewNotifier constructs a Notifier using wall-clock time.
func NewNotifier(db *gorm.DB, mailer Mailer) *Notifier {
	return &Notifier{DB: db, Mailer: mailer, Now: time.Now}
}

// SendPerformanceReports dispatches the latest snapshot report to every
// vendor that has one and has an email address on file. Returns the
// number of reports sent.
func (n *Notifier) SendPerformanceReports(ctx context.Context) (int, error) {
	log := logger.FromStdContext(ctx)

	var vendors []model.Vendor
	if err := n.DB.Find(&vendors).Error; err != nil {
		return 0, err
	}

	sent := 0
	for _, vendor := range vendors {
		var record model.HistoricalPerformance
		err := n.DB.Where("vendor_id = ?", vendor.ID).
			Order("date desc").
			First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return sent, err
		}

		if vendor.Email == "" {
			log.Warn("Vendor has no email address, skipping report",
				zap.Uint("vendor_id", vendor.ID),
				zap.String("vendor_name", vendor.Name))
			continue
		}

		body := BuildReport(vendor, record)
		if err := n.Mailer.Send(vendor.Email, "Latest Performance Report", body); err != nil {
			log.Error("Failed to send performance report",
				zap.Uint("vendor_id", vendor.ID),
				zap.String("email", vendor.Email),
				zap.Error(err))
			continue
		}

		sent++
		log.Info("Performance report sent",
			zap.Uint("vendor_id", vendor.ID),
			zap.String("email", vendor.Email),
			zap.Time("snapshot_date", record.Date))
	}

	return sent, nil
}

// BuildReport formats the email body for a vendor's latest snapshot.
func BuildReport(vendor model.Vendor, record model.HistoricalPerformance) string {
	return fmt.Sprintf(
		"Dear %s,\nHere is your latest performance report:\n\n"+
			"Date: %s\n"+
			"On-time Delivery Rate: %g\n"+
			"Quality Rating Average: %g\n"+
			"Average Response Time: %g\n"+
			"Fulfillment Rate: %g\n",
		vendor.Name,
		record.Date.Format(time.RFC3339),
		record.OnTimeDeliveryRate,
		record.QualityRatingAvg,
		record.AverageResponseTime,
		record.FulfillmentRate,
	)
}
