package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"vendor-service/internal/model"
	"vendor-service/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sent    []sentMail
	failFor map[string]error
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if err, ok := m.failFor[to]; ok {
		return err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedSnapshot(t *testing.T, db *gorm.DB, vendorID uint, date time.Time, onTime float64) {
	t.Helper()
	require.NoError(t, db.Create(&model.HistoricalPerformance{
		VendorID:            vendorID,
		Date:                date,
		OnTimeDeliveryRate:  onTime,
		QualityRatingAvg:    4.5,
		AverageResponseTime: 3600,
		FulfillmentRate:     0.9,
	}).Error)
}

func TestSendPerformanceReportsUsesLatestSnapshot(t *testing.T) {
	db := newTestDB(t)

	vendor := model.Vendor{Name: "Acme Parts", VendorCode: "ACME1", Email: "acme@example.com"}
	require.NoError(t, db.Create(&vendor).Error)

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	seedSnapshot(t, db, vendor.ID, older, 0.5)
	seedSnapshot(t, db, vendor.ID, newer, 0.75)

	mailer := &fakeMailer{}
	notifier := NewNotifier(db, mailer)

	sent, err := notifier.SendPerformanceReports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "acme@example.com", mailer.sent[0].to)
	assert.Equal(t, "Latest Performance Report", mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "Acme Parts")
	assert.Contains(t, mailer.sent[0].body, "On-time Delivery Rate: 0.75")
}

func TestSendPerformanceReportsSkipsVendorsWithoutHistoryOrEmail(t *testing.T) {
	db := newTestDB(t)

	noHistory := model.Vendor{Name: "Fresh Vendor", VendorCode: "NEW1", Email: "fresh@example.com"}
	require.NoError(t, db.Create(&noHistory).Error)

	noEmail := model.Vendor{Name: "Silent Vendor", VendorCode: "SIL1"}
	require.NoError(t, db.Create(&noEmail).Error)
	seedSnapshot(t, db, noEmail.ID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 0.6)

	mailer := &fakeMailer{}
	notifier := NewNotifier(db, mailer)

	sent, err := notifier.SendPerformanceReports(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, mailer.sent)
}

func TestSendPerformanceReportsContinuesPastDeliveryFailures(t *testing.T) {
	db := newTestDB(t)

	broken := model.Vendor{Name: "Broken Mail", VendorCode: "BRK1", Email: "broken@example.com"}
	require.NoError(t, db.Create(&broken).Error)
	seedSnapshot(t, db, broken.ID, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 0.4)

	healthy := model.Vendor{Name: "Healthy Mail", VendorCode: "OK1", Email: "ok@example.com"}
	require.NoError(t, db.Create(&healthy).Error)
	seedSnapshot(t, db, healthy.ID, time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), 0.8)

	mailer := &fakeMailer{failFor: map[string]error{"broken@example.com": errors.New("smtp down")}}
	notifier := NewNotifier(db, mailer)

	sent, err := notifier.SendPerformanceReports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ok@example.com", mailer.sent[0].to)
}

func TestBuildReport(t *testing.T) {
	vendor := model.Vendor{Name: "Acme Parts"}
	record := model.HistoricalPerformance{
		Date:                time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		OnTimeDeliveryRate:  1,
		QualityRatingAvg:    5,
		AverageResponseTime: 3600,
		FulfillmentRate:     0.5,
	}

	body := BuildReport(vendor, record)
	assert.Contains(t, body, "Dear Acme Parts,")
	assert.Contains(t, body, "Date: 2024-05-01T00:00:00Z")
	assert.Contains(t, body, "On-time Delivery Rate: 1")
	assert.Contains(t, body, "Quality Rating Average: 5")
	assert.Contains(t, body, "Average Response Time: 3600")
	assert.Contains(t, body, "Fulfillment Rate: 0.5")
}
