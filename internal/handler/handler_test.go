package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"vendor-service/internal/model"
	"vendor-service/pkg/config"
	"vendor-service/pkg/database"
	"vendor-service/prometheus"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	prometheus.InitMetrics(&config.Config{
		Metrics: config.MetricsConfig{Prefix: "vendor_test"},
	})
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.SetDB(db)
	return db
}

func newJSONContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withID(c echo.Context, id uint) {
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(uint64(id), 10))
}

func TestCreateVendor(t *testing.T) {
	setupTestDB(t)

	c, rec := newJSONContext(t, http.MethodPost, "/api/vendors",
		`{"name":"Acme Parts","vendor_code":"ACME1","email":"acme@example.com"}`)
	require.NoError(t, CreateVendor(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created model.Vendor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Acme Parts", created.Name)
	assert.NotZero(t, created.ID)
}

func TestCreateVendorRejectsMissingFields(t *testing.T) {
	setupTestDB(t)

	c, rec := newJSONContext(t, http.MethodPost, "/api/vendors", `{"name":"No Code"}`)
	require.NoError(t, CreateVendor(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateVendorDuplicateCode(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&model.Vendor{Name: "First", VendorCode: "DUP1"}).Error)

	c, rec := newJSONContext(t, http.MethodPost, "/api/vendors",
		`{"name":"Second","vendor_code":"DUP1"}`)
	require.NoError(t, CreateVendor(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetVendorNotFound(t *testing.T) {
	setupTestDB(t)

	c, rec := newJSONContext(t, http.MethodGet, "/api/vendors/999", "")
	withID(c, 999)
	require.NoError(t, GetVendor(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteVendorNotFound(t *testing.T) {
	setupTestDB(t)

	c, rec := newJSONContext(t, http.MethodDelete, "/api/vendors/999", "")
	withID(c, 999)
	require.NoError(t, DeleteVendor(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteVendorCascades(t *testing.T) {
	db := setupTestDB(t)

	vendor := model.Vendor{Name: "Acme Parts", VendorCode: "ACME1"}
	require.NoError(t, db.Create(&vendor).Error)
	require.NoError(t, db.Create(&model.PurchaseOrder{
		VendorID: vendor.ID, PONumber: "PO-1", Status: model.StatusPending,
	}).Error)
	require.NoError(t, db.Create(&model.HistoricalPerformance{
		VendorID: vendor.ID, Date: time.Now(),
	}).Error)

	c, rec := newJSONContext(t, http.MethodDelete, "/api/vendors/1", "")
	withID(c, vendor.ID)
	require.NoError(t, DeleteVendor(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	var orderCount, recordCount int64
	db.Model(&model.PurchaseOrder{}).Where("vendor_id = ?", vendor.ID).Count(&orderCount)
	db.Model(&model.HistoricalPerformance{}).Where("vendor_id = ?", vendor.ID).Count(&recordCount)
	assert.Zero(t, orderCount)
	assert.Zero(t, recordCount)
}

func TestGetVendorPerformanceNotFound(t *testing.T) {
	setupTestDB(t)

	c, rec := newJSONContext(t, http.MethodGet, "/api/vendors/999/performance", "")
	withID(c, 999)
	require.NoError(t, GetVendorPerformance(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetVendorPerformanceRecomputes(t *testing.T) {
	db := setupTestDB(t)

	vendor := model.Vendor{Name: "Acme Parts", VendorCode: "ACME1"}
	require.NoError(t, db.Create(&vendor).Error)

	past := time.Now().Add(-24 * time.Hour)
	issue := time.Now().Add(-96 * time.Hour)
	ack := issue.Add(3600 * time.Second)
	rating := 5.0
	require.NoError(t, db.Create(&model.PurchaseOrder{
		VendorID: vendor.ID, PONumber: "PO-1", Status: model.StatusCompleted,
		DeliveryDate: past, IssueDate: issue,
		AcknowledgmentDate: &ack, QualityRating: &rating,
	}).Error)
	require.NoError(t, db.Create(&model.PurchaseOrder{
		VendorID: vendor.ID, PONumber: "PO-2", Status: model.StatusCompleted,
		DeliveryDate: past, IssueDate: issue,
	}).Error)
	require.NoError(t, db.Create(&model.PurchaseOrder{
		VendorID: vendor.ID, PONumber: "PO-3", Status: model.StatusPending,
		DeliveryDate: time.Now().Add(24 * time.Hour), IssueDate: issue,
	}).Error)

	c, rec := newJSONContext(t, http.MethodGet, "/api/vendors/1/performance", "")
	withID(c, vendor.ID)
	require.NoError(t, GetVendorPerformance(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 1.0, resp["on_time_delivery_rate"], 1e-9)
	assert.InDelta(t, 5.0, resp["quality_rating_avg"], 1e-9)
	assert.InDelta(t, 3600.0, resp["average_response_time"], 1e-6)
	assert.InDelta(t, 2.0/3.0, resp["fulfillment_rate"], 1e-9)

	// metrics are persisted back onto the vendor record
	var stored model.Vendor
	require.NoError(t, db.First(&stored, vendor.ID).Error)
	assert.InDelta(t, 2.0/3.0, stored.FulfillmentRate, 1e-9)
}

func TestCreatePurchaseOrderUnknownVendor(t *testing.T) {
	setupTestDB(t)

	c, rec := newJSONContext(t, http.MethodPost, "/api/purchase_orders",
		`{"vendor_id":42,"po_number":"PO-1"}`)
	require.NoError(t, CreatePurchaseOrder(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePurchaseOrderBornCompletedSnapshots(t *testing.T) {
	db := setupTestDB(t)

	vendor := model.Vendor{Name: "Acme Parts", VendorCode: "ACME1"}
	require.NoError(t, db.Create(&vendor).Error)

	past := time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339)
	c, rec := newJSONContext(t, http.MethodPost, "/api/purchase_orders",
		`{"vendor_id":`+strconv.Itoa(int(vendor.ID))+`,"po_number":"PO-1","status":"completed","delivery_date":"`+past+`","issue_date":"`+past+`","items":{"bolts":40},"quantity":40}`)
	require.NoError(t, CreatePurchaseOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var count int64
	db.Model(&model.HistoricalPerformance{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestDeletePurchaseOrderNotFound(t *testing.T) {
	setupTestDB(t)

	c, rec := newJSONContext(t, http.MethodDelete, "/api/purchase_orders/999", "")
	withID(c, 999)
	require.NoError(t, DeletePurchaseOrder(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAcknowledgePurchaseOrderNotFound(t *testing.T) {
	setupTestDB(t)

	c, rec := newJSONContext(t, http.MethodPut, "/api/purchase_orders/999/acknowledge", "")
	withID(c, 999)
	require.NoError(t, AcknowledgePurchaseOrder(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAcknowledgePurchaseOrderStampsDate(t *testing.T) {
	db := setupTestDB(t)

	vendor := model.Vendor{Name: "Acme Parts", VendorCode: "ACME1"}
	require.NoError(t, db.Create(&vendor).Error)
	order := model.PurchaseOrder{
		VendorID: vendor.ID, PONumber: "PO-1", Status: model.StatusPending,
		IssueDate: time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(&order).Error)

	c, rec := newJSONContext(t, http.MethodPut, "/api/purchase_orders/1/acknowledge", "")
	withID(c, order.ID)
	require.NoError(t, AcknowledgePurchaseOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored model.PurchaseOrder
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.NotNil(t, stored.AcknowledgmentDate)
}

func TestUpdatePurchaseOrderCompletionCreatesOneSnapshot(t *testing.T) {
	db := setupTestDB(t)

	vendor := model.Vendor{Name: "Acme Parts", VendorCode: "ACME1"}
	require.NoError(t, db.Create(&vendor).Error)
	order := model.PurchaseOrder{
		VendorID: vendor.ID, PONumber: "PO-1", Status: model.StatusPending,
		DeliveryDate: time.Now().Add(-24 * time.Hour),
		IssueDate:    time.Now().Add(-96 * time.Hour),
	}
	require.NoError(t, db.Create(&order).Error)

	body := `{"vendor_id":` + strconv.Itoa(int(vendor.ID)) + `,"po_number":"PO-1","status":"completed","delivery_date":"` +
		order.DeliveryDate.UTC().Format(time.RFC3339) + `","issue_date":"` +
		order.IssueDate.UTC().Format(time.RFC3339) + `"}`

	c, rec := newJSONContext(t, http.MethodPut, "/api/purchase_orders/1", body)
	withID(c, order.ID)
	require.NoError(t, UpdatePurchaseOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// same update again: status unchanged, no extra snapshot
	c, rec = newJSONContext(t, http.MethodPut, "/api/purchase_orders/1", body)
	withID(c, order.ID)
	require.NoError(t, UpdatePurchaseOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	db.Model(&model.HistoricalPerformance{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestListHistoricalPerformanceIncludesVendorName(t *testing.T) {
	db := setupTestDB(t)

	vendor := model.Vendor{Name: "Acme Parts", VendorCode: "ACME1"}
	require.NoError(t, db.Create(&vendor).Error)
	require.NoError(t, db.Create(&model.HistoricalPerformance{
		VendorID: vendor.ID, Date: time.Now(), OnTimeDeliveryRate: 0.75,
	}).Error)

	c, rec := newJSONContext(t, http.MethodGet, "/api/historical_performance", "")
	require.NoError(t, ListHistoricalPerformance(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		HistoricalPerformance []HistoricalPerformanceResponse `json:"historical_performance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.HistoricalPerformance, 1)
	assert.Equal(t, "Acme Parts", resp.HistoricalPerformance[0].VendorName)
	assert.InDelta(t, 0.75, resp.HistoricalPerformance[0].OnTimeDeliveryRate, 1e-9)
}
