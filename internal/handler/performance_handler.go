package handler

import (
	"net/http"
	"strconv"
	"time"

	"vendor-service/internal/model"
	"vendor-service/internal/service"
	"vendor-service/pkg/database"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// GetVendorPerformance recomputes all four performance metrics for a
// vendor from its purchase order history, persists them and returns them.
func GetVendorPerformance(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("performance")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	var vendor model.Vendor
	if result := database.GetDB().First(&vendor, id); result.Error != nil {
		log.Warn("Vendor not found for performance lookup", zap.Uint64("vendor_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	calc := service.NewCalculator(database.GetDB())
	if err := calc.RefreshAll(&vendor); err != nil {
		log.Error("Failed to compute vendor performance",
			zap.Uint64("vendor_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": err.Error(),
		})
	}
	prometheus.MetricRecalculationsCounter.Inc()

	log.Info("Vendor performance computed",
		zap.Uint64("vendor_id", id),
		zap.Float64("on_time_delivery_rate", vendor.OnTimeDeliveryRate),
		zap.Float64("quality_rating_avg", vendor.QualityRatingAvg),
		zap.Float64("average_response_time", vendor.AverageResponseTime),
		zap.Float64("fulfillment_rate", vendor.FulfillmentRate))

	return c.JSON(http.StatusOK, echo.Map{
		"on_time_delivery_rate": vendor.OnTimeDeliveryRate,
		"quality_rating_avg":    vendor.QualityRatingAvg,
		"average_response_time": vendor.AverageResponseTime,
		"fulfillment_rate":      vendor.FulfillmentRate,
	})
}

// HistoricalPerformanceResponse is one snapshot row in the history listing
type HistoricalPerformanceResponse struct {
	VendorName          string    `json:"vendor_name"`
	Date                time.Time `json:"date"`
	OnTimeDeliveryRate  float64   `json:"on_time_delivery_rate"`
	QualityRatingAvg    float64   `json:"quality_rating_avg"`
	AverageResponseTime float64   `json:"average_response_time"`
	FulfillmentRate     float64   `json:"fulfillment_rate"`
}

// ListHistoricalPerformance retrieves all historical performance
// snapshots, newest first
func ListHistoricalPerformance(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("history")

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var records []model.HistoricalPerformance
	result := database.GetDB().
		Preload("Vendor").
		Order("date desc").
		Find(&records)
	if result.Error != nil {
		log.Error("Failed to retrieve historical performance", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve historical performance",
		})
	}

	response := make([]HistoricalPerformanceResponse, 0, len(records))
	for _, record := range records {
		row := HistoricalPerformanceResponse{
			Date:                record.Date,
			OnTimeDeliveryRate:  record.OnTimeDeliveryRate,
			QualityRatingAvg:    record.QualityRatingAvg,
			AverageResponseTime: record.AverageResponseTime,
			FulfillmentRate:     record.FulfillmentRate,
		}
		if record.Vendor != nil {
			row.VendorName = record.Vendor.Name
		}
		response = append(response, row)
	}

	log.Info("Historical performance retrieved", zap.Int("count", len(response)))
	return c.JSON(http.StatusOK, echo.Map{
		"historical_performance": response,
	})
}
