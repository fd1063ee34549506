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

// PurchaseOrderRequest defines the structure for purchase order creation/update requests
type PurchaseOrderRequest struct {
	VendorID      uint          `json:"vendor_id"`
	PONumber      string        `json:"po_number"`
	OrderDate     time.Time     `json:"order_date"`
	DeliveryDate  time.Time     `json:"delivery_date"`
	Items         model.ItemMap `json:"items"`
	Quantity      int           `json:"quantity"`
	Status        string        `json:"status"`
	QualityRating *float64      `json:"quality_rating,omitempty"`
	IssueDate     time.Time     `json:"issue_date"`
}

// CreatePurchaseOrder creates a new purchase order
func CreatePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new purchase order")
	prometheus.RecordPurchaseOrderOperation("create")

	var req PurchaseOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if req.VendorID == 0 || req.PONumber == "" {
		log.Warn("Missing required purchase order fields",
			zap.Uint("vendor_id", req.VendorID),
			zap.String("po_number", req.PONumber))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "vendor_id and po_number are required",
		})
	}

	if req.Status == "" {
		req.Status = model.StatusPending
	}
	if !model.ValidStatus(req.Status) {
		log.Warn("Invalid purchase order status", zap.String("status", req.Status))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "status must be one of pending, completed, canceled",
		})
	}

	// The owning vendor must exist
	var vendor model.Vendor
	if err := database.GetDB().First(&vendor, req.VendorID).Error; err != nil {
		log.Warn("Vendor not found for purchase order",
			zap.Uint("vendor_id", req.VendorID))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "vendor not found",
		})
	}

	// Check if an order with the same number exists
	var count int64
	database.GetDB().Model(&model.PurchaseOrder{}).
		Where("po_number = ?", req.PONumber).
		Count(&count)
	if count > 0 {
		log.Warn("Purchase order with this number already exists",
			zap.String("po_number", req.PONumber))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Purchase order with this number already exists",
		})
	}

	order := model.PurchaseOrder{
		VendorID:      req.VendorID,
		PONumber:      req.PONumber,
		OrderDate:     req.OrderDate,
		DeliveryDate:  req.DeliveryDate,
		Items:         req.Items,
		Quantity:      req.Quantity,
		Status:        req.Status,
		QualityRating: req.QualityRating,
		IssueDate:     req.IssueDate,
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	if result := database.GetDB().Create(&order); result.Error != nil {
		log.Error("Failed to create purchase order",
			zap.String("po_number", req.PONumber),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create purchase order",
		})
	}

	// An order born completed runs the same completion path as a
	// status transition: metric refresh plus one snapshot.
	if order.Status == model.StatusCompleted {
		svc := service.NewOrderService(database.GetDB())
		if err := svc.RecordCompletion(&order); err != nil {
			log.Error("Failed to record completion for new purchase order",
				zap.Uint("po_id", order.ID),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": err.Error(),
			})
		}
		prometheus.MetricRecalculationsCounter.Inc()
		prometheus.SnapshotsCreatedCounter.Inc()
	}

	log.Info("Purchase order created successfully",
		zap.Uint("id", order.ID),
		zap.String("po_number", order.PONumber),
		zap.Uint("vendor_id", order.VendorID))
	return c.JSON(http.StatusCreated, order)
}

// GetPurchaseOrder retrieves a purchase order by ID
func GetPurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPurchaseOrderOperation("get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid purchase order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid purchase order ID",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var order model.PurchaseOrder
	if result := database.GetDB().First(&order, id); result.Error != nil {
		log.Warn("Purchase order not found", zap.Uint64("po_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	return c.JSON(http.StatusOK, order)
}

// ListPurchaseOrders retrieves purchase orders with optional filters
func ListPurchaseOrders(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPurchaseOrderOperation("list")

	// Parse query parameters for pagination
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20 // Default limit
	}

	offset := (page - 1) * limit

	query := database.GetDB().Model(&model.PurchaseOrder{})

	// Filter by vendor if specified
	if vendorID := c.QueryParam("vendor_id"); vendorID != "" {
		if vid, err := strconv.ParseUint(vendorID, 10, 32); err == nil {
			query = query.Where("vendor_id = ?", vid)
		} else {
			log.Warn("Invalid vendor_id parameter", zap.String("value", vendorID))
		}
	}

	// Filter by status if specified
	if status := c.QueryParam("status"); status != "" {
		if model.ValidStatus(status) {
			query = query.Where("status = ?", status)
		} else {
			log.Warn("Invalid status parameter", zap.String("value", status))
		}
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var orders []model.PurchaseOrder
	result := query.
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&orders)
	if result.Error != nil {
		log.Error("Failed to retrieve purchase orders", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve purchase orders",
		})
	}

	var total int64
	query.Limit(-1).Offset(-1).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"purchase_orders": orders,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// UpdatePurchaseOrder updates an existing purchase order. Status changes
// go through the transition service so metric recomputation and snapshot
// writes fire on the completion edge. The acknowledgment date is never
// modified here.
func UpdatePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPurchaseOrderOperation("update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid purchase order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid purchase order ID",
		})
	}

	var req PurchaseOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.Uint64("po_id", id),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	var order model.PurchaseOrder
	if result := database.GetDB().First(&order, id); result.Error != nil {
		log.Warn("Purchase order not found for update", zap.Uint64("po_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	if req.Status != "" && !model.ValidStatus(req.Status) {
		log.Warn("Invalid purchase order status", zap.String("status", req.Status))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "status must be one of pending, completed, canceled",
		})
	}

	// Check if the order number is changed and if the new one already exists
	if req.PONumber != "" && req.PONumber != order.PONumber {
		var count int64
		database.GetDB().Model(&model.PurchaseOrder{}).
			Where("po_number = ? AND id != ?", req.PONumber, id).
			Count(&count)
		if count > 0 {
			log.Warn("Purchase order with this number already exists",
				zap.String("po_number", req.PONumber))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Purchase order with this number already exists",
			})
		}
		order.PONumber = req.PONumber
	}

	order.OrderDate = req.OrderDate
	order.DeliveryDate = req.DeliveryDate
	order.Items = req.Items
	order.Quantity = req.Quantity
	order.QualityRating = req.QualityRating
	order.IssueDate = req.IssueDate

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	if result := database.GetDB().Model(&order).Updates(map[string]interface{}{
		"po_number":      order.PONumber,
		"order_date":     order.OrderDate,
		"delivery_date":  order.DeliveryDate,
		"items":          order.Items,
		"quantity":       order.Quantity,
		"quality_rating": order.QualityRating,
		"issue_date":     order.IssueDate,
	}); result.Error != nil {
		log.Error("Failed to update purchase order",
			zap.Uint64("po_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update purchase order",
		})
	}

	// Apply the status transition last, with the order fields settled
	if req.Status != "" && req.Status != order.Status {
		svc := service.NewOrderService(database.GetDB())
		oldStatus := order.Status
		if err := svc.UpdateStatus(&order, req.Status); err != nil {
			log.Error("Failed to apply status transition",
				zap.Uint64("po_id", id),
				zap.String("from", oldStatus),
				zap.String("to", req.Status),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": err.Error(),
			})
		}
		if req.Status == model.StatusCompleted {
			prometheus.MetricRecalculationsCounter.Inc()
		}
		log.Info("Purchase order status changed",
			zap.Uint64("po_id", id),
			zap.String("from", oldStatus),
			zap.String("to", req.Status))
	}

	log.Info("Purchase order updated successfully",
		zap.Uint64("po_id", id),
		zap.String("po_number", order.PONumber))
	return c.JSON(http.StatusOK, order)
}

// DeletePurchaseOrder deletes a purchase order
func DeletePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPurchaseOrderOperation("delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid purchase order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid purchase order ID",
		})
	}

	var order model.PurchaseOrder
	if result := database.GetDB().First(&order, id); result.Error != nil {
		log.Warn("Purchase order not found for delete", zap.Uint64("po_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	if result := database.GetDB().Delete(&order); result.Error != nil {
		log.Error("Failed to delete purchase order",
			zap.Uint64("po_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete purchase order",
		})
	}

	log.Info("Purchase order deleted successfully",
		zap.Uint64("po_id", id),
		zap.String("po_number", order.PONumber))
	return c.NoContent(http.StatusNoContent)
}

// AcknowledgePurchaseOrder stamps the acknowledgment date on an order
// and refreshes the vendor's average response time. Acknowledging an
// already-acknowledged order is a no-op.
func AcknowledgePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPurchaseOrderOperation("acknowledge")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid purchase order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid purchase order ID",
		})
	}

	var order model.PurchaseOrder
	if result := database.GetDB().First(&order, id); result.Error != nil {
		log.Warn("Purchase order not found for acknowledgment", zap.Uint64("po_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	svc := service.NewOrderService(database.GetDB())
	acknowledged, err := svc.Acknowledge(&order)
	if err != nil {
		log.Error("Failed to acknowledge purchase order",
			zap.Uint64("po_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": err.Error(),
		})
	}

	if acknowledged {
		prometheus.MetricRecalculationsCounter.Inc()
		log.Info("Purchase order acknowledged",
			zap.Uint64("po_id", id),
			zap.Timep("acknowledgment_date", order.AcknowledgmentDate))
	} else {
		log.Info("Purchase order already acknowledged or completed, no-op",
			zap.Uint64("po_id", id))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Acknowledgment date updated",
	})
}
