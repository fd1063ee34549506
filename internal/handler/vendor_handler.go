package handler

import (
	"net/http"
	"strconv"
	"time"

	"vendor-service/internal/model"
	"vendor-service/pkg/database"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VendorRequest defines the structure for vendor creation/update requests
type VendorRequest struct {
	Name           string `json:"name"`
	ContactDetails string `json:"contact_details"`
	Address        string `json:"address"`
	VendorCode     string `json:"vendor_code"`
	Email          string `json:"email"`
}

// CreateVendor creates a new vendor
func CreateVendor(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new vendor")
	prometheus.RecordVendorOperation("create")

	var req VendorRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if req.Name == "" || req.VendorCode == "" {
		log.Warn("Missing required vendor fields",
			zap.String("name", req.Name),
			zap.String("vendor_code", req.VendorCode))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "name and vendor_code are required",
		})
	}

	// Check if a vendor with the same code exists
	var count int64
	database.GetDB().Model(&model.Vendor{}).
		Where("vendor_code = ?", req.VendorCode).
		Count(&count)
	if count > 0 {
		log.Warn("Vendor with this code already exists",
			zap.String("vendor_code", req.VendorCode))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Vendor with this code already exists",
		})
	}

	vendor := model.Vendor{
		Name:           req.Name,
		ContactDetails: req.ContactDetails,
		Address:        req.Address,
		VendorCode:     req.VendorCode,
		Email:          req.Email,
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	result := database.GetDB().Create(&vendor)
	if result.Error != nil {
		log.Error("Failed to create vendor",
			zap.String("name", req.Name),
			zap.String("vendor_code", req.VendorCode),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create vendor",
		})
	}

	log.Info("Vendor created successfully",
		zap.Uint("id", vendor.ID),
		zap.String("name", vendor.Name),
		zap.String("vendor_code", vendor.VendorCode))
	return c.JSON(http.StatusCreated, vendor)
}

// GetVendor retrieves a vendor by ID
func GetVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var vendor model.Vendor
	result := database.GetDB().First(&vendor, id)
	if result.Error != nil {
		log.Warn("Vendor not found", zap.Uint64("vendor_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	return c.JSON(http.StatusOK, vendor)
}

// ListVendors retrieves all vendors
func ListVendors(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("list")

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

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var vendors []model.Vendor
	result := database.GetDB().
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&vendors)
	if result.Error != nil {
		log.Error("Failed to retrieve vendors", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve vendors",
		})
	}

	var total int64
	database.GetDB().Model(&model.Vendor{}).Count(&total)

	log.Info("Vendors retrieved successfully",
		zap.Int("count", len(vendors)),
		zap.Int64("total", total))

	return c.JSON(http.StatusOK, echo.Map{
		"vendors": vendors,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// UpdateVendor updates an existing vendor
func UpdateVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	var req VendorRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.Uint64("vendor_id", id),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	var vendor model.Vendor
	result := database.GetDB().First(&vendor, id)
	if result.Error != nil {
		log.Warn("Vendor not found for update", zap.Uint64("vendor_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	// Check if code is changed and if the new code already exists
	if req.VendorCode != "" && req.VendorCode != vendor.VendorCode {
		var count int64
		database.GetDB().Model(&model.Vendor{}).
			Where("vendor_code = ? AND id != ?", req.VendorCode, id).
			Count(&count)
		if count > 0 {
			log.Warn("Vendor with this code already exists",
				zap.String("vendor_code", req.VendorCode))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Vendor with this code already exists",
			})
		}
		vendor.VendorCode = req.VendorCode
	}

	vendor.Name = req.Name
	vendor.ContactDetails = req.ContactDetails
	vendor.Address = req.Address
	vendor.Email = req.Email

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	result = database.GetDB().Save(&vendor)
	if result.Error != nil {
		log.Error("Failed to update vendor",
			zap.Uint64("vendor_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update vendor",
		})
	}

	log.Info("Vendor updated successfully",
		zap.Uint64("vendor_id", id),
		zap.String("name", vendor.Name),
		zap.String("vendor_code", vendor.VendorCode))
	return c.JSON(http.StatusOK, vendor)
}

// DeleteVendor deletes a vendor along with its purchase orders and
// historical performance records
func DeleteVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	var vendor model.Vendor
	result := database.GetDB().First(&vendor, id)
	if result.Error != nil {
		log.Warn("Vendor not found for delete", zap.Uint64("vendor_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	// Cascade: orders and history go with the vendor
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vendor_id = ?", vendor.ID).Delete(&model.PurchaseOrder{}).Error; err != nil {
			return err
		}
		if err := tx.Where("vendor_id = ?", vendor.ID).Delete(&model.HistoricalPerformance{}).Error; err != nil {
			return err
		}
		return tx.Delete(&vendor).Error
	})
	if err != nil {
		log.Error("Failed to delete vendor",
			zap.Uint64("vendor_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete vendor",
		})
	}

	log.Info("Vendor deleted successfully",
		zap.Uint64("vendor_id", id),
		zap.String("name", vendor.Name))
	return c.NoContent(http.StatusNoContent)
}
