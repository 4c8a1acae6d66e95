package masterdata

import (
	"errors"

	"kensetsu-backend/internal/database"
	"kensetsu-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type VendorRequest struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	DefaultPrice int64  `json:"default_price"`
	Unit         string `json:"unit"`
	Phone        string `json:"phone"`
	ClosingDay   int    `json:"closing_day"`
	PaymentDay   int    `json:"payment_day"`
	MonthOffset  *int   `json:"month_offset"` // pointer: 0 means same-month payment, nil means "use default"
}

// VendorUpdateRequest mirrors ClientUpdateRequest: nil fields stay as
// they are.
type VendorUpdateRequest struct {
	Name         *string `json:"name"`
	Category     *string `json:"category"`
	DefaultPrice *int64  `json:"default_price"`
	Unit         *string `json:"unit"`
	Phone        *string `json:"phone"`
	ClosingDay   *int    `json:"closing_day"`
	PaymentDay   *int    `json:"payment_day"`
	MonthOffset  *int    `json:"month_offset"`
}

type VendorResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	DefaultPrice int64  `json:"default_price"`
	Unit         string `json:"unit"`
	Phone        string `json:"phone"`
	ClosingDay   int    `json:"closing_day"`
	PaymentDay   int    `json:"payment_day"`
	MonthOffset  int    `json:"month_offset"`
}

func toVendorResponse(v *models.Vendor) VendorResponse {
	return VendorResponse{
		ID:           v.ID,
		Name:         v.Name,
		Category:     v.Category,
		DefaultPrice: v.DefaultPrice,
		Unit:         v.Unit,
		Phone:        v.Phone,
		ClosingDay:   v.ClosingDay,
		PaymentDay:   v.PaymentDay,
		MonthOffset:  v.MonthOffset,
	}
}

// -------------------------------------------------
// POST /api/vendors
// -------------------------------------------------
func CreateVendorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body VendorRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}
		if body.ClosingDay == 0 {
			body.ClosingDay = 25
		}
		if body.PaymentDay == 0 {
			body.PaymentDay = 25
		}
		monthOffset := 1
		if body.MonthOffset != nil {
			monthOffset = *body.MonthOffset
		}
		if err := validateTerms(body.ClosingDay, body.PaymentDay, monthOffset); err != nil {
			return err
		}

		vendor := models.Vendor{
			Name:         body.Name,
			Category:     body.Category,
			DefaultPrice: body.DefaultPrice,
			Unit:         body.Unit,
			Phone:        body.Phone,
			ClosingDay:   body.ClosingDay,
			PaymentDay:   body.PaymentDay,
			MonthOffset:  monthOffset,
		}
		if err := database.DB.Create(&vendor).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "a vendor with this name already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not create vendor")
		}

		return c.Status(fiber.StatusCreated).JSON(toVendorResponse(&vendor))
	}
}

// -------------------------------------------------
// GET /api/vendors
// -------------------------------------------------
func ListVendorsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := database.DB.Model(&models.Vendor{})
		if category := c.Query("category"); category != "" {
			query = query.Where("category = ?", category)
		}

		var vendors []models.Vendor
		if err := query.Order("name").Find(&vendors).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch vendors")
		}

		out := make([]VendorResponse, 0, len(vendors))
		for i := range vendors {
			out = append(out, toVendorResponse(&vendors[i]))
		}
		return c.JSON(out)
	}
}

// -------------------------------------------------
// PUT /api/vendors/:id
// -------------------------------------------------
func UpdateVendorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid vendor id")
		}

		var vendor models.Vendor
		if err := database.DB.First(&vendor, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "vendor not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch vendor")
		}

		var body VendorUpdateRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.Name != nil {
			if *body.Name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
			}
			vendor.Name = *body.Name
		}
		if body.Category != nil {
			vendor.Category = *body.Category
		}
		if body.DefaultPrice != nil {
			vendor.DefaultPrice = *body.DefaultPrice
		}
		if body.Unit != nil {
			vendor.Unit = *body.Unit
		}
		if body.Phone != nil {
			vendor.Phone = *body.Phone
		}
		if body.ClosingDay != nil {
			vendor.ClosingDay = *body.ClosingDay
		}
		if body.PaymentDay != nil {
			vendor.PaymentDay = *body.PaymentDay
		}
		if body.MonthOffset != nil {
			vendor.MonthOffset = *body.MonthOffset
		}
		if err := validateTerms(vendor.ClosingDay, vendor.PaymentDay, vendor.MonthOffset); err != nil {
			return err
		}

		if err := database.DB.Save(&vendor).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "a vendor with this name already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not update vendor")
		}

		return c.JSON(toVendorResponse(&vendor))
	}
}

// -------------------------------------------------
// DELETE /api/vendors/:id
// -------------------------------------------------
func DeleteVendorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid vendor id")
		}

		res := database.DB.Delete(&models.Vendor{}, "id = ?", id)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete vendor")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "vendor not found")
		}

		return c.JSON(fiber.Map{"ok": true})
	}
}
