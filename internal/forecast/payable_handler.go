package forecast

import (
	"errors"
	"fmt"

	"kensetsu-backend/internal/audit"
	"kensetsu-backend/internal/billing"
	"kensetsu-backend/internal/database"
	"kensetsu-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreatePayableRequest struct {
	ProjectID    *uint  `json:"project_id"` // optional
	VendorName   string `json:"vendor_name"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	Amount       int64  `json:"amount"`
	InvoiceDate  string `json:"invoice_date"`  // optional
	ExpectedDate string `json:"expected_date"` // required
	ActualDate   string `json:"actual_date"`   // optional
	Status       string `json:"status"`        // planned/paid, defaults planned
	Note         string `json:"note"`
}

type UpdatePayableRequest struct {
	VendorName   *string `json:"vendor_name"`
	Category     *string `json:"category"`
	Description  *string `json:"description"`
	Amount       *int64  `json:"amount"`
	InvoiceDate  *string `json:"invoice_date"`
	ExpectedDate *string `json:"expected_date"`
	ActualDate   *string `json:"actual_date"`
	Status       *string `json:"status"`
	Note         *string `json:"note"`
}

type PayableResponse struct {
	ID           uint   `json:"id"`
	ProjectID    *uint  `json:"project_id"`
	CostID       *uint  `json:"cost_id"`
	VendorName   string `json:"vendor_name"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	Amount       int64  `json:"amount"`
	InvoiceDate  string `json:"invoice_date"`
	ExpectedDate string `json:"expected_date"`
	ActualDate   string `json:"actual_date"`
	Status       string `json:"status"`
	Note         string `json:"note"`
}

func toPayableResponse(p *models.Payable) PayableResponse {
	return PayableResponse{
		ID:           p.ID,
		ProjectID:    p.ProjectID,
		CostID:       p.CostID,
		VendorName:   p.VendorName,
		Category:     p.Category,
		Description:  p.Description,
		Amount:       p.Amount,
		InvoiceDate:  fmtDate(p.InvoiceDate),
		ExpectedDate: p.ExpectedDate.Format(dateLayout),
		ActualDate:   fmtDate(p.ActualDate),
		Status:       string(p.Status),
		Note:         p.Note,
	}
}

func validPayableStatus(s models.PayableStatus) bool {
	return s == models.PayablePlanned || s == models.PayablePaid
}

// -------------------------------------------------
// GET /api/payables?year_month=2024-05&status=planned
// -------------------------------------------------
func ListPayablesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := database.DB.Model(&models.Payable{})

		if ym := c.Query("year_month"); ym != "" {
			start, end, err := billing.MonthWindow(ym)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "year_month must be in YYYY-MM format")
			}
			query = query.Where("expected_date >= ? AND expected_date < ?", start, end)
		}
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var rows []models.Payable
		if err := query.Order("expected_date").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch payables")
		}

		out := make([]PayableResponse, 0, len(rows))
		for i := range rows {
			out = append(out, toPayableResponse(&rows[i]))
		}
		return c.JSON(out)
	}
}

// -------------------------------------------------
// GET /api/payables/project/:id
// -------------------------------------------------
func ListProjectPayablesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		projectID, err := c.ParamsInt("id")
		if err != nil || projectID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid project id")
		}

		var rows []models.Payable
		if err := database.DB.Where("project_id = ?", projectID).
			Order("expected_date").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch payables")
		}

		out := make([]PayableResponse, 0, len(rows))
		for i := range rows {
			out = append(out, toPayableResponse(&rows[i]))
		}
		return c.JSON(out)
	}
}

// -------------------------------------------------
// POST /api/payables
// Manual entry only for now; ProjectPayable is the automation hook.
// -------------------------------------------------
func CreatePayableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePayableRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.VendorName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "vendor_name is required")
		}
		if body.Amount < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amount must not be negative")
		}

		expected, err := parseDate(body.ExpectedDate)
		if err != nil || expected == nil {
			return fiber.NewError(fiber.StatusBadRequest, "expected_date must be in YYYY-MM-DD format")
		}
		invoiceDate, err := parseDate(body.InvoiceDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invoice_date must be in YYYY-MM-DD format")
		}
		actualDate, err := parseDate(body.ActualDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "actual_date must be in YYYY-MM-DD format")
		}

		status := models.PayableStatus(body.Status)
		if body.Status == "" {
			status = models.PayablePlanned
		}
		if !validPayableStatus(status) {
			return fiber.NewError(fiber.StatusBadRequest, "status must be planned or paid")
		}

		if body.ProjectID != nil {
			var project models.Project
			if err := database.DB.First(&project, "id = ?", *body.ProjectID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "project not found")
			}
		}

		pay := models.Payable{
			ProjectID:    body.ProjectID,
			VendorName:   body.VendorName,
			Category:     body.Category,
			Description:  body.Description,
			Amount:       body.Amount,
			InvoiceDate:  invoiceDate,
			ExpectedDate: *expected,
			ActualDate:   actualDate,
			Status:       status,
			Note:         body.Note,
		}
		if err := database.DB.Create(&pay).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create payable")
		}

		userID, userName := currentUser(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "payable",
			EntityID:    pay.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("manual payable to %s", pay.VendorName),
			After:       toPayableResponse(&pay),
		})

		return c.Status(fiber.StatusCreated).JSON(toPayableResponse(&pay))
	}
}

// -------------------------------------------------
// PUT /api/payables/:id
// -------------------------------------------------
func UpdatePayableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payable id")
		}

		var body UpdatePayableRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		var pay models.Payable
		if err := database.DB.First(&pay, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "payable not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch payable")
		}
		before := toPayableResponse(&pay)

		if body.VendorName != nil {
			pay.VendorName = *body.VendorName
		}
		if body.Category != nil {
			pay.Category = *body.Category
		}
		if body.Description != nil {
			pay.Description = *body.Description
		}
		if body.Amount != nil {
			if *body.Amount < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "amount must not be negative")
			}
			pay.Amount = *body.Amount
		}
		if body.InvoiceDate != nil {
			d, err := parseDate(*body.InvoiceDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invoice_date must be in YYYY-MM-DD format")
			}
			pay.InvoiceDate = d
		}
		if body.ExpectedDate != nil {
			d, err := parseDate(*body.ExpectedDate)
			if err != nil || d == nil {
				return fiber.NewError(fiber.StatusBadRequest, "expected_date must be in YYYY-MM-DD format")
			}
			pay.ExpectedDate = *d
		}
		if body.ActualDate != nil {
			d, err := parseDate(*body.ActualDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "actual_date must be in YYYY-MM-DD format")
			}
			pay.ActualDate = d
		}
		if body.Status != nil {
			status := models.PayableStatus(*body.Status)
			if !validPayableStatus(status) {
				return fiber.NewError(fiber.StatusBadRequest, "status must be planned or paid")
			}
			pay.Status = status
		}
		if body.Note != nil {
			pay.Note = *body.Note
		}

		if err := database.DB.Save(&pay).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not update payable")
		}

		userID, userName := currentUser(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:     userID,
			UserName:   userName,
			EntityType: "payable",
			EntityID:   pay.ID,
			Action:     models.AuditActionUpdate,
			Before:     before,
			After:      toPayableResponse(&pay),
		})

		return c.JSON(toPayableResponse(&pay))
	}
}

// -------------------------------------------------
// DELETE /api/payables/:id
// -------------------------------------------------
func DeletePayableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payable id")
		}

		var pay models.Payable
		if err := database.DB.First(&pay, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "payable not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch payable")
		}

		if err := database.DB.Delete(&pay).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete payable")
		}

		userID, userName := currentUser(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:     userID,
			UserName:   userName,
			EntityType: "payable",
			EntityID:   pay.ID,
			Action:     models.AuditActionDelete,
			Before:     toPayableResponse(&pay),
		})

		return c.JSON(fiber.Map{"ok": true})
	}
}
