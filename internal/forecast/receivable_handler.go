package forecast

import (
	"errors"
	"fmt"
	"time"

	"kensetsu-backend/internal/audit"
	"kensetsu-backend/internal/auth"
	"kensetsu-backend/internal/billing"
	"kensetsu-backend/internal/database"
	"kensetsu-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func fmtDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func currentUser(c *fiber.Ctx) (uint, string) {
	userID, ok := c.Locals(auth.CtxUserIDKey).(uint)
	if !ok {
		return 0, ""
	}
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return userID, ""
	}
	return userID, user.Name
}

type CreateReceivableRequest struct {
	ProjectID    uint   `json:"project_id"`
	ClientName   string `json:"client_name"`
	Description  string `json:"description"`
	Amount       int64  `json:"amount"`
	BillingDate  string `json:"billing_date"`  // "2024-05-31", optional
	ExpectedDate string `json:"expected_date"` // required
	ActualDate   string `json:"actual_date"`   // optional
	Status       string `json:"status"`        // planned/billed/collected, defaults planned
	Note         string `json:"note"`
}

type UpdateReceivableRequest struct {
	ClientName   *string `json:"client_name"`
	Description  *string `json:"description"`
	Amount       *int64  `json:"amount"`
	BillingDate  *string `json:"billing_date"`
	ExpectedDate *string `json:"expected_date"`
	ActualDate   *string `json:"actual_date"`
	Status       *string `json:"status"`
	Note         *string `json:"note"`
}

type ReceivableResponse struct {
	ID           uint   `json:"id"`
	ProjectID    uint   `json:"project_id"`
	ProgressID   *uint  `json:"progress_id"`
	ClientName   string `json:"client_name"`
	Description  string `json:"description"`
	Amount       int64  `json:"amount"`
	BillingDate  string `json:"billing_date"`
	ExpectedDate string `json:"expected_date"`
	ActualDate   string `json:"actual_date"`
	Status       string `json:"status"`
	Note         string `json:"note"`
}

func toReceivableResponse(r *models.Receivable) ReceivableResponse {
	return ReceivableResponse{
		ID:           r.ID,
		ProjectID:    r.ProjectID,
		ProgressID:   r.ProgressID,
		ClientName:   r.ClientName,
		Description:  r.Description,
		Amount:       r.Amount,
		BillingDate:  fmtDate(r.BillingDate),
		ExpectedDate: r.ExpectedDate.Format(dateLayout),
		ActualDate:   fmtDate(r.ActualDate),
		Status:       string(r.Status),
		Note:         r.Note,
	}
}

func validReceivableStatus(s models.ReceivableStatus) bool {
	switch s {
	case models.ReceivablePlanned, models.ReceivableBilled, models.ReceivableCollected:
		return true
	}
	return false
}

// -------------------------------------------------
// GET /api/receivables?year_month=2024-05&status=planned
// -------------------------------------------------
func ListReceivablesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := database.DB.Model(&models.Receivable{})

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

		var rows []models.Receivable
		if err := query.Order("expected_date").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch receivables")
		}

		out := make([]ReceivableResponse, 0, len(rows))
		for i := range rows {
			out = append(out, toReceivableResponse(&rows[i]))
		}
		return c.JSON(out)
	}
}

// -------------------------------------------------
// GET /api/receivables/project/:id
// -------------------------------------------------
func ListProjectReceivablesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		projectID, err := c.ParamsInt("id")
		if err != nil || projectID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid project id")
		}

		var rows []models.Receivable
		if err := database.DB.Where("project_id = ?", projectID).
			Order("expected_date").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch receivables")
		}

		out := make([]ReceivableResponse, 0, len(rows))
		for i := range rows {
			out = append(out, toReceivableResponse(&rows[i]))
		}
		return c.JSON(out)
	}
}

// -------------------------------------------------
// POST /api/receivables
// Manual entry (retention payments etc.) - never linked to a progress
// entry, so several can coexist for the same project.
// -------------------------------------------------
func CreateReceivableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateReceivableRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.ProjectID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}
		if body.ClientName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "client_name is required")
		}
		if body.Amount < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amount must not be negative")
		}

		expected, err := parseDate(body.ExpectedDate)
		if err != nil || expected == nil {
			return fiber.NewError(fiber.StatusBadRequest, "expected_date must be in YYYY-MM-DD format")
		}
		billingDate, err := parseDate(body.BillingDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "billing_date must be in YYYY-MM-DD format")
		}
		actualDate, err := parseDate(body.ActualDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "actual_date must be in YYYY-MM-DD format")
		}

		status := models.ReceivableStatus(body.Status)
		if body.Status == "" {
			status = models.ReceivablePlanned
		}
		if !validReceivableStatus(status) {
			return fiber.NewError(fiber.StatusBadRequest, "status must be planned, billed or collected")
		}

		var project models.Project
		if err := database.DB.First(&project, "id = ?", body.ProjectID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "project not found")
		}

		rec := models.Receivable{
			ProjectID:    body.ProjectID,
			ClientName:   body.ClientName,
			Description:  body.Description,
			Amount:       body.Amount,
			BillingDate:  billingDate,
			ExpectedDate: *expected,
			ActualDate:   actualDate,
			Status:       status,
			Note:         body.Note,
		}
		if err := database.DB.Create(&rec).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create receivable")
		}

		userID, userName := currentUser(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "receivable",
			EntityID:    rec.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("manual receivable for project %d", rec.ProjectID),
			After:       toReceivableResponse(&rec),
		})

		return c.Status(fiber.StatusCreated).JSON(toReceivableResponse(&rec))
	}
}

// -------------------------------------------------
// PUT /api/receivables/:id
// -------------------------------------------------
func UpdateReceivableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid receivable id")
		}

		var body UpdateReceivableRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		var rec models.Receivable
		if err := database.DB.First(&rec, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "receivable not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch receivable")
		}
		before := toReceivableResponse(&rec)

		if body.ClientName != nil {
			rec.ClientName = *body.ClientName
		}
		if body.Description != nil {
			rec.Description = *body.Description
		}
		if body.Amount != nil {
			if *body.Amount < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "amount must not be negative")
			}
			rec.Amount = *body.Amount
		}
		if body.BillingDate != nil {
			d, err := parseDate(*body.BillingDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "billing_date must be in YYYY-MM-DD format")
			}
			rec.BillingDate = d
		}
		if body.ExpectedDate != nil {
			d, err := parseDate(*body.ExpectedDate)
			if err != nil || d == nil {
				return fiber.NewError(fiber.StatusBadRequest, "expected_date must be in YYYY-MM-DD format")
			}
			rec.ExpectedDate = *d
		}
		if body.ActualDate != nil {
			d, err := parseDate(*body.ActualDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "actual_date must be in YYYY-MM-DD format")
			}
			rec.ActualDate = d
		}
		if body.Status != nil {
			status := models.ReceivableStatus(*body.Status)
			if !validReceivableStatus(status) {
				return fiber.NewError(fiber.StatusBadRequest, "status must be planned, billed or collected")
			}
			rec.Status = status
		}
		if body.Note != nil {
			rec.Note = *body.Note
		}

		if err := database.DB.Save(&rec).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not update receivable")
		}

		userID, userName := currentUser(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:     userID,
			UserName:   userName,
			EntityType: "receivable",
			EntityID:   rec.ID,
			Action:     models.AuditActionUpdate,
			Before:     before,
			After:      toReceivableResponse(&rec),
		})

		return c.JSON(toReceivableResponse(&rec))
	}
}

// -------------------------------------------------
// DELETE /api/receivables/:id
// -------------------------------------------------
func DeleteReceivableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid receivable id")
		}

		var rec models.Receivable
		if err := database.DB.First(&rec, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "receivable not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch receivable")
		}

		if err := database.DB.Delete(&rec).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete receivable")
		}

		userID, userName := currentUser(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:     userID,
			UserName:   userName,
			EntityType: "receivable",
			EntityID:   rec.ID,
			Action:     models.AuditActionDelete,
			Before:     toReceivableResponse(&rec),
		})

		return c.JSON(fiber.Map{"ok": true})
	}
}
