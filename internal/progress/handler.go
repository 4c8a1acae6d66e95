package progress

import (
	"errors"
	"fmt"

	"kensetsu-backend/internal/audit"
	"kensetsu-backend/internal/auth"
	"kensetsu-backend/internal/config"
	"kensetsu-backend/internal/database"
	"kensetsu-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UpsertProgressRequest struct {
	ProjectID       uint    `json:"project_id"`
	YearMonth       string  `json:"year_month"` // "2024-05"
	ProgressAmount  int64   `json:"progress_amount"`
	ProgressRate    float64 `json:"progress_rate"`
	CostAmount      int64   `json:"cost_amount"`
	GrossProfit     int64   `json:"gross_profit"`
	GrossProfitRate float64 `json:"gross_profit_rate"`
	Note            string  `json:"note"`
}

type ProgressResponse struct {
	ID              uint    `json:"id"`
	ProjectID       uint    `json:"project_id"`
	YearMonth       string  `json:"year_month"`
	ProgressAmount  int64   `json:"progress_amount"`
	ProgressRate    float64 `json:"progress_rate"`
	CostAmount      int64   `json:"cost_amount"`
	GrossProfit     int64   `json:"gross_profit"`
	GrossProfitRate float64 `json:"gross_profit_rate"`
	Note            string  `json:"note"`
}

func toResponse(e *models.MonthlyProgress) ProgressResponse {
	return ProgressResponse{
		ID:              e.ID,
		ProjectID:       e.ProjectID,
		YearMonth:       e.YearMonth,
		ProgressAmount:  e.ProgressAmount,
		ProgressRate:    e.ProgressRate,
		CostAmount:      e.CostAmount,
		GrossProfit:     e.GrossProfit,
		GrossProfitRate: e.GrossProfitRate,
		Note:            e.Note,
	}
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

// -------------------------------------------------
// POST /api/progress
// -------------------------------------------------
func UpsertProgressHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpsertProgressRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.ProjectID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}
		if body.ProgressAmount < 0 || body.CostAmount < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amounts must not be negative")
		}

		entry, err := Upsert(database.DB, cfg.DefaultTerms, UpsertInput{
			ProjectID:       body.ProjectID,
			YearMonth:       body.YearMonth,
			ProgressAmount:  body.ProgressAmount,
			ProgressRate:    body.ProgressRate,
			CostAmount:      body.CostAmount,
			GrossProfit:     body.GrossProfit,
			GrossProfitRate: body.GrossProfitRate,
			Note:            body.Note,
		})
		switch {
		case errors.Is(err, ErrInvalidPeriod):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			return fiber.NewError(fiber.StatusNotFound, "project not found")
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, "could not save progress entry")
		}

		// audit failure must not fail the request
		userID, userName := currentUser(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "progress",
			EntityID:    entry.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("progress %s for project %d", entry.YearMonth, entry.ProjectID),
			After:       toResponse(entry),
		})

		return c.JSON(toResponse(entry))
	}
}

// -------------------------------------------------
// GET /api/progress/project/:id
// -------------------------------------------------
func ListProjectProgressHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		projectID, err := c.ParamsInt("id")
		if err != nil || projectID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid project id")
		}

		entries, err := ListByProject(database.DB, uint(projectID))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch progress entries")
		}

		out := make([]ProgressResponse, 0, len(entries))
		for i := range entries {
			out = append(out, toResponse(&entries[i]))
		}
		return c.JSON(out)
	}
}

// -------------------------------------------------
// DELETE /api/progress/:id
// -------------------------------------------------
func DeleteProgressHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid progress id")
		}

		err = Delete(database.DB, uint(id))
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return fiber.NewError(fiber.StatusNotFound, "progress entry not found")
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete progress entry")
		}

		userID, userName := currentUser(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "progress",
			EntityID:    uint(id),
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("deleted progress entry %d and linked forecast", id),
		})

		return c.JSON(fiber.Map{"ok": true})
	}
}
