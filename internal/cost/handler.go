package cost

import (
	"errors"
	"time"

	"kensetsu-backend/internal/database"
	"kensetsu-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateCostRequest struct {
	ProjectID   uint   `json:"project_id"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Date        string `json:"date"` // "2024-05-10", optional
}

type CostResponse struct {
	ID          uint   `json:"id"`
	ProjectID   uint   `json:"project_id"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Date        string `json:"date"`
}

func toResponse(co *models.Cost) CostResponse {
	date := ""
	if co.Date != nil {
		date = co.Date.Format("2006-01-02")
	}
	return CostResponse{
		ID:          co.ID,
		ProjectID:   co.ProjectID,
		Category:    co.Category,
		Description: co.Description,
		Amount:      co.Amount,
		Date:        date,
	}
}

// -------------------------------------------------
// POST /api/costs
// -------------------------------------------------
func CreateCostHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCostRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.ProjectID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "project_id is required")
		}
		if body.Amount < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amount must not be negative")
		}

		var date *time.Time
		if body.Date != "" {
			d, err := time.Parse("2006-01-02", body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be in YYYY-MM-DD format")
			}
			date = &d
		}

		var project models.Project
		if err := database.DB.First(&project, "id = ?", body.ProjectID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "project not found")
		}

		co := models.Cost{
			ProjectID:   body.ProjectID,
			Category:    body.Category,
			Description: body.Description,
			Amount:      body.Amount,
			Date:        date,
		}
		if err := database.DB.Create(&co).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create cost")
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(&co))
	}
}

// -------------------------------------------------
// GET /api/costs/project/:id
// Returns the project's cost rows plus their running total.
// -------------------------------------------------
func ListProjectCostsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		projectID, err := c.ParamsInt("id")
		if err != nil || projectID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid project id")
		}

		var costs []models.Cost
		if err := database.DB.Where("project_id = ?", projectID).
			Order("date").Find(&costs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch costs")
		}

		items := make([]CostResponse, 0, len(costs))
		var total int64
		for i := range costs {
			items = append(items, toResponse(&costs[i]))
			total += costs[i].Amount
		}

		return c.JSON(fiber.Map{
			"items": items,
			"total": total,
		})
	}
}

// -------------------------------------------------
// DELETE /api/costs/:id
// -------------------------------------------------
func DeleteCostHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid cost id")
		}

		var co models.Cost
		if err := database.DB.First(&co, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "cost not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch cost")
		}

		if err := database.DB.Delete(&co).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete cost")
		}

		return c.JSON(fiber.Map{"ok": true})
	}
}
