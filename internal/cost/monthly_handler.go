package cost

import (
	"sort"

	"kensetsu-backend/internal/database"
	"kensetsu-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type MonthlyCostSummary struct {
	Month      string           `json:"month"`
	ByCategory map[string]int64 `json:"by_category"`
	Total      int64            `json:"total"`
}

// -------------------------------------------------
// GET /api/projects/:id/monthly
// Per-month cost breakdown by category. Undated cost rows are not
// assignable to a month and are left out.
// -------------------------------------------------
func ProjectMonthlyCostsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		projectID, err := c.ParamsInt("id")
		if err != nil || projectID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid project id")
		}

		var costs []models.Cost
		if err := database.DB.Where("project_id = ?", projectID).Find(&costs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch costs")
		}

		byMonth := make(map[string]*MonthlyCostSummary)
		for i := range costs {
			co := &costs[i]
			if co.Date == nil {
				continue
			}
			key := co.Date.Format("2006-01")
			summary, ok := byMonth[key]
			if !ok {
				summary = &MonthlyCostSummary{Month: key, ByCategory: make(map[string]int64)}
				byMonth[key] = summary
			}
			summary.ByCategory[co.Category] += co.Amount
			summary.Total += co.Amount
		}

		months := make([]string, 0, len(byMonth))
		for m := range byMonth {
			months = append(months, m)
		}
		sort.Strings(months)

		out := make([]MonthlyCostSummary, 0, len(months))
		for _, m := range months {
			out = append(out, *byMonth[m])
		}
		return c.JSON(out)
	}
}
