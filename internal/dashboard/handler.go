package dashboard

import (
	"kensetsu-backend/internal/database"
	"kensetsu-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type StatusBreakdown struct {
	Count       int   `json:"count"`
	OrderAmount int64 `json:"order_amount"`
}

type DashboardResponse struct {
	TotalOrder         int64                      `json:"total_order"`
	TotalBudget        int64                      `json:"total_budget"`
	TotalCost          int64                      `json:"total_cost"`
	TotalProfit        int64                      `json:"total_profit"`
	SalesProfit        int64                      `json:"sales_profit"`
	ConstructionProfit int64                      `json:"construction_profit"`
	ProjectCount       int                        `json:"project_count"`
	ByStatus           map[string]StatusBreakdown `json:"by_status"`
}

// -------------------------------------------------
// GET /api/dashboard
// Company-wide rollup across every project: order book, budgets,
// recorded costs and the profit splits between sales and construction.
// -------------------------------------------------
func GetDashboardHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var projects []models.Project
		if err := database.DB.Find(&projects).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch projects")
		}

		var totalCost int64
		if err := database.DB.Model(&models.Cost{}).
			Select("COALESCE(SUM(amount), 0)").Scan(&totalCost).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not sum costs")
		}

		resp := DashboardResponse{
			TotalCost:    totalCost,
			ProjectCount: len(projects),
			ByStatus:     make(map[string]StatusBreakdown),
		}
		for _, p := range projects {
			resp.TotalOrder += p.OrderAmount
			resp.TotalBudget += p.BudgetAmount

			b := resp.ByStatus[p.Status]
			b.Count++
			b.OrderAmount += p.OrderAmount
			resp.ByStatus[p.Status] = b
		}

		resp.TotalProfit = resp.TotalOrder - resp.TotalCost
		resp.SalesProfit = resp.TotalOrder - resp.TotalBudget
		resp.ConstructionProfit = resp.TotalBudget - resp.TotalCost

		return c.JSON(resp)
	}
}
