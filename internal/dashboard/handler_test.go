package dashboard

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"kensetsu-backend/internal/database"
	"kensetsu-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	database.DB = db

	app := fiber.New()
	app.Get("/api/dashboard", GetDashboardHandler())
	return app
}

func getDashboard(t *testing.T, app *fiber.App) DashboardResponse {
	t.Helper()
	res, err := app.Test(httptest.NewRequest("GET", "/api/dashboard", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var parsed DashboardResponse
	require.NoError(t, json.Unmarshal(body, &parsed))
	return parsed
}

func TestDashboardRollsUpProjectsAndCosts(t *testing.T) {
	app := newTestApp(t)

	p1 := models.Project{Name: "Site improvement works", Status: "in_progress", OrderAmount: 12_000_000, BudgetAmount: 9_000_000}
	p2 := models.Project{Name: "Bridge repair", Status: "in_progress", OrderAmount: 8_000_000, BudgetAmount: 6_500_000}
	p3 := models.Project{Name: "Warehouse build", Status: "estimating", OrderAmount: 20_000_000, BudgetAmount: 15_000_000}
	for _, p := range []*models.Project{&p1, &p2, &p3} {
		require.NoError(t, database.DB.Create(p).Error)
	}

	date := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)
	for _, co := range []models.Cost{
		{ProjectID: p1.ID, Category: "material", Amount: 2_000_000, Date: &date},
		{ProjectID: p2.ID, Category: "subcontract", Amount: 3_500_000, Date: &date},
	} {
		require.NoError(t, database.DB.Create(&co).Error)
	}

	resp := getDashboard(t, app)
	assert.Equal(t, int64(40_000_000), resp.TotalOrder)
	assert.Equal(t, int64(30_500_000), resp.TotalBudget)
	assert.Equal(t, int64(5_500_000), resp.TotalCost)
	assert.Equal(t, int64(34_500_000), resp.TotalProfit)
	assert.Equal(t, int64(9_500_000), resp.SalesProfit)
	assert.Equal(t, int64(25_000_000), resp.ConstructionProfit)
	assert.Equal(t, 3, resp.ProjectCount)

	require.Contains(t, resp.ByStatus, "in_progress")
	assert.Equal(t, 2, resp.ByStatus["in_progress"].Count)
	assert.Equal(t, int64(20_000_000), resp.ByStatus["in_progress"].OrderAmount)
	require.Contains(t, resp.ByStatus, "estimating")
	assert.Equal(t, 1, resp.ByStatus["estimating"].Count)
}

func TestDashboardEmptyDatabase(t *testing.T) {
	app := newTestApp(t)

	resp := getDashboard(t, app)
	assert.Zero(t, resp.TotalOrder)
	assert.Zero(t, resp.TotalCost)
	assert.Zero(t, resp.ProjectCount)
	assert.Empty(t, resp.ByStatus)
}
