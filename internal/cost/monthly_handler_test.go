package cost

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
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
	app.Get("/api/projects/:id/monthly", ProjectMonthlyCostsHandler())
	return app
}

func seedCost(t *testing.T, projectID uint, category string, amount int64, date *time.Time) {
	t.Helper()
	co := models.Cost{ProjectID: projectID, Category: category, Amount: amount, Date: date}
	require.NoError(t, database.DB.Create(&co).Error)
}

func dateOf(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestProjectMonthlyCostsGroupsByMonthAndCategory(t *testing.T) {
	app := newTestApp(t)

	project := models.Project{Name: "Warehouse build"}
	require.NoError(t, database.DB.Create(&project).Error)

	seedCost(t, project.ID, "material", 300_000, dateOf(2024, time.May, 10))
	seedCost(t, project.ID, "material", 200_000, dateOf(2024, time.May, 28))
	seedCost(t, project.ID, "subcontract", 900_000, dateOf(2024, time.May, 15))
	seedCost(t, project.ID, "subcontract", 400_000, dateOf(2024, time.April, 20))
	// undated rows cannot be bucketed
	seedCost(t, project.ID, "expense", 50_000, nil)
	// another project's cost must not leak in
	other := models.Project{Name: "Bridge repair"}
	require.NoError(t, database.DB.Create(&other).Error)
	seedCost(t, other.ID, "material", 999_999, dateOf(2024, time.May, 1))

	res, err := app.Test(httptest.NewRequest("GET", "/api/projects/"+strconv.Itoa(int(project.ID))+"/monthly", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var parsed []MonthlyCostSummary
	require.NoError(t, json.Unmarshal(body, &parsed))
	require.Len(t, parsed, 2)

	assert.Equal(t, "2024-04", parsed[0].Month)
	assert.Equal(t, int64(400_000), parsed[0].Total)
	assert.Equal(t, int64(400_000), parsed[0].ByCategory["subcontract"])

	assert.Equal(t, "2024-05", parsed[1].Month)
	assert.Equal(t, int64(1_400_000), parsed[1].Total)
	assert.Equal(t, int64(500_000), parsed[1].ByCategory["material"])
	assert.Equal(t, int64(900_000), parsed[1].ByCategory["subcontract"])
}

func TestProjectMonthlyCostsEmptyProject(t *testing.T) {
	app := newTestApp(t)

	res, err := app.Test(httptest.NewRequest("GET", "/api/projects/42/monthly", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var parsed []MonthlyCostSummary
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Empty(t, parsed)
}
