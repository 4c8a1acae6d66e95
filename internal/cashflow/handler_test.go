package cashflow

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

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func seedReceivable(t *testing.T, db *gorm.DB, amount int64, expected time.Time, status models.ReceivableStatus) {
	t.Helper()
	rec := models.Receivable{
		ProjectID:    1,
		ClientName:   "Ito Corp",
		Amount:       amount,
		ExpectedDate: expected,
		Status:       status,
	}
	require.NoError(t, db.Create(&rec).Error)
}

func seedPayable(t *testing.T, db *gorm.DB, amount int64, expected time.Time, status models.PayableStatus) {
	t.Helper()
	pay := models.Payable{
		VendorName:   "Suzuki Materials",
		Amount:       amount,
		ExpectedDate: expected,
		Status:       status,
	}
	require.NoError(t, db.Create(&pay).Error)
}

func TestForecastSumsOnlyTheQueriedWindow(t *testing.T) {
	db := newTestDB(t)

	seedReceivable(t, db, 1_000_000, time.Date(2024, time.May, 25, 0, 0, 0, 0, time.UTC), models.ReceivablePlanned)
	seedReceivable(t, db, 300_000, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), models.ReceivableCollected)
	// outside the window
	seedReceivable(t, db, 999_999, time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC), models.ReceivablePlanned)
	seedReceivable(t, db, 999_999, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), models.ReceivablePlanned)

	seedPayable(t, db, 400_000, time.Date(2024, time.May, 31, 0, 0, 0, 0, time.UTC), models.PayablePlanned)
	seedPayable(t, db, 999_999, time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC), models.PayablePlanned)

	resp, err := Forecast(db, "2024-05")
	require.NoError(t, err)

	assert.Len(t, resp.Receivables, 2)
	assert.Len(t, resp.Payables, 1)
	// status does not filter: the collected row still counts
	assert.Equal(t, int64(1_300_000), resp.TotalReceivable)
	assert.Equal(t, int64(400_000), resp.TotalPayable)
	assert.Equal(t, int64(900_000), resp.NetCashflow)
}

func TestForecastDecemberWindowRollsIntoNextYear(t *testing.T) {
	db := newTestDB(t)

	seedReceivable(t, db, 500_000, time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), models.ReceivablePlanned)
	// Jan 1 belongs to January, not December
	seedReceivable(t, db, 999_999, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), models.ReceivablePlanned)

	resp, err := Forecast(db, "2024-12")
	require.NoError(t, err)
	assert.Equal(t, int64(500_000), resp.TotalReceivable)
}

func TestForecastEmptyMonth(t *testing.T) {
	db := newTestDB(t)

	resp, err := Forecast(db, "2030-01")
	require.NoError(t, err)
	assert.NotNil(t, resp.Receivables)
	assert.NotNil(t, resp.Payables)
	assert.Zero(t, resp.TotalReceivable)
	assert.Zero(t, resp.TotalPayable)
	assert.Zero(t, resp.NetCashflow)
}

func TestForecastNegativeNetCashflow(t *testing.T) {
	db := newTestDB(t)

	seedReceivable(t, db, 200_000, time.Date(2024, time.May, 25, 0, 0, 0, 0, time.UTC), models.ReceivablePlanned)
	seedPayable(t, db, 600_000, time.Date(2024, time.May, 31, 0, 0, 0, 0, time.UTC), models.PayablePlanned)

	resp, err := Forecast(db, "2024-05")
	require.NoError(t, err)
	assert.Equal(t, int64(-400_000), resp.NetCashflow)
}

func TestForecastRejectsMalformedPeriod(t *testing.T) {
	db := newTestDB(t)

	for _, ym := range []string{"may-2024", "2024/05", "2024-13", ""} {
		_, err := Forecast(db, ym)
		assert.ErrorIs(t, err, ErrInvalidPeriod, "year_month=%q", ym)
	}
}

func TestGetCashflowHandler(t *testing.T) {
	db := newTestDB(t)
	database.DB = db

	seedReceivable(t, db, 1_000_000, time.Date(2024, time.May, 25, 0, 0, 0, 0, time.UTC), models.ReceivablePlanned)
	seedPayable(t, db, 400_000, time.Date(2024, time.May, 31, 0, 0, 0, 0, time.UTC), models.PayablePlanned)

	app := fiber.New()
	app.Get("/api/cashflow", GetCashflowHandler())

	req := httptest.NewRequest("GET", "/api/cashflow?year_month=2024-05", nil)
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var parsed CashflowResponse
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Equal(t, "2024-05", parsed.YearMonth)
	assert.Equal(t, int64(1_000_000), parsed.TotalReceivable)
	assert.Equal(t, int64(400_000), parsed.TotalPayable)
	assert.Equal(t, int64(600_000), parsed.NetCashflow)

	req = httptest.NewRequest("GET", "/api/cashflow?year_month=may-2024", nil)
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}
