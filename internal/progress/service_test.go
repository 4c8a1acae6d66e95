package progress

import (
	"testing"
	"time"

	"kensetsu-backend/internal/billing"
	"kensetsu-backend/internal/database"
	"kensetsu-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDefaults = billing.Terms{ClosingDay: 25, PaymentDay: 25, MonthOffset: 1}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection so every query sees the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func createProject(t *testing.T, db *gorm.DB, client string) *models.Project {
	t.Helper()
	project := models.Project{Name: "Site improvement works", Client: client, Status: "in_progress"}
	require.NoError(t, db.Create(&project).Error)
	return &project
}

func baseInput(projectID uint) UpsertInput {
	return UpsertInput{
		ProjectID:       projectID,
		YearMonth:       "2024-05",
		ProgressAmount:  1_000_000,
		ProgressRate:    40,
		CostAmount:      700_000,
		GrossProfit:     300_000,
		GrossProfitRate: 30,
	}
}

func TestUpsertCreatesEntryAndForecastWithDefaultTerms(t *testing.T) {
	db := newTestDB(t)
	project := createProject(t, db, "Yamada Construction") // no Client master row

	entry, err := Upsert(db, testDefaults, baseInput(project.ID))
	require.NoError(t, err)
	require.NotZero(t, entry.ID)
	assert.Equal(t, int64(1_000_000), entry.ProgressAmount)

	var rec models.Receivable
	require.NoError(t, db.Where("progress_id = ?", entry.ID).First(&rec).Error)
	assert.Equal(t, project.ID, rec.ProjectID)
	assert.Equal(t, "Yamada Construction", rec.ClientName)
	assert.Equal(t, "2024-05 progress billing", rec.Description)
	assert.Equal(t, int64(1_000_000), rec.Amount)
	assert.Equal(t, models.ReceivablePlanned, rec.Status)
	// defaults 25/25/1 from 2024-05-01: day 1 <= 25, so +1 month, day 25
	assert.Equal(t, "2024-06-25", rec.ExpectedDate.Format("2006-01-02"))
}

func TestUpsertUsesClientTermsWhenPresent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.Client{
		Name: "Sato Corp", ClosingDay: 20, PaymentDay: 10, MonthOffset: 2,
	}).Error)
	project := createProject(t, db, "Sato Corp")

	entry, err := Upsert(db, testDefaults, baseInput(project.ID))
	require.NoError(t, err)

	var rec models.Receivable
	require.NoError(t, db.Where("progress_id = ?", entry.ID).First(&rec).Error)
	// 2024-05-01 with closing 20 stays in May's period, +2 months, day 10
	assert.Equal(t, "2024-07-10", rec.ExpectedDate.Format("2006-01-02"))
}

func TestUpsertIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	project := createProject(t, db, "Yamada Construction")

	first, err := Upsert(db, testDefaults, baseInput(project.ID))
	require.NoError(t, err)
	second, err := Upsert(db, testDefaults, baseInput(project.ID))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var entryCount, recCount int64
	require.NoError(t, db.Model(&models.MonthlyProgress{}).Count(&entryCount).Error)
	require.NoError(t, db.Model(&models.Receivable{}).Count(&recCount).Error)
	assert.Equal(t, int64(1), entryCount)
	assert.Equal(t, int64(1), recCount)
}

func TestUpsertUpdatesForecastAmountInPlace(t *testing.T) {
	db := newTestDB(t)
	project := createProject(t, db, "Yamada Construction")

	entry, err := Upsert(db, testDefaults, baseInput(project.ID))
	require.NoError(t, err)

	var before models.Receivable
	require.NoError(t, db.Where("progress_id = ?", entry.ID).First(&before).Error)

	in := baseInput(project.ID)
	in.ProgressAmount = 1_500_000
	_, err = Upsert(db, testDefaults, in)
	require.NoError(t, err)

	var after models.Receivable
	require.NoError(t, db.Where("progress_id = ?", entry.ID).First(&after).Error)
	assert.Equal(t, before.ID, after.ID, "must update the existing forecast, not insert a second one")
	assert.Equal(t, int64(1_500_000), after.Amount)

	var recCount int64
	require.NoError(t, db.Model(&models.Receivable{}).Count(&recCount).Error)
	assert.Equal(t, int64(1), recCount)
}

func TestUpsertPreservesManualForecastEdits(t *testing.T) {
	db := newTestDB(t)
	project := createProject(t, db, "Yamada Construction")

	entry, err := Upsert(db, testDefaults, baseInput(project.ID))
	require.NoError(t, err)

	actual := time.Date(2024, time.June, 27, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Model(&models.Receivable{}).
		Where("progress_id = ?", entry.ID).
		Updates(map[string]any{
			"status":      models.ReceivableBilled,
			"actual_date": actual,
			"note":        "partial collection agreed",
		}).Error)

	in := baseInput(project.ID)
	in.ProgressAmount = 2_000_000
	_, err = Upsert(db, testDefaults, in)
	require.NoError(t, err)

	var rec models.Receivable
	require.NoError(t, db.Where("progress_id = ?", entry.ID).First(&rec).Error)
	assert.Equal(t, int64(2_000_000), rec.Amount)
	assert.Equal(t, models.ReceivableBilled, rec.Status)
	require.NotNil(t, rec.ActualDate)
	assert.Equal(t, "2024-06-27", rec.ActualDate.Format("2006-01-02"))
	assert.Equal(t, "partial collection agreed", rec.Note)
}

func TestUpsertOverwritesAllFieldsIncludingZeros(t *testing.T) {
	db := newTestDB(t)
	project := createProject(t, db, "Yamada Construction")

	_, err := Upsert(db, testDefaults, baseInput(project.ID))
	require.NoError(t, err)

	in := baseInput(project.ID)
	in.CostAmount = 0
	in.GrossProfit = 0
	in.GrossProfitRate = 0
	in.Note = ""
	entry, err := Upsert(db, testDefaults, in)
	require.NoError(t, err)

	assert.Zero(t, entry.CostAmount)
	assert.Zero(t, entry.GrossProfit)
	assert.Zero(t, entry.GrossProfitRate)
}

func TestUpsertZeroAmountSkipsProjection(t *testing.T) {
	db := newTestDB(t)
	project := createProject(t, db, "Yamada Construction")

	in := baseInput(project.ID)
	in.ProgressAmount = 0
	entry, err := Upsert(db, testDefaults, in)
	require.NoError(t, err)
	require.NotZero(t, entry.ID)

	var recCount int64
	require.NoError(t, db.Model(&models.Receivable{}).Count(&recCount).Error)
	assert.Zero(t, recCount)
}

func TestUpsertZeroAmountLeavesExistingForecastStale(t *testing.T) {
	db := newTestDB(t)
	project := createProject(t, db, "Yamada Construction")

	entry, err := Upsert(db, testDefaults, baseInput(project.ID))
	require.NoError(t, err)

	in := baseInput(project.ID)
	in.ProgressAmount = 0
	_, err = Upsert(db, testDefaults, in)
	require.NoError(t, err)

	// the forecast keeps the prior positive amount until resubmitted or deleted
	var rec models.Receivable
	require.NoError(t, db.Where("progress_id = ?", entry.ID).First(&rec).Error)
	assert.Equal(t, int64(1_000_000), rec.Amount)
}

func TestUpsertEntryInsertRaceFallsBackToUpdate(t *testing.T) {
	db := newTestDB(t)
	project := createProject(t, db, "Yamada Construction")

	// the winner's row is already committed
	_, err := Upsert(db, testDefaults, baseInput(project.ID))
	require.NoError(t, err)

	in := baseInput(project.ID)
	in.ProgressAmount = 2_500_000

	// the loser's position: its pre-read missed and its insert is about
	// to hit the unique index
	err = db.Transaction(func(tx *gorm.DB) error {
		entry, err := insertOrTakeOver(tx, in)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(2_500_000), entry.ProgressAmount)

		// the failed insert must not have aborted the transaction
		var p models.Project
		return tx.First(&p, "id = ?", project.ID).Error
	})
	require.NoError(t, err)

	var entries []models.MonthlyProgress
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2_500_000), entries[0].ProgressAmount)
}

func TestUpsertMissingProjectPersistsNothing(t *testing.T) {
	db := newTestDB(t)

	_, err := Upsert(db, testDefaults, baseInput(999))
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var entryCount int64
	require.NoError(t, db.Model(&models.MonthlyProgress{}).Count(&entryCount).Error)
	assert.Zero(t, entryCount)
}

func TestUpsertRejectsMalformedPeriod(t *testing.T) {
	db := newTestDB(t)
	project := createProject(t, db, "Yamada Construction")

	for _, ym := range []string{"2024/05", "2024-5", "202405", "2024-13", ""} {
		in := baseInput(project.ID)
		in.YearMonth = ym
		_, err := Upsert(db, testDefaults, in)
		assert.ErrorIs(t, err, ErrInvalidPeriod, "year_month=%q", ym)
	}
}

func TestDeleteCascadesToLinkedForecast(t *testing.T) {
	db := newTestDB(t)
	project := createProject(t, db, "Yamada Construction")

	entry, err := Upsert(db, testDefaults, baseInput(project.ID))
	require.NoError(t, err)

	// a manual forecast on the same project must survive the cascade
	manual := models.Receivable{
		ProjectID:    project.ID,
		ClientName:   "Yamada Construction",
		Description:  "retention payment",
		Amount:       500_000,
		ExpectedDate: time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC),
		Status:       models.ReceivablePlanned,
	}
	require.NoError(t, db.Create(&manual).Error)

	require.NoError(t, Delete(db, entry.ID))

	var entryCount int64
	require.NoError(t, db.Model(&models.MonthlyProgress{}).Count(&entryCount).Error)
	assert.Zero(t, entryCount)

	var remaining []models.Receivable
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, manual.ID, remaining[0].ID)
}

func TestDeleteMissingEntryReturnsNotFound(t *testing.T) {
	db := newTestDB(t)
	require.ErrorIs(t, Delete(db, 42), gorm.ErrRecordNotFound)
}

func TestListByProjectOrdersByPeriod(t *testing.T) {
	db := newTestDB(t)
	project := createProject(t, db, "Yamada Construction")

	for _, ym := range []string{"2024-07", "2024-05", "2024-06"} {
		in := baseInput(project.ID)
		in.YearMonth = ym
		_, err := Upsert(db, testDefaults, in)
		require.NoError(t, err)
	}

	entries, err := ListByProject(db, project.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "2024-05", entries[0].YearMonth)
	assert.Equal(t, "2024-06", entries[1].YearMonth)
	assert.Equal(t, "2024-07", entries[2].YearMonth)
}
