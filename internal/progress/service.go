package progress

import (
	"errors"

	"kensetsu-backend/internal/billing"
	"kensetsu-backend/internal/forecast"
	"kensetsu-backend/internal/models"

	"gorm.io/gorm"
)

var ErrInvalidPeriod = errors.New("year_month must be in YYYY-MM format")

type UpsertInput struct {
	ProjectID       uint
	YearMonth       string
	ProgressAmount  int64
	ProgressRate    float64
	CostAmount      int64
	GrossProfit     int64
	GrossProfitRate float64
	Note            string
}

// Upsert writes the progress entry for (project, month) and, when the
// billed amount is positive, projects its receivable forecast - all in
// one transaction. A missing project aborts the whole operation with
// gorm.ErrRecordNotFound; nothing is persisted.
//
// Submitting the same pair again overwrites every provided field of the
// existing entry. A zero amount records the entry but leaves any prior
// forecast untouched.
func Upsert(db *gorm.DB, defaults billing.Terms, in UpsertInput) (*models.MonthlyProgress, error) {
	if _, err := billing.FirstOfMonth(in.YearMonth); err != nil {
		return nil, ErrInvalidPeriod
	}

	var entry *models.MonthlyProgress
	err := db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, "id = ?", in.ProjectID).Error; err != nil {
			return err
		}

		e, err := upsertEntry(tx, in)
		if err != nil {
			return err
		}

		if in.ProgressAmount > 0 {
			if err := forecast.ProjectReceivable(tx, defaults, &project, e); err != nil {
				return err
			}
		}

		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// upsertEntry does the read-then-write upsert on the (project_id,
// year_month) unique index. When two writers race, the loser's insert
// fails with a duplicate-key error and is retried once as an update -
// the only legitimate cause is the other writer having just committed
// the same pair.
func upsertEntry(tx *gorm.DB, in UpsertInput) (*models.MonthlyProgress, error) {
	var existing models.MonthlyProgress
	err := tx.Where("project_id = ? AND year_month = ?", in.ProjectID, in.YearMonth).
		First(&existing).Error

	switch {
	case err == nil:
		applyInput(&existing, in)
		if err := tx.Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		return insertOrTakeOver(tx, in)

	default:
		return nil, err
	}
}

// insertOrTakeOver attempts the insert inside a savepoint, so a
// duplicate-key failure cannot abort the enclosing transaction
// (Postgres refuses every statement after a failed one otherwise),
// then updates the row the concurrent writer committed.
func insertOrTakeOver(tx *gorm.DB, in UpsertInput) (*models.MonthlyProgress, error) {
	entry := models.MonthlyProgress{ProjectID: in.ProjectID, YearMonth: in.YearMonth}
	applyInput(&entry, in)
	createErr := tx.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&entry).Error
	})
	if createErr == nil {
		return &entry, nil
	}
	if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
		return nil, createErr
	}
	// a concurrent writer inserted the pair first; take the update path
	var existing models.MonthlyProgress
	if err := tx.Where("project_id = ? AND year_month = ?", in.ProjectID, in.YearMonth).
		First(&existing).Error; err != nil {
		return nil, err
	}
	applyInput(&existing, in)
	if err := tx.Save(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// Full overwrite, not a merge: every field is written, zeros included.
func applyInput(entry *models.MonthlyProgress, in UpsertInput) {
	entry.ProgressAmount = in.ProgressAmount
	entry.ProgressRate = in.ProgressRate
	entry.CostAmount = in.CostAmount
	entry.GrossProfit = in.GrossProfit
	entry.GrossProfitRate = in.GrossProfitRate
	entry.Note = in.Note
}

// Delete removes the entry together with its linked receivable forecast
// in one transaction, so no orphan forecast survives.
func Delete(db *gorm.DB, progressID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var entry models.MonthlyProgress
		if err := tx.First(&entry, "id = ?", progressID).Error; err != nil {
			return err
		}
		if err := tx.Where("progress_id = ?", progressID).Delete(&models.Receivable{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entry).Error
	})
}

// ListByProject returns a project's entries ordered by period.
func ListByProject(db *gorm.DB, projectID uint) ([]models.MonthlyProgress, error) {
	var entries []models.MonthlyProgress
	err := db.Where("project_id = ?", projectID).Order("year_month").Find(&entries).Error
	return entries, err
}
