package models

import "time"

// MonthlyProgress - progress billing record, one per project per month.
// The composite unique index is what makes the upsert race-safe: a
// concurrent insert for the same pair fails with a duplicate-key error
// and is retried as an update.
type MonthlyProgress struct {
	ID              uint    `gorm:"primaryKey"`
	ProjectID       uint    `gorm:"not null;uniqueIndex:idx_progress_project_month"`
	Project         Project `gorm:"foreignKey:ProjectID"`
	YearMonth       string  `gorm:"size:7;not null;uniqueIndex:idx_progress_project_month"` // YYYY-MM
	ProgressAmount  int64   `gorm:"default:0"` // amount billed this period
	ProgressRate    float64 `gorm:"default:0"` // % complete
	CostAmount      int64   `gorm:"default:0"`
	GrossProfit     int64   `gorm:"default:0"`
	GrossProfitRate float64 `gorm:"default:0"`
	Note            string  `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
