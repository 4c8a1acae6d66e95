package models

import "time"

type Project struct {
	ID           uint   `gorm:"primaryKey"`
	Code         string `gorm:"size:50;uniqueIndex"`
	Name         string `gorm:"size:200;not null"`
	Client       string `gorm:"size:100;index"` // client name, resolved against Client master at projection time
	Status       string `gorm:"size:50;default:'estimating'"`
	OrderAmount  int64  `gorm:"default:0"`
	BudgetAmount int64  `gorm:"default:0"`
	StartDate    *time.Time `gorm:"type:date"`
	EndDate      *time.Time `gorm:"type:date"`
	SalesPerson  string `gorm:"size:100"`
	SitePerson   string `gorm:"size:100"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
