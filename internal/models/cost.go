package models

import "time"

// Cost - a recorded project cost. Payables may back-reference a cost
// row once payable creation is automated (hook in internal/forecast).
type Cost struct {
	ID          uint    `gorm:"primaryKey"`
	ProjectID   uint    `gorm:"index;not null"`
	Project     Project `gorm:"foreignKey:ProjectID"`
	Category    string  `gorm:"size:50"` // subcontract / material / machinery / expense
	Description string  `gorm:"size:255"`
	Amount      int64   `gorm:"default:0"`
	Date        *time.Time `gorm:"type:date"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
