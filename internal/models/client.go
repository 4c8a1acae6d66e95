package models

import "time"

// Client - general contractor master. Billing terms drive the
// receivable projection (see internal/forecast).
type Client struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string `gorm:"size:100;not null;uniqueIndex"`
	ContactPerson string `gorm:"size:100"`
	Phone         string `gorm:"size:50"`
	Address       string `gorm:"size:255"`
	ClosingDay    int    `gorm:"default:25"` // billing period closes on this day (1-31)
	PaymentDay    int    `gorm:"default:25"` // payment made on this day (1-31)
	MonthOffset   int    // months after closing month (0=same, 1=next); no column default, 0 is a real value
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Vendor - subcontractor/supplier master, payment side of the same terms.
type Vendor struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:100;not null;uniqueIndex"`
	Category     string `gorm:"size:50"` // subcontract / material / machinery
	DefaultPrice int64  `gorm:"default:0"`
	Unit         string `gorm:"size:20"`
	Phone        string `gorm:"size:50"`
	ClosingDay   int    `gorm:"default:25"`
	PaymentDay   int    `gorm:"default:25"`
	MonthOffset  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
