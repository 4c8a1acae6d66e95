package models

import "time"

type ReceivableStatus string

const (
	ReceivablePlanned   ReceivableStatus = "planned"
	ReceivableBilled    ReceivableStatus = "billed"
	ReceivableCollected ReceivableStatus = "collected"
)

type PayableStatus string

const (
	PayablePlanned PayableStatus = "planned"
	PayablePaid    PayableStatus = "paid"
)

// Receivable - projected incoming payment. Rows created by the
// projector carry ProgressID (at most one per progress entry, enforced
// by the unique index); manually entered rows leave it nil.
type Receivable struct {
	ID           uint   `gorm:"primaryKey"`
	ProjectID    uint   `gorm:"index;not null"`
	ProgressID   *uint  `gorm:"uniqueIndex"`
	ClientName   string `gorm:"size:100;not null"` // denormalized at creation time
	Description  string `gorm:"size:255"`
	Amount       int64  `gorm:"default:0"`
	BillingDate  *time.Time `gorm:"type:date"`
	ExpectedDate time.Time  `gorm:"type:date;not null;index"`
	ActualDate   *time.Time `gorm:"type:date"`
	Status       ReceivableStatus `gorm:"size:20;default:'planned'"`
	Note         string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Payable - projected outgoing payment, manual entry for now. CostID is
// the hook for automating creation from cost rows.
type Payable struct {
	ID           uint   `gorm:"primaryKey"`
	ProjectID    *uint  `gorm:"index"`
	CostID       *uint  `gorm:"uniqueIndex"`
	VendorName   string `gorm:"size:100;not null"`
	Category     string `gorm:"size:50"` // subcontract / material / machinery / expense
	Description  string `gorm:"size:255"`
	Amount       int64  `gorm:"default:0"`
	InvoiceDate  *time.Time `gorm:"type:date"`
	ExpectedDate time.Time  `gorm:"type:date;not null;index"`
	ActualDate   *time.Time `gorm:"type:date"`
	Status       PayableStatus `gorm:"size:20;default:'planned'"`
	Note         string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
