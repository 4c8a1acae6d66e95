package cashflow

import (
	"errors"
	"time"

	"kensetsu-backend/internal/billing"
	"kensetsu-backend/internal/database"
	"kensetsu-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var ErrInvalidPeriod = errors.New("year_month must be in YYYY-MM format")

type ReceivableItem struct {
	ID           uint   `json:"id"`
	ProjectID    uint   `json:"project_id"`
	ClientName   string `json:"client_name"`
	Description  string `json:"description"`
	Amount       int64  `json:"amount"`
	ExpectedDate string `json:"expected_date"`
	Status       string `json:"status"`
}

type PayableItem struct {
	ID           uint   `json:"id"`
	ProjectID    *uint  `json:"project_id"`
	VendorName   string `json:"vendor_name"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	Amount       int64  `json:"amount"`
	ExpectedDate string `json:"expected_date"`
	Status       string `json:"status"`
}

type CashflowResponse struct {
	YearMonth       string           `json:"year_month"`
	Receivables     []ReceivableItem `json:"receivables"`
	Payables        []PayableItem    `json:"payables"`
	TotalReceivable int64            `json:"total_receivable"`
	TotalPayable    int64            `json:"total_payable"`
	NetCashflow     int64            `json:"net_cashflow"`
}

// Forecast computes the month's cashflow: every receivable and payable
// whose expected_date falls in [first of month, first of next month),
// regardless of status - an already-collected forecast still counts, as
// does one dated in the past that was never reconciled.
func Forecast(db *gorm.DB, yearMonth string) (*CashflowResponse, error) {
	start, end, err := billing.MonthWindow(yearMonth)
	if err != nil {
		return nil, ErrInvalidPeriod
	}

	var receivables []models.Receivable
	if err := db.Where("expected_date >= ? AND expected_date < ?", start, end).
		Order("expected_date").Find(&receivables).Error; err != nil {
		return nil, err
	}

	var payables []models.Payable
	if err := db.Where("expected_date >= ? AND expected_date < ?", start, end).
		Order("expected_date").Find(&payables).Error; err != nil {
		return nil, err
	}

	resp := &CashflowResponse{
		YearMonth:   yearMonth,
		Receivables: make([]ReceivableItem, 0, len(receivables)),
		Payables:    make([]PayableItem, 0, len(payables)),
	}

	for _, r := range receivables {
		resp.Receivables = append(resp.Receivables, ReceivableItem{
			ID:           r.ID,
			ProjectID:    r.ProjectID,
			ClientName:   r.ClientName,
			Description:  r.Description,
			Amount:       r.Amount,
			ExpectedDate: r.ExpectedDate.Format("2006-01-02"),
			Status:       string(r.Status),
		})
		resp.TotalReceivable += r.Amount
	}

	for _, p := range payables {
		resp.Payables = append(resp.Payables, PayableItem{
			ID:           p.ID,
			ProjectID:    p.ProjectID,
			VendorName:   p.VendorName,
			Category:     p.Category,
			Description:  p.Description,
			Amount:       p.Amount,
			ExpectedDate: p.ExpectedDate.Format("2006-01-02"),
			Status:       string(p.Status),
		})
		resp.TotalPayable += p.Amount
	}

	resp.NetCashflow = resp.TotalReceivable - resp.TotalPayable
	return resp, nil
}

// -------------------------------------------------
// GET /api/cashflow?year_month=2024-05
// year_month defaults to the current month.
// -------------------------------------------------
func GetCashflowHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		yearMonth := c.Query("year_month")
		if yearMonth == "" {
			yearMonth = time.Now().Format("2006-01")
		}

		resp, err := Forecast(database.DB, yearMonth)
		if err != nil {
			if errors.Is(err, ErrInvalidPeriod) {
				return fiber.NewError(fiber.StatusBadRequest, ErrInvalidPeriod.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not compute cashflow")
		}

		return c.JSON(resp)
	}
}
