package billing

import "time"

// Terms - a counterparty's billing cycle: the period closes on
// ClosingDay, payment is made on PaymentDay, MonthOffset months after
// the closing month (0=same month, 1=next month, ...).
type Terms struct {
	ClosingDay  int
	PaymentDay  int
	MonthOffset int
}

// PaymentDate computes the expected payment date for a charge dated ref
// under the given terms. A charge after the closing day rolls into the
// next period. PaymentDay is clamped to the last day of the payment
// month, so day 31 against February yields the 28th (29th in leap years).
func PaymentDate(ref time.Time, t Terms) time.Time {
	offset := t.MonthOffset
	if ref.Day() > t.ClosingDay {
		offset++
	}

	// Month arithmetic by hand: time.AddDate normalizes overflow days
	// (Jan 31 + 1 month = Mar 3), which is exactly what we must avoid.
	year := ref.Year()
	month := int(ref.Month()) + offset
	year += (month - 1) / 12
	month = (month-1)%12 + 1

	day := t.PaymentDay
	if last := lastDayOfMonth(year, time.Month(month)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func lastDayOfMonth(year int, month time.Month) int {
	// day 0 of the following month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthWindow parses a "YYYY-MM" period into its [start, end) day range:
// first day of the month through first day of the following month.
func MonthWindow(yearMonth string) (start, end time.Time, err error) {
	start, err = FirstOfMonth(yearMonth)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 1, 0), nil
}

// FirstOfMonth parses a "YYYY-MM" period into the first day of that month.
func FirstOfMonth(yearMonth string) (time.Time, error) {
	return time.Parse("2006-01", yearMonth)
}
