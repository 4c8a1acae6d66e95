package forecast

import (
	"errors"
	"fmt"

	"kensetsu-backend/internal/billing"
	"kensetsu-backend/internal/models"

	"gorm.io/gorm"
)

// ProjectReceivable creates or refreshes the receivable forecast linked
// to a progress entry. Runs inside the caller's transaction so a failure
// here rolls back the progress write as well.
//
// Terms come from the Client master matched by the project's client
// name; a missing master row is not an error, the injected defaults
// apply. The reference date is the first day of the entry's month, so
// the expected date only depends on the billed period, not on when the
// entry was recorded.
//
// Upsert key is progress_id: an existing forecast keeps its status,
// actual/billing dates, description and note, and only gets amount and
// expected_date recomputed.
func ProjectReceivable(tx *gorm.DB, defaults billing.Terms, project *models.Project, entry *models.MonthlyProgress) error {
	terms := defaults
	if project.Client != "" {
		var client models.Client
		err := tx.Where("name = ?", project.Client).First(&client).Error
		switch {
		case err == nil:
			terms = billing.Terms{
				ClosingDay:  client.ClosingDay,
				PaymentDay:  client.PaymentDay,
				MonthOffset: client.MonthOffset,
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
	}

	ref, err := billing.FirstOfMonth(entry.YearMonth)
	if err != nil {
		return fmt.Errorf("invalid year_month %q: %w", entry.YearMonth, err)
	}
	expected := billing.PaymentDate(ref, terms)

	var rec models.Receivable
	err = tx.Where("progress_id = ?", entry.ID).First(&rec).Error
	switch {
	case err == nil:
		// fall through to update
	case errors.Is(err, gorm.ErrRecordNotFound):
		clientName := project.Client
		if clientName == "" {
			clientName = "unspecified"
		}
		rec = models.Receivable{
			ProjectID:    entry.ProjectID,
			ProgressID:   &entry.ID,
			ClientName:   clientName,
			Description:  entry.YearMonth + " progress billing",
			Amount:       entry.ProgressAmount,
			ExpectedDate: expected,
			Status:       models.ReceivablePlanned,
		}
		created, err := insertReceivableOrReread(tx, &rec)
		if err != nil {
			return err
		}
		if created {
			return nil
		}
	default:
		return err
	}

	return tx.Model(&rec).Updates(map[string]any{
		"amount":        entry.ProgressAmount,
		"expected_date": expected,
	}).Error
}

// insertReceivableOrReread attempts the insert inside a savepoint, so a
// duplicate on the progress_id unique index cannot abort the caller's
// transaction (Postgres refuses every statement after a failed one
// otherwise). On a lost race rec is re-read from the winner's row and
// created is false: the caller updates it instead.
func insertReceivableOrReread(tx *gorm.DB, rec *models.Receivable) (created bool, err error) {
	createErr := tx.Transaction(func(tx *gorm.DB) error {
		return tx.Create(rec).Error
	})
	if createErr == nil {
		return true, nil
	}
	if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
		return false, createErr
	}
	return false, tx.Where("progress_id = ?", *rec.ProgressID).First(rec).Error
}

// insertPayableOrReread is the cost_id counterpart of
// insertReceivableOrReread.
func insertPayableOrReread(tx *gorm.DB, pay *models.Payable) (created bool, err error) {
	createErr := tx.Transaction(func(tx *gorm.DB) error {
		return tx.Create(pay).Error
	})
	if createErr == nil {
		return true, nil
	}
	if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
		return false, createErr
	}
	return false, tx.Where("cost_id = ?", *pay.CostID).First(pay).Error
}

// ProjectPayable is the cost-side counterpart: it upserts a payable
// forecast keyed on cost_id, with terms from the Vendor master. No
// route calls it yet - cost entry stays manual - but the projection is
// in place for when payable creation is automated.
func ProjectPayable(tx *gorm.DB, defaults billing.Terms, vendorName string, cost *models.Cost) error {
	if cost.Date == nil {
		return errors.New("cost has no date to project from")
	}

	terms := defaults
	if vendorName != "" {
		var vendor models.Vendor
		err := tx.Where("name = ?", vendorName).First(&vendor).Error
		switch {
		case err == nil:
			terms = billing.Terms{
				ClosingDay:  vendor.ClosingDay,
				PaymentDay:  vendor.PaymentDay,
				MonthOffset: vendor.MonthOffset,
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
	}

	expected := billing.PaymentDate(*cost.Date, terms)

	var pay models.Payable
	err := tx.Where("cost_id = ?", cost.ID).First(&pay).Error
	switch {
	case err == nil:
		// fall through to update
	case errors.Is(err, gorm.ErrRecordNotFound):
		name := vendorName
		if name == "" {
			name = "unspecified"
		}
		pay = models.Payable{
			ProjectID:    &cost.ProjectID,
			CostID:       &cost.ID,
			VendorName:   name,
			Category:     cost.Category,
			Description:  cost.Description,
			Amount:       cost.Amount,
			ExpectedDate: expected,
			Status:       models.PayablePlanned,
		}
		created, err := insertPayableOrReread(tx, &pay)
		if err != nil {
			return err
		}
		if created {
			return nil
		}
	default:
		return err
	}

	return tx.Model(&pay).Updates(map[string]any{
		"amount":        cost.Amount,
		"expected_date": expected,
	}).Error
}
