package models

import (
	"context"
	"fmt"
	"time"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/utils"
	"gorm.io/gorm"
)

// checkStatusTransition enforces the lifecycle table when STRICT_QUOTATION_STATUS is on.
// Without the flag any known status may be set.
func checkStatusTransition(from, to QuotationStatus) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if config.StrictQuotationStatus() && !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, from, to)
	}
	return nil
}

func UpdateQuotationStatus(ctx context.Context, id int, status QuotationStatus) (*Quotation, error) {
	oldQuotation, err := utils.FetchModel[Quotation](ctx, id)
	if err != nil {
		return nil, err
	}
	if oldQuotation.Status == status {
		return oldQuotation, nil
	}
	if err := checkStatusTransition(oldQuotation.Status, status); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var quotation Quotation
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := changeQuotationStatus(tx, oldQuotation, status); err != nil {
			return err
		}
		return tx.First(&quotation, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &quotation, nil
}

// changeQuotationStatus writes the new status with its history row and outbox event
// inside tx. Entering completed stamps completed_at.
func changeQuotationStatus(tx *gorm.DB, oldQuotation *Quotation, status QuotationStatus) error {
	updates := map[string]interface{}{"status": status}
	if status == QuotationStatusCompleted && oldQuotation.CompletedAt == nil {
		now := time.Now().UTC()
		updates["completed_at"] = &now
	}
	if err := tx.Model(&Quotation{}).Where("id = ?", oldQuotation.ID).Updates(updates).Error; err != nil {
		return err
	}

	newQuotation := *oldQuotation
	newQuotation.Status = status
	if v, ok := updates["completed_at"]; ok {
		newQuotation.CompletedAt = v.(*time.Time)
	}
	description := fmt.Sprintf("Quotation %s status changed from %s to %s.", oldQuotation.QuotationNumber, oldQuotation.Status, status)
	if err := createHistory(tx, HistoryActionStatus, oldQuotation.ID, string(EventReferenceQuotation),
		map[string]interface{}{"status": oldQuotation.Status},
		map[string]interface{}{"status": status},
		description); err != nil {
		return err
	}
	return recordEvent(tx, EventReferenceQuotation, oldQuotation.ID, EventActionStatus, &newQuotation, oldQuotation)
}
