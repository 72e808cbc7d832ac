package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DebitNote struct {
	ID          int        `gorm:"primary_key" json:"id"`
	QuotationId int        `gorm:"uniqueIndex;not null" json:"quotation_id"`
	DebitNoteNo string     `gorm:"size:30;not null;uniqueIndex" json:"debit_note_no"`
	DateOfIssue time.Time  `gorm:"not null" json:"date_of_issue"`
	AwbNumber   string     `gorm:"size:50;index" json:"awb_number"`
	Remarks     string     `gorm:"type:text" json:"remarks"`
	CreatedBy   string     `gorm:"size:100" json:"created_by"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	Quotation   *Quotation `gorm:"foreignKey:QuotationId" json:"quotation,omitempty"`
}

type DebitNoteLine struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// DebitNoteView is a debit note with the charges billed from its quotation.
// Saved is false for a draft that has not been stored yet.
type DebitNoteView struct {
	DebitNote *DebitNote      `json:"debit_note"`
	Saved     bool            `json:"saved"`
	Lines     []DebitNoteLine `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency"`
}

type NewDebitNote struct {
	DateOfIssue *time.Time `json:"date_of_issue"`
	AwbNumber   string     `json:"awb_number" validate:"max=50"`
	Remarks     string     `json:"remarks"`
}

// DebitNoteLines bills freight first, then delivery, clearance and each additional charge.
// Zero delivery and clearance amounts are left off.
func DebitNoteLines(q *Quotation, destination string) ([]DebitNoteLine, decimal.Decimal) {
	lines := []DebitNoteLine{{
		Description: "Freight Cost - From Bangkok to " + destination,
		Amount:      q.TotalFreightCost,
	}}
	if utils.DereferencePtr(q.DeliveryRequired) && q.DeliveryCost.IsPositive() {
		lines = append(lines, DebitNoteLine{
			Description: fmt.Sprintf("Delivery Service (%s)", strings.ToUpper(q.VehicleType)),
			Amount:      q.DeliveryCost,
		})
	}
	if q.ClearanceCost.IsPositive() {
		lines = append(lines, DebitNoteLine{Description: "Clearance & Handling Fee", Amount: q.ClearanceCost})
	}
	for _, c := range q.Charges {
		description := c.Description
		if description == "" {
			description = c.Name
		}
		lines = append(lines, DebitNoteLine{Description: description, Amount: c.Amount})
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return lines, total
}

func buildDebitNoteView(ctx context.Context, note *DebitNote, saved bool) (*DebitNoteView, error) {
	quotation, err := GetQuotation(ctx, note.QuotationId)
	if err != nil {
		return nil, err
	}
	destination, err := GetDestination(ctx, quotation.DestinationId)
	if err != nil {
		return nil, err
	}
	note.Quotation = quotation
	lines, total := DebitNoteLines(quotation, destination.Country)
	return &DebitNoteView{
		DebitNote: note,
		Saved:     saved,
		Lines:     lines,
		Total:     total,
		Currency:  quotation.Currency,
	}, nil
}

func getDebitNoteByQuotation(ctx context.Context, quotationId int) (*DebitNote, error) {
	db := config.GetDB()
	var note DebitNote
	err := db.WithContext(ctx).Where("quotation_id = ?", quotationId).First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// GetOrDraftDebitNote returns the stored note for the quotation, or an unsaved draft
// carrying the next free number.
func GetOrDraftDebitNote(ctx context.Context, quotationId int) (*DebitNoteView, error) {
	if err := utils.ValidateResourceId[Quotation](ctx, quotationId); err != nil {
		return nil, err
	}
	note, err := getDebitNoteByQuotation(ctx, quotationId)
	if err != nil {
		return nil, err
	}
	if note != nil {
		return buildDebitNoteView(ctx, note, true)
	}

	now := utils.LocalNow()
	db := config.GetDB()
	number, err := nextSequenceNumber[DebitNote](db.WithContext(ctx), "debit_note_no", debitNoteNumberPrefix(config.DebitNotePrefix(), now), 4)
	if err != nil {
		return nil, err
	}
	draft := &DebitNote{
		QuotationId: quotationId,
		DebitNoteNo: number,
		DateOfIssue: now,
	}
	return buildDebitNoteView(ctx, draft, false)
}

// SaveDebitNote creates the quotation's debit note or updates the existing one.
func SaveDebitNote(ctx context.Context, quotationId int, input *NewDebitNote) (*DebitNoteView, error) {
	input.AwbNumber = strings.TrimSpace(input.AwbNumber)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	quotation, err := utils.FetchModel[Quotation](ctx, quotationId)
	if err != nil {
		return nil, err
	}
	existing, err := getDebitNoteByQuotation(ctx, quotationId)
	if err != nil {
		return nil, err
	}

	release := utils.ObtainLock(ctx, "debit-note-number", 10*time.Second, "models", "SaveDebitNote")
	defer release()

	db := config.GetDB()
	var note DebitNote
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if existing == nil {
			now := utils.LocalNow()
			number, err := nextSequenceNumber[DebitNote](tx, "debit_note_no", debitNoteNumberPrefix(config.DebitNotePrefix(), now), 4)
			if err != nil {
				return err
			}
			note = DebitNote{
				QuotationId: quotationId,
				DebitNoteNo: number,
				DateOfIssue: utils.DereferencePtr(input.DateOfIssue, now),
				AwbNumber:   input.AwbNumber,
				Remarks:     input.Remarks,
				CreatedBy:   utils.GetActorNameFromContext(tx.Statement.Context),
			}
			if err := tx.Create(&note).Error; err != nil {
				return err
			}
			description := describeTotalAmount("Debit note", note.DebitNoteNo, quotation.Currency, quotation.TotalCost)
			if err := createHistory(tx, HistoryActionCreate, note.ID, string(EventReferenceDebitNote), nil, &note, description); err != nil {
				return err
			}
			return recordEvent(tx, EventReferenceDebitNote, note.ID, EventActionCreate, &note, nil)
		}

		note = *existing
		note.AwbNumber = input.AwbNumber
		note.Remarks = input.Remarks
		if input.DateOfIssue != nil {
			note.DateOfIssue = *input.DateOfIssue
		}
		if err := tx.Model(&DebitNote{}).Where("id = ?", note.ID).Updates(map[string]interface{}{
			"awb_number":    note.AwbNumber,
			"remarks":       note.Remarks,
			"date_of_issue": note.DateOfIssue,
		}).Error; err != nil {
			return err
		}
		description := fmt.Sprintf("Debit note %s updated.", note.DebitNoteNo)
		if err := createHistory(tx, HistoryActionUpdate, note.ID, string(EventReferenceDebitNote), existing, &note, description); err != nil {
			return err
		}
		return recordEvent(tx, EventReferenceDebitNote, note.ID, EventActionUpdate, &note, existing)
	})
	if err != nil {
		return nil, err
	}
	return buildDebitNoteView(ctx, &note, true)
}

func DeleteDebitNote(ctx context.Context, id int) (*DebitNote, error) {
	note, err := utils.FetchModel[DebitNote](ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(note).Error; err != nil {
			return err
		}
		description := fmt.Sprintf("Debit note %s deleted.", note.DebitNoteNo)
		if err := createHistory(tx, HistoryActionDelete, note.ID, string(EventReferenceDebitNote), note, nil, description); err != nil {
			return err
		}
		return recordEvent(tx, EventReferenceDebitNote, note.ID, EventActionDelete, nil, note)
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

type DebitNoteFilter struct {
	HasAwb *bool   `form:"has_awb"`
	Search *string `form:"search"`
}

// GetDebitNotes lists notes newest first with their quotation headers.
func GetDebitNotes(ctx context.Context, filter DebitNoteFilter) ([]*DebitNote, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&DebitNote{})
	if filter.HasAwb != nil {
		if *filter.HasAwb {
			dbCtx = dbCtx.Where("awb_number <> ''")
		} else {
			dbCtx = dbCtx.Where("awb_number = '' OR awb_number IS NULL")
		}
	}
	if filter.Search != nil && *filter.Search != "" {
		like := "%" + *filter.Search + "%"
		dbCtx = dbCtx.Where("debit_note_no LIKE ? OR awb_number LIKE ?", like, like)
	}
	var results []*DebitNote
	if err := dbCtx.Preload("Quotation").Order("date_of_issue DESC").Order("id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
