package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/pricing"
	"github.com/hiflogistics/freight_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Quotation struct {
	ID                     int               `gorm:"primary_key" json:"id"`
	QuotationNumber        string            `gorm:"size:20;not null;uniqueIndex" json:"quotation_number"`
	CompanyId              int               `gorm:"index;not null" json:"company_id"`
	CustomerName           string            `gorm:"size:255" json:"customer_name"`
	ContactPerson          string            `gorm:"size:255" json:"contact_person"`
	ContractNo             string            `gorm:"size:100" json:"contract_no"`
	DestinationId          int               `gorm:"index;not null" json:"destination_id"`
	DeliveryRequired       *bool             `gorm:"not null;default:false" json:"delivery_required"`
	VehicleType            string            `gorm:"size:30" json:"vehicle_type"`
	Notes                  string            `gorm:"type:text" json:"notes"`
	Status                 QuotationStatus   `gorm:"size:20;not null;index" json:"status"`
	Currency               string            `gorm:"size:3;not null" json:"currency"`
	TotalFreightCost       decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"total_freight_cost"`
	ClearanceCost          decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"clearance_cost"`
	DeliveryCost           decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"delivery_cost"`
	SubTotal               decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"sub_total"`
	TotalAdditionalCharges decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"total_additional_charges"`
	TotalCost              decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"total_cost"`
	TotalVolumeWeight      decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"total_volume_weight"`
	TotalActualWeight      decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"total_actual_weight"`
	ChargeableWeight       decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"chargeable_weight"`
	TotalVolumeCBM         decimal.Decimal   `gorm:"column:total_volume_cbm;type:decimal(20,4);default:0" json:"total_volume_cbm"`
	ShareToken             *string           `gorm:"size:64;uniqueIndex" json:"share_token,omitempty"`
	RequestedByCustomer    *bool             `gorm:"not null;default:false" json:"requested_by_customer"`
	CompletedAt            *time.Time        `json:"completed_at"`
	CreatedAt              time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	Pallets                []QuotationPallet `gorm:"foreignKey:QuotationId" json:"pallets,omitempty"`
	Charges                []QuotationCharge `gorm:"foreignKey:QuotationId" json:"additional_charges,omitempty"`
}

type QuotationPallet struct {
	ID               int             `gorm:"primary_key" json:"id"`
	QuotationId      int             `gorm:"index;not null" json:"quotation_id"`
	SeqNo            int             `gorm:"not null" json:"seq_no"`
	Length           decimal.Decimal `gorm:"type:decimal(20,4)" json:"length"`
	Width            decimal.Decimal `gorm:"type:decimal(20,4)" json:"width"`
	Height           decimal.Decimal `gorm:"type:decimal(20,4)" json:"height"`
	Weight           decimal.Decimal `gorm:"type:decimal(20,4)" json:"weight"`
	Quantity         int             `gorm:"not null;default:1" json:"quantity"`
	VolumeWeight     decimal.Decimal `gorm:"type:decimal(20,4)" json:"volume_weight"`
	ChargeableWeight decimal.Decimal `gorm:"type:decimal(20,4)" json:"chargeable_weight"`
	Rate             decimal.Decimal `gorm:"type:decimal(20,4)" json:"rate"`
	Cost             decimal.Decimal `gorm:"type:decimal(20,4)" json:"cost"`
	Skipped          *bool           `gorm:"not null;default:false" json:"skipped"`
}

type QuotationCharge struct {
	ID          int             `gorm:"primary_key" json:"id"`
	QuotationId int             `gorm:"index;not null" json:"quotation_id"`
	SeqNo       int             `gorm:"not null" json:"seq_no"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4)" json:"amount"`
}

func (q Quotation) GetCursor() string {
	return fmt.Sprint(q.ID)
}

func (q Quotation) IsLocked() bool {
	return q.Status == QuotationStatusCompleted
}

type NewQuotation struct {
	CompanyId           int                  `json:"company_id" validate:"required"`
	CustomerName        string               `json:"customer_name" validate:"max=255"`
	ContactPerson       string               `json:"contact_person" validate:"max=255"`
	ContractNo          string               `json:"contract_no" validate:"max=100"`
	DestinationId       int                  `json:"destination_id" validate:"required"`
	Pallets             []NewQuotationPallet `json:"pallets"`
	DeliveryRequired    bool                 `json:"delivery_required"`
	VehicleType         string               `json:"vehicle_type"`
	ClearanceCost       *decimal.Decimal     `json:"clearance_cost"`
	AdditionalCharges   []NewQuotationCharge `json:"additional_charges" validate:"dive"`
	Notes               string               `json:"notes"`
	Status              QuotationStatus      `json:"status"`
	Currency            string               `json:"currency"`
	RequestedByCustomer bool                 `json:"-"`
}

func (input *NewQuotation) pricingRequest() *PricingRequest {
	return &PricingRequest{
		DestinationId:     input.DestinationId,
		Pallets:           input.Pallets,
		DeliveryRequired:  input.DeliveryRequired,
		VehicleType:       input.VehicleType,
		ClearanceCost:     input.ClearanceCost,
		AdditionalCharges: input.AdditionalCharges,
	}
}

func (input *NewQuotation) validate(ctx context.Context) (*Company, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if len(input.Pallets) == 0 {
		return nil, utils.NewValidationError("pallets", "at least one pallet is required")
	}
	company, err := utils.FetchModel[Company](ctx, input.CompanyId)
	if err != nil {
		return nil, utils.NewValidationError("company_id", "company not found")
	}
	if err := utils.ValidateResourceId[Destination](ctx, input.DestinationId); err != nil {
		return nil, utils.NewValidationError("destination_id", "destination not found")
	}
	if input.Status == "" {
		input.Status = QuotationStatusDraft
	}
	if !input.Status.IsValid() {
		return nil, utils.NewValidationError("status", "unknown quotation status")
	}
	if input.Currency == "" {
		input.Currency = config.DefaultCurrency()
	}
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	if input.CustomerName == "" {
		input.CustomerName = company.Name
	}
	if !input.DeliveryRequired {
		input.VehicleType = ""
	}
	return company, nil
}

func applyBreakdown(q *Quotation, res *pricing.Result) {
	q.TotalFreightCost = res.TotalFreightCost
	q.ClearanceCost = res.ClearanceCost
	q.DeliveryCost = res.DeliveryCost
	q.SubTotal = res.SubTotal
	q.TotalAdditionalCharges = res.TotalAdditionalCharges
	q.TotalCost = res.TotalCost
	q.TotalVolumeWeight = res.TotalVolumeWeight
	q.TotalActualWeight = res.TotalActualWeight
	q.ChargeableWeight = res.ChargeableWeight
	q.TotalVolumeCBM = res.TotalVolumeCBM
}

func buildQuotationChildren(input *NewQuotation, res *pricing.Result) ([]QuotationPallet, []QuotationCharge) {
	pallets := make([]QuotationPallet, 0, len(input.Pallets))
	for i, p := range input.Pallets {
		b := res.Pallets[i]
		pallets = append(pallets, QuotationPallet{
			SeqNo:            i + 1,
			Length:           p.Length,
			Width:            p.Width,
			Height:           p.Height,
			Weight:           p.Weight,
			Quantity:         b.Quantity,
			VolumeWeight:     b.VolumeWeight,
			ChargeableWeight: b.ChargeableWeight,
			Rate:             b.Rate,
			Cost:             b.Cost,
			Skipped:          &b.Skipped,
		})
	}
	charges := make([]QuotationCharge, 0, len(input.AdditionalCharges))
	for i, c := range input.AdditionalCharges {
		charges = append(charges, QuotationCharge{
			SeqNo:       i + 1,
			Name:        c.Name,
			Description: c.Description,
			Amount:      c.Amount,
		})
	}
	return pallets, charges
}

func CreateQuotation(ctx context.Context, input *NewQuotation) (*Quotation, error) {
	ctx, span := tracer.Start(ctx, "quotation.create")
	defer span.End()

	if _, err := input.validate(ctx); err != nil {
		return nil, err
	}
	res, err := PriceQuotation(ctx, input.pricingRequest())
	if err != nil {
		return nil, err
	}

	quotation := Quotation{
		CompanyId:           input.CompanyId,
		CustomerName:        input.CustomerName,
		ContactPerson:       input.ContactPerson,
		ContractNo:          input.ContractNo,
		DestinationId:       input.DestinationId,
		DeliveryRequired:    &input.DeliveryRequired,
		VehicleType:         input.VehicleType,
		Notes:               input.Notes,
		Status:              input.Status,
		Currency:            input.Currency,
		RequestedByCustomer: &input.RequestedByCustomer,
	}
	applyBreakdown(&quotation, res)
	quotation.Pallets, quotation.Charges = buildQuotationChildren(input, res)
	if quotation.Status == QuotationStatusCompleted {
		now := time.Now().UTC()
		quotation.CompletedAt = &now
	}

	release := utils.ObtainLock(ctx, "quotation-number", 10*time.Second, "models", "CreateQuotation")
	defer release()

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := nextSequenceNumber[Quotation](tx, "quotation_number", quotationNumberPrefix(utils.LocalNow()), 4)
		if err != nil {
			return err
		}
		quotation.QuotationNumber = number
		if err := tx.Create(&quotation).Error; err != nil {
			return err
		}
		description := describeTotalAmount("Quotation", quotation.QuotationNumber, quotation.Currency, quotation.TotalCost)
		if err := createHistory(tx, HistoryActionCreate, quotation.ID, string(EventReferenceQuotation), nil, &quotation, description); err != nil {
			return err
		}
		return recordEvent(tx, EventReferenceQuotation, quotation.ID, EventActionCreate, &quotation, nil)
	})
	if err != nil {
		return nil, err
	}
	return &quotation, nil
}

// UpdateQuotation re-prices the quotation and replaces its pallets and charges.
func UpdateQuotation(ctx context.Context, id int, input *NewQuotation) (*Quotation, error) {
	ctx, span := tracer.Start(ctx, "quotation.update")
	defer span.End()

	oldQuotation, err := GetQuotation(ctx, id)
	if err != nil {
		return nil, err
	}
	if oldQuotation.IsLocked() {
		return nil, ErrQuotationLocked
	}
	if input.Status == "" {
		input.Status = oldQuotation.Status
	}
	if _, err := input.validate(ctx); err != nil {
		return nil, err
	}
	if err := checkStatusTransition(oldQuotation.Status, input.Status); err != nil {
		return nil, err
	}
	res, err := PriceQuotation(ctx, input.pricingRequest())
	if err != nil {
		return nil, err
	}

	quotation := *oldQuotation
	quotation.CompanyId = input.CompanyId
	quotation.CustomerName = input.CustomerName
	quotation.ContactPerson = input.ContactPerson
	quotation.ContractNo = input.ContractNo
	quotation.DestinationId = input.DestinationId
	quotation.DeliveryRequired = &input.DeliveryRequired
	quotation.VehicleType = input.VehicleType
	quotation.Notes = input.Notes
	quotation.Status = input.Status
	quotation.Currency = input.Currency
	applyBreakdown(&quotation, res)
	if quotation.Status == QuotationStatusCompleted && quotation.CompletedAt == nil {
		now := time.Now().UTC()
		quotation.CompletedAt = &now
	}
	pallets, charges := buildQuotationChildren(input, res)
	quotation.Pallets = nil
	quotation.Charges = nil

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quotation_id = ?", id).Delete(&QuotationPallet{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quotation_id = ?", id).Delete(&QuotationCharge{}).Error; err != nil {
			return err
		}
		if err := tx.Omit("Pallets", "Charges").Save(&quotation).Error; err != nil {
			return err
		}
		for i := range pallets {
			pallets[i].QuotationId = id
		}
		for i := range charges {
			charges[i].QuotationId = id
		}
		if len(pallets) > 0 {
			if err := tx.Create(&pallets).Error; err != nil {
				return err
			}
		}
		if len(charges) > 0 {
			if err := tx.Create(&charges).Error; err != nil {
				return err
			}
		}
		quotation.Pallets = pallets
		quotation.Charges = charges

		description := describeTotalAmount("Quotation", quotation.QuotationNumber, quotation.Currency, quotation.TotalCost)
		if err := createHistory(tx, HistoryActionUpdate, id, string(EventReferenceQuotation), oldQuotation, &quotation, description); err != nil {
			return err
		}
		action := EventActionUpdate
		if oldQuotation.Status != quotation.Status {
			action = EventActionStatus
		}
		return recordEvent(tx, EventReferenceQuotation, id, action, &quotation, oldQuotation)
	})
	if err != nil {
		return nil, err
	}
	return &quotation, nil
}

// DeleteQuotation removes the quotation with its documents and debit note and
// unlinks any opportunity.
func DeleteQuotation(ctx context.Context, id int) (*Quotation, error) {
	quotation, err := GetQuotation(ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quotation_id = ?", id).Delete(&QuotationPallet{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quotation_id = ?", id).Delete(&QuotationCharge{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quotation_id = ?", id).Delete(&DocumentSubmission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quotation_id = ?", id).Delete(&DebitNote{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&Opportunity{}).Where("quotation_id = ?", id).Update("quotation_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Quotation{}, id).Error; err != nil {
			return err
		}
		description := fmt.Sprintf("Quotation %s deleted.", quotation.QuotationNumber)
		if err := createHistory(tx, HistoryActionDelete, id, string(EventReferenceQuotation), quotation, nil, description); err != nil {
			return err
		}
		return recordEvent(tx, EventReferenceQuotation, id, EventActionDelete, nil, quotation)
	})
	if err != nil {
		return nil, err
	}
	return quotation, nil
}

func GetQuotation(ctx context.Context, id int) (*Quotation, error) {
	db := config.GetDB()
	var quotation Quotation
	err := db.WithContext(ctx).
		Preload("Pallets", func(db *gorm.DB) *gorm.DB { return db.Order("seq_no") }).
		Preload("Charges", func(db *gorm.DB) *gorm.DB { return db.Order("seq_no") }).
		First(&quotation, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &quotation, nil
}

type QuotationFilter struct {
	Status        *QuotationStatus `form:"status"`
	CompanyId     *int             `form:"company_id"`
	DestinationId *int             `form:"destination_id"`
	Search        *string          `form:"search"`
	From          *time.Time       `form:"from" time_format:"2006-01-02"`
	To            *time.Time       `form:"to" time_format:"2006-01-02"`
}

func (f QuotationFilter) apply(dbCtx *gorm.DB) *gorm.DB {
	if f.Status != nil && *f.Status != "" {
		dbCtx = dbCtx.Where("status = ?", *f.Status)
	}
	if f.CompanyId != nil && *f.CompanyId > 0 {
		dbCtx = dbCtx.Where("company_id = ?", *f.CompanyId)
	}
	if f.DestinationId != nil && *f.DestinationId > 0 {
		dbCtx = dbCtx.Where("destination_id = ?", *f.DestinationId)
	}
	if f.Search != nil && *f.Search != "" {
		like := "%" + *f.Search + "%"
		dbCtx = dbCtx.Where("quotation_number LIKE ? OR customer_name LIKE ? OR contract_no LIKE ?", like, like, like)
	}
	if f.From != nil {
		dbCtx = dbCtx.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		dbCtx = dbCtx.Where("created_at < ?", f.To.AddDate(0, 0, 1))
	}
	return dbCtx
}

type QuotationsConnection struct {
	Edges    []Edge[Quotation] `json:"edges"`
	PageInfo *PageInfo         `json:"page_info"`
}

// PaginateQuotations lists headers newest first.
func PaginateQuotations(ctx context.Context, filter QuotationFilter, limit int, after *string) (*QuotationsConnection, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	db := config.GetDB()
	dbCtx := filter.apply(db.WithContext(ctx).Model(&Quotation{}))
	edges, pageInfo, err := FetchPagePureCursor[Quotation](dbCtx, limit, after, "id", "<")
	if err != nil {
		return nil, err
	}
	return &QuotationsConnection{Edges: edges, PageInfo: pageInfo}, nil
}

// GetQuotations lists every matching quotation with its children, for exports.
func GetQuotations(ctx context.Context, filter QuotationFilter) ([]*Quotation, error) {
	db := config.GetDB()
	dbCtx := filter.apply(db.WithContext(ctx).Model(&Quotation{}))
	var results []*Quotation
	err := dbCtx.
		Preload("Pallets", func(db *gorm.DB) *gorm.DB { return db.Order("seq_no") }).
		Preload("Charges", func(db *gorm.DB) *gorm.DB { return db.Order("seq_no") }).
		Order("id DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// DuplicateQuotation creates a new draft from an existing quotation, priced with current rates.
func DuplicateQuotation(ctx context.Context, id int) (*Quotation, error) {
	source, err := GetQuotation(ctx, id)
	if err != nil {
		return nil, err
	}
	clearance := source.ClearanceCost
	input := NewQuotation{
		CompanyId:        source.CompanyId,
		CustomerName:     source.CustomerName,
		ContactPerson:    source.ContactPerson,
		ContractNo:       source.ContractNo,
		DestinationId:    source.DestinationId,
		DeliveryRequired: utils.DereferencePtr(source.DeliveryRequired),
		VehicleType:      source.VehicleType,
		ClearanceCost:    &clearance,
		Notes:            source.Notes,
		Status:           QuotationStatusDraft,
		Currency:         source.Currency,
	}
	for _, p := range source.Pallets {
		input.Pallets = append(input.Pallets, NewQuotationPallet{
			Length: p.Length, Width: p.Width, Height: p.Height, Weight: p.Weight, Quantity: p.Quantity,
		})
	}
	for _, c := range source.Charges {
		input.AdditionalCharges = append(input.AdditionalCharges, NewQuotationCharge{
			Name: c.Name, Description: c.Description, Amount: c.Amount,
		})
	}
	return CreateQuotation(ctx, &input)
}
