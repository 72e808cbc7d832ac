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

var ErrQuotationAlreadyLinked = errors.New("quotation is already linked to another opportunity")

type Opportunity struct {
	ID             int               `gorm:"primary_key" json:"id"`
	Topic          string            `gorm:"size:255;not null" json:"topic"`
	CustomerName   string            `gorm:"size:255" json:"customer_name"`
	CompanyId      *int              `gorm:"index" json:"company_id"`
	CompanyName    string            `gorm:"size:255" json:"company_name"`
	Amount         decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Currency       string            `gorm:"size:3;not null" json:"currency"`
	Stage          OpportunityStage  `gorm:"size:30;not null;index" json:"stage"`
	Probability    int               `gorm:"not null;default:0" json:"probability"`
	CloseDate      *time.Time        `gorm:"index" json:"close_date"`
	OwnerName      string            `gorm:"size:100;index" json:"owner_name"`
	VehicleType    string            `gorm:"size:30" json:"vehicle_type"`
	ContainerSize  string            `gorm:"size:30" json:"container_size"`
	ProductDetails string            `gorm:"type:text" json:"product_details"`
	Notes          string            `gorm:"type:text" json:"notes"`
	DestinationId  *int              `gorm:"index" json:"destination_id"`
	QuotationId    *int              `gorm:"uniqueIndex" json:"quotation_id"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	Products       []Product         `gorm:"many2many:opportunity_products" json:"products,omitempty"`
	Tasks          []OpportunityTask `gorm:"foreignKey:OpportunityId" json:"tasks,omitempty"`
}

func (o Opportunity) GetCursor() string {
	return fmt.Sprint(o.ID)
}

// WeightedAmount is the amount scaled by the win probability.
func (o Opportunity) WeightedAmount() decimal.Decimal {
	return o.Amount.Mul(decimal.NewFromInt(int64(o.Probability))).Div(decimal.NewFromInt(100))
}

type NewOpportunity struct {
	Topic          string           `json:"topic" validate:"required,max=255"`
	CustomerName   string           `json:"customer_name" validate:"max=255"`
	CompanyId      *int             `json:"company_id"`
	Amount         decimal.Decimal  `json:"amount"`
	Currency       string           `json:"currency"`
	Stage          OpportunityStage `json:"stage"`
	Probability    *int             `json:"probability" validate:"omitempty,gte=0,lte=100"`
	CloseDate      *time.Time       `json:"close_date"`
	OwnerName      string           `json:"owner_name" validate:"max=100"`
	VehicleType    string           `json:"vehicle_type" validate:"max=30"`
	ContainerSize  string           `json:"container_size" validate:"max=30"`
	ProductDetails string           `json:"product_details"`
	Notes          string           `json:"notes"`
	DestinationId  *int             `json:"destination_id"`
	ProductIds     []int            `json:"product_ids"`
	QuotationId    *int             `json:"quotation_id"`
}

func (input *NewOpportunity) validate(ctx context.Context, id int) (string, error) {
	input.Topic = strings.TrimSpace(input.Topic)
	if err := utils.ValidateStruct(input); err != nil {
		return "", err
	}
	if input.Amount.IsNegative() {
		return "", utils.NewValidationError("amount", "amount cannot be negative")
	}
	if input.Stage == "" {
		input.Stage = OpportunityStageInquiry
	}
	if !input.Stage.IsValid() {
		return "", utils.NewValidationError("stage", "unknown stage")
	}
	if input.Probability == nil {
		p := input.Stage.DefaultProbability()
		input.Probability = &p
	}
	if input.Currency == "" {
		input.Currency = config.DefaultCurrency()
	}
	if input.OwnerName == "" {
		input.OwnerName = utils.GetActorNameFromContext(ctx)
	}

	companyName := ""
	if input.CompanyId != nil && *input.CompanyId > 0 {
		company, err := GetCompany(ctx, *input.CompanyId)
		if err != nil {
			return "", utils.NewValidationError("company_id", "company not found")
		}
		companyName = company.Name
		if input.CustomerName == "" {
			input.CustomerName = company.Name
		}
	} else {
		input.CompanyId = nil
	}
	if input.DestinationId != nil && *input.DestinationId > 0 {
		if err := utils.ValidateResourceId[Destination](ctx, *input.DestinationId); err != nil {
			return "", utils.NewValidationError("destination_id", "destination not found")
		}
	} else {
		input.DestinationId = nil
	}
	if err := utils.ValidateResourcesId[Product](ctx, input.ProductIds); err != nil {
		return "", utils.NewValidationError("product_ids", "product not found")
	}
	if input.QuotationId != nil && *input.QuotationId > 0 {
		if err := validateQuotationLink(ctx, *input.QuotationId, id); err != nil {
			return "", err
		}
	} else {
		input.QuotationId = nil
	}
	return companyName, nil
}

func validateQuotationLink(ctx context.Context, quotationId int, opportunityId int) error {
	if err := utils.ValidateResourceId[Quotation](ctx, quotationId); err != nil {
		return utils.NewValidationError("quotation_id", "quotation not found")
	}
	count, err := utils.ResourceCountWhere[Opportunity](ctx, "quotation_id = ? AND NOT id = ?", quotationId, opportunityId)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrQuotationAlreadyLinked
	}
	return nil
}

func productsByIds(ids []int) []Product {
	products := make([]Product, 0, len(ids))
	for _, id := range utils.UniqueSlice(ids) {
		products = append(products, Product{ID: id})
	}
	return products
}

func CreateOpportunity(ctx context.Context, input *NewOpportunity) (*Opportunity, error) {
	companyName, err := input.validate(ctx, 0)
	if err != nil {
		return nil, err
	}
	opp := Opportunity{
		Topic:          input.Topic,
		CustomerName:   input.CustomerName,
		CompanyId:      input.CompanyId,
		CompanyName:    companyName,
		Amount:         input.Amount,
		Currency:       input.Currency,
		Stage:          input.Stage,
		Probability:    *input.Probability,
		CloseDate:      input.CloseDate,
		OwnerName:      input.OwnerName,
		VehicleType:    input.VehicleType,
		ContainerSize:  input.ContainerSize,
		ProductDetails: input.ProductDetails,
		Notes:          input.Notes,
		DestinationId:  input.DestinationId,
		QuotationId:    input.QuotationId,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Products").Create(&opp).Error; err != nil {
			return err
		}
		if len(input.ProductIds) > 0 {
			if err := tx.Model(&opp).Association("Products").Replace(productsByIds(input.ProductIds)); err != nil {
				return err
			}
		}
		description := fmt.Sprintf("Opportunity %q created at %s.", opp.Topic, opp.Stage.Label())
		if err := createHistory(tx, HistoryActionCreate, opp.ID, string(EventReferenceOpportunity), nil, &opp, description); err != nil {
			return err
		}
		return recordEvent(tx, EventReferenceOpportunity, opp.ID, EventActionCreate, &opp, nil)
	})
	if err != nil {
		return nil, err
	}
	return GetOpportunity(ctx, opp.ID)
}

func UpdateOpportunity(ctx context.Context, id int, input *NewOpportunity) (*Opportunity, error) {
	oldOpp, err := GetOpportunity(ctx, id)
	if err != nil {
		return nil, err
	}
	companyName, err := input.validate(ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Opportunity{}).Where("id = ?", id).Updates(map[string]interface{}{
			"topic":           input.Topic,
			"customer_name":   input.CustomerName,
			"company_id":      input.CompanyId,
			"company_name":    companyName,
			"amount":          input.Amount,
			"currency":        input.Currency,
			"stage":           input.Stage,
			"probability":     *input.Probability,
			"close_date":      input.CloseDate,
			"owner_name":      input.OwnerName,
			"vehicle_type":    input.VehicleType,
			"container_size":  input.ContainerSize,
			"product_details": input.ProductDetails,
			"notes":           input.Notes,
			"destination_id":  input.DestinationId,
			"quotation_id":    input.QuotationId,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&Opportunity{ID: id}).Association("Products").Replace(productsByIds(input.ProductIds)); err != nil {
			return err
		}
		description := fmt.Sprintf("Opportunity %q updated.", input.Topic)
		if err := createHistory(tx, HistoryActionUpdate, id, string(EventReferenceOpportunity), oldOpp, input, description); err != nil {
			return err
		}
		return recordEvent(tx, EventReferenceOpportunity, id, EventActionUpdate, input, oldOpp)
	})
	if err != nil {
		return nil, err
	}
	return GetOpportunity(ctx, id)
}

func DeleteOpportunity(ctx context.Context, id int) (*Opportunity, error) {
	opp, err := GetOpportunity(ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Opportunity{ID: id}).Association("Products").Clear(); err != nil {
			return err
		}
		if err := tx.Where("opportunity_id = ?", id).Delete(&OpportunityTask{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Opportunity{}, id).Error; err != nil {
			return err
		}
		description := fmt.Sprintf("Opportunity %q deleted.", opp.Topic)
		if err := createHistory(tx, HistoryActionDelete, id, string(EventReferenceOpportunity), opp, nil, description); err != nil {
			return err
		}
		return recordEvent(tx, EventReferenceOpportunity, id, EventActionDelete, nil, opp)
	})
	if err != nil {
		return nil, err
	}
	return opp, nil
}

func GetOpportunity(ctx context.Context, id int) (*Opportunity, error) {
	db := config.GetDB()
	var opp Opportunity
	err := db.WithContext(ctx).
		Preload("Products").
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("is_completed").Order("due_date").Order("id") }).
		First(&opp, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &opp, nil
}

// GetOpportunityByQuotation returns nil without error when no opportunity is linked.
func GetOpportunityByQuotation(ctx context.Context, quotationId int) (*Opportunity, error) {
	db := config.GetDB()
	var opp Opportunity
	err := db.WithContext(ctx).Preload("Products").Where("quotation_id = ?", quotationId).First(&opp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &opp, nil
}

type OpportunityFilter struct {
	Stage         *OpportunityStage `form:"stage"`
	CompanyId     *int              `form:"company_id"`
	OwnerName     *string           `form:"owner_name"`
	CloseDateFrom *time.Time        `form:"close_date_from" time_format:"2006-01-02"`
	CloseDateTo   *time.Time        `form:"close_date_to" time_format:"2006-01-02"`
	Search        *string           `form:"search"`
}

func GetOpportunities(ctx context.Context, filter OpportunityFilter) ([]*Opportunity, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Opportunity{})
	if filter.Stage != nil && *filter.Stage != "" {
		dbCtx = dbCtx.Where("stage = ?", *filter.Stage)
	}
	if filter.CompanyId != nil && *filter.CompanyId > 0 {
		dbCtx = dbCtx.Where("company_id = ?", *filter.CompanyId)
	}
	if filter.OwnerName != nil && *filter.OwnerName != "" {
		dbCtx = dbCtx.Where("owner_name = ?", *filter.OwnerName)
	}
	if filter.CloseDateFrom != nil {
		dbCtx = dbCtx.Where("close_date >= ?", *filter.CloseDateFrom)
	}
	if filter.CloseDateTo != nil {
		dbCtx = dbCtx.Where("close_date < ?", filter.CloseDateTo.AddDate(0, 0, 1))
	}
	if filter.Search != nil && *filter.Search != "" {
		like := "%" + *filter.Search + "%"
		dbCtx = dbCtx.Where("topic LIKE ? OR customer_name LIKE ? OR company_name LIKE ?", like, like, like)
	}
	var results []*Opportunity
	if err := dbCtx.Preload("Products").Order("updated_at DESC").Order("id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type BoardColumn struct {
	Stage          OpportunityStage `json:"stage"`
	Label          string           `json:"label"`
	Count          int              `json:"count"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
	WeightedAmount decimal.Decimal  `json:"weighted_amount"`
	Opportunities  []*Opportunity   `json:"opportunities"`
}

// BuildBoard groups opportunities into every stage column in pipeline order.
func BuildBoard(opps []*Opportunity) []*BoardColumn {
	columns := make([]*BoardColumn, 0, len(opportunityStages))
	byStage := make(map[OpportunityStage]*BoardColumn, len(opportunityStages))
	for _, stage := range opportunityStages {
		col := &BoardColumn{
			Stage:          stage,
			Label:          stage.Label(),
			TotalAmount:    decimal.Zero,
			WeightedAmount: decimal.Zero,
			Opportunities:  make([]*Opportunity, 0),
		}
		columns = append(columns, col)
		byStage[stage] = col
	}
	for _, o := range opps {
		col, ok := byStage[o.Stage]
		if !ok {
			continue
		}
		col.Count++
		col.TotalAmount = col.TotalAmount.Add(o.Amount)
		col.WeightedAmount = col.WeightedAmount.Add(o.WeightedAmount())
		col.Opportunities = append(col.Opportunities, o)
	}
	return columns
}

func GetOpportunityBoard(ctx context.Context, filter OpportunityFilter) ([]*BoardColumn, error) {
	filter.Stage = nil
	opps, err := GetOpportunities(ctx, filter)
	if err != nil {
		return nil, err
	}
	return BuildBoard(opps), nil
}

// MoveOpportunityStage sets the stage and its default probability.
func MoveOpportunityStage(ctx context.Context, id int, stage OpportunityStage) (*Opportunity, error) {
	if !stage.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, stage)
	}
	opp, err := utils.FetchModel[Opportunity](ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return moveStage(tx, opp, stage)
	})
	if err != nil {
		return nil, err
	}
	return GetOpportunity(ctx, id)
}

func moveStage(tx *gorm.DB, opp *Opportunity, stage OpportunityStage) error {
	if opp.Stage == stage {
		return nil
	}
	oldStage := opp.Stage
	if err := tx.Model(&Opportunity{}).Where("id = ?", opp.ID).Updates(map[string]interface{}{
		"stage":       stage,
		"probability": stage.DefaultProbability(),
	}).Error; err != nil {
		return err
	}
	description := fmt.Sprintf("Opportunity %q moved from %s to %s.", opp.Topic, oldStage.Label(), stage.Label())
	if err := createHistory(tx, HistoryActionStatus, opp.ID, string(EventReferenceOpportunity),
		map[string]interface{}{"stage": oldStage},
		map[string]interface{}{"stage": stage},
		description); err != nil {
		return err
	}
	moved := *opp
	moved.Stage = stage
	moved.Probability = stage.DefaultProbability()
	return recordEvent(tx, EventReferenceOpportunity, opp.ID, EventActionStatus, &moved, opp)
}

// LinkQuotation attaches a quotation; a quotation belongs to at most one opportunity.
func LinkQuotation(ctx context.Context, id int, quotationId int) (*Opportunity, error) {
	opp, err := utils.FetchModel[Opportunity](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateQuotationLink(ctx, quotationId, id); err != nil {
		return nil, err
	}
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Opportunity{}).Where("id = ?", id).Update("quotation_id", quotationId).Error; err != nil {
			return err
		}
		description := fmt.Sprintf("Opportunity %q linked to quotation #%d.", opp.Topic, quotationId)
		return createHistory(tx, HistoryActionUpdate, id, string(EventReferenceOpportunity),
			map[string]interface{}{"quotation_id": opp.QuotationId},
			map[string]interface{}{"quotation_id": quotationId},
			description)
	})
	if err != nil {
		return nil, err
	}
	return GetOpportunity(ctx, id)
}

// stageForQuotationStatus maps a quotation status to the stage its opportunity should reach.
// onlyForward stages are applied only when the opportunity is earlier in the pipeline.
func stageForQuotationStatus(status QuotationStatus) (stage OpportunityStage, onlyForward bool, ok bool) {
	switch status {
	case QuotationStatusAccepted:
		return OpportunityStagePendingDocs, true, true
	case QuotationStatusDocsUploaded:
		return OpportunityStagePendingBooking, false, true
	case QuotationStatusShipped:
		return OpportunityStageAwbReceived, false, true
	case QuotationStatusCompleted:
		return OpportunityStageClosedWon, false, true
	case QuotationStatusRejected:
		return OpportunityStageClosedLost, false, true
	}
	return "", false, false
}

// SyncOpportunityWithQuotation moves the linked opportunity after a quotation status
// change. It returns nil when nothing is linked or no move is needed.
func SyncOpportunityWithQuotation(ctx context.Context, quotationId int, status QuotationStatus) (*Opportunity, error) {
	target, onlyForward, ok := stageForQuotationStatus(status)
	if !ok {
		return nil, nil
	}
	opp, err := GetOpportunityByQuotation(ctx, quotationId)
	if err != nil || opp == nil {
		return nil, err
	}
	if opp.Stage == target {
		return nil, nil
	}
	if onlyForward && (opp.Stage.IsClosed() || opp.Stage.Rank() >= target.Rank()) {
		return nil, nil
	}
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return moveStage(tx, opp, target)
	})
	if err != nil {
		return nil, err
	}
	return GetOpportunity(ctx, opp.ID)
}
