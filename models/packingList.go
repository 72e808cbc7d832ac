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

// PackingParty is a consignee, consigner or shipped-to block on the printed list.
type PackingParty struct {
	Name     string `gorm:"size:255" json:"name"`
	Address  string `gorm:"type:text" json:"address"`
	Phone    string `gorm:"size:30" json:"phone"`
	Email    string `gorm:"size:255" json:"email" validate:"omitempty,email"`
	Contract string `gorm:"size:255" json:"contract"`
}

type PackingList struct {
	ID               int                 `gorm:"primary_key" json:"id"`
	PackingListNo    string              `gorm:"size:20;not null;uniqueIndex" json:"packing_list_no"`
	Consignee        PackingParty        `gorm:"embedded;embeddedPrefix:consignee_" json:"consignee"`
	Consigner        PackingParty        `gorm:"embedded;embeddedPrefix:consigner_" json:"consigner"`
	ShippedTo        PackingParty        `gorm:"embedded;embeddedPrefix:shipped_to_" json:"shipped_to"`
	CustomerOpNo     string              `gorm:"size:100" json:"customer_op_no"`
	TypeOfShipment   string              `gorm:"size:100" json:"type_of_shipment"`
	PortOfLoading    string              `gorm:"size:100" json:"port_of_loading"`
	PortOfDischarge  string              `gorm:"size:100" json:"port_of_discharge"`
	BoxSize          string              `gorm:"size:100" json:"box_size"`
	ShippingMark     string              `gorm:"size:255" json:"shipping_mark"`
	Airport          string              `gorm:"size:100" json:"airport"`
	Destination      string              `gorm:"size:255" json:"destination"`
	CountryOfOrigin  string              `gorm:"size:100" json:"country_of_origin"`
	TotalBoxes       int                 `gorm:"not null;default:0" json:"total_boxes"`
	TotalGrossWeight decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"total_gross_weight"`
	Status           PackingListStatus   `gorm:"size:20;not null;index" json:"status"`
	Notes            string              `gorm:"type:text" json:"notes"`
	CreatedBy        string              `gorm:"size:100" json:"created_by"`
	CreatedAt        time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
	Pallets          []PackingListPallet `gorm:"foreignKey:PackingListId" json:"pallets,omitempty"`
}

type PackingListPallet struct {
	ID            int                  `gorm:"primary_key" json:"id"`
	PackingListId int                  `gorm:"index;not null" json:"packing_list_id"`
	PalletNumber  int                  `gorm:"not null" json:"pallet_number"`
	BoxFrom       int                  `gorm:"not null" json:"box_from"`
	BoxTo         int                  `gorm:"not null" json:"box_to"`
	Products      []PackingListProduct `gorm:"foreignKey:PalletId" json:"products,omitempty"`
}

func (p PackingListPallet) BoxCount() int {
	return p.BoxTo - p.BoxFrom + 1
}

type PackingListProduct struct {
	ID                     int              `gorm:"primary_key" json:"id"`
	PalletId               int              `gorm:"index;not null" json:"pallet_id"`
	SeqNo                  int              `gorm:"not null" json:"seq_no"`
	ProductCode            string           `gorm:"size:100" json:"product_code"`
	Description            string           `gorm:"type:text" json:"description"`
	BatchNo                string           `gorm:"size:100" json:"batch_no"`
	Quantity               int              `json:"quantity"`
	WeightPerBox           decimal.Decimal  `gorm:"type:decimal(20,4)" json:"weight_per_box"`
	TotalGrossWeight       decimal.Decimal  `gorm:"type:decimal(20,4)" json:"total_gross_weight"`
	HasMixedProducts       *bool            `gorm:"not null;default:false" json:"has_mixed_products"`
	SecondProductCode      string           `gorm:"size:100" json:"second_product_code"`
	SecondDescription      string           `gorm:"type:text" json:"second_description"`
	SecondBatchNo          string           `gorm:"size:100" json:"second_batch_no"`
	SecondQuantity         int              `json:"second_quantity"`
	SecondWeightPerBox     *decimal.Decimal `gorm:"type:decimal(20,4)" json:"second_weight_per_box"`
	SecondTotalGrossWeight *decimal.Decimal `gorm:"type:decimal(20,4)" json:"second_total_gross_weight"`
}

func (p PackingListProduct) GrossWeight() decimal.Decimal {
	total := p.TotalGrossWeight
	if utils.DereferencePtr(p.HasMixedProducts) && p.SecondTotalGrossWeight != nil {
		total = total.Add(*p.SecondTotalGrossWeight)
	}
	return total
}

func (pl PackingList) GetCursor() string {
	return fmt.Sprint(pl.ID)
}

type NewPackingListProduct struct {
	ProductCode            string           `json:"product_code" validate:"max=100"`
	Description            string           `json:"description"`
	BatchNo                string           `json:"batch_no" validate:"max=100"`
	Quantity               int              `json:"quantity" validate:"gte=0"`
	WeightPerBox           decimal.Decimal  `json:"weight_per_box"`
	TotalGrossWeight       decimal.Decimal  `json:"total_gross_weight"`
	HasMixedProducts       bool             `json:"has_mixed_products"`
	SecondProductCode      string           `json:"second_product_code" validate:"max=100"`
	SecondDescription      string           `json:"second_description"`
	SecondBatchNo          string           `json:"second_batch_no" validate:"max=100"`
	SecondQuantity         int              `json:"second_quantity" validate:"gte=0"`
	SecondWeightPerBox     *decimal.Decimal `json:"second_weight_per_box"`
	SecondTotalGrossWeight *decimal.Decimal `json:"second_total_gross_weight"`
}

type NewPackingListPallet struct {
	PalletNumber int                     `json:"pallet_number" validate:"gte=0"`
	BoxFrom      int                     `json:"box_from" validate:"gte=0"`
	BoxTo        int                     `json:"box_to" validate:"gte=0"`
	Products     []NewPackingListProduct `json:"products" validate:"dive"`
}

type NewPackingList struct {
	Consignee       PackingParty           `json:"consignee"`
	Consigner       PackingParty           `json:"consigner"`
	ShippedTo       PackingParty           `json:"shipped_to"`
	CustomerOpNo    string                 `json:"customer_op_no" validate:"max=100"`
	TypeOfShipment  string                 `json:"type_of_shipment" validate:"max=100"`
	PortOfLoading   string                 `json:"port_of_loading" validate:"max=100"`
	PortOfDischarge string                 `json:"port_of_discharge" validate:"max=100"`
	BoxSize         string                 `json:"box_size" validate:"max=100"`
	ShippingMark    string                 `json:"shipping_mark" validate:"max=255"`
	Airport         string                 `json:"airport" validate:"max=100"`
	Destination     string                 `json:"destination" validate:"max=255"`
	CountryOfOrigin string                 `json:"country_of_origin" validate:"max=100"`
	Status          PackingListStatus      `json:"status"`
	Notes           string                 `json:"notes"`
	Pallets         []NewPackingListPallet `json:"pallets" validate:"dive"`
}

func normalizeParty(field string, p *PackingParty) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Phone == "" {
		return nil
	}
	phone, err := utils.NormalizePhoneNumber(p.Phone)
	if err != nil {
		return utils.NewValidationError(field+".phone", err.Error())
	}
	p.Phone = phone
	return nil
}

func (input *NewPackingList) validate() error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.Consignee.Name == "" && input.Consigner.Name == "" {
		return utils.NewValidationError("consignee", "consignee or consigner name is required")
	}
	for field, party := range map[string]*PackingParty{
		"consignee":  &input.Consignee,
		"consigner":  &input.Consigner,
		"shipped_to": &input.ShippedTo,
	} {
		if err := normalizeParty(field, party); err != nil {
			return err
		}
	}
	if input.Status == "" {
		input.Status = PackingListStatusDraft
	}
	if !input.Status.IsValid() {
		return utils.NewValidationError("status", "unknown packing list status")
	}
	for i, p := range input.Pallets {
		if p.BoxFrom > p.BoxTo {
			return utils.NewValidationError(fmt.Sprintf("pallets[%d].box_from", i), "box from must not be greater than box to")
		}
		for j, prod := range p.Products {
			if prod.TotalGrossWeight.IsNegative() || prod.WeightPerBox.IsNegative() {
				return utils.NewValidationError(fmt.Sprintf("pallets[%d].products[%d]", i, j), "weights cannot be negative")
			}
		}
	}
	return nil
}

func buildPackingListPallets(input []NewPackingListPallet) []PackingListPallet {
	pallets := make([]PackingListPallet, 0, len(input))
	for i, p := range input {
		number := p.PalletNumber
		if number <= 0 {
			number = i + 1
		}
		pallet := PackingListPallet{PalletNumber: number, BoxFrom: p.BoxFrom, BoxTo: p.BoxTo}
		for j, prod := range p.Products {
			mixed := prod.HasMixedProducts
			product := PackingListProduct{
				SeqNo:            j + 1,
				ProductCode:      prod.ProductCode,
				Description:      prod.Description,
				BatchNo:          prod.BatchNo,
				Quantity:         prod.Quantity,
				WeightPerBox:     prod.WeightPerBox,
				TotalGrossWeight: prod.TotalGrossWeight,
				HasMixedProducts: &mixed,
			}
			if mixed {
				product.SecondProductCode = prod.SecondProductCode
				product.SecondDescription = prod.SecondDescription
				product.SecondBatchNo = prod.SecondBatchNo
				product.SecondQuantity = prod.SecondQuantity
				product.SecondWeightPerBox = prod.SecondWeightPerBox
				product.SecondTotalGrossWeight = prod.SecondTotalGrossWeight
			}
			pallet.Products = append(pallet.Products, product)
		}
		pallets = append(pallets, pallet)
	}
	return pallets
}

// PackingListTotals sums boxes and gross weight over pallets.
func PackingListTotals(pallets []PackingListPallet) (int, decimal.Decimal) {
	boxes := 0
	weight := decimal.Zero
	for _, p := range pallets {
		boxes += p.BoxCount()
		for _, prod := range p.Products {
			weight = weight.Add(prod.GrossWeight())
		}
	}
	return boxes, weight
}

func (input *NewPackingList) apply(pl *PackingList) {
	pl.Consignee = input.Consignee
	pl.Consigner = input.Consigner
	pl.ShippedTo = input.ShippedTo
	pl.CustomerOpNo = input.CustomerOpNo
	pl.TypeOfShipment = input.TypeOfShipment
	pl.PortOfLoading = input.PortOfLoading
	pl.PortOfDischarge = input.PortOfDischarge
	pl.BoxSize = input.BoxSize
	pl.ShippingMark = input.ShippingMark
	pl.Airport = input.Airport
	pl.Destination = input.Destination
	pl.CountryOfOrigin = input.CountryOfOrigin
	pl.Status = input.Status
	pl.Notes = input.Notes
}

func CreatePackingList(ctx context.Context, input *NewPackingList) (*PackingList, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	pl := PackingList{CreatedBy: utils.GetActorNameFromContext(ctx)}
	input.apply(&pl)
	pl.Pallets = buildPackingListPallets(input.Pallets)
	pl.TotalBoxes, pl.TotalGrossWeight = PackingListTotals(pl.Pallets)

	release := utils.ObtainLock(ctx, "packing-list-number", 10*time.Second, "models", "CreatePackingList")
	defer release()

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := nextSequenceNumber[PackingList](tx, "packing_list_no", packingListNumberPrefix(utils.LocalNow()), 3)
		if err != nil {
			return err
		}
		pl.PackingListNo = number
		if err := tx.Create(&pl).Error; err != nil {
			return err
		}
		description := fmt.Sprintf("Packing list %s created with %d boxes.", pl.PackingListNo, pl.TotalBoxes)
		if err := createHistory(tx, HistoryActionCreate, pl.ID, string(EventReferencePackingList), nil, &pl, description); err != nil {
			return err
		}
		return recordEvent(tx, EventReferencePackingList, pl.ID, EventActionCreate, &pl, nil)
	})
	if err != nil {
		return nil, err
	}
	return &pl, nil
}

func deletePackingListChildren(tx *gorm.DB, id int) error {
	palletIds := tx.Model(&PackingListPallet{}).Select("id").Where("packing_list_id = ?", id)
	if err := tx.Where("pallet_id IN (?)", palletIds).Delete(&PackingListProduct{}).Error; err != nil {
		return err
	}
	return tx.Where("packing_list_id = ?", id).Delete(&PackingListPallet{}).Error
}

// UpdatePackingList replaces the header and every pallet.
func UpdatePackingList(ctx context.Context, id int, input *NewPackingList) (*PackingList, error) {
	oldPl, err := GetPackingList(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	pl := *oldPl
	input.apply(&pl)
	pallets := buildPackingListPallets(input.Pallets)
	pl.TotalBoxes, pl.TotalGrossWeight = PackingListTotals(pallets)
	pl.Pallets = nil

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deletePackingListChildren(tx, id); err != nil {
			return err
		}
		if err := tx.Omit("Pallets").Save(&pl).Error; err != nil {
			return err
		}
		for i := range pallets {
			pallets[i].PackingListId = id
		}
		if len(pallets) > 0 {
			if err := tx.Create(&pallets).Error; err != nil {
				return err
			}
		}
		pl.Pallets = pallets
		description := fmt.Sprintf("Packing list %s updated.", pl.PackingListNo)
		if err := createHistory(tx, HistoryActionUpdate, id, string(EventReferencePackingList), oldPl, &pl, description); err != nil {
			return err
		}
		action := EventActionUpdate
		if oldPl.Status != pl.Status {
			action = EventActionStatus
		}
		return recordEvent(tx, EventReferencePackingList, id, action, &pl, oldPl)
	})
	if err != nil {
		return nil, err
	}
	return &pl, nil
}

func UpdatePackingListStatus(ctx context.Context, id int, status PackingListStatus) (*PackingList, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	oldPl, err := utils.FetchModel[PackingList](ctx, id)
	if err != nil {
		return nil, err
	}
	if oldPl.Status == status {
		return oldPl, nil
	}
	pl := *oldPl
	pl.Status = status

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&PackingList{}).Where("id = ?", id).Update("status", status).Error; err != nil {
			return err
		}
		description := fmt.Sprintf("Packing list %s status changed from %s to %s.", pl.PackingListNo, oldPl.Status, status)
		if err := createHistory(tx, HistoryActionStatus, id, string(EventReferencePackingList),
			map[string]interface{}{"status": oldPl.Status},
			map[string]interface{}{"status": status},
			description); err != nil {
			return err
		}
		return recordEvent(tx, EventReferencePackingList, id, EventActionStatus, &pl, oldPl)
	})
	if err != nil {
		return nil, err
	}
	return &pl, nil
}

func DeletePackingList(ctx context.Context, id int) (*PackingList, error) {
	pl, err := GetPackingList(ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deletePackingListChildren(tx, id); err != nil {
			return err
		}
		if err := tx.Delete(&PackingList{}, id).Error; err != nil {
			return err
		}
		description := fmt.Sprintf("Packing list %s deleted.", pl.PackingListNo)
		return createHistory(tx, HistoryActionDelete, id, string(EventReferencePackingList), pl, nil, description)
	})
	if err != nil {
		return nil, err
	}
	return pl, nil
}

func GetPackingList(ctx context.Context, id int) (*PackingList, error) {
	db := config.GetDB()
	var pl PackingList
	err := db.WithContext(ctx).
		Preload("Pallets", func(db *gorm.DB) *gorm.DB { return db.Order("pallet_number").Order("id") }).
		Preload("Pallets.Products", func(db *gorm.DB) *gorm.DB { return db.Order("seq_no") }).
		First(&pl, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &pl, nil
}

type PackingListFilter struct {
	Status *PackingListStatus `form:"status"`
	Search *string            `form:"search"`
}

type PackingListsConnection struct {
	Edges    []Edge[PackingList] `json:"edges"`
	PageInfo *PageInfo           `json:"page_info"`
}

func PaginatePackingLists(ctx context.Context, filter PackingListFilter, limit int, after *string) (*PackingListsConnection, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&PackingList{})
	if filter.Status != nil && *filter.Status != "" {
		dbCtx = dbCtx.Where("status = ?", *filter.Status)
	}
	if filter.Search != nil && *filter.Search != "" {
		like := "%" + *filter.Search + "%"
		dbCtx = dbCtx.Where("packing_list_no LIKE ? OR consignee_name LIKE ? OR customer_op_no LIKE ?", like, like, like)
	}
	edges, pageInfo, err := FetchPagePureCursor[PackingList](dbCtx, limit, after, "id", "<")
	if err != nil {
		return nil, err
	}
	return &PackingListsConnection{Edges: edges, PageInfo: pageInfo}, nil
}
