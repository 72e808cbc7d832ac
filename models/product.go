package models

import (
	"context"
	"strings"
	"time"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/utils"
)

type Product struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	HsCode      string    `gorm:"size:20" json:"hs_code"`
	Description string    `gorm:"type:text" json:"description"`
	Unit        string    `gorm:"size:20" json:"unit"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name        string `json:"name" validate:"required,max=255"`
	HsCode      string `json:"hs_code" validate:"max=20"`
	Description string `json:"description"`
	Unit        string `json:"unit" validate:"max=20"`
}

func (input *NewProduct) validate(ctx context.Context, id int) error {
	input.Name = strings.TrimSpace(input.Name)
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	return utils.ValidateUnique[Product](ctx, "name", input.Name, id)
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}
	db := config.GetDB()
	product := Product{
		Name:        input.Name,
		HsCode:      input.HsCode,
		Description: input.Description,
		Unit:        input.Unit,
	}
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {
	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(product).Updates(map[string]interface{}{
		"Name":        input.Name,
		"HsCode":      input.HsCode,
		"Description": input.Description,
		"Unit":        input.Unit,
	}).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func DeleteProduct(ctx context.Context, id int) (*Product, error) {
	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Exec("DELETE FROM opportunity_products WHERE product_id = ?", id).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(product).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	return product, tx.Commit().Error
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	return utils.FetchModel[Product](ctx, id)
}

func GetProducts(ctx context.Context, search *string) ([]*Product, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if search != nil && *search != "" {
		dbCtx = dbCtx.Where("name LIKE ? OR hs_code LIKE ?", "%"+*search+"%", "%"+*search+"%")
	}
	var results []*Product
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
