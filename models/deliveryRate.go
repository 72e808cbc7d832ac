package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/pricing"
	"github.com/hiflogistics/freight_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DeliveryRate struct {
	ID          int             `gorm:"primary_key" json:"id"`
	VehicleType string          `gorm:"size:30;not null;uniqueIndex" json:"vehicle_type"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDeliveryRate struct {
	VehicleType string          `json:"vehicle_type" validate:"required,max=30"`
	Amount      decimal.Decimal `json:"amount"`
}

func (input *NewDeliveryRate) validate() error {
	input.VehicleType = strings.TrimSpace(input.VehicleType)
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.Amount.IsNegative() {
		return utils.NewValidationError("amount", "amount cannot be negative")
	}
	return nil
}

// UpsertDeliveryRate creates or replaces the rate for a vehicle type.
func UpsertDeliveryRate(ctx context.Context, input *NewDeliveryRate) (*DeliveryRate, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	db := config.GetDB()
	var rate DeliveryRate
	err := db.WithContext(ctx).Where("vehicle_type = ?", input.VehicleType).First(&rate).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	rate.VehicleType = input.VehicleType
	rate.Amount = input.Amount
	if err := db.WithContext(ctx).Save(&rate).Error; err != nil {
		return nil, err
	}
	return &rate, utils.RemoveRedisLists[DeliveryRate]()
}

func DeleteDeliveryRate(ctx context.Context, id int) (*DeliveryRate, error) {
	rate, err := utils.FetchModel[DeliveryRate](ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(rate).Error; err != nil {
		return nil, err
	}
	return rate, utils.RemoveRedisLists[DeliveryRate]()
}

func GetDeliveryRates(ctx context.Context) ([]*DeliveryRate, error) {
	return ListAllResource[DeliveryRate](ctx, "vehicle_type")
}

// DeliveryRateTable merges configured rates over the built-in defaults.
func DeliveryRateTable(ctx context.Context) (map[string]decimal.Decimal, error) {
	table := pricing.DefaultDeliveryRates()
	rates, err := GetDeliveryRates(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rates {
		table[r.VehicleType] = r.Amount
	}
	return table, nil
}

// SeedDeliveryRates inserts the default vehicle rates that are not configured yet.
func SeedDeliveryRates(ctx context.Context) error {
	db := config.GetDB()
	for vehicle, amount := range pricing.DefaultDeliveryRates() {
		rate := DeliveryRate{VehicleType: vehicle, Amount: amount}
		if err := db.WithContext(ctx).Where("vehicle_type = ?", vehicle).FirstOrCreate(&rate).Error; err != nil {
			return err
		}
	}
	return utils.RemoveRedisLists[DeliveryRate]()
}
