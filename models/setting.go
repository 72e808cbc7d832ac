package models

import (
	"context"
	"encoding/json"
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

const (
	SettingCategoryPricing     = "pricing"
	SettingKeyDefaultClearance = "default_clearance_cost"
)

// Setting is a free-form JSON value addressed by category and key.
type Setting struct {
	ID        int             `gorm:"primary_key" json:"id"`
	Category  string          `gorm:"size:100;not null;uniqueIndex:idx_setting_category_key,priority:1" json:"category"`
	Key       string          `gorm:"column:setting_key;size:100;not null;uniqueIndex:idx_setting_category_key,priority:2" json:"key"`
	Value     json.RawMessage `gorm:"type:text" json:"value"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSetting struct {
	Category string          `json:"category" validate:"required,max=100"`
	Key      string          `json:"key" validate:"required,max=100"`
	Value    json.RawMessage `json:"value"`
}

func settingCacheKey(category, key string) string {
	return fmt.Sprintf("Setting:%s:%s", category, key)
}

func (input *NewSetting) validate() error {
	input.Category = strings.TrimSpace(input.Category)
	input.Key = strings.TrimSpace(input.Key)
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if len(input.Value) == 0 {
		input.Value = json.RawMessage("null")
	}
	if !json.Valid(input.Value) {
		return utils.NewValidationError("value", "value must be valid json")
	}
	return nil
}

func UpsertSetting(ctx context.Context, input *NewSetting) (*Setting, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	db := config.GetDB()
	var setting Setting
	err := db.WithContext(ctx).Where("category = ? AND setting_key = ?", input.Category, input.Key).First(&setting).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	setting.Category = input.Category
	setting.Key = input.Key
	setting.Value = input.Value
	if err := db.WithContext(ctx).Save(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, config.RemoveRedisKey(settingCacheKey(input.Category, input.Key))
}

func GetSetting(ctx context.Context, category, key string) (*Setting, error) {
	var cached *Setting
	exists, err := config.GetRedisObject(settingCacheKey(category, key), &cached)
	if err != nil {
		return nil, err
	}
	if exists && cached != nil {
		return cached, nil
	}
	setting, err := utils.FetchModelWhere[Setting](ctx, "category = ? AND setting_key = ?", category, key)
	if err != nil {
		return nil, err
	}
	if err := config.SetRedisObject(settingCacheKey(category, key), setting, utils.GetCacheLifespan()); err != nil {
		return nil, err
	}
	return setting, nil
}

func GetSettings(ctx context.Context, category string) ([]*Setting, error) {
	db := config.GetDB()
	var results []*Setting
	if err := db.WithContext(ctx).Where("category = ?", category).Order("setting_key").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func DeleteSetting(ctx context.Context, category, key string) (*Setting, error) {
	setting, err := utils.FetchModelWhere[Setting](ctx, "category = ? AND setting_key = ?", category, key)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(setting).Error; err != nil {
		return nil, err
	}
	return setting, config.RemoveRedisKey(settingCacheKey(category, key))
}

// DefaultClearanceCost reads pricing/default_clearance_cost, falling back to the built-in value.
// The stored value may be a number or a string such as "5,350 THB".
func DefaultClearanceCost(ctx context.Context) (decimal.Decimal, error) {
	setting, err := GetSetting(ctx, SettingCategoryPricing, SettingKeyDefaultClearance)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return pricing.DefaultClearanceCost, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	var raw interface{}
	decoder := json.NewDecoder(strings.NewReader(string(setting.Value)))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil || raw == nil {
		return pricing.DefaultClearanceCost, nil
	}
	amount, err := utils.ParseAmount(raw)
	if err != nil || amount.IsNegative() {
		return pricing.DefaultClearanceCost, nil
	}
	return amount, nil
}
