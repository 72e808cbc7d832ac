package models

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/pricing"
	"github.com/hiflogistics/freight_backend/utils"
	"github.com/shopspring/decimal"
)

type FreightRate struct {
	ID            int              `gorm:"primary_key" json:"id"`
	DestinationId int              `gorm:"index;not null" json:"destination_id"`
	MinWeight     *decimal.Decimal `gorm:"type:decimal(20,4)" json:"min_weight"`
	MaxWeight     *decimal.Decimal `gorm:"type:decimal(20,4)" json:"max_weight"`
	BaseRate      decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"base_rate"`
	Currency      string           `gorm:"size:3;not null" json:"currency"`
	EffectiveDate *time.Time       `gorm:"index" json:"effective_date"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r FreightRate) Tier() pricing.RateTier {
	return pricing.RateTier{MinWeight: r.MinWeight, MaxWeight: r.MaxWeight, Rate: r.BaseRate}
}

type NewFreightRate struct {
	DestinationId int              `json:"destination_id" validate:"required"`
	MinWeight     *decimal.Decimal `json:"min_weight"`
	MaxWeight     *decimal.Decimal `json:"max_weight"`
	BaseRate      decimal.Decimal  `json:"base_rate"`
	Currency      string           `json:"currency"`
	EffectiveDate *time.Time       `json:"effective_date"`
}

func sameEffectiveDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func (input *NewFreightRate) validate(ctx context.Context, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Destination](ctx, input.DestinationId); err != nil {
		return utils.NewValidationError("destination_id", "destination not found")
	}
	if input.BaseRate.IsNegative() {
		return utils.NewValidationError("base_rate", "rate cannot be negative")
	}
	if input.MinWeight != nil && input.MinWeight.IsNegative() {
		return utils.NewValidationError("min_weight", "weight cannot be negative")
	}
	if input.MinWeight != nil && input.MaxWeight != nil && input.MinWeight.GreaterThan(*input.MaxWeight) {
		return utils.NewValidationError("max_weight", "max weight must not be less than min weight")
	}
	if input.Currency == "" {
		input.Currency = config.DefaultCurrency()
	}

	var siblings []*FreightRate
	db := config.GetDB()
	if err := db.WithContext(ctx).Where("destination_id = ? AND NOT id = ?", input.DestinationId, id).Find(&siblings).Error; err != nil {
		return err
	}
	tier := pricing.RateTier{MinWeight: input.MinWeight, MaxWeight: input.MaxWeight, Rate: input.BaseRate}
	for _, s := range siblings {
		if !sameEffectiveDate(s.EffectiveDate, input.EffectiveDate) {
			continue
		}
		if pricing.Overlaps(tier, s.Tier()) {
			return utils.NewValidationError("min_weight", fmt.Sprintf("weight range overlaps rate #%d", s.ID))
		}
	}
	return nil
}

func CreateFreightRate(ctx context.Context, input *NewFreightRate) (*FreightRate, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}
	db := config.GetDB()
	rate := FreightRate{
		DestinationId: input.DestinationId,
		MinWeight:     input.MinWeight,
		MaxWeight:     input.MaxWeight,
		BaseRate:      input.BaseRate,
		Currency:      input.Currency,
		EffectiveDate: input.EffectiveDate,
	}
	if err := db.WithContext(ctx).Create(&rate).Error; err != nil {
		return nil, err
	}
	return &rate, removeRateCardCache(rate.DestinationId)
}

func UpdateFreightRate(ctx context.Context, id int, input *NewFreightRate) (*FreightRate, error) {
	rate, err := utils.FetchModel[FreightRate](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}
	oldDestinationId := rate.DestinationId

	rate.DestinationId = input.DestinationId
	rate.MinWeight = input.MinWeight
	rate.MaxWeight = input.MaxWeight
	rate.BaseRate = input.BaseRate
	rate.Currency = input.Currency
	rate.EffectiveDate = input.EffectiveDate

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(rate).Error; err != nil {
		return nil, err
	}
	if err := removeRateCardCache(oldDestinationId); err != nil {
		return nil, err
	}
	return rate, removeRateCardCache(rate.DestinationId)
}

func DeleteFreightRate(ctx context.Context, id int) (*FreightRate, error) {
	rate, err := utils.FetchModel[FreightRate](ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(rate).Error; err != nil {
		return nil, err
	}
	return rate, removeRateCardCache(rate.DestinationId)
}

func GetFreightRate(ctx context.Context, id int) (*FreightRate, error) {
	return utils.FetchModel[FreightRate](ctx, id)
}

// GetFreightRates lists every rate of a destination (0 for all), ordered by weight.
func GetFreightRates(ctx context.Context, destinationId int) ([]*FreightRate, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if destinationId > 0 {
		dbCtx = dbCtx.Where("destination_id = ?", destinationId)
	}
	var results []*FreightRate
	if err := dbCtx.Order("destination_id").Order("effective_date DESC").Order("min_weight").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func rateCardKey(destinationId int) string {
	return fmt.Sprintf("RateCard:%d", destinationId)
}

func removeRateCardCache(destinationId int) error {
	return config.RemoveRedisKey(rateCardKey(destinationId))
}

// ActiveRates picks the rate set in force at now: the latest effective date not
// after now, falling back to rates without an effective date.
func ActiveRates(rates []*FreightRate, now time.Time) []*FreightRate {
	var latest *time.Time
	for _, r := range rates {
		if r.EffectiveDate == nil || r.EffectiveDate.After(now) {
			continue
		}
		if latest == nil || r.EffectiveDate.After(*latest) {
			d := *r.EffectiveDate
			latest = &d
		}
	}
	active := make([]*FreightRate, 0, len(rates))
	for _, r := range rates {
		if latest == nil && r.EffectiveDate == nil {
			active = append(active, r)
		} else if latest != nil && r.EffectiveDate != nil && sameEffectiveDate(r.EffectiveDate, latest) {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		a, b := active[i].MinWeight, active[j].MinWeight
		if a == nil {
			return b != nil
		}
		return b != nil && a.LessThan(*b)
	})
	return active
}

// GetActiveRateTiers returns the pricing tiers in force for a destination, cached per destination.
func GetActiveRateTiers(ctx context.Context, destinationId int) ([]pricing.RateTier, error) {
	var cached []pricing.RateTier
	exists, err := config.GetRedisObject(rateCardKey(destinationId), &cached)
	if err != nil {
		return nil, err
	}
	if exists {
		return cached, nil
	}

	rates, err := GetFreightRates(ctx, destinationId)
	if err != nil {
		return nil, err
	}
	active := ActiveRates(rates, time.Now())
	tiers := make([]pricing.RateTier, 0, len(active))
	for _, r := range active {
		tiers = append(tiers, r.Tier())
	}
	// short ttl so a newly effective rate set is picked up
	if err := config.SetRedisObject(rateCardKey(destinationId), tiers, time.Hour); err != nil {
		return nil, err
	}
	return tiers, nil
}
