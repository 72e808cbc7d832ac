package models

import (
	"context"
	"strings"
	"time"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/utils"
)

type Destination struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Country     string    `gorm:"size:100;not null;uniqueIndex:idx_destination_country_port,priority:1" json:"country"`
	Port        string    `gorm:"size:100;not null;uniqueIndex:idx_destination_country_port,priority:2" json:"port"`
	AirportCode string    `gorm:"size:10" json:"airport_code"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d Destination) DisplayName() string {
	if d.Port == "" {
		return d.Country
	}
	return d.Country + " - " + d.Port
}

type NewDestination struct {
	Country     string `json:"country" validate:"required,max=100"`
	Port        string `json:"port" validate:"required,max=100"`
	AirportCode string `json:"airport_code" validate:"max=10"`
}

func (input *NewDestination) validate(ctx context.Context, id int) error {
	input.Country = strings.TrimSpace(input.Country)
	input.Port = strings.TrimSpace(input.Port)
	input.AirportCode = strings.ToUpper(strings.TrimSpace(input.AirportCode))
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	count, err := utils.ResourceCountWhere[Destination](ctx, "country = ? AND port = ? AND NOT id = ?", input.Country, input.Port, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.NewValidationError("port", "destination already exists for this country and port")
	}
	return nil
}

func CreateDestination(ctx context.Context, input *NewDestination) (*Destination, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}
	db := config.GetDB()
	destination := Destination{
		Country:     input.Country,
		Port:        input.Port,
		AirportCode: input.AirportCode,
	}
	if err := db.WithContext(ctx).Create(&destination).Error; err != nil {
		return nil, err
	}
	return &destination, invalidateResource[Destination](destination.ID)
}

func UpdateDestination(ctx context.Context, id int, input *NewDestination) (*Destination, error) {
	destination, err := utils.FetchModel[Destination](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(destination).Updates(map[string]interface{}{
		"Country":     input.Country,
		"Port":        input.Port,
		"AirportCode": input.AirportCode,
	}).Error; err != nil {
		return nil, err
	}
	return destination, invalidateResource[Destination](id)
}

func DeleteDestination(ctx context.Context, id int) (*Destination, error) {
	destination, err := utils.FetchModel[Destination](ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := utils.ResourceCountWhere[Quotation](ctx, "destination_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrRecordInUse
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Where("destination_id = ?", id).Delete(&FreightRate{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(destination).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	if err := removeRateCardCache(id); err != nil {
		return nil, err
	}
	return destination, invalidateResource[Destination](id)
}

func GetDestination(ctx context.Context, id int) (*Destination, error) {
	return GetResource[Destination](ctx, id)
}

func GetDestinations(ctx context.Context) ([]*Destination, error) {
	return ListAllResource[Destination](ctx, "country", "port")
}
