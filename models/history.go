package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type History struct {
	ID            int       `gorm:"primary_key" json:"id"`
	ActionType    string    `gorm:"size:10;not null" json:"action_type"`
	Before        string    `gorm:"type:text" json:"before"`
	After         string    `gorm:"type:text" json:"after"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	ReferenceID   int       `gorm:"index:idx_history_reference,priority:2" json:"reference_id"`
	ReferenceType string    `gorm:"size:50;index:idx_history_reference,priority:1" json:"reference_type"`
	UserName      string    `gorm:"size:100" json:"user_name"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func describeTotalAmount(typename string, number string, currency string, totalAmount decimal.Decimal) string {
	return fmt.Sprintf("%s %s for %s %s.", typename, number, currency, totalAmount.StringFixed(2))
}

func createHistory(tx *gorm.DB,
	actionType string,
	referenceId int,
	referenceType string,
	before interface{},
	after interface{},
	description string) error {

	var history History

	var b, a []byte
	if before != nil {
		b, _ = json.Marshal(before)
	}
	if after != nil {
		a, _ = json.Marshal(after)
	}

	ctx := tx.Statement.Context
	history.ActionType = actionType
	history.Before = string(b)
	history.After = string(a)
	history.Description = description
	history.ReferenceID = referenceId
	history.ReferenceType = referenceType
	history.UserName = utils.GetActorNameFromContext(ctx)

	return tx.Create(&history).Error
}

func GetHistories(ctx context.Context, referenceType string, referenceId int) ([]*History, error) {
	db := config.GetDB()
	var results []*History
	err := db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", referenceType, referenceId).
		Order("id DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
