package models

import (
	"context"
	"strings"
	"time"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/utils"
)

type OpportunityTask struct {
	ID            int        `gorm:"primary_key" json:"id"`
	OpportunityId int        `gorm:"index;not null" json:"opportunity_id"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	IsCompleted   *bool      `gorm:"not null;default:false" json:"is_completed"`
	DueDate       *time.Time `json:"due_date"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewOpportunityTask struct {
	Title   string     `json:"title" validate:"required,max=255"`
	DueDate *time.Time `json:"due_date"`
}

func CreateOpportunityTask(ctx context.Context, opportunityId int, input *NewOpportunityTask) (*OpportunityTask, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Opportunity](ctx, opportunityId); err != nil {
		return nil, err
	}
	db := config.GetDB()
	task := OpportunityTask{
		OpportunityId: opportunityId,
		Title:         input.Title,
		IsCompleted:   utils.NewFalse(),
		DueDate:       input.DueDate,
	}
	if err := db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func fetchOpportunityTask(ctx context.Context, opportunityId int, taskId int) (*OpportunityTask, error) {
	return utils.FetchModelWhere[OpportunityTask](ctx, "id = ? AND opportunity_id = ?", taskId, opportunityId)
}

func ToggleOpportunityTask(ctx context.Context, opportunityId int, taskId int) (*OpportunityTask, error) {
	task, err := fetchOpportunityTask(ctx, opportunityId, taskId)
	if err != nil {
		return nil, err
	}
	completed := !utils.DereferencePtr(task.IsCompleted)
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(task).Update("is_completed", completed).Error; err != nil {
		return nil, err
	}
	task.IsCompleted = &completed
	return task, nil
}

func DeleteOpportunityTask(ctx context.Context, opportunityId int, taskId int) (*OpportunityTask, error) {
	task, err := fetchOpportunityTask(ctx, opportunityId, taskId)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

func GetOpportunityTasks(ctx context.Context, opportunityId int) ([]*OpportunityTask, error) {
	if err := utils.ValidateResourceId[Opportunity](ctx, opportunityId); err != nil {
		return nil, err
	}
	db := config.GetDB()
	var results []*OpportunityTask
	err := db.WithContext(ctx).
		Where("opportunity_id = ?", opportunityId).
		Order("is_completed").Order("due_date").Order("id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
