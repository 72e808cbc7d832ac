package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/utils"
	"gorm.io/gorm"
)

var ErrOutboxNotReplayable = errors.New("only FAILED, DEAD or unprocessed events can be replayed")

// Outbox publish statuses for OutboxEvent.PublishStatus.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

// OutboxEvent is written in the same transaction as the change it describes and
// published after commit by the dispatcher.
type OutboxEvent struct {
	ID               int                `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	EventDateTime    time.Time          `gorm:"index;not null" json:"event_date_time"`
	ReferenceId      int                `gorm:"index:idx_outbox_reference,priority:2" json:"reference_id"`
	ReferenceType    EventReferenceType `gorm:"size:20;index:idx_outbox_reference,priority:1" json:"reference_type"`
	Action           EventAction        `gorm:"size:1" json:"action"`
	OldObj           []byte             `gorm:"type:blob" json:"old_obj"`
	NewObj           []byte             `gorm:"type:blob" json:"new_obj"`
	PublishStatus    string             `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"`
	PublishedAt      *time.Time         `json:"published_at"`
	PubSubMessageId  *string            `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int                `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time         `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time         `json:"locked_at"`
	LockedBy         *string            `gorm:"size:100" json:"locked_by"`
	LastPublishError *string            `gorm:"type:text" json:"last_publish_error"`
	ProcessedAt      *time.Time         `json:"processed_at"`
	LastProcessError *string            `gorm:"type:text" json:"last_process_error"`
	CorrelationId    string             `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToPubSubMessage(record OutboxEvent) config.PubSubMessage {
	return config.PubSubMessage{
		ID:            record.ID,
		EventDateTime: record.EventDateTime,
		ReferenceId:   record.ReferenceId,
		ReferenceType: string(record.ReferenceType),
		Action:        string(record.Action),
		OldObj:        record.OldObj,
		NewObj:        record.NewObj,
		CorrelationId: record.CorrelationId,
	}
}

// recordEvent writes an outbox row inside the caller's transaction. Nothing is
// published here; the dispatcher picks the row up after commit.
func recordEvent(tx *gorm.DB, refType EventReferenceType, refId int, action EventAction, obj interface{}, oldObj interface{}) error {
	var newBytes, oldBytes []byte
	var err error
	if obj != nil {
		if newBytes, err = json.Marshal(obj); err != nil {
			return err
		}
	}
	if oldObj != nil {
		if oldBytes, err = json.Marshal(oldObj); err != nil {
			return err
		}
	}

	record := OutboxEvent{
		EventDateTime: time.Now().UTC(),
		ReferenceId:   refId,
		ReferenceType: refType,
		Action:        action,
		NewObj:        newBytes,
		OldObj:        oldBytes,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(tx.Statement.Context),
	}
	return tx.Create(&record).Error
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

type OutboxFilter struct {
	PublishStatus *string
	ReferenceType *EventReferenceType
	ReferenceId   *int
	Limit         int
}

func GetOutboxEvents(ctx context.Context, filter OutboxFilter) ([]*OutboxEvent, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if filter.PublishStatus != nil && *filter.PublishStatus != "" {
		dbCtx = dbCtx.Where("publish_status = ?", *filter.PublishStatus)
	}
	if filter.ReferenceType != nil && *filter.ReferenceType != "" {
		dbCtx = dbCtx.Where("reference_type = ?", *filter.ReferenceType)
	}
	if filter.ReferenceId != nil && *filter.ReferenceId > 0 {
		dbCtx = dbCtx.Where("reference_id = ?", *filter.ReferenceId)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var results []*OutboxEvent
	err := dbCtx.Order("id DESC").Limit(limit).Find(&results).Error
	return results, err
}

// ReplayOutboxEvent puts a FAILED or DEAD event back in the publish queue. An event
// whose processing failed is also queued for processing again.
func ReplayOutboxEvent(ctx context.Context, id int) (*OutboxEvent, error) {
	event, err := utils.FetchModel[OutboxEvent](ctx, id)
	if err != nil {
		return nil, err
	}
	processFailed := event.LastProcessError != nil
	if event.PublishStatus != OutboxPublishStatusFailed && event.PublishStatus != OutboxPublishStatusDead && !processFailed {
		return nil, ErrOutboxNotReplayable
	}

	now := time.Now().UTC()
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&OutboxEvent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"publish_status":     OutboxPublishStatusFailed,
		"publish_attempts":   0,
		"next_attempt_at":    &now,
		"locked_at":          nil,
		"locked_by":          nil,
		"last_publish_error": nil,
		"processed_at":       nil,
		"last_process_error": nil,
	}).Error; err != nil {
		return nil, err
	}
	return utils.FetchModel[OutboxEvent](ctx, id)
}

// MarkOutboxEventProcessed records the consumer outcome on the source row.
func MarkOutboxEventProcessed(ctx context.Context, id int, processErr error) error {
	if id <= 0 {
		return nil
	}
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"processed_at":       &now,
		"last_process_error": nil,
	}
	if processErr != nil {
		msg := processErr.Error()
		updates["processed_at"] = nil
		updates["last_process_error"] = &msg
	}
	return config.GetDB().WithContext(ctx).Model(&OutboxEvent{}).Where("id = ?", id).Updates(updates).Error
}
