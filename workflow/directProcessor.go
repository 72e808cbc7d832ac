package workflow

import (
	"context"
	"time"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/models"
	"github.com/hiflogistics/freight_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DirectProcessor consumes outbox rows in-process, for deployments without Pub/Sub.
// Rows that fail keep their error and wait for a replay.
type DirectProcessor struct {
	DB        *gorm.DB
	Logger    *logrus.Logger
	WorkerID  string
	BatchSize int
	Interval  time.Duration
	LockTTL   time.Duration
}

func NewDirectProcessor(db *gorm.DB, logger *logrus.Logger) *DirectProcessor {
	return &DirectProcessor{
		DB:        db,
		Logger:    logger,
		WorkerID:  "direct-" + time.Now().Format("20060102-150405.000"),
		BatchSize: 50,
		Interval:  2 * time.Second,
		LockTTL:   30 * time.Second,
	}
}

func (p *DirectProcessor) Run(ctx context.Context) {
	if p == nil || p.DB == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		p.ProcessOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.Interval):
		}
	}
}

// ProcessOnce handles one batch and returns how many rows were processed successfully.
func (p *DirectProcessor) ProcessOnce(ctx context.Context) int {
	now := time.Now().UTC()
	staleBefore := now.Add(-p.LockTTL)

	var claimed []models.OutboxEvent
	err := p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.
			Where("processed_at IS NULL AND last_process_error IS NULL").
			Where("(locked_at IS NULL OR locked_at <= ?)", staleBefore).
			Order("id ASC").
			Limit(p.BatchSize)
		if config.IsMySQL(tx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := q.Find(&claimed).Error; err != nil {
			return err
		}
		for i := range claimed {
			if err := tx.Model(&models.OutboxEvent{}).
				Where("id = ?", claimed[i].ID).
				Updates(map[string]interface{}{
					"locked_at": &now,
					"locked_by": &p.WorkerID,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if p.Logger != nil {
			config.LogError(p.Logger, "workflow", "ProcessOnce", "claim outbox rows", nil, err)
		}
		return 0
	}

	processed := 0
	for _, rec := range claimed {
		procCtx := utils.SetActorNameInContext(ctx, utils.DefaultActorName)
		procCtx = utils.SetCorrelationIdInContext(procCtx, rec.CorrelationId)

		procErr := ProcessMessage(procCtx, p.Logger, models.ConvertToPubSubMessage(rec))
		releaseErr := p.DB.WithContext(ctx).Model(&models.OutboxEvent{}).
			Where("id = ?", rec.ID).
			Updates(map[string]interface{}{
				"locked_at": nil,
				"locked_by": nil,
			}).Error
		if releaseErr != nil && p.Logger != nil {
			config.LogError(p.Logger, "workflow", "ProcessOnce", "release outbox row", rec.ID, releaseErr)
		}
		if procErr != nil {
			if p.Logger != nil {
				p.Logger.WithFields(logrus.Fields{
					"field":          "DirectProcessor",
					"reference_type": rec.ReferenceType,
					"reference_id":   rec.ReferenceId,
					"record_id":      rec.ID,
				}).Error("direct processing failed: " + procErr.Error())
			}
			continue
		}
		processed++
	}
	return processed
}
