package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/models"
	"github.com/hiflogistics/freight_backend/utils"
	"github.com/sirupsen/logrus"
)

// quotationEvent is the part of a quotation payload the consumer reads.
type quotationEvent struct {
	ID     int                    `json:"id"`
	Status models.QuotationStatus `json:"status"`
}

// ProcessMessage applies the side effects of one outbox event and records the
// outcome on the outbox row. Replaying a message is safe.
func ProcessMessage(ctx context.Context, logger *logrus.Logger, msg config.PubSubMessage) error {
	err := handleMessage(ctx, logger, msg)
	if markErr := models.MarkOutboxEventProcessed(ctx, msg.ID, err); markErr != nil && logger != nil {
		config.LogError(logger, "workflow", "ProcessMessage", "mark outbox event processed", msg.ID, markErr)
	}
	return err
}

func handleMessage(ctx context.Context, logger *logrus.Logger, msg config.PubSubMessage) error {
	switch models.EventReferenceType(msg.ReferenceType) {
	case models.EventReferenceQuotation:
		return processQuotationEvent(ctx, logger, msg)
	default:
		// nothing consumes the other reference types yet
		return nil
	}
}

func processQuotationEvent(ctx context.Context, logger *logrus.Logger, msg config.PubSubMessage) error {
	// only status changes move the pipeline; plain edits leave staff moves alone
	if models.EventAction(msg.Action) != models.EventActionStatus || len(msg.NewObj) == 0 {
		return nil
	}
	var q quotationEvent
	if err := json.Unmarshal(msg.NewObj, &q); err != nil {
		return fmt.Errorf("decode quotation payload: %w", err)
	}
	if q.ID == 0 {
		q.ID = msg.ReferenceId
	}
	if len(msg.OldObj) > 0 {
		var old quotationEvent
		if err := json.Unmarshal(msg.OldObj, &old); err != nil {
			return fmt.Errorf("decode previous quotation payload: %w", err)
		}
		if old.Status == q.Status {
			return nil
		}
	}

	current, err := models.GetQuotation(ctx, q.ID)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if current.Status != q.Status {
		// a later status change has its own event
		return nil
	}

	opp, err := models.SyncOpportunityWithQuotation(ctx, q.ID, q.Status)
	if err != nil {
		return err
	}
	if opp != nil && logger != nil {
		logger.WithFields(logrus.Fields{
			"field":          "ProcessMessage",
			"quotation_id":   q.ID,
			"opportunity_id": opp.ID,
			"stage":          opp.Stage,
			"correlation_id": msg.CorrelationId,
		}).Info("opportunity stage synced from quotation")
	}
	return nil
}
