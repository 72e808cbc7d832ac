package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/models"
	"github.com/hiflogistics/freight_backend/utils"
	"github.com/hiflogistics/freight_backend/workflow"
	"github.com/sirupsen/logrus"
)

// pushEnvelope is the body Pub/Sub posts to push subscriptions.
type pushEnvelope struct {
	Message struct {
		Data []byte `json:"data,omitempty"`
		ID   string `json:"id"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// pubSubPushHandler consumes outbox events delivered by a push subscription.
// Malformed deliveries are acked with 204 so Pub/Sub stops retrying them.
func pubSubPushHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var envelope pushEnvelope
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			config.LogError(logger, "handlers", "pubSubPushHandler", "io.ReadAll", nil, err)
			c.Status(http.StatusNoContent)
			return
		}
		// []byte fields decode from base64
		if err := json.Unmarshal(body, &envelope); err != nil {
			config.LogError(logger, "handlers", "pubSubPushHandler", "Unmarshal body", string(body), err)
			c.Status(http.StatusNoContent)
			return
		}
		var m config.PubSubMessage
		if err := json.Unmarshal(envelope.Message.Data, &m); err != nil {
			config.LogError(logger, "handlers", "pubSubPushHandler", "Unmarshal pubsub message", string(envelope.Message.Data), err)
			c.Status(http.StatusNoContent)
			return
		}
		if m.ReferenceType == "" || m.ReferenceId <= 0 {
			config.LogError(logger, "handlers", "pubSubPushHandler", "invalid pubsub message", m, fmt.Errorf("reference_type/reference_id required"))
			c.Status(http.StatusNoContent)
			return
		}

		correlationId := m.CorrelationId
		if correlationId == "" {
			correlationId = envelope.Message.ID
		}
		fields := logrus.Fields{
			"field":          "pubSubPushHandler",
			"reference_type": m.ReferenceType,
			"reference_id":   m.ReferenceId,
			"message_id":     envelope.Message.ID,
		}

		ctx := c.Request.Context()
		var lock *redislock.Lock
		if locker := config.GetRedisLock(); locker != nil {
			key := fmt.Sprintf("lock:event:%s:%d", m.ReferenceType, m.ReferenceId)
			lock, err = locker.Obtain(ctx, key, 30*time.Second, nil)
			if err != nil {
				logger.WithFields(fields).Warn("could not obtain redis lock; proceeding without it: " + err.Error())
				lock = nil
			}
		}
		defer func() {
			if lock == nil {
				return
			}
			if releaseErr := lock.Release(ctx); releaseErr != nil {
				logger.WithFields(fields).Warn("failed to release redis lock: " + releaseErr.Error())
			}
		}()

		ctx = utils.SetActorNameInContext(ctx, utils.DefaultActorName)
		ctx = utils.SetCorrelationIdInContext(ctx, correlationId)
		if err := workflow.ProcessMessage(ctx, logger, m); err != nil {
			logger.WithFields(fields).Error("process message: " + err.Error())
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func listOutboxEvents(c *gin.Context) {
	filter := models.OutboxFilter{Limit: 100}
	if v := c.Query("publish_status"); v != "" {
		filter.PublishStatus = &v
	}
	if v := c.Query("reference_type"); v != "" {
		refType := models.EventReferenceType(v)
		filter.ReferenceType = &refType
	}
	if v := c.Query("reference_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid reference_id"})
			return
		}
		filter.ReferenceId = &id
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 500 {
		filter.Limit = v
	}
	events, err := models.GetOutboxEvents(c.Request.Context(), filter)
	respond(c, http.StatusOK, events, err)
}

func replayOutboxEvent(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	event, err := models.ReplayOutboxEvent(c.Request.Context(), id)
	respond(c, http.StatusOK, event, err)
}
