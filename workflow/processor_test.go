package workflow

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/models"
	"github.com/hiflogistics/freight_backend/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linkedOpportunity(t *testing.T, quotationId int) *models.Opportunity {
	t.Helper()
	opp, err := models.CreateOpportunity(testutil.Context(), &models.NewOpportunity{
		Topic:       "Monthly pallets to Yangon",
		Amount:      testutil.Decimal("13350"),
		Stage:       models.OpportunityStageQuoting,
		QuotationId: &quotationId,
	})
	require.NoError(t, err)
	return opp
}

func TestDirectProcessor_SyncsOpportunityFromQuotationStatus(t *testing.T) {
	db, q := seedQuotation(t)
	opp := linkedOpportunity(t, q.ID)
	ctx := testutil.Context()

	_, err := models.UpdateQuotationStatus(ctx, q.ID, models.QuotationStatusAccepted)
	require.NoError(t, err)

	queued := len(outboxEvents(t, db))
	p := NewDirectProcessor(db, quietLogger())
	assert.Equal(t, queued, p.ProcessOnce(context.Background()))

	got, err := models.GetOpportunity(ctx, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OpportunityStagePendingDocs, got.Stage)
	assert.Equal(t, models.OpportunityStagePendingDocs.DefaultProbability(), got.Probability)

	// the stage change wrote one more event for the next pass
	assert.Equal(t, 1, p.ProcessOnce(context.Background()))
	assert.Equal(t, 0, p.ProcessOnce(context.Background()))
	for _, ev := range outboxEvents(t, db) {
		assert.NotNil(t, ev.ProcessedAt, "event %d", ev.ID)
		assert.Nil(t, ev.LastProcessError)
	}
}

func TestProcessMessage_AcceptedDoesNotMoveOpportunityBackwards(t *testing.T) {
	_, q := seedQuotation(t)
	opp := linkedOpportunity(t, q.ID)
	ctx := testutil.Context()
	_, err := models.UpdateQuotationStatus(ctx, q.ID, models.QuotationStatusAccepted)
	require.NoError(t, err)
	_, err = models.MoveOpportunityStage(ctx, opp.ID, models.OpportunityStageBookingRequested)
	require.NoError(t, err)

	payload, err := json.Marshal(map[string]interface{}{"id": q.ID, "status": models.QuotationStatusAccepted})
	require.NoError(t, err)
	err = ProcessMessage(ctx, quietLogger(), config.PubSubMessage{
		ReferenceId:   q.ID,
		ReferenceType: string(models.EventReferenceQuotation),
		Action:        string(models.EventActionStatus),
		NewObj:        payload,
	})
	require.NoError(t, err)

	got, err := models.GetOpportunity(ctx, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OpportunityStageBookingRequested, got.Stage)
}

func drain(t *testing.T, p *DirectProcessor) {
	t.Helper()
	for i := 0; i < 10; i++ {
		if p.ProcessOnce(context.Background()) == 0 {
			return
		}
	}
	t.Fatal("outbox did not drain")
}

func TestDirectProcessor_QuotationEditKeepsOpportunityStage(t *testing.T) {
	db, q := seedQuotation(t)
	opp := linkedOpportunity(t, q.ID)
	ctx := testutil.Context()
	p := NewDirectProcessor(db, quietLogger())

	_, err := models.UpdateQuotationStatus(ctx, q.ID, models.QuotationStatusDocsUploaded)
	require.NoError(t, err)
	drain(t, p)
	got, err := models.GetOpportunity(ctx, opp.ID)
	require.NoError(t, err)
	require.Equal(t, models.OpportunityStagePendingBooking, got.Stage)

	_, err = models.MoveOpportunityStage(ctx, opp.ID, models.OpportunityStageBookingRequested)
	require.NoError(t, err)

	input := testutil.QuotationInput(q.CompanyId, q.DestinationId)
	input.Notes = "Forklift needed at pickup"
	edited, err := models.UpdateQuotation(ctx, q.ID, input)
	require.NoError(t, err)
	require.Equal(t, models.QuotationStatusDocsUploaded, edited.Status)
	drain(t, p)

	got, err = models.GetOpportunity(ctx, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OpportunityStageBookingRequested, got.Stage)
}

func TestProcessMessage_SkipsStaleStatusEvent(t *testing.T) {
	db, q := seedQuotation(t)
	opp := linkedOpportunity(t, q.ID)
	ctx := testutil.Context()
	p := NewDirectProcessor(db, quietLogger())

	_, err := models.UpdateQuotationStatus(ctx, q.ID, models.QuotationStatusDocsUploaded)
	require.NoError(t, err)
	_, err = models.UpdateQuotationStatus(ctx, q.ID, models.QuotationStatusShipped)
	require.NoError(t, err)
	drain(t, p)
	got, err := models.GetOpportunity(ctx, opp.ID)
	require.NoError(t, err)
	require.Equal(t, models.OpportunityStageAwbReceived, got.Stage)

	oldObj, err := json.Marshal(map[string]interface{}{"id": q.ID, "status": models.QuotationStatusDraft})
	require.NoError(t, err)
	newObj, err := json.Marshal(map[string]interface{}{"id": q.ID, "status": models.QuotationStatusDocsUploaded})
	require.NoError(t, err)
	err = ProcessMessage(ctx, quietLogger(), config.PubSubMessage{
		ReferenceId:   q.ID,
		ReferenceType: string(models.EventReferenceQuotation),
		Action:        string(models.EventActionStatus),
		OldObj:        oldObj,
		NewObj:        newObj,
	})
	require.NoError(t, err)

	got, err = models.GetOpportunity(ctx, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OpportunityStageAwbReceived, got.Stage)
}

func TestProcessMessage_IgnoresUnchangedStatus(t *testing.T) {
	_, q := seedQuotation(t)
	opp := linkedOpportunity(t, q.ID)
	ctx := testutil.Context()

	payload, err := json.Marshal(map[string]interface{}{"id": q.ID, "status": models.QuotationStatusDraft})
	require.NoError(t, err)
	for _, action := range []models.EventAction{models.EventActionUpdate, models.EventActionStatus} {
		err = ProcessMessage(ctx, quietLogger(), config.PubSubMessage{
			ReferenceId:   q.ID,
			ReferenceType: string(models.EventReferenceQuotation),
			Action:        string(action),
			OldObj:        payload,
			NewObj:        payload,
		})
		require.NoError(t, err, action)
	}

	got, err := models.GetOpportunity(ctx, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OpportunityStageQuoting, got.Stage)
}

func TestProcessMessage_RecordsDecodeFailure(t *testing.T) {
	db, q := seedQuotation(t)
	ctx := testutil.Context()
	var ev models.OutboxEvent
	require.NoError(t, db.Where("reference_type = ? AND reference_id = ?", models.EventReferenceQuotation, q.ID).First(&ev).Error)

	err := ProcessMessage(ctx, quietLogger(), config.PubSubMessage{
		ID:            ev.ID,
		ReferenceId:   q.ID,
		ReferenceType: string(models.EventReferenceQuotation),
		Action:        string(models.EventActionStatus),
		NewObj:        []byte("{not json"),
	})
	require.Error(t, err)

	var stored models.OutboxEvent
	require.NoError(t, db.First(&stored, ev.ID).Error)
	require.NotNil(t, stored.LastProcessError)
	assert.Nil(t, stored.ProcessedAt)

	replayed, err := models.ReplayOutboxEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Nil(t, replayed.LastProcessError)
	assert.Equal(t, models.OutboxPublishStatusFailed, replayed.PublishStatus)
}

func TestProcessMessage_IgnoresOtherReferenceTypes(t *testing.T) {
	testutil.NewTestDB(t)
	err := ProcessMessage(testutil.Context(), quietLogger(), config.PubSubMessage{
		ReferenceType: string(models.EventReferencePackingList),
		Action:        string(models.EventActionCreate),
		NewObj:        []byte(`{"id": 1}`),
	})
	assert.NoError(t, err)
}
