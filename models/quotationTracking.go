package models

import (
	"context"
	"errors"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var TrackingStepLabels = []string{
	"Pending Docs",
	"Pending Booking",
	"Booking Requested",
	"AWB Received",
	"Delivered",
}

const trackingPreparingLabel = "Preparing"

type trackingState struct {
	step  int
	label string
}

// trackingStateFor decides the public progress step (0-5) and its label. The
// quotation status decides once shipped, otherwise the linked opportunity stage does.
func trackingStateFor(status QuotationStatus, stage *OpportunityStage) trackingState {
	switch status {
	case QuotationStatusCompleted:
		return trackingState{5, "Delivered"}
	case QuotationStatusShipped:
		return trackingState{4, "Shipped"}
	}
	if stage != nil {
		switch *stage {
		case OpportunityStagePaymentReceived:
			return trackingState{5, "Payment Received"}
		case OpportunityStageAwbReceived:
			return trackingState{4, "AWB Received"}
		case OpportunityStageBookingRequested:
			return trackingState{3, "Booking Requested"}
		case OpportunityStagePendingBooking:
			return trackingState{2, "Pending Booking"}
		case OpportunityStagePendingDocs:
			return trackingState{1, "Pending Documents"}
		}
	}
	return trackingState{0, trackingPreparingLabel}
}

func TrackingStep(status QuotationStatus, stage *OpportunityStage) int {
	return trackingStateFor(status, stage).step
}

func TrackingStatusLabel(status QuotationStatus, stage *OpportunityStage) string {
	return trackingStateFor(status, stage).label
}

type TrackingDocument struct {
	DocumentType string         `json:"document_type"`
	FileName     string         `json:"file_name"`
	Status       DocumentStatus `json:"status"`
	SubmittedAt  string         `json:"submitted_at"`
}

// TrackingView is the public, read-only projection of a shared quotation.
type TrackingView struct {
	QuotationNumber  string             `json:"quotation_number"`
	CustomerName     string             `json:"customer_name"`
	Destination      string             `json:"destination"`
	Status           QuotationStatus    `json:"status"`
	TotalCost        decimal.Decimal    `json:"total_cost"`
	Currency         string             `json:"currency"`
	ChargeableWeight decimal.Decimal    `json:"chargeable_weight"`
	PalletCount      int                `json:"pallet_count"`
	Step             int                `json:"step"`
	StepLabel        string             `json:"step_label"`
	Steps            []string           `json:"steps"`
	Documents        []TrackingDocument `json:"documents"`
}

// GenerateShareToken issues the quotation's share token once and returns it on later calls.
func GenerateShareToken(ctx context.Context, id int) (*Quotation, error) {
	quotation, err := utils.FetchModel[Quotation](ctx, id)
	if err != nil {
		return nil, err
	}
	if quotation.ShareToken != nil && *quotation.ShareToken != "" {
		return quotation, nil
	}
	token := utils.NewToken()
	db := config.GetDB()
	// only set when still empty so concurrent calls agree on one token
	result := db.WithContext(ctx).Model(&Quotation{}).
		Where("id = ? AND share_token IS NULL", id).
		Update("share_token", token)
	if result.Error != nil {
		return nil, result.Error
	}
	return utils.FetchModel[Quotation](ctx, id)
}

func linkedOpportunityStage(ctx context.Context, quotationId int) (*OpportunityStage, error) {
	db := config.GetDB()
	var opp Opportunity
	err := db.WithContext(ctx).Where("quotation_id = ?", quotationId).Order("id DESC").First(&opp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &opp.Stage, nil
}

func GetTrackingView(ctx context.Context, token string) (*TrackingView, error) {
	if token == "" {
		return nil, utils.ErrorRecordNotFound
	}
	header, err := utils.FetchModelWhere[Quotation](ctx, "share_token = ?", token)
	if err != nil {
		return nil, err
	}
	quotation, err := GetQuotation(ctx, header.ID)
	if err != nil {
		return nil, err
	}
	stage, err := linkedOpportunityStage(ctx, quotation.ID)
	if err != nil {
		return nil, err
	}
	destination, err := GetDestination(ctx, quotation.DestinationId)
	if err != nil && !errors.Is(err, utils.ErrorRecordNotFound) {
		return nil, err
	}
	docs, err := GetDocumentSubmissions(ctx, DocumentFilter{QuotationId: &quotation.ID})
	if err != nil {
		return nil, err
	}

	view := TrackingView{
		QuotationNumber:  quotation.QuotationNumber,
		CustomerName:     quotation.CustomerName,
		Status:           quotation.Status,
		TotalCost:        quotation.TotalCost,
		Currency:         quotation.Currency,
		ChargeableWeight: quotation.ChargeableWeight,
		Steps:            TrackingStepLabels,
		Documents:        make([]TrackingDocument, 0, len(docs)),
	}
	if destination != nil {
		view.Destination = destination.DisplayName()
	}
	for _, p := range quotation.Pallets {
		view.PalletCount += max(p.Quantity, 1)
	}
	state := trackingStateFor(quotation.Status, stage)
	view.Step = state.step
	view.StepLabel = state.label
	for _, d := range docs {
		view.Documents = append(view.Documents, TrackingDocument{
			DocumentType: d.DocumentType,
			FileName:     d.FileName,
			Status:       d.Status,
			SubmittedAt:  d.SubmittedAt.Format("2006-01-02"),
		})
	}
	return &view, nil
}
