package models

import (
	"context"

	"github.com/hiflogistics/freight_backend/pricing"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("freight-backend")

type NewQuotationPallet struct {
	Length   decimal.Decimal `json:"length"`
	Width    decimal.Decimal `json:"width"`
	Height   decimal.Decimal `json:"height"`
	Weight   decimal.Decimal `json:"weight"`
	Quantity int             `json:"quantity"`
}

type NewQuotationCharge struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// PricingRequest is the part of a quotation needed to price it.
type PricingRequest struct {
	DestinationId     int                  `json:"destination_id"`
	Pallets           []NewQuotationPallet `json:"pallets"`
	DeliveryRequired  bool                 `json:"delivery_required"`
	VehicleType       string               `json:"vehicle_type"`
	ClearanceCost     *decimal.Decimal     `json:"clearance_cost"`
	AdditionalCharges []NewQuotationCharge `json:"additional_charges"`
}

func (r PricingRequest) pallets() []pricing.Pallet {
	out := make([]pricing.Pallet, 0, len(r.Pallets))
	for _, p := range r.Pallets {
		out = append(out, pricing.Pallet{
			Length:   p.Length,
			Width:    p.Width,
			Height:   p.Height,
			Weight:   p.Weight,
			Quantity: p.Quantity,
		})
	}
	return out
}

func (r PricingRequest) charges() []pricing.AdditionalCharge {
	out := make([]pricing.AdditionalCharge, 0, len(r.AdditionalCharges))
	for _, c := range r.AdditionalCharges {
		out = append(out, pricing.AdditionalCharge{Name: c.Name, Description: c.Description, Amount: c.Amount})
	}
	return out
}

// PriceQuotation loads the destination's active rate card, delivery rates and default
// clearance cost and runs the calculator. Nothing is stored.
func PriceQuotation(ctx context.Context, req *PricingRequest) (*pricing.Result, error) {
	ctx, span := tracer.Start(ctx, "quotation.price")
	defer span.End()
	span.SetAttributes(
		attribute.Int("destination.id", req.DestinationId),
		attribute.Int("pallets", len(req.Pallets)),
	)

	tiers, err := GetActiveRateTiers(ctx, req.DestinationId)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	deliveryRates, err := DeliveryRateTable(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	clearance := req.ClearanceCost
	if clearance == nil {
		v, err := DefaultClearanceCost(ctx)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		clearance = &v
	}

	result, err := pricing.Calculate(pricing.Input{
		Pallets:           req.pallets(),
		Rates:             tiers,
		DeliveryRequired:  req.DeliveryRequired,
		VehicleType:       req.VehicleType,
		DeliveryRates:     deliveryRates,
		ClearanceCost:     *clearance,
		AdditionalCharges: req.charges(),
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("total_cost", result.TotalCost.String()))
	return &result, nil
}
