// Package pricing computes shipping costs for a set of pallets.
//
// Everything here is pure arithmetic over decimal values; callers load rate tiers
// and delivery rates and persist the result.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNoPallets          = errors.New("at least one pallet is required")
	ErrInvalidPallet      = errors.New("pallet dimensions and weight cannot be negative")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrUnknownVehicleType = errors.New("unknown delivery vehicle type")
)

const (
	VehicleFourWheel = "4wheel"
	VehicleSixWheel  = "6wheel"
)

var (
	DefaultClearanceCost = decimal.NewFromInt(5350)
)

// DefaultDeliveryRates are used until delivery rates are configured.
func DefaultDeliveryRates() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		VehicleFourWheel: decimal.NewFromInt(3500),
		VehicleSixWheel:  decimal.NewFromInt(6500),
	}
}

type AdditionalCharge struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Amount      decimal.Decimal `json:"amount" yaml:"amount"`
}

type Input struct {
	Pallets           []Pallet
	Rates             []RateTier
	DeliveryRequired  bool
	VehicleType       string
	DeliveryRates     map[string]decimal.Decimal
	ClearanceCost     decimal.Decimal
	AdditionalCharges []AdditionalCharge
}

type PalletBreakdown struct {
	Index            int             `json:"index"`
	Quantity         int             `json:"quantity"`
	VolumeWeight     decimal.Decimal `json:"volume_weight"`
	ActualWeight     decimal.Decimal `json:"actual_weight"`
	ChargeableWeight decimal.Decimal `json:"chargeable_weight"`
	Rate             decimal.Decimal `json:"rate"`
	Cost             decimal.Decimal `json:"cost"`
	Skipped          bool            `json:"skipped"`
}

type Result struct {
	Pallets                []PalletBreakdown `json:"pallets"`
	TotalVolumeCBM         decimal.Decimal   `json:"total_volume_cbm"`
	TotalVolumeWeight      decimal.Decimal   `json:"total_volume_weight"`
	TotalActualWeight      decimal.Decimal   `json:"total_actual_weight"`
	ChargeableWeight       decimal.Decimal   `json:"chargeable_weight"`
	TotalFreightCost       decimal.Decimal   `json:"total_freight_cost"`
	DeliveryCost           decimal.Decimal   `json:"delivery_cost"`
	ClearanceCost          decimal.Decimal   `json:"clearance_cost"`
	SubTotal               decimal.Decimal   `json:"sub_total"`
	TotalAdditionalCharges decimal.Decimal   `json:"total_additional_charges"`
	TotalCost              decimal.Decimal   `json:"total_cost"`
}

// PalletCost prices one pallet line. Pallets with a missing dimension are skipped
// from freight but keep their actual weight.
func PalletCost(index int, p Pallet, tiers []RateTier) PalletBreakdown {
	b := PalletBreakdown{
		Index:        index,
		Quantity:     int(p.Units().IntPart()),
		ActualWeight: p.Weight,
	}
	if !p.HasDimensions() {
		b.Skipped = true
		return b
	}
	b.VolumeWeight = VolumeWeight(p.Length, p.Width, p.Height)
	b.ChargeableWeight = ChargeableWeight(b.VolumeWeight, p.Weight)
	b.Rate = ApplicableRate(b.ChargeableWeight, tiers)
	b.Cost = b.ChargeableWeight.Mul(b.Rate).Round(0).Mul(p.Units())
	return b
}

// DeliveryCost returns the vehicle rate when delivery is required.
func DeliveryCost(required bool, vehicleType string, rates map[string]decimal.Decimal) (decimal.Decimal, error) {
	if !required {
		return decimal.Zero, nil
	}
	rate, ok := rates[vehicleType]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownVehicleType, vehicleType)
	}
	return rate, nil
}

// SumCharges totals additional charges, rejecting negative amounts.
func SumCharges(charges []AdditionalCharge) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, c := range charges {
		if c.Amount.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: charge %q", ErrNegativeAmount, c.Name)
		}
		total = total.Add(c.Amount)
	}
	return total, nil
}

// Calculate runs the full pricing pipeline.
func Calculate(in Input) (Result, error) {
	var res Result
	if len(in.Pallets) == 0 {
		return res, ErrNoPallets
	}
	if in.ClearanceCost.IsNegative() {
		return res, fmt.Errorf("%w: clearance cost", ErrNegativeAmount)
	}

	res.Pallets = make([]PalletBreakdown, 0, len(in.Pallets))
	for i, p := range in.Pallets {
		if !p.valid() {
			return Result{}, fmt.Errorf("%w: pallet %d", ErrInvalidPallet, i+1)
		}
		b := PalletCost(i, p, in.Rates)
		res.Pallets = append(res.Pallets, b)

		units := p.Units()
		res.TotalActualWeight = res.TotalActualWeight.Add(p.Weight.Mul(units))
		res.TotalVolumeWeight = res.TotalVolumeWeight.Add(b.VolumeWeight.Mul(units))
		res.TotalVolumeCBM = res.TotalVolumeCBM.Add(p.VolumeCBM())
		res.TotalFreightCost = res.TotalFreightCost.Add(b.Cost)
	}
	res.TotalVolumeCBM = res.TotalVolumeCBM.Round(3)
	res.ChargeableWeight = ChargeableWeight(res.TotalVolumeWeight, res.TotalActualWeight)

	delivery, err := DeliveryCost(in.DeliveryRequired, in.VehicleType, in.DeliveryRates)
	if err != nil {
		return Result{}, err
	}
	additional, err := SumCharges(in.AdditionalCharges)
	if err != nil {
		return Result{}, err
	}

	res.DeliveryCost = delivery
	res.ClearanceCost = in.ClearanceCost
	res.SubTotal = res.TotalFreightCost.Add(res.ClearanceCost).Add(res.DeliveryCost)
	res.TotalAdditionalCharges = additional
	res.TotalCost = res.SubTotal.Add(additional)
	return res, nil
}
