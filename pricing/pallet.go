package pricing

import "github.com/shopspring/decimal"

var (
	// VolumeDivisor converts cubic centimetres into volumetric kilograms.
	VolumeDivisor        = decimal.NewFromInt(6000)
	cubicCmPerCubicMetre = decimal.NewFromInt(1000000)
)

// Pallet is one line of cargo. Dimensions are centimetres, weight is kilograms per unit.
type Pallet struct {
	Length   decimal.Decimal `json:"length" yaml:"length"`
	Width    decimal.Decimal `json:"width" yaml:"width"`
	Height   decimal.Decimal `json:"height" yaml:"height"`
	Weight   decimal.Decimal `json:"weight" yaml:"weight"`
	Quantity int             `json:"quantity" yaml:"quantity"`
}

// Units returns the pallet quantity, treating a missing quantity as one.
func (p Pallet) Units() decimal.Decimal {
	if p.Quantity <= 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(int64(p.Quantity))
}

// HasDimensions reports whether every dimension was filled in.
func (p Pallet) HasDimensions() bool {
	return p.Length.IsPositive() && p.Width.IsPositive() && p.Height.IsPositive()
}

func (p Pallet) valid() bool {
	return !p.Length.IsNegative() && !p.Width.IsNegative() && !p.Height.IsNegative() && !p.Weight.IsNegative()
}

// VolumeWeight is ceil(l*w*h / 6000).
func VolumeWeight(length, width, height decimal.Decimal) decimal.Decimal {
	return length.Mul(width).Mul(height).Div(VolumeDivisor).Ceil()
}

// VolumeCBM returns the pallet volume in cubic metres for all units.
func (p Pallet) VolumeCBM() decimal.Decimal {
	if !p.HasDimensions() {
		return decimal.Zero
	}
	return p.Length.Mul(p.Width).Mul(p.Height).Mul(p.Units()).Div(cubicCmPerCubicMetre)
}

// ChargeableWeight is the greater of volume and actual weight for a single unit.
func ChargeableWeight(volumeWeight, actualWeight decimal.Decimal) decimal.Decimal {
	return decimal.Max(volumeWeight, actualWeight)
}
