package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got.String())
}

func standardTiers() []RateTier {
	return []RateTier{
		{MinWeight: dp("500"), MaxWeight: nil, Rate: d("35")},
		{MinWeight: dp("0"), MaxWeight: dp("100"), Rate: d("50")},
		{MinWeight: dp("100"), MaxWeight: dp("500"), Rate: d("40")},
	}
}

func TestVolumeWeight_RoundsUp(t *testing.T) {
	assertDecimal(t, "200", VolumeWeight(d("120"), d("100"), d("100")))
	assertDecimal(t, "102", VolumeWeight(d("100"), d("100"), d("61")))
	assertDecimal(t, "1", VolumeWeight(d("10"), d("10"), d("10")))
}

func TestPalletCost_UsesGreaterOfVolumeAndActual(t *testing.T) {
	b := PalletCost(0, Pallet{Length: d("50"), Width: d("40"), Height: d("30"), Weight: d("25"), Quantity: 2}, standardTiers())
	assertDecimal(t, "10", b.VolumeWeight)
	assertDecimal(t, "25", b.ChargeableWeight)
	assertDecimal(t, "50", b.Rate)
	assertDecimal(t, "2500", b.Cost)
	assert.Equal(t, 2, b.Quantity)
	assert.False(t, b.Skipped)
}

func TestPalletCost_RoundsPerUnit(t *testing.T) {
	tiers := []RateTier{{Rate: d("12.35")}}
	b := PalletCost(0, Pallet{Length: d("10"), Width: d("10"), Height: d("10"), Weight: d("33"), Quantity: 3}, tiers)
	// 33 * 12.35 = 407.55 -> 408 per unit
	assertDecimal(t, "1224", b.Cost)
}

func TestPalletCost_SkipsMissingDimensions(t *testing.T) {
	b := PalletCost(1, Pallet{Length: d("120"), Width: d("0"), Height: d("100"), Weight: d("80")}, standardTiers())
	assert.True(t, b.Skipped)
	assert.True(t, b.Cost.IsZero())
	assertDecimal(t, "80", b.ActualWeight)
}

func TestCalculate_FullBreakdown(t *testing.T) {
	in := Input{
		Pallets: []Pallet{
			{Length: d("120"), Width: d("100"), Height: d("100"), Weight: d("150"), Quantity: 1},
			{Length: d("50"), Width: d("40"), Height: d("30"), Weight: d("25"), Quantity: 2},
		},
		Rates:            standardTiers(),
		DeliveryRequired: true,
		VehicleType:      VehicleFourWheel,
		DeliveryRates:    DefaultDeliveryRates(),
		ClearanceCost:    DefaultClearanceCost,
		AdditionalCharges: []AdditionalCharge{
			{Name: "Fumigation", Amount: d("1000")},
			{Name: "Handling", Amount: d("500")},
		},
	}

	res, err := Calculate(in)
	require.NoError(t, err)
	require.Len(t, res.Pallets, 2)

	assertDecimal(t, "8000", res.Pallets[0].Cost)
	assertDecimal(t, "2500", res.Pallets[1].Cost)
	assertDecimal(t, "10500", res.TotalFreightCost)
	assertDecimal(t, "220", res.TotalVolumeWeight)
	assertDecimal(t, "200", res.TotalActualWeight)
	assertDecimal(t, "220", res.ChargeableWeight)
	assertDecimal(t, "1.32", res.TotalVolumeCBM)
	assertDecimal(t, "3500", res.DeliveryCost)
	assertDecimal(t, "5350", res.ClearanceCost)
	assertDecimal(t, "19350", res.SubTotal)
	assertDecimal(t, "1500", res.TotalAdditionalCharges)
	assertDecimal(t, "20850", res.TotalCost)

	sum := res.TotalFreightCost.Add(res.DeliveryCost).Add(res.ClearanceCost).Add(res.TotalAdditionalCharges)
	assert.True(t, sum.Equal(res.TotalCost))
}

func TestCalculate_NoDeliveryIgnoresVehicle(t *testing.T) {
	res, err := Calculate(Input{
		Pallets:     []Pallet{{Length: d("100"), Width: d("100"), Height: d("60"), Weight: d("10")}},
		Rates:       standardTiers(),
		VehicleType: "truck",
	})
	require.NoError(t, err)
	assert.True(t, res.DeliveryCost.IsZero())
	// 100*100*60/6000 = 100 -> first bracket containing 100 is 0-100 at 50
	assertDecimal(t, "5000", res.TotalCost)
}

func TestCalculate_Errors(t *testing.T) {
	pallet := Pallet{Length: d("10"), Width: d("10"), Height: d("10"), Weight: d("1")}

	_, err := Calculate(Input{})
	assert.ErrorIs(t, err, ErrNoPallets)

	_, err = Calculate(Input{Pallets: []Pallet{pallet}, DeliveryRequired: true, VehicleType: "10wheel", DeliveryRates: DefaultDeliveryRates()})
	assert.ErrorIs(t, err, ErrUnknownVehicleType)

	_, err = Calculate(Input{Pallets: []Pallet{pallet}, AdditionalCharges: []AdditionalCharge{{Name: "Refund", Amount: d("-1")}}})
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = Calculate(Input{Pallets: []Pallet{pallet}, ClearanceCost: d("-5")})
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = Calculate(Input{Pallets: []Pallet{{Length: d("-1"), Width: d("1"), Height: d("1")}}})
	assert.True(t, errors.Is(err, ErrInvalidPallet))
}

func TestCalculate_DoesNotMutateInput(t *testing.T) {
	tiers := standardTiers()
	in := Input{
		Pallets: []Pallet{{Length: d("120"), Width: d("100"), Height: d("100"), Weight: d("150")}},
		Rates:   tiers,
	}
	_, err := Calculate(in)
	require.NoError(t, err)
	// caller order is preserved
	assertDecimal(t, "500", *in.Rates[0].MinWeight)
}
