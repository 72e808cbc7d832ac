package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplicableRate(t *testing.T) {
	cases := []struct {
		name   string
		weight string
		tiers  []RateTier
		want   string
	}{
		{"empty tiers", "10", nil, "0"},
		{"inside bracket", "200", standardTiers(), "40"},
		{"shared boundary takes lower bracket", "100", standardTiers(), "50"},
		{"open maximum", "9000", standardTiers(), "35"},
		{
			"open minimum",
			"5",
			[]RateTier{{MaxWeight: dp("45"), Rate: d("80")}, {MinWeight: dp("45"), Rate: d("60")}},
			"80",
		},
		{
			"below every bracket",
			"10",
			[]RateTier{{MinWeight: dp("45"), MaxWeight: dp("100"), Rate: d("60")}, {MinWeight: dp("100"), MaxWeight: dp("300"), Rate: d("50")}},
			"60",
		},
		{
			"above every bracket",
			"400",
			[]RateTier{{MinWeight: dp("0"), MaxWeight: dp("45"), Rate: d("70")}, {MinWeight: dp("45"), MaxWeight: dp("100"), Rate: d("60")}},
			"60",
		},
		{
			"gap between brackets",
			"60",
			[]RateTier{{MinWeight: dp("0"), MaxWeight: dp("45"), Rate: d("70")}, {MinWeight: dp("100"), MaxWeight: dp("200"), Rate: d("50")}},
			"70",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertDecimal(t, tc.want, ApplicableRate(d(tc.weight), tc.tiers))
		})
	}
}

func TestOverlaps(t *testing.T) {
	a := RateTier{MinWeight: dp("0"), MaxWeight: dp("45")}
	b := RateTier{MinWeight: dp("45"), MaxWeight: dp("100")}
	c := RateTier{MinWeight: dp("30"), MaxWeight: dp("60")}
	open := RateTier{MinWeight: dp("80")}

	assert.False(t, Overlaps(a, b))
	assert.True(t, Overlaps(a, c))
	assert.True(t, Overlaps(b, c))
	assert.True(t, Overlaps(b, open))
	assert.False(t, Overlaps(a, open))
	assert.True(t, Overlaps(RateTier{}, a))
}
