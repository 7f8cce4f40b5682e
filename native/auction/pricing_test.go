package auction

import (
	"math/big"
	"testing"

	"github.com/peterldowns/testy/check"
)

func scenarioCurve() PriceCurve {
	return PriceCurve{
		StartPrice: eth(1, 1),
		FloorPrice: eth(1, 10),
		StartTime:  1_000,
		Duration:   1_000,
	}
}

func TestPriceCurveScenario(t *testing.T) {
	curve := scenarioCurve()
	check.Equal(t, eth(1, 1).String(), curve.At(0).String())
	check.Equal(t, eth(1, 1).String(), curve.At(1_000).String())
	check.Equal(t, eth(55, 100).String(), curve.At(1_500).String())
	check.Equal(t, eth(46, 100).String(), curve.At(1_600).String())
	check.Equal(t, eth(1, 10).String(), curve.At(2_000).String())
	check.Equal(t, eth(1, 10).String(), curve.At(50_000).String())
}

func TestPriceCurveMonotonic(t *testing.T) {
	curve := scenarioCurve()
	prev := curve.At(curve.StartTime - 1)
	for now := curve.StartTime; now <= curve.StartTime+curve.Duration+5; now += 7 {
		price := curve.At(now)
		check.True(t, price.Cmp(prev) <= 0)
		check.True(t, price.Cmp(curve.FloorPrice) >= 0)
		prev = price
	}
}

func TestPriceCurveLargeValues(t *testing.T) {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	curve := PriceCurve{StartPrice: max, FloorPrice: big.NewInt(0), StartTime: 0, Duration: 2}
	half := curve.At(1)
	check.True(t, FitsUint256(half))
	check.Equal(t, new(big.Int).Sub(max, new(big.Int).Rsh(max, 1)).String(), half.String())
}

func TestPriceCurveFlat(t *testing.T) {
	curve := PriceCurve{StartPrice: eth(1, 1), FloorPrice: eth(1, 1), StartTime: 10, Duration: 100}
	check.Equal(t, eth(1, 1).String(), curve.At(60).String())
}

func TestBondRequirementRoundsUp(t *testing.T) {
	check.Equal(t, eth(275, 100_000).String(), BondRequirement(eth(55, 100), 50).String())
	check.Equal(t, "1", BondRequirement(big.NewInt(1), 50).String())
	check.Equal(t, "0", BondRequirement(big.NewInt(0), 50).String())
	check.Equal(t, "0", BondRequirement(eth(1, 1), 0).String())
}

func TestProtocolFeeRoundsDown(t *testing.T) {
	check.Equal(t, "0", ProtocolFee(big.NewInt(399), 25).String())
	check.Equal(t, "1", ProtocolFee(big.NewInt(400), 25).String())
	check.Equal(t, eth(25, 1000).String(), ProtocolFee(eth(1, 1), 250).String())
}
