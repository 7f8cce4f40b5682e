package auction

import (
	"math/big"

	"github.com/holiman/uint256"
)

const bpsDenominator = 10_000

// PriceCurve is the linear Dutch-auction decay from StartPrice to FloorPrice
// over Duration seconds beginning at StartTime.
type PriceCurve struct {
	StartPrice *big.Int
	FloorPrice *big.Int
	StartTime  int64
	Duration   int64
}

// At returns the clearing price at the supplied instant. The result is
// non-increasing in now, equals StartPrice at or before StartTime and equals
// FloorPrice from StartTime+Duration onwards. Intermediate products are
// evaluated in 512 bits so the 256-bit domain never overflows.
func (c PriceCurve) At(now int64) *big.Int {
	start, floor := c.bounds()
	if start.Lt(floor) {
		return floor.ToBig()
	}
	if c.Duration <= 0 || now >= c.StartTime+c.Duration {
		return floor.ToBig()
	}
	if now <= c.StartTime {
		return start.ToBig()
	}
	span := new(uint256.Int).Sub(start, floor)
	elapsed := uint256.NewInt(uint64(now - c.StartTime))
	duration := uint256.NewInt(uint64(c.Duration))
	drop, overflow := new(uint256.Int).MulDivOverflow(span, elapsed, duration)
	if overflow {
		return floor.ToBig()
	}
	return new(uint256.Int).Sub(start, drop).ToBig()
}

func (c PriceCurve) bounds() (*uint256.Int, *uint256.Int) {
	start, overflow := uint256.FromBig(nonNil(c.StartPrice))
	if overflow {
		start = new(uint256.Int).SetAllOne()
	}
	floor, overflow := uint256.FromBig(nonNil(c.FloorPrice))
	if overflow {
		floor = new(uint256.Int).SetAllOne()
	}
	return start, floor
}

// FitsUint256 reports whether v is a non-negative value representable in 256
// bits.
func FitsUint256(v *big.Int) bool {
	if v == nil {
		return true
	}
	if v.Sign() < 0 {
		return false
	}
	return v.BitLen() <= 256
}

// BondRequirement returns the minimum soft-bid deposit at the supplied price,
// rounded up so a bond is never smaller than the configured fraction.
func BondRequirement(price *big.Int, bondBps uint32) *big.Int {
	if price == nil || price.Sign() <= 0 || bondBps == 0 {
		return big.NewInt(0)
	}
	req := new(big.Int).Mul(price, new(big.Int).SetUint64(uint64(bondBps)))
	req.Add(req, big.NewInt(bpsDenominator-1))
	return req.Div(req, big.NewInt(bpsDenominator))
}

// ProtocolFee returns the protocol skim taken from a settlement at price.
func ProtocolFee(price *big.Int, feeBps uint32) *big.Int {
	if price == nil || price.Sign() <= 0 || feeBps == 0 {
		return big.NewInt(0)
	}
	fee := new(big.Int).Mul(price, new(big.Int).SetUint64(uint64(feeBps)))
	return fee.Div(fee, big.NewInt(bpsDenominator))
}

func nonNil(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
