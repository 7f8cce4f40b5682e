package auction

import (
	"fmt"
)

const (
	DefaultBondBps      uint32 = 50
	DefaultGraceWindow  int64  = 600
	DefaultMaxBatchSize        = 50
	DefaultMinDuration  int64  = 60
	DefaultMaxDuration  int64  = 30 * 24 * 60 * 60
)

// Params captures the tunable economics of the auction engine.
type Params struct {
	// BondBps is the soft-bid bond expressed in basis points of the current
	// clearing price (BOND_FRACTION).
	BondBps uint32
	// GraceWindow is the number of seconds a committed hard bid has to
	// complete payment before its bond is forfeited. Zero disables
	// commitments.
	GraceWindow int64
	// ProtocolFeeBps is skimmed from the clearing price on settlement and
	// paid to FeeTreasury.
	ProtocolFeeBps uint32
	FeeTreasury    [20]byte
	// RewardParticipants mints loyalty NFTs for every bonded bidder of a
	// batch lot, not only the winner.
	RewardParticipants bool
	// AutoRefundOnSettle refunds losing bonds inside the settlement instead of
	// leaving them for RefundBond.
	AutoRefundOnSettle bool
	MaxBatchSize       int
	MinDuration        int64
	MaxDuration        int64
}

// DefaultParams returns the engine defaults: 0.5% bonds, a ten minute grace
// window and no protocol fee.
func DefaultParams() Params {
	return Params{
		BondBps:            DefaultBondBps,
		GraceWindow:        DefaultGraceWindow,
		RewardParticipants: true,
		MaxBatchSize:       DefaultMaxBatchSize,
		MinDuration:        DefaultMinDuration,
		MaxDuration:        DefaultMaxDuration,
	}
}

// Validate checks the parameter set for internal consistency.
func (p Params) Validate() error {
	if p.BondBps > bpsDenominator {
		return fmt.Errorf("auction: bond bps out of range: %d", p.BondBps)
	}
	if p.ProtocolFeeBps > bpsDenominator {
		return fmt.Errorf("auction: protocol fee bps out of range: %d", p.ProtocolFeeBps)
	}
	if p.ProtocolFeeBps > 0 && p.FeeTreasury == ([20]byte{}) {
		return fmt.Errorf("auction: protocol fee requires a fee treasury")
	}
	if p.GraceWindow < 0 {
		return fmt.Errorf("auction: grace window must be non-negative")
	}
	if p.MaxBatchSize <= 0 {
		return fmt.Errorf("auction: max batch size must be positive")
	}
	if p.MinDuration <= 0 || p.MaxDuration < p.MinDuration {
		return fmt.Errorf("auction: invalid duration bounds [%d, %d]", p.MinDuration, p.MaxDuration)
	}
	return nil
}
