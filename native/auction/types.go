package auction

import (
	"fmt"
	"math/big"
)

// LotStatus represents the lifecycle states of an auction lot.
type LotStatus uint8

const (
	LotCreated LotStatus = iota + 1
	LotActive
	LotSoftBidsOpen
	LotSettled
	LotExpired
	LotCancelled
)

// Valid reports whether the status value is within the supported range.
func (s LotStatus) Valid() bool {
	switch s {
	case LotCreated, LotActive, LotSoftBidsOpen, LotSettled, LotExpired, LotCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition can leave the status.
func (s LotStatus) Terminal() bool {
	return s == LotSettled || s == LotExpired || s == LotCancelled
}

// Open reports whether the lot is running and may accept bonds and bids.
func (s LotStatus) Open() bool {
	return s == LotActive || s == LotSoftBidsOpen
}

func (s LotStatus) String() string {
	switch s {
	case LotCreated:
		return "created"
	case LotActive:
		return "active"
	case LotSoftBidsOpen:
		return "soft_bids_open"
	case LotSettled:
		return "settled"
	case LotExpired:
		return "expired"
	case LotCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Commitment is a pending hard bid that locked the clearing price for the
// grace window. Completing it settles the lot at Price; letting Deadline pass
// forfeits the committer's bond.
type Commitment struct {
	Bidder   [20]byte
	Price    *big.Int
	Deadline int64
}

// Clone returns a deep copy of the commitment.
func (c *Commitment) Clone() *Commitment {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Price = cloneBigInt(c.Price)
	return &clone
}

// Lot is one sellable unit: a single domain or a portfolio sold as a bundle.
type Lot struct {
	ID            uint64
	Seller        [20]byte
	Assets        []*big.Int
	StartPrice    *big.Int
	FloorPrice    *big.Int
	StartTime     int64
	Duration      int64
	Status        LotStatus
	CreatedAt     int64
	ActivatedAt   int64
	Winner        [20]byte
	ClearingPrice *big.Int
	SettledAt     int64
	ClosedAt      int64
	TotalEscrowed *big.Int
	Forfeited     *big.Int
	Bidders       [][20]byte
	Commitment    *Commitment
}

// Clone returns a deep copy of the lot so callers can safely mutate the copy
// without affecting the stored instance.
func (l *Lot) Clone() *Lot {
	if l == nil {
		return nil
	}
	clone := *l
	clone.Assets = make([]*big.Int, len(l.Assets))
	for i, asset := range l.Assets {
		clone.Assets[i] = cloneBigInt(asset)
	}
	clone.StartPrice = cloneBigInt(l.StartPrice)
	clone.FloorPrice = cloneBigInt(l.FloorPrice)
	clone.ClearingPrice = cloneBigInt(l.ClearingPrice)
	clone.TotalEscrowed = cloneBigInt(l.TotalEscrowed)
	clone.Forfeited = cloneBigInt(l.Forfeited)
	clone.Bidders = append([][20]byte(nil), l.Bidders...)
	clone.Commitment = l.Commitment.Clone()
	return &clone
}

// EndTime returns the first instant at which the lot is no longer running.
func (l *Lot) EndTime() int64 { return l.StartTime + l.Duration }

// Batch reports whether the lot bundles more than one asset.
func (l *Lot) Batch() bool { return len(l.Assets) > 1 }

// Curve returns the price curve of the lot.
func (l *Lot) Curve() PriceCurve {
	return PriceCurve{
		StartPrice: l.StartPrice,
		FloorPrice: l.FloorPrice,
		StartTime:  l.StartTime,
		Duration:   l.Duration,
	}
}

func (l *Lot) hasBidder(bidder [20]byte) bool {
	for _, existing := range l.Bidders {
		if existing == bidder {
			return true
		}
	}
	return false
}

// BondEntry is the escrow record of one bidder on one lot. Every wei that was
// deposited is tracked in exactly one bucket:
//
//	Deposited == Amount + Refunded + Forfeited + Applied
type BondEntry struct {
	LotID            uint64
	Bidder           [20]byte
	Amount           *big.Int
	DepositedAtPrice *big.Int
	Deposited        *big.Int
	Refunded         *big.Int
	Forfeited        *big.Int
	Applied          *big.Int
	Barred           bool
}

// NewBondEntry returns an empty entry with every bucket initialised to zero.
func NewBondEntry(lotID uint64, bidder [20]byte) *BondEntry {
	return &BondEntry{
		LotID:            lotID,
		Bidder:           bidder,
		Amount:           big.NewInt(0),
		DepositedAtPrice: big.NewInt(0),
		Deposited:        big.NewInt(0),
		Refunded:         big.NewInt(0),
		Forfeited:        big.NewInt(0),
		Applied:          big.NewInt(0),
	}
}

// Clone returns a deep copy of the bond entry.
func (b *BondEntry) Clone() *BondEntry {
	if b == nil {
		return nil
	}
	clone := *b
	clone.Amount = cloneBigInt(b.Amount)
	clone.DepositedAtPrice = cloneBigInt(b.DepositedAtPrice)
	clone.Deposited = cloneBigInt(b.Deposited)
	clone.Refunded = cloneBigInt(b.Refunded)
	clone.Forfeited = cloneBigInt(b.Forfeited)
	clone.Applied = cloneBigInt(b.Applied)
	return &clone
}

// Balanced reports whether the entry satisfies its accounting identity.
func (b *BondEntry) Balanced() bool {
	if b == nil {
		return true
	}
	sum := new(big.Int).Add(cloneBigInt(b.Amount), cloneBigInt(b.Refunded))
	sum.Add(sum, cloneBigInt(b.Forfeited))
	sum.Add(sum, cloneBigInt(b.Applied))
	return sum.Cmp(cloneBigInt(b.Deposited)) == 0
}

// SanitizeLot validates the stored shape of a lot and returns a normalised
// clone with non-nil amount fields. The supplied value is not mutated.
func SanitizeLot(l *Lot) (*Lot, error) {
	if l == nil {
		return nil, fmt.Errorf("nil lot")
	}
	clone := l.Clone()
	if clone.ID == 0 {
		return nil, fmt.Errorf("lot id must be set")
	}
	if !clone.Status.Valid() {
		return nil, fmt.Errorf("invalid lot status: %d", clone.Status)
	}
	if len(clone.Assets) == 0 {
		return nil, fmt.Errorf("lot %d has no assets", clone.ID)
	}
	for _, field := range []*big.Int{clone.StartPrice, clone.FloorPrice, clone.ClearingPrice, clone.TotalEscrowed, clone.Forfeited} {
		if field.Sign() < 0 {
			return nil, fmt.Errorf("lot %d has negative amount", clone.ID)
		}
	}
	if clone.Commitment != nil && clone.Commitment.Price.Sign() < 0 {
		return nil, fmt.Errorf("lot %d has negative commitment price", clone.ID)
	}
	return clone, nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
