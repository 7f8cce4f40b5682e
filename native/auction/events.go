package auction

import (
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"

	"domaauction/core/types"
)

const (
	EventTypeLotCreated       = "auction.lot.created"
	EventTypeLotActivated     = "auction.lot.activated"
	EventTypeLotCancelled     = "auction.lot.cancelled"
	EventTypeLotExpired       = "auction.lot.expired"
	EventTypeLotSettled       = "auction.lot.settled"
	EventTypeBondDeposited    = "auction.bond.deposited"
	EventTypeBondRefunded     = "auction.bond.refunded"
	EventTypeBondForfeited    = "auction.bond.forfeited"
	EventTypeBondApplied      = "auction.bond.applied"
	EventTypeHardBidCommitted = "auction.hardbid.committed"
	EventTypeLoyaltyRewarded  = "auction.loyalty.rewarded"
	EventTypeLoyaltySkipped   = "auction.loyalty.skipped"
)

// NewLotCreatedEvent returns the canonical payload for a newly created lot.
func NewLotCreatedEvent(l *Lot) *types.Event { return newLotEvent(EventTypeLotCreated, l) }

// NewLotActivatedEvent returns the payload emitted once the seller's assets
// are escrowed and the lot starts running.
func NewLotActivatedEvent(l *Lot) *types.Event { return newLotEvent(EventTypeLotActivated, l) }

// NewLotCancelledEvent returns the payload for a seller cancellation.
func NewLotCancelledEvent(l *Lot) *types.Event { return newLotEvent(EventTypeLotCancelled, l) }

// NewLotExpiredEvent returns the payload for a lot that ran out of time.
func NewLotExpiredEvent(l *Lot) *types.Event { return newLotEvent(EventTypeLotExpired, l) }

// NewLotSettledEvent returns the payload for a settled lot.
func NewLotSettledEvent(l *Lot, payment, fee, residual *big.Int) *types.Event {
	evt := newLotEvent(EventTypeLotSettled, l)
	evt.Attributes["payment"] = cloneBigInt(payment).String()
	evt.Attributes["fee"] = cloneBigInt(fee).String()
	evt.Attributes["residual"] = cloneBigInt(residual).String()
	return evt
}

// NewHardBidCommittedEvent returns the payload for a price-locking commitment.
func NewHardBidCommittedEvent(l *Lot) *types.Event {
	evt := newLotEvent(EventTypeHardBidCommitted, l)
	if l != nil && l.Commitment != nil {
		evt.Attributes["bidder"] = hex.EncodeToString(l.Commitment.Bidder[:])
		evt.Attributes["price"] = cloneBigInt(l.Commitment.Price).String()
		evt.Attributes["deadline"] = strconv.FormatInt(l.Commitment.Deadline, 10)
	}
	return evt
}

func newBondEvent(eventType string, b *BondEntry, amount *big.Int) *types.Event {
	attrs := make(map[string]string)
	if b == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["lotId"] = strconv.FormatUint(b.LotID, 10)
	attrs["bidder"] = hex.EncodeToString(b.Bidder[:])
	attrs["amount"] = cloneBigInt(amount).String()
	attrs["balance"] = cloneBigInt(b.Amount).String()
	return &types.Event{Type: eventType, Attributes: attrs}
}

// NewBondDepositedEvent returns the payload for a soft-bid deposit.
func NewBondDepositedEvent(b *BondEntry, amount *big.Int) *types.Event {
	evt := newBondEvent(EventTypeBondDeposited, b, amount)
	if b != nil {
		evt.Attributes["price"] = cloneBigInt(b.DepositedAtPrice).String()
	}
	return evt
}

// NewBondRefundedEvent returns the payload for a bond returned to its bidder.
func NewBondRefundedEvent(b *BondEntry, amount *big.Int) *types.Event {
	return newBondEvent(EventTypeBondRefunded, b, amount)
}

// NewBondForfeitedEvent returns the payload for a bond paid to the seller as a
// penalty.
func NewBondForfeitedEvent(b *BondEntry, amount *big.Int) *types.Event {
	return newBondEvent(EventTypeBondForfeited, b, amount)
}

// NewBondAppliedEvent returns the payload for a bond credited to the winning
// purchase.
func NewBondAppliedEvent(b *BondEntry, amount *big.Int) *types.Event {
	return newBondEvent(EventTypeBondApplied, b, amount)
}

func newLoyaltyEvent(eventType string, lotID uint64, recipient [20]byte) *types.Event {
	return &types.Event{Type: eventType, Attributes: map[string]string{
		"lotId":     strconv.FormatUint(lotID, 10),
		"recipient": hex.EncodeToString(recipient[:]),
	}}
}

func newLotEvent(eventType string, l *Lot) *types.Event {
	attrs := make(map[string]string)
	if l == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	sanitized, err := SanitizeLot(l)
	if err != nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	assets := make([]string, len(sanitized.Assets))
	for i, asset := range sanitized.Assets {
		assets[i] = asset.String()
	}
	attrs["lotId"] = strconv.FormatUint(sanitized.ID, 10)
	attrs["seller"] = hex.EncodeToString(sanitized.Seller[:])
	attrs["assets"] = strings.Join(assets, ",")
	attrs["status"] = sanitized.Status.String()
	attrs["startPrice"] = sanitized.StartPrice.String()
	attrs["floorPrice"] = sanitized.FloorPrice.String()
	attrs["startTime"] = strconv.FormatInt(sanitized.StartTime, 10)
	attrs["duration"] = strconv.FormatInt(sanitized.Duration, 10)
	attrs["totalEscrowed"] = sanitized.TotalEscrowed.String()
	if sanitized.Status == LotSettled {
		attrs["winner"] = hex.EncodeToString(sanitized.Winner[:])
		attrs["clearingPrice"] = sanitized.ClearingPrice.String()
	}
	if sanitized.Forfeited.Sign() > 0 {
		attrs["forfeited"] = sanitized.Forfeited.String()
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
