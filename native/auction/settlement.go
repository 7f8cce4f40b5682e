package auction

import (
	"fmt"
	"math/big"
)

// Settlement summarises the value movements of a successful hard bid.
type Settlement struct {
	Lot      *Lot
	Price    *big.Int
	Bond     *big.Int
	Payment  *big.Int
	Fee      *big.Int
	Proceeds *big.Int
	Residual *big.Int
	Rewarded [][20]byte
}

// checkBiddable applies the running-lot preconditions shared by hard bid
// entry points.
func (e *Engine) checkBiddable(lot *Lot, bidder [20]byte, now int64) error {
	switch lot.Status {
	case LotSettled:
		return ErrAlreadySettled
	case LotExpired:
		return ErrLotExpired
	case LotCreated, LotCancelled:
		return fmt.Errorf("%w: lot %d is %s", ErrLotNotActive, lot.ID, lot.Status)
	}
	if now < lot.StartTime {
		return fmt.Errorf("%w: lot %d starts at %d", ErrLotNotActive, lot.ID, lot.StartTime)
	}
	if bidder == lot.Seller {
		return ErrSellerCannotBid
	}
	return nil
}

// PlaceHardBid settles the lot immediately if payment plus the bidder's
// existing bond covers the current clearing price. The first bid to clear
// wins; later bids fail with ErrAlreadySettled.
func (e *Engine) PlaceHardBid(lotID uint64, bidder [20]byte, payment *big.Int) (*Settlement, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	lot, err := e.loadLot(lotID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if err := e.refresh(lot, now); err != nil {
		return nil, err
	}
	if err := e.checkBiddable(lot, bidder, now); err != nil {
		return nil, err
	}
	if lot.Commitment != nil {
		return nil, ErrHardBidPending
	}
	entry, err := e.loadBond(lotID, bidder)
	if err != nil {
		return nil, err
	}
	if entry.Barred {
		return nil, ErrBidderBarred
	}
	pay := cloneBigInt(payment)
	if pay.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	price := lot.Curve().At(now)
	if new(big.Int).Add(pay, entry.Amount).Cmp(price) < 0 {
		return nil, fmt.Errorf("%w: offered %s with bond %s, price %s", ErrBidBelowClearingPrice, pay, entry.Amount, price)
	}
	return e.settle(lot, entry, price, pay, now)
}

// CommitHardBid locks the current clearing price for the bidder for the grace
// window. The bidder must already hold a bond on the lot, which is forfeited
// to the seller if the commitment is not completed in time.
func (e *Engine) CommitHardBid(lotID uint64, bidder [20]byte) (*Commitment, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if e.params.GraceWindow <= 0 {
		return nil, ErrCommitmentsDisabled
	}
	lot, err := e.loadLot(lotID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if err := e.refresh(lot, now); err != nil {
		return nil, err
	}
	if err := e.checkBiddable(lot, bidder, now); err != nil {
		return nil, err
	}
	if lot.Commitment != nil {
		return nil, ErrHardBidPending
	}
	entry, err := e.loadBond(lotID, bidder)
	if err != nil {
		return nil, err
	}
	if entry.Barred {
		return nil, ErrBidderBarred
	}
	if entry.Amount.Sign() == 0 {
		return nil, fmt.Errorf("%w: commitment requires a bond", ErrInsufficientBond)
	}
	lot.Commitment = &Commitment{
		Bidder:   bidder,
		Price:    lot.Curve().At(now),
		Deadline: now + e.params.GraceWindow,
	}
	if err := e.storeLot(lot); err != nil {
		return nil, err
	}
	e.emit(NewHardBidCommittedEvent(lot))
	return lot.Commitment.Clone(), nil
}

// CompleteHardBid settles a committed hard bid at its locked price. It must be
// called by the committer before the grace window lapses.
func (e *Engine) CompleteHardBid(lotID uint64, bidder [20]byte, payment *big.Int) (*Settlement, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	lot, err := e.loadLot(lotID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if err := e.refresh(lot, now); err != nil {
		return nil, err
	}
	if lot.Status == LotSettled {
		return nil, ErrAlreadySettled
	}
	if lot.Commitment == nil || lot.Commitment.Bidder != bidder {
		return nil, ErrNoCommitment
	}
	entry, err := e.loadBond(lotID, bidder)
	if err != nil {
		return nil, err
	}
	pay := cloneBigInt(payment)
	if pay.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	price := cloneBigInt(lot.Commitment.Price)
	if new(big.Int).Add(pay, entry.Amount).Cmp(price) < 0 {
		return nil, fmt.Errorf("%w: offered %s with bond %s, locked price %s", ErrBidBelowClearingPrice, pay, entry.Amount, price)
	}
	lot.Commitment = nil
	return e.settle(lot, entry, price, pay, now)
}

// settle transfers the bundle to the winner and distributes value. Every step
// runs inside the host's state transaction so a failure leaves no trace.
func (e *Engine) settle(lot *Lot, entry *BondEntry, price, payment *big.Int, now int64) (*Settlement, error) {
	winner := entry.Bidder
	if err := e.transfer(winner, e.module, payment); err != nil {
		return nil, err
	}
	bond := cloneBigInt(entry.Amount)
	if bond.Sign() > 0 {
		entry.Amount = big.NewInt(0)
		entry.Applied = new(big.Int).Add(entry.Applied, bond)
		if err := e.state.AuctionPutBond(entry); err != nil {
			return nil, err
		}
		if err := e.adjustBondBalance(winner, new(big.Int).Neg(bond)); err != nil {
			return nil, err
		}
		lot.TotalEscrowed = new(big.Int).Sub(lot.TotalEscrowed, bond)
		e.emit(NewBondAppliedEvent(entry, bond))
	}
	total := new(big.Int).Add(bond, payment)
	residual := new(big.Int).Sub(total, price)
	fee := ProtocolFee(price, e.params.ProtocolFeeBps)
	proceeds := new(big.Int).Sub(price, fee)
	if err := e.transfer(e.module, lot.Seller, proceeds); err != nil {
		return nil, err
	}
	if fee.Sign() > 0 {
		if err := e.transfer(e.module, e.params.FeeTreasury, fee); err != nil {
			return nil, err
		}
	}
	if err := e.transfer(e.module, winner, residual); err != nil {
		return nil, err
	}
	for _, asset := range lot.Assets {
		if err := e.registry.TransferFrom(e.module, e.module, winner, asset); err != nil {
			return nil, fmt.Errorf("auction: deliver asset %s: %w", asset, err)
		}
	}
	lot.Status = LotSettled
	lot.Winner = winner
	lot.ClearingPrice = cloneBigInt(price)
	lot.SettledAt = now
	lot.ClosedAt = now
	if e.params.AutoRefundOnSettle {
		for _, bidder := range lot.Bidders {
			if bidder == winner {
				continue
			}
			other, err := e.loadBond(lot.ID, bidder)
			if err != nil {
				return nil, err
			}
			if _, err := e.refundEntry(lot, other); err != nil {
				return nil, err
			}
		}
	}
	if err := e.storeLot(lot); err != nil {
		return nil, err
	}
	e.emit(NewLotSettledEvent(lot, payment, fee, residual))
	rewarded := e.rewardLoyalty(lot)
	return &Settlement{
		Lot:      lot.Clone(),
		Price:    cloneBigInt(price),
		Bond:     bond,
		Payment:  cloneBigInt(payment),
		Fee:      fee,
		Proceeds: proceeds,
		Residual: residual,
		Rewarded: rewarded,
	}, nil
}

// rewardLoyalty mints loyalty NFTs for the winner and, for batch lots, every
// other bonded participant that did not renege on a commitment. Mint failures
// never revert a settlement.
func (e *Engine) rewardLoyalty(lot *Lot) [][20]byte {
	if e.rewarder == nil {
		return nil
	}
	recipients := [][20]byte{lot.Winner}
	if lot.Batch() && e.params.RewardParticipants {
		for _, bidder := range lot.Bidders {
			if bidder == lot.Winner {
				continue
			}
			entry, err := e.loadBond(lot.ID, bidder)
			if err != nil || entry.Barred {
				continue
			}
			recipients = append(recipients, bidder)
		}
	}
	rewarded := make([][20]byte, 0, len(recipients))
	for _, recipient := range recipients {
		tokenID, err := e.rewarder.Mint(e.module, recipient)
		if err != nil {
			evt := newLoyaltyEvent(EventTypeLoyaltySkipped, lot.ID, recipient)
			evt.Attributes["reason"] = err.Error()
			e.emit(evt)
			continue
		}
		evt := newLoyaltyEvent(EventTypeLoyaltyRewarded, lot.ID, recipient)
		evt.Attributes["tokenId"] = cloneBigInt(tokenID).String()
		e.emit(evt)
		rewarded = append(rewarded, recipient)
	}
	return rewarded
}
