package auction

import (
	"fmt"
	"math/big"
)

func (e *Engine) loadBond(lotID uint64, bidder [20]byte) (*BondEntry, error) {
	entry, ok, err := e.state.AuctionGetBond(lotID, bidder)
	if err != nil {
		return nil, err
	}
	if !ok {
		return NewBondEntry(lotID, bidder), nil
	}
	return entry, nil
}

func (e *Engine) adjustBondBalance(bidder [20]byte, delta *big.Int) error {
	current, err := e.state.AuctionBondBalance(bidder)
	if err != nil {
		return err
	}
	next := new(big.Int).Add(cloneBigInt(current), delta)
	if next.Sign() < 0 {
		return fmt.Errorf("auction: bond balance underflow for %x", bidder)
	}
	return e.state.AuctionSetBondBalance(bidder, next)
}

// DepositBond escrows value from the bidder as a soft bid on the lot. The
// deposit must cover the bond requirement at the current clearing price. The
// first accepted deposit moves the lot into SoftBidsOpen.
func (e *Engine) DepositBond(lotID uint64, bidder [20]byte, value *big.Int) (*BondEntry, error) {
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
	if !lot.Status.Open() {
		return nil, fmt.Errorf("%w: lot %d is %s", ErrLotNotAcceptingBonds, lotID, lot.Status)
	}
	if now < lot.StartTime {
		return nil, fmt.Errorf("%w: lot %d starts at %d", ErrLotNotActive, lotID, lot.StartTime)
	}
	if now >= lot.EndTime() {
		return nil, fmt.Errorf("%w: lot %d awaiting commitment completion", ErrLotNotAcceptingBonds, lotID)
	}
	if bidder == lot.Seller {
		return nil, ErrSellerCannotBid
	}
	entry, err := e.loadBond(lotID, bidder)
	if err != nil {
		return nil, err
	}
	if entry.Barred {
		return nil, ErrBidderBarred
	}
	amount := cloneBigInt(value)
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: bond must be positive", ErrInsufficientBond)
	}
	price := lot.Curve().At(now)
	required := BondRequirement(price, e.params.BondBps)
	if amount.Cmp(required) < 0 {
		return nil, fmt.Errorf("%w: got %s, need %s at price %s", ErrInsufficientBond, amount, required, price)
	}
	if err := e.transfer(bidder, e.module, amount); err != nil {
		return nil, err
	}
	entry.Amount = new(big.Int).Add(entry.Amount, amount)
	entry.Deposited = new(big.Int).Add(entry.Deposited, amount)
	entry.DepositedAtPrice = price
	if err := e.state.AuctionPutBond(entry); err != nil {
		return nil, err
	}
	if err := e.adjustBondBalance(bidder, amount); err != nil {
		return nil, err
	}
	lot.TotalEscrowed = new(big.Int).Add(lot.TotalEscrowed, amount)
	if !lot.hasBidder(bidder) {
		lot.Bidders = append(lot.Bidders, bidder)
	}
	if lot.Status == LotActive {
		lot.Status = LotSoftBidsOpen
	}
	if err := e.storeLot(lot); err != nil {
		return nil, err
	}
	e.emit(NewBondDepositedEvent(entry, amount))
	return entry.Clone(), nil
}

// RefundBond returns the bidder's outstanding bond once the lot is terminal.
// Bonds cannot be withdrawn while the lot is running, whoever asks.
func (e *Engine) RefundBond(lotID uint64, bidder [20]byte) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	lot, err := e.loadLot(lotID)
	if err != nil {
		return nil, err
	}
	if err := e.refresh(lot, e.now()); err != nil {
		return nil, err
	}
	if !lot.Status.Terminal() {
		return nil, ErrLotStillActive
	}
	entry, err := e.loadBond(lotID, bidder)
	if err != nil {
		return nil, err
	}
	if entry.Amount.Sign() == 0 {
		return nil, ErrNothingToRefund
	}
	amount, err := e.refundEntry(lot, entry)
	if err != nil {
		return nil, err
	}
	if err := e.storeLot(lot); err != nil {
		return nil, err
	}
	return amount, nil
}

func (e *Engine) refundEntry(lot *Lot, entry *BondEntry) (*big.Int, error) {
	amount := cloneBigInt(entry.Amount)
	if amount.Sign() == 0 {
		return amount, nil
	}
	if err := e.transfer(e.module, entry.Bidder, amount); err != nil {
		return nil, err
	}
	entry.Amount = big.NewInt(0)
	entry.Refunded = new(big.Int).Add(entry.Refunded, amount)
	if err := e.state.AuctionPutBond(entry); err != nil {
		return nil, err
	}
	if err := e.adjustBondBalance(entry.Bidder, new(big.Int).Neg(amount)); err != nil {
		return nil, err
	}
	lot.TotalEscrowed = new(big.Int).Sub(lot.TotalEscrowed, amount)
	e.emit(NewBondRefundedEvent(entry, amount))
	return amount, nil
}

// forfeitBond pays the bidder's outstanding bond to the seller as a penalty
// for reneging on a committed hard bid and bars the bidder from the lot. The
// caller persists the lot.
func (e *Engine) forfeitBond(lot *Lot, bidder [20]byte) error {
	entry, err := e.loadBond(lot.ID, bidder)
	if err != nil {
		return err
	}
	amount := cloneBigInt(entry.Amount)
	if amount.Sign() > 0 {
		if err := e.transfer(e.module, lot.Seller, amount); err != nil {
			return err
		}
		if err := e.adjustBondBalance(bidder, new(big.Int).Neg(amount)); err != nil {
			return err
		}
	}
	entry.Amount = big.NewInt(0)
	entry.Forfeited = new(big.Int).Add(entry.Forfeited, amount)
	entry.Barred = true
	if err := e.state.AuctionPutBond(entry); err != nil {
		return err
	}
	lot.TotalEscrowed = new(big.Int).Sub(lot.TotalEscrowed, amount)
	lot.Forfeited = new(big.Int).Add(lot.Forfeited, amount)
	e.emit(NewBondForfeitedEvent(entry, amount))
	return nil
}

// Bond returns the bond entry of the bidder on the lot. Missing entries are
// reported as zero-valued entries.
func (e *Engine) Bond(lotID uint64, bidder [20]byte) (*BondEntry, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, err := e.loadLot(lotID); err != nil {
		return nil, err
	}
	return e.loadBond(lotID, bidder)
}

// BondBalance returns the bidder's outstanding bonds summed across all lots.
func (e *Engine) BondBalance(bidder [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	balance, err := e.state.AuctionBondBalance(bidder)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(balance), nil
}

// TotalEscrowed returns the aggregate outstanding bond amount of the lot.
func (e *Engine) TotalEscrowed(lotID uint64) (*big.Int, error) {
	lot, err := e.loadLot(lotID)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(lot.TotalEscrowed), nil
}

// CheckConservation verifies that the lot's escrow total equals the sum of the
// outstanding bond entries and that every entry balances its buckets.
func (e *Engine) CheckConservation(lotID uint64) error {
	lot, err := e.loadLot(lotID)
	if err != nil {
		return err
	}
	sum := big.NewInt(0)
	for _, bidder := range lot.Bidders {
		entry, err := e.loadBond(lotID, bidder)
		if err != nil {
			return err
		}
		if !entry.Balanced() {
			return fmt.Errorf("auction: bond of %x on lot %d does not balance", bidder, lotID)
		}
		sum.Add(sum, entry.Amount)
	}
	if sum.Cmp(cloneBigInt(lot.TotalEscrowed)) != 0 {
		return fmt.Errorf("auction: lot %d escrow %s differs from bond sum %s", lotID, lot.TotalEscrowed, sum)
	}
	return nil
}
