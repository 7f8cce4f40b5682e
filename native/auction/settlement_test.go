package auction

import (
	"errors"
	"math/big"
	"testing"
)

func TestSingleLotBondThenHardBid(t *testing.T) {
	f := newFixture(t)
	lot := f.openLot(t)
	start := f.now

	f.now = start + 500
	price, err := f.engine.CurrentPrice(lot.ID)
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if price.Cmp(eth(55, 100)) != 0 {
		t.Fatalf("expected 0.55 ETH at t=500, got %s", price)
	}
	bond := eth(275, 100_000)
	entry, err := f.engine.DepositBond(lot.ID, f.buyer1, bond)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if entry.Amount.Cmp(bond) != 0 {
		t.Fatalf("unexpected bond amount %s", entry.Amount)
	}
	if stored := f.state.lots[lot.ID]; stored.Status != LotSoftBidsOpen {
		t.Fatalf("expected soft bids open, got %s", stored.Status)
	}

	f.now = start + 600
	settlement, err := f.engine.PlaceHardBid(lot.ID, f.buyer1, eth(46, 100))
	if err != nil {
		t.Fatalf("hard bid: %v", err)
	}
	if settlement.Price.Cmp(eth(46, 100)) != 0 {
		t.Fatalf("expected clearing price 0.46 ETH, got %s", settlement.Price)
	}
	if settlement.Residual.Cmp(bond) != 0 {
		t.Fatalf("expected bond returned as residual, got %s", settlement.Residual)
	}
	owner, _ := f.registry.OwnerOf(lot.Assets[0])
	if owner != f.buyer1 {
		t.Fatalf("asset not delivered to winner")
	}
	if got := f.state.balance(f.seller); got.Cmp(eth(46, 100)) != 0 {
		t.Fatalf("seller proceeds mismatch: %s", got)
	}
	if got := f.state.balance(f.buyer1); got.Cmp(eth(954, 100)) != 0 {
		t.Fatalf("winner balance mismatch: %s", got)
	}
	if got := f.state.balance(ModuleAddress); got.Sign() != 0 {
		t.Fatalf("module vault should be empty, got %s", got)
	}
	balance, _ := f.engine.BondBalance(f.buyer1)
	if balance.Sign() != 0 {
		t.Fatalf("bond balance should be zero after settlement, got %s", balance)
	}
	stored := f.state.lots[lot.ID]
	if stored.Status != LotSettled || stored.Winner != f.buyer1 {
		t.Fatalf("lot not settled for winner: %+v", stored)
	}
	if len(f.rewarder.minted) != 1 || f.rewarder.minted[0] != f.buyer1 {
		t.Fatalf("winner should receive one loyalty NFT, got %v", f.rewarder.minted)
	}
	if !f.sawEvent(EventTypeLotSettled) || !f.sawEvent(EventTypeBondApplied) {
		t.Fatalf("missing settlement events: %v", f.events)
	}
	f.assertConserved(t, lot.ID)
}

func TestFirstClearingBidWins(t *testing.T) {
	f := newFixture(t)
	lot := f.openLot(t)
	start := f.now

	f.now = start + 100
	if _, err := f.engine.DepositBond(lot.ID, f.buyer1, eth(1, 100)); err != nil {
		t.Fatalf("deposit A: %v", err)
	}
	f.now = start + 300
	if _, err := f.engine.DepositBond(lot.ID, f.buyer2, eth(1, 100)); err != nil {
		t.Fatalf("deposit B: %v", err)
	}

	f.now = start + 700
	if _, err := f.engine.PlaceHardBid(lot.ID, f.buyer1, eth(37, 100)); err != nil {
		t.Fatalf("hard bid A: %v", err)
	}
	if _, err := f.engine.PlaceHardBid(lot.ID, f.buyer2, eth(1, 1)); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}
	f.now = start + 800
	if _, err := f.engine.PlaceHardBid(lot.ID, f.buyer2, eth(1, 1)); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled after end, got %v", err)
	}

	before := f.state.balance(f.buyer2)
	refund, err := f.engine.RefundBond(lot.ID, f.buyer2)
	if err != nil {
		t.Fatalf("refund B: %v", err)
	}
	if refund.Cmp(eth(1, 100)) != 0 {
		t.Fatalf("expected full refund, got %s", refund)
	}
	after := f.state.balance(f.buyer2)
	if new(big.Int).Sub(after, before).Cmp(eth(1, 100)) != 0 {
		t.Fatalf("refund not credited")
	}
	if after.Cmp(eth(10, 1)) != 0 {
		t.Fatalf("loser should be made whole, got %s", after)
	}
	if _, err := f.engine.RefundBond(lot.ID, f.buyer2); !errors.Is(err, ErrNothingToRefund) {
		t.Fatalf("expected ErrNothingToRefund, got %v", err)
	}
	if _, err := f.engine.RefundBond(lot.ID, f.buyer1); !errors.Is(err, ErrNothingToRefund) {
		t.Fatalf("winner bond was applied, expected ErrNothingToRefund, got %v", err)
	}
	f.assertConserved(t, lot.ID)
}

func TestHardBidBelowClearingPrice(t *testing.T) {
	f := newFixture(t)
	lot := f.openLot(t)
	f.now += 500
	if _, err := f.engine.DepositBond(lot.ID, f.buyer1, eth(1, 100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	_, err := f.engine.PlaceHardBid(lot.ID, f.buyer1, eth(50, 100))
	if !errors.Is(err, ErrBidBelowClearingPrice) {
		t.Fatalf("expected ErrBidBelowClearingPrice, got %v", err)
	}
	if f.state.lots[lot.ID].Status != LotSoftBidsOpen {
		t.Fatalf("failed bid must not change lot status")
	}
	if got := f.state.balance(f.buyer1); got.Cmp(eth(999, 100)) != 0 {
		t.Fatalf("failed bid must not move funds, got %s", got)
	}
	if _, err := f.engine.PlaceHardBid(lot.ID, f.seller, eth(1, 1)); !errors.Is(err, ErrSellerCannotBid) {
		t.Fatalf("expected ErrSellerCannotBid, got %v", err)
	}
}

func TestHardBidWithoutBond(t *testing.T) {
	f := newFixture(t)
	lot := f.openLot(t)
	settlement, err := f.engine.PlaceHardBid(lot.ID, f.buyer2, eth(1, 1))
	if err != nil {
		t.Fatalf("hard bid: %v", err)
	}
	if settlement.Bond.Sign() != 0 || settlement.Residual.Sign() != 0 {
		t.Fatalf("unexpected settlement %+v", settlement)
	}
	if _, err := f.engine.PlaceHardBid(lot.ID, f.buyer1, big.NewInt(1)); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}
}

func TestHardBidInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	lot := f.openLot(t)
	poor := newTestAddress(0x55)
	f.state.fund(poor, eth(1, 10))
	if _, err := f.engine.PlaceHardBid(lot.ID, poor, eth(1, 1)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestRefundBlockedWhileRunning(t *testing.T) {
	f := newFixture(t)
	lot := f.openLot(t)
	f.now += 10
	if _, err := f.engine.DepositBond(lot.ID, f.buyer1, eth(1, 100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	for _, caller := range [][20]byte{f.buyer1, f.seller, f.buyer2} {
		if _, err := f.engine.RefundBond(lot.ID, caller); !errors.Is(err, ErrLotStillActive) {
			t.Fatalf("expected ErrLotStillActive for %x, got %v", caller, err)
		}
	}
	f.now = lot.EndTime()
	refund, err := f.engine.RefundBond(lot.ID, f.buyer1)
	if err != nil {
		t.Fatalf("refund after expiry: %v", err)
	}
	if refund.Cmp(eth(1, 100)) != 0 {
		t.Fatalf("unexpected refund %s", refund)
	}
	if f.state.lots[lot.ID].Status != LotExpired {
		t.Fatalf("refund should persist expiry")
	}
	f.assertConserved(t, lot.ID)
}

func TestDepositBondRequirement(t *testing.T) {
	f := newFixture(t)
	lot := f.openLot(t)
	required := BondRequirement(eth(1, 1), DefaultBondBps)
	short := new(big.Int).Sub(required, big.NewInt(1))
	if _, err := f.engine.DepositBond(lot.ID, f.buyer1, short); !errors.Is(err, ErrInsufficientBond) {
		t.Fatalf("expected ErrInsufficientBond, got %v", err)
	}
	if _, err := f.engine.DepositBond(lot.ID, f.buyer1, big.NewInt(0)); !errors.Is(err, ErrInsufficientBond) {
		t.Fatalf("expected ErrInsufficientBond for zero, got %v", err)
	}
	if _, err := f.engine.DepositBond(lot.ID, f.seller, required); !errors.Is(err, ErrSellerCannotBid) {
		t.Fatalf("expected ErrSellerCannotBid, got %v", err)
	}
	if _, err := f.engine.DepositBond(lot.ID, f.buyer1, required); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	entry, err := f.engine.DepositBond(lot.ID, f.buyer1, required)
	if err != nil {
		t.Fatalf("top up: %v", err)
	}
	if entry.Amount.Cmp(new(big.Int).Mul(required, big.NewInt(2))) != 0 {
		t.Fatalf("top up not accumulated: %s", entry.Amount)
	}
	lotView, _ := f.engine.Lot(lot.ID)
	if len(lotView.Bidders) != 1 {
		t.Fatalf("bidder should be recorded once, got %d", len(lotView.Bidders))
	}
	total, _ := f.engine.TotalEscrowed(lot.ID)
	if total.Cmp(entry.Amount) != 0 {
		t.Fatalf("escrow total mismatch")
	}
	if _, err := f.engine.DepositBond(99, f.buyer1, required); !errors.Is(err, ErrLotNotFound) {
		t.Fatalf("expected ErrLotNotFound, got %v", err)
	}
}

func TestDepositBondRejectsCreatedLot(t *testing.T) {
	f := newFixture(t)
	asset := f.registry.mint(f.seller, 3)
	lot, err := f.engine.CreateLot(f.seller, []*big.Int{asset}, eth(1, 1), big.NewInt(0), 0, 1000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.engine.DepositBond(lot.ID, f.buyer1, eth(1, 10)); !errors.Is(err, ErrLotNotAcceptingBonds) {
		t.Fatalf("expected ErrLotNotAcceptingBonds, got %v", err)
	}
}

func TestCommitmentCompletesAtLockedPrice(t *testing.T) {
	f := newFixture(t)
	lot := f.openLot(t)
	start := f.now
	f.now = start + 200
	if _, err := f.engine.DepositBond(lot.ID, f.buyer1, eth(1, 100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	commitment, err := f.engine.CommitHardBid(lot.ID, f.buyer1)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if commitment.Price.Cmp(eth(82, 100)) != 0 {
		t.Fatalf("expected locked price 0.82 ETH, got %s", commitment.Price)
	}
	if _, err := f.engine.PlaceHardBid(lot.ID, f.buyer2, eth(1, 1)); !errors.Is(err, ErrHardBidPending) {
		t.Fatalf("expected ErrHardBidPending, got %v", err)
	}
	if err := f.engine.CancelLot(lot.ID, f.seller); !errors.Is(err, ErrHardBidPending) {
		t.Fatalf("expected cancel to be blocked, got %v", err)
	}
	if _, err := f.engine.CompleteHardBid(lot.ID, f.buyer2, eth(1, 1)); !errors.Is(err, ErrNoCommitment) {
		t.Fatalf("expected ErrNoCommitment, got %v", err)
	}

	f.now = start + 500
	settlement, err := f.engine.CompleteHardBid(lot.ID, f.buyer1, eth(81, 100))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if settlement.Price.Cmp(eth(82, 100)) != 0 {
		t.Fatalf("settlement should use the locked price, got %s", settlement.Price)
	}
	if f.state.lots[lot.ID].Commitment != nil {
		t.Fatalf("commitment should be cleared")
	}
	f.assertConserved(t, lot.ID)
}

func TestCommitmentRequiresBond(t *testing.T) {
	f := newFixture(t)
	lot := f.openLot(t)
	if _, err := f.engine.CommitHardBid(lot.ID, f.buyer1); !errors.Is(err, ErrInsufficientBond) {
		t.Fatalf("expected ErrInsufficientBond, got %v", err)
	}
	params := f.engine.Params()
	params.GraceWindow = 0
	if err := f.engine.SetParams(params); err != nil {
		t.Fatalf("set params: %v", err)
	}
	if _, err := f.engine.CommitHardBid(lot.ID, f.buyer1); !errors.Is(err, ErrCommitmentsDisabled) {
		t.Fatalf("expected ErrCommitmentsDisabled, got %v", err)
	}
}

func TestLapsedCommitmentForfeitsBond(t *testing.T) {
	f := newFixture(t)
	lot := f.openLot(t)
	start := f.now
	f.now = start + 100
	if _, err := f.engine.DepositBond(lot.ID, f.buyer1, eth(2, 100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := f.engine.CommitHardBid(lot.ID, f.buyer1); err != nil {
		t.Fatalf("commit: %v", err)
	}

	f.now = start + 100 + DefaultGraceWindow + 1
	changed, err := f.engine.Sweep(lot.ID)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !changed {
		t.Fatalf("sweep should report the forfeiture")
	}
	entry, _ := f.engine.Bond(lot.ID, f.buyer1)
	if !entry.Barred || entry.Forfeited.Cmp(eth(2, 100)) != 0 || entry.Amount.Sign() != 0 {
		t.Fatalf("bond not forfeited: %+v", entry)
	}
	if got := f.state.balance(f.seller); got.Cmp(eth(2, 100)) != 0 {
		t.Fatalf("seller should receive forfeited bond, got %s", got)
	}
	if !f.sawEvent(EventTypeBondForfeited) {
		t.Fatalf("missing forfeiture event")
	}
	if _, err := f.engine.DepositBond(lot.ID, f.buyer1, eth(1, 10)); !errors.Is(err, ErrBidderBarred) {
		t.Fatalf("expected ErrBidderBarred, got %v", err)
	}
	if _, err := f.engine.PlaceHardBid(lot.ID, f.buyer1, eth(1, 1)); !errors.Is(err, ErrBidderBarred) {
		t.Fatalf("expected ErrBidderBarred, got %v", err)
	}
	if _, err := f.engine.PlaceHardBid(lot.ID, f.buyer2, eth(1, 1)); err != nil {
		t.Fatalf("other bidders may still buy: %v", err)
	}
	f.assertConserved(t, lot.ID)
}

func TestCommitmentDelaysExpiry(t *testing.T) {
	f := newFixture(t)
	lot := f.openLot(t)
	start := f.now
	f.now = start + 900
	if _, err := f.engine.DepositBond(lot.ID, f.buyer1, eth(1, 100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := f.engine.CommitHardBid(lot.ID, f.buyer1); err != nil {
		t.Fatalf("commit: %v", err)
	}
	f.now = start + 1200
	view, _ := f.engine.Lot(lot.ID)
	if view.Status != LotSoftBidsOpen {
		t.Fatalf("pending commitment should keep lot open, got %s", view.Status)
	}
	if _, err := f.engine.DepositBond(lot.ID, f.buyer2, eth(1, 10)); !errors.Is(err, ErrLotNotAcceptingBonds) {
		t.Fatalf("expected ErrLotNotAcceptingBonds past end, got %v", err)
	}
	if _, err := f.engine.CompleteHardBid(lot.ID, f.buyer1, eth(1, 1)); err != nil {
		t.Fatalf("complete within grace: %v", err)
	}
}

func TestLapsedCommitmentPastEndExpires(t *testing.T) {
	f := newFixture(t)
	lot := f.openLot(t)
	start := f.now
	f.now = start + 900
	if _, err := f.engine.DepositBond(lot.ID, f.buyer1, eth(1, 100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := f.engine.CommitHardBid(lot.ID, f.buyer1); err != nil {
		t.Fatalf("commit: %v", err)
	}
	f.now = start + 900 + DefaultGraceWindow + 1
	if err := f.engine.ExpireLot(lot.ID); err != nil {
		t.Fatalf("expire: %v", err)
	}
	stored := f.state.lots[lot.ID]
	if stored.Status != LotExpired || stored.Forfeited.Cmp(eth(1, 100)) != 0 {
		t.Fatalf("expected expiry with forfeiture, got %s forfeited %s", stored.Status, stored.Forfeited)
	}
	owner, _ := f.registry.OwnerOf(lot.Assets[0])
	if owner != f.seller {
		t.Fatalf("asset should return to seller")
	}
	f.assertConserved(t, lot.ID)
}

func TestBatchLotRewardsParticipants(t *testing.T) {
	f := newFixture(t)
	lot := f.openLot(t, 10, 11, 12)
	third := newTestAddress(0x66)
	f.state.fund(third, eth(1, 1))
	f.rewarder.fail[third] = true

	f.now += 50
	for _, bidder := range [][20]byte{f.buyer1, f.buyer2, third} {
		if _, err := f.engine.DepositBond(lot.ID, bidder, eth(1, 100)); err != nil {
			t.Fatalf("deposit %x: %v", bidder, err)
		}
	}
	settlement, err := f.engine.PlaceHardBid(lot.ID, f.buyer2, eth(1, 1))
	if err != nil {
		t.Fatalf("hard bid: %v", err)
	}
	for _, asset := range lot.Assets {
		owner, _ := f.registry.OwnerOf(asset)
		if owner != f.buyer2 {
			t.Fatalf("asset %s not delivered to winner", asset)
		}
	}
	if len(settlement.Rewarded) != 2 {
		t.Fatalf("expected two rewarded participants, got %d", len(settlement.Rewarded))
	}
	if settlement.Rewarded[0] != f.buyer2 {
		t.Fatalf("winner should be rewarded first")
	}
	if !f.sawEvent(EventTypeLoyaltySkipped) {
		t.Fatalf("failed mint should emit a skipped event")
	}
	if f.state.lots[lot.ID].Status != LotSettled {
		t.Fatalf("mint failure must not revert settlement")
	}
}

func TestAutoRefundOnSettleAndProtocolFee(t *testing.T) {
	f := newFixture(t)
	treasury := newTestAddress(0x77)
	params := f.engine.Params()
	params.AutoRefundOnSettle = true
	params.ProtocolFeeBps = 250
	params.FeeTreasury = treasury
	if err := f.engine.SetParams(params); err != nil {
		t.Fatalf("set params: %v", err)
	}
	lot := f.openLot(t)
	if _, err := f.engine.DepositBond(lot.ID, f.buyer1, eth(1, 100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	settlement, err := f.engine.PlaceHardBid(lot.ID, f.buyer2, eth(1, 1))
	if err != nil {
		t.Fatalf("hard bid: %v", err)
	}
	if settlement.Fee.Cmp(eth(25, 1000)) != 0 {
		t.Fatalf("expected 2.5%% fee, got %s", settlement.Fee)
	}
	if got := f.state.balance(treasury); got.Cmp(eth(25, 1000)) != 0 {
		t.Fatalf("treasury not paid: %s", got)
	}
	if got := f.state.balance(f.seller); got.Cmp(eth(975, 1000)) != 0 {
		t.Fatalf("seller proceeds net of fee mismatch: %s", got)
	}
	if got := f.state.balance(f.buyer1); got.Cmp(eth(10, 1)) != 0 {
		t.Fatalf("loser should be auto refunded, got %s", got)
	}
	f.assertConserved(t, lot.ID)
}

func TestParamsValidate(t *testing.T) {
	params := DefaultParams()
	if err := params.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	params.ProtocolFeeBps = 10
	if err := params.Validate(); err == nil {
		t.Fatalf("fee without treasury should be rejected")
	}
	params = DefaultParams()
	params.BondBps = 10_001
	if err := params.Validate(); err == nil {
		t.Fatalf("bond bps above denominator should be rejected")
	}
}

func TestOperationsReadTheClockOnce(t *testing.T) {
	f := newFixture(t)
	lot := f.openLot(t)
	end := lot.EndTime()
	f.now += 100
	if _, err := f.engine.DepositBond(lot.ID, f.buyer1, eth(1, 100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	// The clock ticks onto the end boundary right after the first read.
	stepping := func() func() int64 {
		calls := 0
		return func() int64 {
			calls++
			if calls == 1 {
				return end - 1
			}
			return end
		}
	}
	f.engine.SetNowFunc(stepping())
	if _, err := f.engine.DepositBond(lot.ID, f.buyer2, eth(1, 100)); err != nil {
		t.Fatalf("deposit one second before end: %v", err)
	}

	f.engine.SetNowFunc(stepping())
	settlement, err := f.engine.PlaceHardBid(lot.ID, f.buyer1, eth(1, 1))
	if err != nil {
		t.Fatalf("hard bid one second before end: %v", err)
	}
	want := lot.Curve().At(end - 1)
	if settlement.Price.Cmp(want) != 0 {
		t.Fatalf("price should be taken at the same instant as the status check: got %s want %s", settlement.Price, want)
	}
	if settlement.Lot.SettledAt != end-1 {
		t.Fatalf("settled at %d, want %d", settlement.Lot.SettledAt, end-1)
	}
	f.assertConserved(t, lot.ID)
}

func TestHardBidAtEndSeesExpiredLot(t *testing.T) {
	f := newFixture(t)
	lot := f.openLot(t)
	f.now = lot.EndTime()
	if _, err := f.engine.PlaceHardBid(lot.ID, f.buyer1, eth(1, 1)); !errors.Is(err, ErrLotExpired) {
		t.Fatalf("expected ErrLotExpired at end, got %v", err)
	}
}

func TestBondedLoserRefundsAfterExpiry(t *testing.T) {
	f := newFixture(t)
	lot := f.openLot(t)
	f.now += 100
	if _, err := f.engine.DepositBond(lot.ID, f.buyer1, eth(1, 100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if got := f.state.balance(f.buyer1); got.Cmp(eth(999, 100)) != 0 {
		t.Fatalf("deposit should debit the bidder, got %s", got)
	}

	f.now = lot.EndTime() + 1
	refund, err := f.engine.RefundBond(lot.ID, f.buyer1)
	if err != nil {
		t.Fatalf("refund after expiry: %v", err)
	}
	if refund.Cmp(eth(1, 100)) != 0 {
		t.Fatalf("expected full refund, got %s", refund)
	}
	if f.state.lots[lot.ID].Status != LotExpired {
		t.Fatalf("refund should observe expiry, got %s", f.state.lots[lot.ID].Status)
	}
	if got := f.state.balance(f.buyer1); got.Cmp(eth(10, 1)) != 0 {
		t.Fatalf("balance not restored: %s", got)
	}
	if balance, _ := f.engine.BondBalance(f.buyer1); balance.Sign() != 0 {
		t.Fatalf("bond balance should be zero, got %s", balance)
	}
	if _, err := f.engine.RefundBond(lot.ID, f.buyer1); !errors.Is(err, ErrNothingToRefund) {
		t.Fatalf("expected ErrNothingToRefund, got %v", err)
	}
	f.assertConserved(t, lot.ID)
}

func TestBatchLotSkipsBarredParticipants(t *testing.T) {
	f := newFixture(t)
	lot := f.openLot(t, 20, 21)
	start := f.now
	f.now = start + 50
	if _, err := f.engine.DepositBond(lot.ID, f.buyer1, eth(2, 100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := f.engine.CommitHardBid(lot.ID, f.buyer1); err != nil {
		t.Fatalf("commit: %v", err)
	}

	f.now = start + 50 + DefaultGraceWindow + 1
	if _, err := f.engine.DepositBond(lot.ID, f.buyer2, eth(1, 100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	entry, _ := f.engine.Bond(lot.ID, f.buyer1)
	if !entry.Barred {
		t.Fatalf("lapsed committer should be barred")
	}
	settlement, err := f.engine.PlaceHardBid(lot.ID, f.buyer2, eth(1, 1))
	if err != nil {
		t.Fatalf("hard bid: %v", err)
	}
	if len(settlement.Rewarded) != 1 || settlement.Rewarded[0] != f.buyer2 {
		t.Fatalf("only the winner should be rewarded, got %x", settlement.Rewarded)
	}
	for _, minted := range f.rewarder.minted {
		if minted == f.buyer1 {
			t.Fatalf("barred bidder received a loyalty token")
		}
	}
}
