package auction

import (
	"fmt"
	"math/big"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"domaauction/core/events"
	"domaauction/core/types"
	nativecommon "domaauction/native/common"
)

const moduleName = "auction"

type engineState interface {
	AuctionNextLotID() (uint64, error)
	AuctionPutLot(*Lot) error
	AuctionGetLot(id uint64) (*Lot, bool, error)
	AuctionPutBond(*BondEntry) error
	AuctionGetBond(lotID uint64, bidder [20]byte) (*BondEntry, bool, error)
	AuctionBondBalance(bidder [20]byte) (*big.Int, error)
	AuctionSetBondBalance(bidder [20]byte, amount *big.Int) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// OwnershipRegistry is the domain NFT capability the engine escrows lot assets
// through. The operator argument is the address performing the transfer and
// must be the owner or an approved operator.
type OwnershipRegistry interface {
	OwnerOf(tokenID *big.Int) ([20]byte, error)
	TransferFrom(operator, from, to [20]byte, tokenID *big.Int) error
}

// LoyaltyRewarder mints gamification NFTs. The caller is checked against the
// minter's authority on every call.
type LoyaltyRewarder interface {
	Mint(caller, to [20]byte) (*big.Int, error)
}

type auctionEvent struct {
	evt *types.Event
}

func (e auctionEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e auctionEvent) Event() *types.Event { return e.evt }

// ModuleAddress is the account holding escrowed assets and bonded funds.
var ModuleAddress = moduleAddress("module/auction")

func moduleAddress(label string) [20]byte {
	var addr [20]byte
	copy(addr[:], ethcrypto.Keccak256([]byte(label))[12:])
	return addr
}

// Engine implements the hybrid Dutch auction: price decay, soft-bid bonding
// and first-to-clear settlement. Calls are expected to be serialised by the
// host; the engine itself holds no locks.
type Engine struct {
	state    engineState
	registry OwnershipRegistry
	rewarder LoyaltyRewarder
	emitter  events.Emitter
	pauses   nativecommon.PauseView
	params   Params
	module   [20]byte
	nowFn    func() int64
}

// NewEngine creates an auction engine with default parameters and a no-op
// emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		params:  DefaultParams(),
		module:  ModuleAddress,
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetRegistry configures the ownership registry holding lot assets.
func (e *Engine) SetRegistry(registry OwnershipRegistry) { e.registry = registry }

// SetRewarder configures the loyalty minter. A nil rewarder disables
// gamification.
func (e *Engine) SetRewarder(rewarder LoyaltyRewarder) { e.rewarder = rewarder }

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetParams replaces the engine parameters after validating them.
func (e *Engine) SetParams(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	e.params = params
	return nil
}

// Params returns the active parameter set.
func (e *Engine) Params() Params { return e.params }

// ModuleAddress returns the escrow address used by the engine.
func (e *Engine) ModuleAddress() [20]byte { return e.module }

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(auctionEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.registry == nil {
		return errNilRegistry
	}
	return nativecommon.Guard(e.pauses, moduleName)
}

func (e *Engine) loadLot(id uint64) (*Lot, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	lot, ok, err := e.state.AuctionGetLot(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrLotNotFound, id)
	}
	return lot, nil
}

func (e *Engine) storeLot(lot *Lot) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return e.state.AuctionPutLot(lot)
}

// CreateLot registers a new lot in the Created state. The seller must own
// every asset; escrow happens on activation.
func (e *Engine) CreateLot(seller [20]byte, assets []*big.Int, startPrice, floorPrice *big.Int, startTime, duration int64) (*Lot, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if seller == ([20]byte{}) {
		return nil, fmt.Errorf("%w: seller required", ErrInvalidLot)
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("%w: at least one asset required", ErrInvalidLot)
	}
	if len(assets) > e.params.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d assets exceeds batch limit %d", ErrInvalidLot, len(assets), e.params.MaxBatchSize)
	}
	seen := make(map[string]struct{}, len(assets))
	refs := make([]*big.Int, 0, len(assets))
	for _, asset := range assets {
		if asset == nil || !FitsUint256(asset) {
			return nil, fmt.Errorf("%w: invalid asset id", ErrInvalidLot)
		}
		key := asset.String()
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: duplicate asset %s", ErrInvalidLot, key)
		}
		seen[key] = struct{}{}
		owner, err := e.registry.OwnerOf(asset)
		if err != nil {
			return nil, err
		}
		if owner != seller {
			return nil, fmt.Errorf("%w: seller does not own asset %s", ErrInvalidLot, key)
		}
		refs = append(refs, new(big.Int).Set(asset))
	}
	start := cloneBigInt(startPrice)
	floor := cloneBigInt(floorPrice)
	if start.Sign() <= 0 || floor.Sign() < 0 || !FitsUint256(start) {
		return nil, fmt.Errorf("%w: prices must satisfy start > 0 and floor >= 0", ErrInvalidLot)
	}
	if start.Cmp(floor) < 0 {
		return nil, fmt.Errorf("%w: start price below floor price", ErrInvalidLot)
	}
	if duration < e.params.MinDuration || duration > e.params.MaxDuration {
		return nil, fmt.Errorf("%w: duration %d outside [%d, %d]", ErrInvalidLot, duration, e.params.MinDuration, e.params.MaxDuration)
	}
	now := e.now()
	if startTime != 0 && startTime < now {
		return nil, fmt.Errorf("%w: start time in the past", ErrInvalidLot)
	}
	id, err := e.state.AuctionNextLotID()
	if err != nil {
		return nil, err
	}
	lot := &Lot{
		ID:            id,
		Seller:        seller,
		Assets:        refs,
		StartPrice:    start,
		FloorPrice:    floor,
		StartTime:     startTime,
		Duration:      duration,
		Status:        LotCreated,
		CreatedAt:     now,
		ClearingPrice: big.NewInt(0),
		TotalEscrowed: big.NewInt(0),
		Forfeited:     big.NewInt(0),
	}
	if err := e.storeLot(lot); err != nil {
		return nil, err
	}
	e.emit(NewLotCreatedEvent(lot))
	return lot.Clone(), nil
}

// ActivateLot escrows the lot assets with the module and starts the auction.
// The seller must have approved the module as operator beforehand.
func (e *Engine) ActivateLot(id uint64, caller [20]byte) (*Lot, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	lot, err := e.loadLot(id)
	if err != nil {
		return nil, err
	}
	if caller != lot.Seller {
		return nil, ErrNotSeller
	}
	if lot.Status != LotCreated {
		return nil, fmt.Errorf("%w: cannot activate in status %s", ErrLotNotActive, lot.Status)
	}
	now := e.now()
	for _, asset := range lot.Assets {
		if err := e.registry.TransferFrom(e.module, lot.Seller, e.module, asset); err != nil {
			return nil, fmt.Errorf("auction: escrow asset %s: %w", asset, err)
		}
	}
	if lot.StartTime == 0 || lot.StartTime < now {
		lot.StartTime = now
	}
	lot.ActivatedAt = now
	lot.Status = LotActive
	if err := e.storeLot(lot); err != nil {
		return nil, err
	}
	e.emit(NewLotActivatedEvent(lot))
	return lot.Clone(), nil
}

// CancelLot closes the lot on behalf of the seller before any hard bid has
// been accepted. Escrowed assets return to the seller and every bond becomes
// refundable.
func (e *Engine) CancelLot(id uint64, caller [20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	lot, err := e.loadLot(id)
	if err != nil {
		return err
	}
	now := e.now()
	if err := e.refresh(lot, now); err != nil {
		return err
	}
	if caller != lot.Seller {
		return ErrNotSeller
	}
	switch lot.Status {
	case LotSettled:
		return ErrAlreadySettled
	case LotExpired, LotCancelled:
		return fmt.Errorf("%w: cannot cancel in status %s", ErrLotNotActive, lot.Status)
	}
	if lot.Commitment != nil {
		return ErrHardBidPending
	}
	if lot.Status != LotCreated {
		if err := e.returnAssets(lot); err != nil {
			return err
		}
	}
	lot.Status = LotCancelled
	lot.ClosedAt = now
	if err := e.storeLot(lot); err != nil {
		return err
	}
	e.emit(NewLotCancelledEvent(lot))
	return nil
}

// ExpireLot persists the expiry of a lot whose duration has elapsed without a
// settlement. Anyone may invoke it. The operation is idempotent.
func (e *Engine) ExpireLot(id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	lot, err := e.loadLot(id)
	if err != nil {
		return err
	}
	if err := e.refresh(lot, e.now()); err != nil {
		return err
	}
	switch lot.Status {
	case LotExpired:
		return nil
	case LotSettled:
		return ErrAlreadySettled
	case LotCancelled, LotCreated:
		return fmt.Errorf("%w: cannot expire in status %s", ErrLotNotActive, lot.Status)
	default:
		return ErrLotStillActive
	}
}

// Sweep applies every lazy transition that is due for the lot: lapsed
// commitments are forfeited and elapsed lots expire. It reports whether the
// lot changed.
func (e *Engine) Sweep(id uint64) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	lot, err := e.loadLot(id)
	if err != nil {
		return false, err
	}
	before := lot.Status
	hadCommitment := lot.Commitment != nil
	if err := e.refresh(lot, e.now()); err != nil {
		return false, err
	}
	return lot.Status != before || (hadCommitment && lot.Commitment == nil), nil
}

// Lot returns a copy of the stored lot as it would be observed now, with any
// due lazy transition reflected in Status but not persisted.
func (e *Engine) Lot(id uint64) (*Lot, error) {
	lot, err := e.loadLot(id)
	if err != nil {
		return nil, err
	}
	view := lot.Clone()
	now := e.now()
	if view.Commitment != nil && now > view.Commitment.Deadline {
		view.Commitment = nil
	}
	if view.Status.Open() && view.Commitment == nil && now >= view.EndTime() {
		view.Status = LotExpired
	}
	return view, nil
}

// CurrentPrice returns the clearing price of the lot at the current instant.
// A lot that has not been activated has not started decaying and quotes its
// start price.
func (e *Engine) CurrentPrice(id uint64) (*big.Int, error) {
	lot, err := e.loadLot(id)
	if err != nil {
		return nil, err
	}
	if lot.Status == LotCreated {
		return cloneBigInt(lot.StartPrice), nil
	}
	return lot.Curve().At(e.now()), nil
}

// refresh applies the lazily evaluated time transitions to an in-memory lot
// and persists the result. A lapsed commitment is forfeited first; the lot
// then expires once its duration has elapsed with no commitment pending.
func (e *Engine) refresh(lot *Lot, now int64) error {
	if lot == nil || !lot.Status.Open() {
		return nil
	}
	if lot.Commitment != nil && now > lot.Commitment.Deadline {
		if err := e.forfeitBond(lot, lot.Commitment.Bidder); err != nil {
			return err
		}
		lot.Commitment = nil
		if err := e.storeLot(lot); err != nil {
			return err
		}
	}
	if lot.Commitment != nil || now < lot.EndTime() {
		return nil
	}
	if err := e.returnAssets(lot); err != nil {
		return err
	}
	lot.Status = LotExpired
	lot.ClosedAt = now
	if err := e.storeLot(lot); err != nil {
		return err
	}
	e.emit(NewLotExpiredEvent(lot))
	return nil
}

func (e *Engine) returnAssets(lot *Lot) error {
	for _, asset := range lot.Assets {
		if err := e.registry.TransferFrom(e.module, e.module, lot.Seller, asset); err != nil {
			return fmt.Errorf("auction: return asset %s: %w", asset, err)
		}
	}
	return nil
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{Balance: big.NewInt(0)}
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

func (e *Engine) transfer(from, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("%w: negative transfer", ErrInvalidAmount)
	}
	if from == to {
		return nil
	}
	fromAcc, err := e.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := e.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	toAcc = ensureAccount(toAcc)
	if fromAcc.Balance.Cmp(amt) < 0 {
		return ErrInsufficientFunds
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amt)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amt)
	if err := e.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to[:], toAcc)
}
