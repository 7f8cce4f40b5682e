package loyalty

import (
	"fmt"
	"math/big"

	"domaauction/core/events"
	"domaauction/core/types"
	nativecommon "domaauction/native/common"
)

const moduleName = "loyalty"

var (
	authorityKey   = []byte("loyalty/authority")
	supplyKey      = []byte("loyalty/supply")
	tokenPrefix    = []byte("loyalty/token/")
	holdingsPrefix = []byte("loyalty/holdings/")
)

type minterState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVAppend(key []byte, value []byte) error
	KVGetList(key []byte, out interface{}) error
}

// Token is one minted loyalty NFT.
type Token struct {
	ID       *big.Int
	Owner    [20]byte
	MintedAt uint64
}

func tokenKey(id *big.Int) []byte {
	return append(append([]byte(nil), tokenPrefix...), id.Bytes()...)
}

func holdingsKey(owner [20]byte) []byte {
	return append(append([]byte(nil), holdingsPrefix...), owner[:]...)
}

// Minter issues gamification NFTs. Every mint is checked against the stored
// authority, which the deployment hands to the auction module.
type Minter struct {
	st      minterState
	emitter events.Emitter
	pauses  nativecommon.PauseView
	nowFn   func() int64
}

// NewMinter creates a minter backed by the provided state.
func NewMinter(st minterState) *Minter {
	return &Minter{st: st, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter. Passing nil resets the emitter to a
// no-op implementation.
func (m *Minter) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		m.emitter = events.NoopEmitter{}
		return
	}
	m.emitter = emitter
}

func (m *Minter) SetPauses(p nativecommon.PauseView) {
	if m == nil {
		return
	}
	m.pauses = p
}

// SetNowFunc overrides the clock used to stamp minted tokens.
func (m *Minter) SetNowFunc(now func() int64) { m.nowFn = now }

func (m *Minter) emit(evt *types.Event) {
	if m.emitter != nil {
		m.emitter.Emit(evt)
	}
}

func (m *Minter) now() uint64 {
	if m.nowFn == nil {
		return 0
	}
	if ts := m.nowFn(); ts > 0 {
		return uint64(ts)
	}
	return 0
}

// Deploy records the initial authority. It succeeds only once.
func (m *Minter) Deploy(authority [20]byte) error {
	if m == nil || m.st == nil {
		return errNilState
	}
	if authority == ([20]byte{}) {
		return ErrInvalidRecipient
	}
	var existing [20]byte
	ok, err := m.st.KVGet(authorityKey, &existing)
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyDeployed
	}
	if err := m.st.KVPut(authorityKey, authority); err != nil {
		return err
	}
	m.emit(newOwnershipTransferredEvent([20]byte{}, authority))
	return nil
}

// Authority returns the address allowed to mint.
func (m *Minter) Authority() ([20]byte, error) {
	if m == nil || m.st == nil {
		return [20]byte{}, errNilState
	}
	var authority [20]byte
	ok, err := m.st.KVGet(authorityKey, &authority)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, ErrNotDeployed
	}
	return authority, nil
}

// TransferOwnership hands minting authority to newOwner. Only the current
// authority may call it.
func (m *Minter) TransferOwnership(caller, newOwner [20]byte) error {
	authority, err := m.Authority()
	if err != nil {
		return err
	}
	if caller != authority {
		return ErrUnauthorized
	}
	if newOwner == ([20]byte{}) {
		return ErrInvalidRecipient
	}
	if err := m.st.KVPut(authorityKey, newOwner); err != nil {
		return err
	}
	m.emit(newOwnershipTransferredEvent(authority, newOwner))
	return nil
}

// Mint issues the next token to to. Token ids start at 1.
func (m *Minter) Mint(caller, to [20]byte) (*big.Int, error) {
	if err := nativecommon.Guard(m.pauses, moduleName); err != nil {
		return nil, err
	}
	authority, err := m.Authority()
	if err != nil {
		return nil, err
	}
	if caller != authority {
		return nil, ErrUnauthorized
	}
	if to == ([20]byte{}) {
		return nil, ErrInvalidRecipient
	}
	supply, err := m.TotalSupply()
	if err != nil {
		return nil, err
	}
	id := new(big.Int).SetUint64(supply + 1)
	token := &Token{ID: id, Owner: to, MintedAt: m.now()}
	if err := m.st.KVPut(tokenKey(id), token); err != nil {
		return nil, err
	}
	if err := m.st.KVPut(supplyKey, supply+1); err != nil {
		return nil, err
	}
	if err := m.st.KVAppend(holdingsKey(to), id.Bytes()); err != nil {
		return nil, err
	}
	m.emit(newMintedEvent(id, to))
	return new(big.Int).Set(id), nil
}

// TotalSupply returns the number of tokens minted so far.
func (m *Minter) TotalSupply() (uint64, error) {
	if m == nil || m.st == nil {
		return 0, errNilState
	}
	var supply uint64
	if _, err := m.st.KVGet(supplyKey, &supply); err != nil {
		return 0, err
	}
	return supply, nil
}

// OwnerOf returns the holder of the token.
func (m *Minter) OwnerOf(id *big.Int) ([20]byte, error) {
	if m == nil || m.st == nil {
		return [20]byte{}, errNilState
	}
	if id == nil || id.Sign() <= 0 {
		return [20]byte{}, ErrTokenNotFound
	}
	token := new(Token)
	ok, err := m.st.KVGet(tokenKey(id), token)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, fmt.Errorf("%w: %s", ErrTokenNotFound, id)
	}
	return token.Owner, nil
}

// TokensOf lists the token ids held by owner in mint order.
func (m *Minter) TokensOf(owner [20]byte) ([]*big.Int, error) {
	if m == nil || m.st == nil {
		return nil, errNilState
	}
	var raw [][]byte
	if err := m.st.KVGetList(holdingsKey(owner), &raw); err != nil {
		return nil, err
	}
	ids := make([]*big.Int, len(raw))
	for i, b := range raw {
		ids[i] = new(big.Int).SetBytes(b)
	}
	return ids, nil
}

// BalanceOf returns the number of tokens held by owner.
func (m *Minter) BalanceOf(owner [20]byte) (uint64, error) {
	ids, err := m.TokensOf(owner)
	if err != nil {
		return 0, err
	}
	return uint64(len(ids)), nil
}
