package registry

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/miekg/dns"

	"domaauction/core/events"
	"domaauction/core/types"
	nativecommon "domaauction/native/common"
)

const moduleName = "registry"

var (
	domainPrefix   = []byte("registry/domain/")
	balancePrefix  = []byte("registry/balance/")
	operatorPrefix = []byte("registry/operator/")
	namePrefix     = []byte("registry/name/")
)

type registryState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

// Domain is one ownership token. Approved is the single-token spender cleared
// on every transfer.
type Domain struct {
	TokenID  *big.Int
	Name     string
	Owner    [20]byte
	Approved [20]byte
}

func domainKey(tokenID *big.Int) []byte {
	return append(append([]byte(nil), domainPrefix...), tokenID.Bytes()...)
}

func nameKey(canonical string) []byte {
	return append(append([]byte(nil), namePrefix...), canonical...)
}

// CanonicalName validates a domain name and returns its lower-case form
// without the trailing root dot.
func CanonicalName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidName)
	}
	labels, ok := dns.IsDomainName(trimmed)
	if !ok || labels == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return strings.TrimSuffix(dns.CanonicalName(trimmed), "."), nil
}

func balanceKey(owner [20]byte) []byte {
	return append(append([]byte(nil), balancePrefix...), owner[:]...)
}

func operatorKey(owner, operator [20]byte) []byte {
	key := append(append([]byte(nil), operatorPrefix...), owner[:]...)
	return append(key, operator[:]...)
}

// Registry is the domain ownership token: an ERC-721 style ledger minted by a
// single registrar.
type Registry struct {
	st        registryState
	emitter   events.Emitter
	pauses    nativecommon.PauseView
	registrar [20]byte
}

// NewRegistry creates a registry backed by the provided state whose tokens are
// minted by registrar.
func NewRegistry(st registryState, registrar [20]byte) *Registry {
	return &Registry{st: st, registrar: registrar, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter used to broadcast registry updates.
// Passing nil resets the emitter to a no-op implementation.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

func (r *Registry) SetPauses(p nativecommon.PauseView) {
	if r == nil {
		return
	}
	r.pauses = p
}

// Registrar returns the only address allowed to mint.
func (r *Registry) Registrar() [20]byte { return r.registrar }

func (r *Registry) emit(evt *types.Event) {
	if r.emitter != nil {
		r.emitter.Emit(evt)
	}
}

func (r *Registry) guard() error {
	if r == nil || r.st == nil {
		return errNilState
	}
	return nativecommon.Guard(r.pauses, moduleName)
}

func validToken(tokenID *big.Int) error {
	if tokenID == nil || tokenID.Sign() < 0 || tokenID.BitLen() > 256 {
		return ErrInvalidToken
	}
	return nil
}

// Mint creates tokenID for to. Only the registrar may mint.
func (r *Registry) Mint(caller, to [20]byte, tokenID *big.Int, name string) error {
	if err := r.guard(); err != nil {
		return err
	}
	if caller != r.registrar {
		return ErrUnauthorized
	}
	if to == ([20]byte{}) {
		return ErrInvalidAddress
	}
	if err := validToken(tokenID); err != nil {
		return err
	}
	canonical, err := CanonicalName(name)
	if err != nil {
		return err
	}
	exists, err := r.st.KVGet(domainKey(tokenID), nil)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrTokenExists, tokenID)
	}
	taken, err := r.st.KVGet(nameKey(canonical), nil)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %s", ErrNameTaken, canonical)
	}
	domain := &Domain{TokenID: new(big.Int).Set(tokenID), Name: canonical, Owner: to}
	if err := r.st.KVPut(domainKey(tokenID), domain); err != nil {
		return err
	}
	if err := r.st.KVPut(nameKey(canonical), domain.TokenID); err != nil {
		return err
	}
	if err := r.adjustBalance(to, 1); err != nil {
		return err
	}
	r.emit(newMintedEvent(domain))
	return nil
}

// Domain returns the stored token record.
func (r *Registry) Domain(tokenID *big.Int) (*Domain, error) {
	if r == nil || r.st == nil {
		return nil, errNilState
	}
	if err := validToken(tokenID); err != nil {
		return nil, err
	}
	domain := new(Domain)
	ok, err := r.st.KVGet(domainKey(tokenID), domain)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, tokenID)
	}
	if domain.TokenID == nil {
		domain.TokenID = new(big.Int).Set(tokenID)
	}
	return domain, nil
}

// Resolve returns the domain registered under name.
func (r *Registry) Resolve(name string) (*Domain, error) {
	if r == nil || r.st == nil {
		return nil, errNilState
	}
	canonical, err := CanonicalName(name)
	if err != nil {
		return nil, err
	}
	tokenID := new(big.Int)
	ok, err := r.st.KVGet(nameKey(canonical), tokenID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, canonical)
	}
	return r.Domain(tokenID)
}

// OwnerOf returns the current owner of tokenID.
func (r *Registry) OwnerOf(tokenID *big.Int) ([20]byte, error) {
	domain, err := r.Domain(tokenID)
	if err != nil {
		return [20]byte{}, err
	}
	return domain.Owner, nil
}

// BalanceOf returns the number of tokens held by owner.
func (r *Registry) BalanceOf(owner [20]byte) (uint64, error) {
	if r == nil || r.st == nil {
		return 0, errNilState
	}
	var count uint64
	if _, err := r.st.KVGet(balanceKey(owner), &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Registry) adjustBalance(owner [20]byte, delta int) error {
	count, err := r.BalanceOf(owner)
	if err != nil {
		return err
	}
	if delta < 0 && count < uint64(-delta) {
		return fmt.Errorf("registry: balance underflow for %x", owner)
	}
	count = uint64(int64(count) + int64(delta))
	if count == 0 {
		return r.st.KVDelete(balanceKey(owner))
	}
	return r.st.KVPut(balanceKey(owner), count)
}

// Approve lets spender transfer tokenID once. The caller must be the owner or
// one of the owner's operators. The zero address clears the approval.
func (r *Registry) Approve(caller, spender [20]byte, tokenID *big.Int) error {
	if err := r.guard(); err != nil {
		return err
	}
	domain, err := r.Domain(tokenID)
	if err != nil {
		return err
	}
	if spender == domain.Owner {
		return ErrSelfApproval
	}
	if caller != domain.Owner {
		ok, err := r.IsApprovedForAll(domain.Owner, caller)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUnauthorized
		}
	}
	domain.Approved = spender
	if err := r.st.KVPut(domainKey(tokenID), domain); err != nil {
		return err
	}
	r.emit(newApprovalEvent(tokenID, domain.Owner, spender))
	return nil
}

// GetApproved returns the single-token spender of tokenID, or the zero address.
func (r *Registry) GetApproved(tokenID *big.Int) ([20]byte, error) {
	domain, err := r.Domain(tokenID)
	if err != nil {
		return [20]byte{}, err
	}
	return domain.Approved, nil
}

// SetApprovalForAll grants or revokes operator rights over every token of the
// caller.
func (r *Registry) SetApprovalForAll(caller, operator [20]byte, approved bool) error {
	if err := r.guard(); err != nil {
		return err
	}
	if operator == caller || operator == ([20]byte{}) {
		return ErrInvalidAddress
	}
	var err error
	if approved {
		err = r.st.KVPut(operatorKey(caller, operator), true)
	} else {
		err = r.st.KVDelete(operatorKey(caller, operator))
	}
	if err != nil {
		return err
	}
	r.emit(newApprovalForAllEvent(caller, operator, approved))
	return nil
}

// IsApprovedForAll reports whether operator may manage every token of owner.
func (r *Registry) IsApprovedForAll(owner, operator [20]byte) (bool, error) {
	if r == nil || r.st == nil {
		return false, errNilState
	}
	var approved bool
	ok, err := r.st.KVGet(operatorKey(owner, operator), &approved)
	if err != nil {
		return false, err
	}
	return ok && approved, nil
}

// TransferFrom moves tokenID from its owner to to. The operator must be the
// owner, the token's approved spender or an operator of the owner.
func (r *Registry) TransferFrom(operator, from, to [20]byte, tokenID *big.Int) error {
	if err := r.guard(); err != nil {
		return err
	}
	if to == ([20]byte{}) {
		return ErrInvalidAddress
	}
	domain, err := r.Domain(tokenID)
	if err != nil {
		return err
	}
	if domain.Owner != from {
		return fmt.Errorf("%w: token %s", ErrNotOwner, tokenID)
	}
	if operator != from && (domain.Approved == ([20]byte{}) || operator != domain.Approved) {
		ok, err := r.IsApprovedForAll(from, operator)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: token %s", ErrNotApproved, tokenID)
		}
	}
	domain.Owner = to
	domain.Approved = [20]byte{}
	if err := r.st.KVPut(domainKey(tokenID), domain); err != nil {
		return err
	}
	if from != to {
		if err := r.adjustBalance(from, -1); err != nil {
			return err
		}
		if err := r.adjustBalance(to, 1); err != nil {
			return err
		}
	}
	r.emit(newTransferEvent(tokenID, from, to, operator))
	return nil
}
