package core

import (
	"log/slog"
	"math/big"

	"domaauction/core/types"
	"domaauction/native/auction"
	"domaauction/native/registry"
)

// CreateLot registers a new lot for seller in the Created state.
func (n *Node) CreateLot(seller [20]byte, assets []*big.Int, startPrice, floorPrice *big.Int, startTime, duration int64) (*auction.Lot, error) {
	var lot *auction.Lot
	err := n.execute(func(m *modules) error {
		var err error
		lot, err = m.auction.CreateLot(seller, assets, startPrice, floorPrice, startTime, duration)
		return err
	})
	return lot, err
}

// ActivateLot escrows the lot's assets and opens it for bidding.
func (n *Node) ActivateLot(lotID uint64, caller [20]byte) (*auction.Lot, error) {
	var lot *auction.Lot
	err := n.execute(func(m *modules) error {
		var err error
		lot, err = m.auction.ActivateLot(lotID, caller)
		return err
	})
	return lot, err
}

func (n *Node) CancelLot(lotID uint64, caller [20]byte) error {
	return n.execute(func(m *modules) error {
		return m.auction.CancelLot(lotID, caller)
	})
}

// ExpireLot persists the expiry of an elapsed lot and returns its assets.
func (n *Node) ExpireLot(lotID uint64) error {
	return n.execute(func(m *modules) error {
		return m.auction.ExpireLot(lotID)
	})
}

func (n *Node) DepositBond(lotID uint64, bidder [20]byte, value *big.Int) (*auction.BondEntry, error) {
	var entry *auction.BondEntry
	err := n.execute(func(m *modules) error {
		var err error
		entry, err = m.auction.DepositBond(lotID, bidder, value)
		return err
	})
	return entry, err
}

func (n *Node) RefundBond(lotID uint64, bidder [20]byte) (*big.Int, error) {
	var refunded *big.Int
	err := n.execute(func(m *modules) error {
		var err error
		refunded, err = m.auction.RefundBond(lotID, bidder)
		return err
	})
	return refunded, err
}

// PlaceHardBid attempts an immediate settlement at the current clearing price.
func (n *Node) PlaceHardBid(lotID uint64, bidder [20]byte, payment *big.Int) (*auction.Settlement, error) {
	var settlement *auction.Settlement
	err := n.execute(func(m *modules) error {
		var err error
		settlement, err = m.auction.PlaceHardBid(lotID, bidder, payment)
		return err
	})
	return settlement, err
}

func (n *Node) CommitHardBid(lotID uint64, bidder [20]byte) (*auction.Commitment, error) {
	var commitment *auction.Commitment
	err := n.execute(func(m *modules) error {
		var err error
		commitment, err = m.auction.CommitHardBid(lotID, bidder)
		return err
	})
	return commitment, err
}

func (n *Node) CompleteHardBid(lotID uint64, bidder [20]byte, payment *big.Int) (*auction.Settlement, error) {
	var settlement *auction.Settlement
	err := n.execute(func(m *modules) error {
		var err error
		settlement, err = m.auction.CompleteHardBid(lotID, bidder, payment)
		return err
	})
	return settlement, err
}

// SweepExpired applies due lazy transitions to every lot, one transaction per
// lot, and returns how many lots changed. A failing lot is logged and skipped.
func (n *Node) SweepExpired() (int, error) {
	var count uint64
	if err := n.view(func(m *modules) error {
		var err error
		count, err = m.manager.AuctionLotCount()
		return err
	}); err != nil {
		return 0, err
	}
	changed := 0
	for id := uint64(1); id <= count; id++ {
		var stored *auction.Lot
		if err := n.view(func(m *modules) error {
			var err error
			stored, _, err = m.manager.AuctionGetLot(id)
			return err
		}); err != nil {
			return changed, err
		}
		if stored == nil || stored.Status.Terminal() {
			continue
		}
		var swept bool
		err := n.execute(func(m *modules) error {
			var err error
			swept, err = m.auction.Sweep(id)
			return err
		})
		if err != nil {
			n.logger.Warn("sweep lot failed", slog.Uint64("lot", id), slog.Any("error", err))
			continue
		}
		if swept {
			changed++
		}
	}
	return changed, nil
}

// Lot returns the lot as observed now.
func (n *Node) Lot(lotID uint64) (*auction.Lot, error) {
	var lot *auction.Lot
	err := n.view(func(m *modules) error {
		var err error
		lot, err = m.auction.Lot(lotID)
		return err
	})
	return lot, err
}

func (n *Node) CurrentPrice(lotID uint64) (*big.Int, error) {
	var price *big.Int
	err := n.view(func(m *modules) error {
		var err error
		price, err = m.auction.CurrentPrice(lotID)
		return err
	})
	return price, err
}

func (n *Node) Bond(lotID uint64, bidder [20]byte) (*auction.BondEntry, error) {
	var entry *auction.BondEntry
	err := n.view(func(m *modules) error {
		var err error
		entry, err = m.auction.Bond(lotID, bidder)
		return err
	})
	return entry, err
}

// BondBalance returns the bidder's outstanding bonds across all lots.
func (n *Node) BondBalance(bidder [20]byte) (*big.Int, error) {
	var balance *big.Int
	err := n.view(func(m *modules) error {
		var err error
		balance, err = m.auction.BondBalance(bidder)
		return err
	})
	return balance, err
}

// CheckConservation verifies the escrow accounting of a lot.
func (n *Node) CheckConservation(lotID uint64) error {
	return n.view(func(m *modules) error {
		return m.auction.CheckConservation(lotID)
	})
}

func (n *Node) Account(addr [20]byte) (*types.Account, error) {
	var account *types.Account
	err := n.view(func(m *modules) error {
		var err error
		account, err = m.manager.GetAccount(addr[:])
		return err
	})
	return account, err
}

// MintDomain registers a new domain. Only the registrar may call it.
func (n *Node) MintDomain(caller, to [20]byte, tokenID *big.Int, name string) (*registry.Domain, error) {
	var domain *registry.Domain
	err := n.execute(func(m *modules) error {
		if err := m.registry.Mint(caller, to, tokenID, name); err != nil {
			return err
		}
		var err error
		domain, err = m.registry.Domain(tokenID)
		return err
	})
	return domain, err
}

func (n *Node) ApproveDomain(caller, spender [20]byte, tokenID *big.Int) error {
	return n.execute(func(m *modules) error {
		return m.registry.Approve(caller, spender, tokenID)
	})
}

func (n *Node) SetApprovalForAll(caller, operator [20]byte, approved bool) error {
	return n.execute(func(m *modules) error {
		return m.registry.SetApprovalForAll(caller, operator, approved)
	})
}

func (n *Node) Domain(tokenID *big.Int) (*registry.Domain, error) {
	var domain *registry.Domain
	err := n.view(func(m *modules) error {
		var err error
		domain, err = m.registry.Domain(tokenID)
		return err
	})
	return domain, err
}

// ResolveDomain looks a domain up by name.
func (n *Node) ResolveDomain(name string) (*registry.Domain, error) {
	var domain *registry.Domain
	err := n.view(func(m *modules) error {
		var err error
		domain, err = m.registry.Resolve(name)
		return err
	})
	return domain, err
}

// LoyaltyTokens lists the loyalty NFTs held by owner.
func (n *Node) LoyaltyTokens(owner [20]byte) ([]*big.Int, error) {
	var ids []*big.Int
	err := n.view(func(m *modules) error {
		var err error
		ids, err = m.loyalty.TokensOf(owner)
		return err
	})
	return ids, err
}

func (n *Node) LoyaltyAuthority() ([20]byte, error) {
	var authority [20]byte
	err := n.view(func(m *modules) error {
		var err error
		authority, err = m.loyalty.Authority()
		return err
	})
	return authority, err
}
