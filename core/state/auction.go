package state

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"domaauction/native/auction"
)

var (
	auctionLotSeqKey         = []byte("auction/lot-seq")
	auctionLotPrefix         = []byte("auction/lot/")
	auctionBondPrefix        = []byte("auction/bond/")
	auctionBondBalancePrefix = []byte("auction/bond-balance/")
)

// storedLot mirrors auction.Lot with unsigned integer fields so the record can
// be RLP encoded. The optional commitment is flattened.
type storedLot struct {
	ID             uint64
	Seller         [20]byte
	Assets         []*big.Int
	StartPrice     *big.Int
	FloorPrice     *big.Int
	StartTime      uint64
	Duration       uint64
	Status         uint8
	CreatedAt      uint64
	ActivatedAt    uint64
	Winner         [20]byte
	ClearingPrice  *big.Int
	SettledAt      uint64
	ClosedAt       uint64
	TotalEscrowed  *big.Int
	Forfeited      *big.Int
	Bidders        [][20]byte
	HasCommitment  bool
	CommitBidder   [20]byte
	CommitPrice    *big.Int
	CommitDeadline uint64
}

type storedBond struct {
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

func auctionLotKey(id uint64) []byte {
	buf := make([]byte, len(auctionLotPrefix)+8)
	copy(buf, auctionLotPrefix)
	binary.BigEndian.PutUint64(buf[len(auctionLotPrefix):], id)
	return buf
}

func auctionBondKey(lotID uint64, bidder [20]byte) []byte {
	buf := make([]byte, len(auctionBondPrefix)+8+len(bidder))
	copy(buf, auctionBondPrefix)
	binary.BigEndian.PutUint64(buf[len(auctionBondPrefix):], lotID)
	copy(buf[len(auctionBondPrefix)+8:], bidder[:])
	return buf
}

func auctionBondBalanceKey(bidder [20]byte) []byte {
	buf := make([]byte, len(auctionBondBalancePrefix)+len(bidder))
	copy(buf, auctionBondBalancePrefix)
	copy(buf[len(auctionBondBalancePrefix):], bidder[:])
	return buf
}

func nonNegativeUint(v int64, field string) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("auction: negative %s", field)
	}
	return uint64(v), nil
}

func amountOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func newStoredLot(l *auction.Lot) (*storedLot, error) {
	sanitized, err := auction.SanitizeLot(l)
	if err != nil {
		return nil, err
	}
	record := &storedLot{
		ID:            sanitized.ID,
		Seller:        sanitized.Seller,
		Assets:        sanitized.Assets,
		StartPrice:    sanitized.StartPrice,
		FloorPrice:    sanitized.FloorPrice,
		Status:        uint8(sanitized.Status),
		Winner:        sanitized.Winner,
		ClearingPrice: sanitized.ClearingPrice,
		TotalEscrowed: sanitized.TotalEscrowed,
		Forfeited:     sanitized.Forfeited,
		Bidders:       sanitized.Bidders,
		CommitPrice:   big.NewInt(0),
	}
	times := []struct {
		dst   *uint64
		value int64
		name  string
	}{
		{&record.StartTime, sanitized.StartTime, "start time"},
		{&record.Duration, sanitized.Duration, "duration"},
		{&record.CreatedAt, sanitized.CreatedAt, "created at"},
		{&record.ActivatedAt, sanitized.ActivatedAt, "activated at"},
		{&record.SettledAt, sanitized.SettledAt, "settled at"},
		{&record.ClosedAt, sanitized.ClosedAt, "closed at"},
	}
	for _, field := range times {
		v, err := nonNegativeUint(field.value, field.name)
		if err != nil {
			return nil, err
		}
		*field.dst = v
	}
	if c := sanitized.Commitment; c != nil {
		deadline, err := nonNegativeUint(c.Deadline, "commitment deadline")
		if err != nil {
			return nil, err
		}
		record.HasCommitment = true
		record.CommitBidder = c.Bidder
		record.CommitPrice = amountOrZero(c.Price)
		record.CommitDeadline = deadline
	}
	return record, nil
}

func (s *storedLot) toLot() *auction.Lot {
	lot := &auction.Lot{
		ID:            s.ID,
		Seller:        s.Seller,
		Assets:        make([]*big.Int, len(s.Assets)),
		StartPrice:    amountOrZero(s.StartPrice),
		FloorPrice:    amountOrZero(s.FloorPrice),
		StartTime:     int64(s.StartTime),
		Duration:      int64(s.Duration),
		Status:        auction.LotStatus(s.Status),
		CreatedAt:     int64(s.CreatedAt),
		ActivatedAt:   int64(s.ActivatedAt),
		Winner:        s.Winner,
		ClearingPrice: amountOrZero(s.ClearingPrice),
		SettledAt:     int64(s.SettledAt),
		ClosedAt:      int64(s.ClosedAt),
		TotalEscrowed: amountOrZero(s.TotalEscrowed),
		Forfeited:     amountOrZero(s.Forfeited),
		Bidders:       append([][20]byte(nil), s.Bidders...),
	}
	for i, asset := range s.Assets {
		lot.Assets[i] = amountOrZero(asset)
	}
	if s.HasCommitment {
		lot.Commitment = &auction.Commitment{
			Bidder:   s.CommitBidder,
			Price:    amountOrZero(s.CommitPrice),
			Deadline: int64(s.CommitDeadline),
		}
	}
	return lot
}

// AuctionNextLotID allocates the next sequential lot identifier, starting at 1.
func (m *Manager) AuctionNextLotID() (uint64, error) {
	var last uint64
	if _, err := m.KVGet(auctionLotSeqKey, &last); err != nil {
		return 0, err
	}
	next := last + 1
	if err := m.KVPut(auctionLotSeqKey, next); err != nil {
		return 0, err
	}
	return next, nil
}

// AuctionLotCount returns the number of lots allocated so far. Lot identifiers
// range over [1, count].
func (m *Manager) AuctionLotCount() (uint64, error) {
	var last uint64
	if _, err := m.KVGet(auctionLotSeqKey, &last); err != nil {
		return 0, err
	}
	return last, nil
}

// AuctionPutLot persists the lot record.
func (m *Manager) AuctionPutLot(l *auction.Lot) error {
	record, err := newStoredLot(l)
	if err != nil {
		return err
	}
	return m.KVPut(auctionLotKey(record.ID), record)
}

// AuctionGetLot loads the lot record if present.
func (m *Manager) AuctionGetLot(id uint64) (*auction.Lot, bool, error) {
	record := new(storedLot)
	ok, err := m.KVGet(auctionLotKey(id), record)
	if err != nil || !ok {
		return nil, ok, err
	}
	return record.toLot(), true, nil
}

// AuctionPutBond persists a bond entry. Entries that violate the bucket
// accounting identity are rejected.
func (m *Manager) AuctionPutBond(b *auction.BondEntry) error {
	if b == nil {
		return fmt.Errorf("auction: nil bond entry")
	}
	if !b.Balanced() {
		return fmt.Errorf("auction: bond of %x on lot %d does not balance", b.Bidder, b.LotID)
	}
	record := &storedBond{
		LotID:            b.LotID,
		Bidder:           b.Bidder,
		Amount:           amountOrZero(b.Amount),
		DepositedAtPrice: amountOrZero(b.DepositedAtPrice),
		Deposited:        amountOrZero(b.Deposited),
		Refunded:         amountOrZero(b.Refunded),
		Forfeited:        amountOrZero(b.Forfeited),
		Applied:          amountOrZero(b.Applied),
		Barred:           b.Barred,
	}
	for _, v := range []*big.Int{record.Amount, record.DepositedAtPrice, record.Deposited, record.Refunded, record.Forfeited, record.Applied} {
		if v.Sign() < 0 {
			return fmt.Errorf("auction: negative bond amount")
		}
	}
	return m.KVPut(auctionBondKey(b.LotID, b.Bidder), record)
}

// AuctionGetBond loads the bond entry of bidder on the lot if present.
func (m *Manager) AuctionGetBond(lotID uint64, bidder [20]byte) (*auction.BondEntry, bool, error) {
	record := new(storedBond)
	ok, err := m.KVGet(auctionBondKey(lotID, bidder), record)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &auction.BondEntry{
		LotID:            record.LotID,
		Bidder:           record.Bidder,
		Amount:           amountOrZero(record.Amount),
		DepositedAtPrice: amountOrZero(record.DepositedAtPrice),
		Deposited:        amountOrZero(record.Deposited),
		Refunded:         amountOrZero(record.Refunded),
		Forfeited:        amountOrZero(record.Forfeited),
		Applied:          amountOrZero(record.Applied),
		Barred:           record.Barred,
	}, true, nil
}

// AuctionBondBalance returns the bidder's outstanding bonds across all lots.
func (m *Manager) AuctionBondBalance(bidder [20]byte) (*big.Int, error) {
	balance := new(big.Int)
	ok, err := m.KVGet(auctionBondBalanceKey(bidder), balance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return balance, nil
}

// AuctionSetBondBalance overwrites the bidder's aggregate bond balance.
func (m *Manager) AuctionSetBondBalance(bidder [20]byte, amount *big.Int) error {
	value := amountOrZero(amount)
	if value.Sign() < 0 {
		return fmt.Errorf("auction: negative bond balance")
	}
	if value.Sign() == 0 {
		return m.KVDelete(auctionBondBalanceKey(bidder))
	}
	return m.KVPut(auctionBondBalanceKey(bidder), value)
}
