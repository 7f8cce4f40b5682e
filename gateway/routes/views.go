package routes

import (
	"math/big"

	"domaauction/core/types"
	"domaauction/native/auction"
	"domaauction/native/registry"
)

// Amounts are decimal wei strings; addresses are 0x hex.

type infoView struct {
	ModuleAddress      string `json:"moduleAddress"`
	Now                int64  `json:"now"`
	BondBps            uint32 `json:"bondBps"`
	GraceWindow        int64  `json:"graceWindow"`
	ProtocolFeeBps     uint32 `json:"protocolFeeBps"`
	FeeTreasury        string `json:"feeTreasury"`
	RewardParticipants bool   `json:"rewardParticipants"`
	AutoRefundOnSettle bool   `json:"autoRefundOnSettle"`
	MaxBatchSize       int    `json:"maxBatchSize"`
	MinDuration        int64  `json:"minDuration"`
	MaxDuration        int64  `json:"maxDuration"`
}

type commitmentView struct {
	Bidder   string `json:"bidder"`
	Price    string `json:"price"`
	Deadline int64  `json:"deadline"`
}

type lotView struct {
	ID            uint64          `json:"id"`
	Seller        string          `json:"seller"`
	Assets        []string        `json:"assets"`
	StartPrice    string          `json:"startPrice"`
	FloorPrice    string          `json:"floorPrice"`
	StartTime     int64           `json:"startTime"`
	Duration      int64           `json:"duration"`
	Status        string          `json:"status"`
	CreatedAt     int64           `json:"createdAt"`
	ActivatedAt   int64           `json:"activatedAt,omitempty"`
	Winner        string          `json:"winner,omitempty"`
	ClearingPrice string          `json:"clearingPrice,omitempty"`
	SettledAt     int64           `json:"settledAt,omitempty"`
	ClosedAt      int64           `json:"closedAt,omitempty"`
	TotalEscrowed string          `json:"totalEscrowed"`
	Forfeited     string          `json:"forfeited"`
	Bidders       []string        `json:"bidders"`
	Commitment    *commitmentView `json:"commitment,omitempty"`
}

type bondView struct {
	LotID            uint64 `json:"lotId"`
	Bidder           string `json:"bidder"`
	Amount           string `json:"amount"`
	DepositedAtPrice string `json:"depositedAtPrice"`
	Deposited        string `json:"deposited"`
	Refunded         string `json:"refunded"`
	Forfeited        string `json:"forfeited"`
	Applied          string `json:"applied"`
	Barred           bool   `json:"barred"`
}

type settlementView struct {
	Lot      lotView  `json:"lot"`
	Price    string   `json:"price"`
	Bond     string   `json:"bond"`
	Payment  string   `json:"payment"`
	Fee      string   `json:"fee"`
	Proceeds string   `json:"proceeds"`
	Residual string   `json:"residual"`
	Rewarded []string `json:"rewarded"`
}

type domainView struct {
	TokenID  string `json:"tokenId"`
	Name     string `json:"name"`
	Owner    string `json:"owner"`
	Approved string `json:"approved,omitempty"`
}

type priceView struct {
	LotID uint64 `json:"lotId"`
	Price string `json:"price"`
	At    int64  `json:"at"`
}

type balanceView struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
	Nonce   uint64 `json:"nonce,omitempty"`
}

type loyaltyView struct {
	Address string   `json:"address"`
	Tokens  []string `json:"tokens"`
}

func amount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func newLotView(l *auction.Lot) lotView {
	view := lotView{
		ID:            l.ID,
		Seller:        types.HexAddress(l.Seller),
		Assets:        make([]string, len(l.Assets)),
		StartPrice:    amount(l.StartPrice),
		FloorPrice:    amount(l.FloorPrice),
		StartTime:     l.StartTime,
		Duration:      l.Duration,
		Status:        l.Status.String(),
		CreatedAt:     l.CreatedAt,
		ActivatedAt:   l.ActivatedAt,
		SettledAt:     l.SettledAt,
		ClosedAt:      l.ClosedAt,
		TotalEscrowed: amount(l.TotalEscrowed),
		Forfeited:     amount(l.Forfeited),
		Bidders:       make([]string, len(l.Bidders)),
	}
	for i, asset := range l.Assets {
		view.Assets[i] = amount(asset)
	}
	for i, bidder := range l.Bidders {
		view.Bidders[i] = types.HexAddress(bidder)
	}
	if l.Status == auction.LotSettled {
		view.Winner = types.HexAddress(l.Winner)
		view.ClearingPrice = amount(l.ClearingPrice)
	}
	if l.Commitment != nil {
		view.Commitment = newCommitmentView(l.Commitment)
	}
	return view
}

func newCommitmentView(c *auction.Commitment) *commitmentView {
	return &commitmentView{Bidder: types.HexAddress(c.Bidder), Price: amount(c.Price), Deadline: c.Deadline}
}

func newBondView(b *auction.BondEntry) bondView {
	return bondView{
		LotID:            b.LotID,
		Bidder:           types.HexAddress(b.Bidder),
		Amount:           amount(b.Amount),
		DepositedAtPrice: amount(b.DepositedAtPrice),
		Deposited:        amount(b.Deposited),
		Refunded:         amount(b.Refunded),
		Forfeited:        amount(b.Forfeited),
		Applied:          amount(b.Applied),
		Barred:           b.Barred,
	}
}

func newSettlementView(s *auction.Settlement) settlementView {
	view := settlementView{
		Lot:      newLotView(s.Lot),
		Price:    amount(s.Price),
		Bond:     amount(s.Bond),
		Payment:  amount(s.Payment),
		Fee:      amount(s.Fee),
		Proceeds: amount(s.Proceeds),
		Residual: amount(s.Residual),
		Rewarded: make([]string, len(s.Rewarded)),
	}
	for i, addr := range s.Rewarded {
		view.Rewarded[i] = types.HexAddress(addr)
	}
	return view
}

func newDomainView(d *registry.Domain) domainView {
	view := domainView{TokenID: amount(d.TokenID), Name: d.Name, Owner: types.HexAddress(d.Owner)}
	if d.Approved != ([20]byte{}) {
		view.Approved = types.HexAddress(d.Approved)
	}
	return view
}
