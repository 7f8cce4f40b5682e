package routes

import (
	"math/big"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"domaauction/core/types"
	"domaauction/native/auction"
)

type createLotRequest struct {
	Assets     []string `json:"assets"`
	StartPrice string   `json:"startPrice"`
	FloorPrice string   `json:"floorPrice"`
	StartTime  int64    `json:"startTime"`
	Duration   int64    `json:"duration"`
}

type paymentRequest struct {
	Payment string `json:"payment"`
}

type bondRequest struct {
	Amount string `json:"amount"`
}

type refundView struct {
	LotID    uint64 `json:"lotId"`
	Bidder   string `json:"bidder"`
	Refunded string `json:"refunded"`
}

func (h *handlers) createLot(w http.ResponseWriter, r *http.Request) {
	seller, err := requireCaller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req createLotRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	assets := make([]*big.Int, 0, len(req.Assets))
	for _, raw := range req.Assets {
		tokenID, err := parseDecimal("assets", raw)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		assets = append(assets, tokenID)
	}
	startPrice, err := parseDecimal("startPrice", req.StartPrice)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	floorPrice, err := parseDecimal("floorPrice", req.FloorPrice)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_, finish := h.ops.Start(r.Context(), "createLot", attribute.Int("assets", len(assets)))
	lot, err := h.node.CreateLot(seller, assets, startPrice, floorPrice, req.StartTime, req.Duration)
	finish(err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newLotView(lot))
}

func (h *handlers) getLot(w http.ResponseWriter, r *http.Request) {
	id, err := lotIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	lot, err := h.node.Lot(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newLotView(lot))
}

func (h *handlers) currentPrice(w http.ResponseWriter, r *http.Request) {
	id, err := lotIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	price, err := h.node.CurrentPrice(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, priceView{LotID: id, Price: amount(price), At: h.node.Now()})
}

func (h *handlers) activateLot(w http.ResponseWriter, r *http.Request) {
	id, caller, ok := h.lotAndCaller(w, r)
	if !ok {
		return
	}
	_, finish := h.ops.Start(r.Context(), "activateLot", attribute.Int64("lot", int64(id)))
	lot, err := h.node.ActivateLot(id, caller)
	finish(err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newLotView(lot))
}

func (h *handlers) cancelLot(w http.ResponseWriter, r *http.Request) {
	id, caller, ok := h.lotAndCaller(w, r)
	if !ok {
		return
	}
	_, finish := h.ops.Start(r.Context(), "cancelLot", attribute.Int64("lot", int64(id)))
	err := h.node.CancelLot(id, caller)
	finish(err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondLot(w, r, id)
}

// expireLot is permissionless.
func (h *handlers) expireLot(w http.ResponseWriter, r *http.Request) {
	id, err := lotIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_, finish := h.ops.Start(r.Context(), "expireLot", attribute.Int64("lot", int64(id)))
	err = h.node.ExpireLot(id)
	finish(err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondLot(w, r, id)
}

func (h *handlers) depositBond(w http.ResponseWriter, r *http.Request) {
	id, bidder, ok := h.lotAndCaller(w, r)
	if !ok {
		return
	}
	var req bondRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	value, err := parseDecimal("amount", req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_, finish := h.ops.Start(r.Context(), "depositBond", attribute.Int64("lot", int64(id)))
	bond, err := h.node.DepositBond(id, bidder, value)
	finish(err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBondView(bond))
}

func (h *handlers) refundBond(w http.ResponseWriter, r *http.Request) {
	id, bidder, ok := h.lotAndCaller(w, r)
	if !ok {
		return
	}
	_, finish := h.ops.Start(r.Context(), "refundBond", attribute.Int64("lot", int64(id)))
	refunded, err := h.node.RefundBond(id, bidder)
	finish(err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refundView{LotID: id, Bidder: types.HexAddress(bidder), Refunded: amount(refunded)})
}

func (h *handlers) getBond(w http.ResponseWriter, r *http.Request) {
	id, err := lotIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	bidder, err := addressParam(r, "bidder")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	bond, err := h.node.Bond(id, bidder)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBondView(bond))
}

func (h *handlers) placeHardBid(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, "placeHardBid", h.node.PlaceHardBid)
}

func (h *handlers) completeHardBid(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, "completeHardBid", h.node.CompleteHardBid)
}

func (h *handlers) settle(w http.ResponseWriter, r *http.Request, name string, fn func(uint64, [20]byte, *big.Int) (*auction.Settlement, error)) {
	id, bidder, ok := h.lotAndCaller(w, r)
	if !ok {
		return
	}
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	payment, err := parseDecimal("payment", req.Payment)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_, finish := h.ops.Start(r.Context(), name, attribute.Int64("lot", int64(id)))
	settlement, err := fn(id, bidder, payment)
	finish(err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSettlementView(settlement))
}

func (h *handlers) commitHardBid(w http.ResponseWriter, r *http.Request) {
	id, bidder, ok := h.lotAndCaller(w, r)
	if !ok {
		return
	}
	_, finish := h.ops.Start(r.Context(), "commitHardBid", attribute.Int64("lot", int64(id)))
	commitment, err := h.node.CommitHardBid(id, bidder)
	finish(err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCommitmentView(commitment))
}

func (h *handlers) lotAndCaller(w http.ResponseWriter, r *http.Request) (uint64, [20]byte, bool) {
	caller, err := requireCaller(r)
	if err != nil {
		h.writeError(w, r, err)
		return 0, caller, false
	}
	id, err := lotIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return 0, caller, false
	}
	return id, caller, true
}

func (h *handlers) respondLot(w http.ResponseWriter, r *http.Request, id uint64) {
	lot, err := h.node.Lot(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newLotView(lot))
}
