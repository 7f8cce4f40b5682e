package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"domaauction/core"
	"domaauction/core/types"
	"domaauction/gateway/middleware"
	"domaauction/native/auction"
	nativecommon "domaauction/native/common"
	"domaauction/native/loyalty"
	"domaauction/native/registry"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

var (
	errCallerRequired = errors.New("caller identity required")
	errBadRequest     = errors.New("bad request")
)

var errorStatuses = []struct {
	err    error
	status int
	code   string
}{
	{nativecommon.ErrModulePaused, http.StatusServiceUnavailable, "module_paused"},
	{core.ErrNotDeployed, http.StatusServiceUnavailable, "not_deployed"},
	{errCallerRequired, http.StatusUnauthorized, "caller_required"},
	{errBadRequest, http.StatusBadRequest, "bad_request"},

	{auction.ErrLotNotFound, http.StatusNotFound, "lot_not_found"},
	{registry.ErrTokenNotFound, http.StatusNotFound, "domain_not_found"},
	{loyalty.ErrTokenNotFound, http.StatusNotFound, "token_not_found"},

	{auction.ErrNotSeller, http.StatusForbidden, "not_seller"},
	{registry.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{registry.ErrNotOwner, http.StatusForbidden, "not_owner"},
	{registry.ErrNotApproved, http.StatusForbidden, "not_approved"},
	{loyalty.ErrUnauthorized, http.StatusForbidden, "unauthorized"},

	{auction.ErrInsufficientFunds, http.StatusPaymentRequired, "insufficient_funds"},

	{auction.ErrInsufficientBond, http.StatusUnprocessableEntity, "insufficient_bond"},
	{auction.ErrBidBelowClearingPrice, http.StatusUnprocessableEntity, "bid_below_clearing_price"},
	{auction.ErrInvalidLot, http.StatusUnprocessableEntity, "invalid_lot"},
	{auction.ErrInvalidAmount, http.StatusUnprocessableEntity, "invalid_amount"},
	{registry.ErrInvalidName, http.StatusUnprocessableEntity, "invalid_name"},
	{registry.ErrInvalidToken, http.StatusUnprocessableEntity, "invalid_token"},
	{registry.ErrInvalidAddress, http.StatusUnprocessableEntity, "invalid_address"},
	{registry.ErrSelfApproval, http.StatusUnprocessableEntity, "self_approval"},

	{auction.ErrAlreadySettled, http.StatusConflict, "already_settled"},
	{auction.ErrLotNotActive, http.StatusConflict, "lot_not_active"},
	{auction.ErrLotExpired, http.StatusConflict, "lot_expired"},
	{auction.ErrLotStillActive, http.StatusConflict, "lot_still_active"},
	{auction.ErrLotNotAcceptingBonds, http.StatusConflict, "lot_not_accepting_bonds"},
	{auction.ErrNothingToRefund, http.StatusConflict, "nothing_to_refund"},
	{auction.ErrHardBidPending, http.StatusConflict, "hard_bid_pending"},
	{auction.ErrNoCommitment, http.StatusConflict, "no_commitment"},
	{auction.ErrCommitmentsDisabled, http.StatusConflict, "commitments_disabled"},
	{auction.ErrBidderBarred, http.StatusConflict, "bidder_barred"},
	{auction.ErrSellerCannotBid, http.StatusConflict, "seller_cannot_bid"},
	{registry.ErrTokenExists, http.StatusConflict, "token_exists"},
	{registry.ErrNameTaken, http.StatusConflict, "name_taken"},
}

func statusFor(err error) (int, string) {
	for _, entry := range errorStatuses {
		if errors.Is(err, entry.err) {
			return entry.status, entry.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err,
			"request_id", middleware.RequestIDFromContext(r.Context()))
		message = "internal error"
	}
	writeJSON(w, status, errorBody{Error: message, Code: code, RequestID: middleware.RequestIDFromContext(r.Context())})
}

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body required")
		}
		return badRequest("decode body: %v", err)
	}
	return nil
}

func requireCaller(r *http.Request) ([20]byte, error) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		return caller, errCallerRequired
	}
	return caller, nil
}

func lotIDParam(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid lot id %q", raw)
	}
	return id, nil
}

func addressParam(r *http.Request, name string) ([20]byte, error) {
	raw := chi.URLParam(r, name)
	addr, err := types.ParseAddress(raw)
	if err != nil {
		return addr, badRequest("invalid address %q: %v", raw, err)
	}
	return addr, nil
}

func parseAddress(field, raw string) ([20]byte, error) {
	addr, err := types.ParseAddress(raw)
	if err != nil {
		return addr, badRequest("%s: %v", field, err)
	}
	return addr, nil
}

// parseDecimal parses a non-negative base-10 integer such as a wei amount or
// token id.
func parseDecimal(field, raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, badRequest("%s required", field)
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || value.Sign() < 0 {
		return nil, badRequest("%s: invalid amount %q", field, raw)
	}
	return value, nil
}
