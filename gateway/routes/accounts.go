package routes

import (
	"math/big"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"

	"domaauction/core/types"
)

type mintDomainRequest struct {
	TokenID string `json:"tokenId"`
	Name    string `json:"name"`
	Owner   string `json:"owner"`
}

type approveRequest struct {
	Spender string `json:"spender"`
}

type approveAllRequest struct {
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

type approvalView struct {
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
	TokenID  string `json:"tokenId,omitempty"`
	Approved bool   `json:"approved"`
}

func (h *handlers) bondBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := addressParam(r, "address")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	balance, err := h.node.BondBalance(addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceView{Address: types.HexAddress(addr), Balance: amount(balance)})
}

func (h *handlers) account(w http.ResponseWriter, r *http.Request) {
	addr, err := addressParam(r, "address")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	account, err := h.node.Account(addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceView{Address: types.HexAddress(addr), Balance: amount(account.Balance), Nonce: account.Nonce})
}

func (h *handlers) mintDomain(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req mintDomainRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	tokenID, err := parseDecimal("tokenId", req.TokenID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	owner := caller
	if strings.TrimSpace(req.Owner) != "" {
		if owner, err = parseAddress("owner", req.Owner); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	_, finish := h.ops.Start(r.Context(), "mintDomain", attribute.String("name", req.Name))
	domain, err := h.node.MintDomain(caller, owner, tokenID, req.Name)
	finish(err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newDomainView(domain))
}

func (h *handlers) getDomain(w http.ResponseWriter, r *http.Request) {
	tokenID, err := parseDecimal("tokenId", chi.URLParam(r, "tokenId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	domain, err := h.node.Domain(tokenID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDomainView(domain))
}

// resolveDomain looks a domain up by its ?name= query parameter.
func (h *handlers) resolveDomain(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		h.writeError(w, r, badRequest("name query parameter required"))
		return
	}
	domain, err := h.node.ResolveDomain(name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDomainView(domain))
}

func (h *handlers) approveDomain(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	tokenID, err := parseDecimal("tokenId", chi.URLParam(r, "tokenId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req approveRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	spender, err := h.spenderOrModule(req.Spender)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.node.ApproveDomain(caller, spender, tokenID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, approvalView{
		Owner:    types.HexAddress(caller),
		Operator: types.HexAddress(spender),
		TokenID:  tokenID.String(),
		Approved: true,
	})
}

func (h *handlers) approveAll(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req approveAllRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	operator, err := h.spenderOrModule(req.Operator)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.node.SetApprovalForAll(caller, operator, req.Approved); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, approvalView{
		Owner:    types.HexAddress(caller),
		Operator: types.HexAddress(operator),
		Approved: req.Approved,
	})
}

// spenderOrModule defaults an empty operator to the auction module, the
// address sellers approve before activating a lot.
func (h *handlers) spenderOrModule(raw string) ([20]byte, error) {
	if strings.TrimSpace(raw) == "" {
		return h.node.ModuleAddress(), nil
	}
	return parseAddress("operator", raw)
}

func (h *handlers) loyaltyTokens(w http.ResponseWriter, r *http.Request) {
	addr, err := addressParam(r, "address")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	tokens, err := h.node.LoyaltyTokens(addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loyaltyView{Address: types.HexAddress(addr), Tokens: tokenStrings(tokens)})
}

func (h *handlers) loyaltyAuthority(w http.ResponseWriter, r *http.Request) {
	authority, err := h.node.LoyaltyAuthority()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"authority": types.HexAddress(authority)})
}

func tokenStrings(tokens []*big.Int) []string {
	out := make([]string, len(tokens))
	for i, token := range tokens {
		out[i] = token.String()
	}
	return out
}
