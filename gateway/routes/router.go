package routes

import (
	"log/slog"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"

	"domaauction/core"
	"domaauction/core/events"
	"domaauction/core/types"
	"domaauction/gateway/middleware"
	"domaauction/native/auction"
	"domaauction/native/registry"
	obsotel "domaauction/observability/otel"
)

// AuctionHouse is the node surface served over HTTP.
type AuctionHouse interface {
	ModuleAddress() [20]byte
	Params() auction.Params
	Now() int64

	CreateLot(seller [20]byte, assets []*big.Int, startPrice, floorPrice *big.Int, startTime, duration int64) (*auction.Lot, error)
	ActivateLot(lotID uint64, caller [20]byte) (*auction.Lot, error)
	CancelLot(lotID uint64, caller [20]byte) error
	ExpireLot(lotID uint64) error
	DepositBond(lotID uint64, bidder [20]byte, value *big.Int) (*auction.BondEntry, error)
	RefundBond(lotID uint64, bidder [20]byte) (*big.Int, error)
	PlaceHardBid(lotID uint64, bidder [20]byte, payment *big.Int) (*auction.Settlement, error)
	CommitHardBid(lotID uint64, bidder [20]byte) (*auction.Commitment, error)
	CompleteHardBid(lotID uint64, bidder [20]byte, payment *big.Int) (*auction.Settlement, error)

	Lot(lotID uint64) (*auction.Lot, error)
	CurrentPrice(lotID uint64) (*big.Int, error)
	Bond(lotID uint64, bidder [20]byte) (*auction.BondEntry, error)
	BondBalance(bidder [20]byte) (*big.Int, error)
	Account(addr [20]byte) (*types.Account, error)

	MintDomain(caller, to [20]byte, tokenID *big.Int, name string) (*registry.Domain, error)
	ApproveDomain(caller, spender [20]byte, tokenID *big.Int) error
	SetApprovalForAll(caller, operator [20]byte, approved bool) error
	Domain(tokenID *big.Int) (*registry.Domain, error)
	ResolveDomain(name string) (*registry.Domain, error)
	LoyaltyTokens(owner [20]byte) ([]*big.Int, error)
	LoyaltyAuthority() ([20]byte, error)
}

var _ AuctionHouse = (*core.Node)(nil)

type Config struct {
	Node          AuctionHouse
	Stream        *events.Broadcaster
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	Operations    *obsotel.Operations
	CORS          middleware.CORSConfig
	Logger        *slog.Logger
}

type handlers struct {
	node   AuctionHouse
	stream *events.Broadcaster
	ops    *obsotel.Operations
	logger *slog.Logger
}

func New(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{node: cfg.Node, stream: cfg.Stream, ops: cfg.Operations, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Observability != nil {
		r.Handle("/metrics", cfg.Observability.MetricsHandler())
	}

	group := func(name string, mount func(chi.Router)) func(chi.Router) {
		return func(sr chi.Router) {
			if cfg.Observability != nil {
				sr.Use(cfg.Observability.Middleware(name))
			}
			if cfg.Authenticator != nil {
				sr.Use(cfg.Authenticator.Middleware)
			}
			if cfg.RateLimiter != nil {
				sr.Use(cfg.RateLimiter.Middleware(name))
			}
			mount(sr)
		}
	}

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/info", h.info)
		v1.Route("/lots", group("lots", h.mountLots))
		v1.Route("/bonds", group("bonds", func(sr chi.Router) {
			sr.Get("/{address}", h.bondBalance)
		}))
		v1.Route("/accounts", group("accounts", func(sr chi.Router) {
			sr.Get("/{address}", h.account)
		}))
		v1.Route("/domains", group("domains", h.mountDomains))
		v1.Route("/loyalty", group("loyalty", func(sr chi.Router) {
			sr.Get("/", h.loyaltyAuthority)
			sr.Get("/{address}", h.loyaltyTokens)
		}))
		if h.stream != nil {
			v1.Get("/events/stream", h.streamEvents)
		}
	})
	return r
}

func (h *handlers) mountLots(r chi.Router) {
	r.Post("/", h.createLot)
	r.Route("/{id}", func(lr chi.Router) {
		lr.Get("/", h.getLot)
		lr.Get("/price", h.currentPrice)
		lr.Post("/activate", h.activateLot)
		lr.Post("/cancel", h.cancelLot)
		lr.Post("/expire", h.expireLot)
		lr.Post("/bonds", h.depositBond)
		lr.Post("/bonds/refund", h.refundBond)
		lr.Get("/bonds/{bidder}", h.getBond)
		lr.Post("/bids", h.placeHardBid)
		lr.Post("/commitments", h.commitHardBid)
		lr.Post("/commitments/complete", h.completeHardBid)
	})
}

func (h *handlers) mountDomains(r chi.Router) {
	r.Post("/", h.mintDomain)
	r.Get("/", h.resolveDomain)
	r.Post("/approve-all", h.approveAll)
	r.Get("/{tokenId}", h.getDomain)
	r.Post("/{tokenId}/approve", h.approveDomain)
}

func (h *handlers) info(w http.ResponseWriter, r *http.Request) {
	params := h.node.Params()
	writeJSON(w, http.StatusOK, infoView{
		ModuleAddress:      types.HexAddress(h.node.ModuleAddress()),
		Now:                h.node.Now(),
		BondBps:            params.BondBps,
		GraceWindow:        params.GraceWindow,
		ProtocolFeeBps:     params.ProtocolFeeBps,
		FeeTreasury:        types.HexAddress(params.FeeTreasury),
		RewardParticipants: params.RewardParticipants,
		AutoRefundOnSettle: params.AutoRefundOnSettle,
		MaxBatchSize:       params.MaxBatchSize,
		MinDuration:        params.MinDuration,
		MaxDuration:        params.MaxDuration,
	})
}
