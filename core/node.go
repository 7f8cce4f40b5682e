package core

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"domaauction/core/events"
	"domaauction/core/genesis"
	nhbstate "domaauction/core/state"
	"domaauction/core/types"
	"domaauction/native/auction"
	nativecommon "domaauction/native/common"
	"domaauction/native/loyalty"
	"domaauction/native/registry"
	"domaauction/storage"
)

var deploymentKey = []byte("deployment/v1")

// ErrNotDeployed is returned by operations that need the deployment to have
// run first.
var ErrNotDeployed = errors.New("core: deployment has not run")

type deploymentRecord struct {
	Deployer   [20]byte
	Registrar  [20]byte
	Module     [20]byte
	DeployedAt uint64
	Accounts   uint64
	Domains    uint64
}

// DeploymentSummary reports the wiring performed (or found) at start-up.
type DeploymentSummary struct {
	Fresh            bool
	ModuleAddress    [20]byte
	LoyaltyAuthority [20]byte
	Deployer         [20]byte
	Registrar        [20]byte
	DeployedAt       int64
	Accounts         int
	Domains          int
}

// Options configures a Node.
type Options struct {
	Params auction.Params
	Pauses nativecommon.PauseView
	Logger *slog.Logger
	Now    func() int64
}

// Node is the single serialisation point of the auction house. Every mutating
// operation runs against a fresh state overlay that is committed atomically on
// success and discarded on failure; events are released only after commit.
type Node struct {
	db      storage.Database
	stateMu sync.Mutex
	params  auction.Params
	pauses  nativecommon.PauseView
	emitter events.Emitter
	logger  *slog.Logger
	nowFn   func() int64

	registrar [20]byte
	deployed  bool
}

// NewNode wires a node over db. Deploy must be called before operations that
// touch the registry or the loyalty minter.
func NewNode(db storage.Database, opts Options) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	n := &Node{
		db:      db,
		params:  opts.Params,
		pauses:  opts.Pauses,
		emitter: events.NoopEmitter{},
		logger:  logger,
		nowFn:   now,
	}
	record, err := loadDeployment(nhbstate.NewManager(db))
	if err != nil {
		return nil, err
	}
	if record != nil {
		n.registrar = record.Registrar
		n.deployed = true
	}
	return n, nil
}

// SetEmitter configures the downstream emitter receiving committed events.
func (n *Node) SetEmitter(emitter events.Emitter) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	if emitter == nil {
		n.emitter = events.NoopEmitter{}
		return
	}
	n.emitter = emitter
}

// Params returns the auction parameters the node was configured with.
func (n *Node) Params() auction.Params { return n.params }

// ModuleAddress returns the auction escrow and vault address.
func (n *Node) ModuleAddress() [20]byte { return auction.ModuleAddress }

// Now returns the node clock.
func (n *Node) Now() int64 { return n.nowFn() }

type modules struct {
	manager  *nhbstate.Manager
	registry *registry.Registry
	loyalty  *loyalty.Minter
	auction  *auction.Engine
}

func (n *Node) newModules(manager *nhbstate.Manager, emitter events.Emitter) *modules {
	reg := registry.NewRegistry(manager, n.registrar)
	reg.SetEmitter(emitter)
	reg.SetPauses(n.pauses)

	minter := loyalty.NewMinter(manager)
	minter.SetEmitter(emitter)
	minter.SetPauses(n.pauses)
	minter.SetNowFunc(n.nowFn)

	engine := auction.NewEngine()
	engine.SetState(manager)
	engine.SetRegistry(reg)
	engine.SetRewarder(minter)
	engine.SetEmitter(emitter)
	engine.SetPauses(n.pauses)
	engine.SetNowFunc(n.nowFn)
	// Params were validated in NewNode.
	_ = engine.SetParams(n.params)

	return &modules{manager: manager, registry: reg, loyalty: minter, auction: engine}
}

// transact runs fn inside a state transaction. The caller must hold stateMu.
func (n *Node) transact(fn func(m *modules) error) error {
	manager := nhbstate.NewManager(n.db)
	buffer := &events.Buffer{}
	if err := fn(n.newModules(manager, buffer)); err != nil {
		manager.Discard()
		return err
	}
	if err := manager.Commit(); err != nil {
		return err
	}
	buffer.Flush(n.emitter)
	return nil
}

// execute serialises fn with every other operation and commits its writes only
// when it succeeds, after which the buffered events are released in order.
func (n *Node) execute(fn func(m *modules) error) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	if !n.deployed {
		return ErrNotDeployed
	}
	return n.transact(fn)
}

// view runs fn against a throwaway overlay. Nothing fn writes is persisted and
// no event escapes.
func (n *Node) view(fn func(m *modules) error) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	manager := nhbstate.NewManager(n.db)
	defer manager.Discard()
	return fn(n.newModules(manager, events.NoopEmitter{}))
}

func loadDeployment(manager *nhbstate.Manager) (*deploymentRecord, error) {
	record := new(deploymentRecord)
	ok, err := manager.KVGet(deploymentKey, record)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return record, nil
}

// Deployed reports whether the deployment marker is present.
func (n *Node) Deployed() bool {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.deployed
}

// Deploy performs the one-time deployment sequence: the loyalty minter is
// deployed with the deployer as authority, authority is handed to the auction
// module, genesis accounts are funded and genesis domains are minted. On a
// database that was already deployed it only reports the stored summary.
func (n *Node) Deploy(spec *genesis.GenesisSpec) (*DeploymentSummary, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	if n.deployed {
		return n.storedSummary()
	}
	if spec == nil {
		return nil, fmt.Errorf("core: genesis spec required")
	}

	deployer := spec.Deployer()
	n.registrar = spec.Registrar()
	summary := &DeploymentSummary{
		Fresh:            true,
		ModuleAddress:    auction.ModuleAddress,
		LoyaltyAuthority: auction.ModuleAddress,
		Deployer:         deployer,
		Registrar:        n.registrar,
		DeployedAt:       n.nowFn(),
	}
	err := n.transact(func(m *modules) error {
		if err := m.loyalty.Deploy(deployer); err != nil {
			return fmt.Errorf("deploy loyalty minter: %w", err)
		}
		if err := m.loyalty.TransferOwnership(deployer, auction.ModuleAddress); err != nil {
			return fmt.Errorf("hand loyalty authority to auction: %w", err)
		}
		accounts := spec.Accounts()
		for _, acc := range accounts {
			if err := m.manager.Credit(acc.Address[:], acc.Balance); err != nil {
				return fmt.Errorf("fund %s: %w", types.HexAddress(acc.Address), err)
			}
		}
		domains := spec.Domains()
		for _, d := range domains {
			if err := m.registry.Mint(n.registrar, d.Owner, d.TokenID, d.Name); err != nil {
				return fmt.Errorf("mint genesis domain %s: %w", d.Name, err)
			}
		}
		summary.Accounts = len(accounts)
		summary.Domains = len(domains)
		return m.manager.KVPut(deploymentKey, &deploymentRecord{
			Deployer:   deployer,
			Registrar:  n.registrar,
			Module:     auction.ModuleAddress,
			DeployedAt: uint64(summary.DeployedAt),
			Accounts:   uint64(summary.Accounts),
			Domains:    uint64(summary.Domains),
		})
	})
	if err != nil {
		n.registrar = [20]byte{}
		return nil, err
	}
	n.deployed = true
	n.logger.Info("deployment complete",
		slog.String("module", types.HexAddress(summary.ModuleAddress)),
		slog.String("loyalty_authority", types.HexAddress(summary.LoyaltyAuthority)),
		slog.String("registrar", types.HexAddress(summary.Registrar)),
		slog.Int("accounts", summary.Accounts),
		slog.Int("domains", summary.Domains))
	return summary, nil
}

func (n *Node) storedSummary() (*DeploymentSummary, error) {
	manager := nhbstate.NewManager(n.db)
	defer manager.Discard()
	record, err := loadDeployment(manager)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotDeployed
	}
	authority, err := n.newModules(manager, events.NoopEmitter{}).loyalty.Authority()
	if err != nil {
		return nil, err
	}
	return &DeploymentSummary{
		ModuleAddress:    record.Module,
		LoyaltyAuthority: authority,
		Deployer:         record.Deployer,
		Registrar:        record.Registrar,
		DeployedAt:       int64(record.DeployedAt),
		Accounts:         int(record.Accounts),
		Domains:          int(record.Domains),
	}, nil
}
