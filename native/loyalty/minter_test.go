package loyalty_test

import (
	"errors"
	"testing"

	"domaauction/core/events"
	"domaauction/core/state"
	"domaauction/native/loyalty"
	"domaauction/storage"
)

type capturingEmitter struct {
	events []events.Event
}

func (c *capturingEmitter) Emit(e events.Event) {
	c.events = append(c.events, e)
}

func newTestMinter(t *testing.T) (*loyalty.Minter, *capturingEmitter) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	minter := loyalty.NewMinter(state.NewManager(db))
	emitter := &capturingEmitter{}
	minter.SetEmitter(emitter)
	minter.SetNowFunc(func() int64 { return 1_700_000_000 })
	return minter, emitter
}

func TestMinterRequiresDeployment(t *testing.T) {
	minter, _ := newTestMinter(t)
	var deployer, player [20]byte
	deployer[0] = 1
	player[0] = 2

	if _, err := minter.Mint(deployer, player); !errors.Is(err, loyalty.ErrNotDeployed) {
		t.Fatalf("expected ErrNotDeployed, got %v", err)
	}
	if err := minter.Deploy(deployer); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if err := minter.Deploy(player); !errors.Is(err, loyalty.ErrAlreadyDeployed) {
		t.Fatalf("expected ErrAlreadyDeployed, got %v", err)
	}
	authority, err := minter.Authority()
	if err != nil || authority != deployer {
		t.Fatalf("unexpected authority %x err %v", authority, err)
	}
}

func TestMintChecksAuthority(t *testing.T) {
	minter, emitter := newTestMinter(t)
	var deployer, module, player [20]byte
	deployer[0] = 1
	module[0] = 9
	player[0] = 2
	if err := minter.Deploy(deployer); err != nil {
		t.Fatalf("deploy: %v", err)
	}

	first, err := minter.Mint(deployer, player)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if first.Uint64() != 1 {
		t.Fatalf("expected first token id 1, got %s", first)
	}

	if err := minter.TransferOwnership(player, module); !errors.Is(err, loyalty.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := minter.TransferOwnership(deployer, module); err != nil {
		t.Fatalf("transfer ownership: %v", err)
	}
	if _, err := minter.Mint(deployer, player); !errors.Is(err, loyalty.ErrUnauthorized) {
		t.Fatalf("previous authority must lose mint rights, got %v", err)
	}
	second, err := minter.Mint(module, player)
	if err != nil {
		t.Fatalf("mint by new authority: %v", err)
	}
	if second.Uint64() != 2 {
		t.Fatalf("expected token id 2, got %s", second)
	}
	if _, err := minter.Mint(module, [20]byte{}); !errors.Is(err, loyalty.ErrInvalidRecipient) {
		t.Fatalf("expected ErrInvalidRecipient, got %v", err)
	}

	owner, err := minter.OwnerOf(second)
	if err != nil || owner != player {
		t.Fatalf("unexpected owner %x err %v", owner, err)
	}
	balance, _ := minter.BalanceOf(player)
	if balance != 2 {
		t.Fatalf("expected balance 2, got %d", balance)
	}
	supply, _ := minter.TotalSupply()
	if supply != 2 {
		t.Fatalf("expected supply 2, got %d", supply)
	}
	var types []string
	for _, evt := range emitter.events {
		types = append(types, evt.EventType())
	}
	want := []string{
		loyalty.EventTypeOwnershipTransferred,
		loyalty.EventTypeMinted,
		loyalty.EventTypeOwnershipTransferred,
		loyalty.EventTypeMinted,
	}
	if len(types) != len(want) {
		t.Fatalf("unexpected events %v", types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], types[i])
		}
	}
}
