package genesis

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"domaauction/core/types"
	"domaauction/native/registry"
)

// GenesisSpec describes the initial deployment: the loyalty deployer, the
// domain registrar, funded accounts and pre-registered domains. Amounts are
// ether denominated decimals.
type GenesisSpec struct {
	DeployerAddr  string            `json:"deployer" yaml:"deployer"`
	RegistrarAddr string            `json:"registrar" yaml:"registrar"`
	Alloc         map[string]string `json:"alloc" yaml:"alloc"`
	DomainSpecs   []DomainSpec      `json:"domains" yaml:"domains"`

	deployer  [20]byte
	registrar [20]byte
	accounts  []Account
	domains   []Domain
}

type DomainSpec struct {
	TokenID string `json:"tokenId" yaml:"tokenId"`
	Name    string `json:"name" yaml:"name"`
	Owner   string `json:"owner" yaml:"owner"`
}

// Account is a validated genesis allocation.
type Account struct {
	Address [20]byte
	Balance *big.Int
}

// Domain is a validated genesis domain.
type Domain struct {
	TokenID *big.Int
	Name    string
	Owner   [20]byte
}

// LoadGenesisSpec reads a JSON or YAML (by extension) genesis file.
func LoadGenesisSpec(path string) (*GenesisSpec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	spec, err := ParseGenesisSpec(raw, format)
	if err != nil {
		return nil, fmt.Errorf("genesis spec %q: %w", path, err)
	}
	return spec, nil
}

// ParseGenesisSpec decodes and validates a genesis document. Unknown fields
// are rejected.
func ParseGenesisSpec(raw []byte, format string) (*GenesisSpec, error) {
	var spec GenesisSpec
	switch format {
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	case "json":
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported genesis format %q", format)
	}
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("invalid: %w", err)
	}
	return &spec, nil
}

func (s *GenesisSpec) Deployer() [20]byte  { return s.deployer }
func (s *GenesisSpec) Registrar() [20]byte { return s.registrar }

// Accounts returns the allocations ordered by address.
func (s *GenesisSpec) Accounts() []Account {
	out := make([]Account, len(s.accounts))
	for i, acc := range s.accounts {
		out[i] = Account{Address: acc.Address, Balance: new(big.Int).Set(acc.Balance)}
	}
	return out
}

// Domains returns the genesis domains in declaration order.
func (s *GenesisSpec) Domains() []Domain {
	out := make([]Domain, len(s.domains))
	for i, d := range s.domains {
		out[i] = Domain{TokenID: new(big.Int).Set(d.TokenID), Name: d.Name, Owner: d.Owner}
	}
	return out
}

func (s *GenesisSpec) validate() error {
	var err error
	if s.deployer, err = types.ParseAddress(s.DeployerAddr); err != nil {
		return fmt.Errorf("deployer: %w", err)
	}
	if s.registrar, err = types.ParseAddress(s.RegistrarAddr); err != nil {
		return fmt.Errorf("registrar: %w", err)
	}

	s.accounts = s.accounts[:0]
	seen := make(map[[20]byte]struct{}, len(s.Alloc))
	for addrStr, amountStr := range s.Alloc {
		addr, err := types.ParseAddress(addrStr)
		if err != nil {
			return fmt.Errorf("alloc %q: %w", addrStr, err)
		}
		if _, dup := seen[addr]; dup {
			return fmt.Errorf("alloc %q: duplicate address", addrStr)
		}
		seen[addr] = struct{}{}
		amount, err := types.ParseEther(amountStr)
		if err != nil {
			return fmt.Errorf("alloc %q: %w", addrStr, err)
		}
		s.accounts = append(s.accounts, Account{Address: addr, Balance: amount})
	}
	sort.Slice(s.accounts, func(i, j int) bool {
		return hex.EncodeToString(s.accounts[i].Address[:]) < hex.EncodeToString(s.accounts[j].Address[:])
	})

	s.domains = s.domains[:0]
	tokens := make(map[string]struct{}, len(s.DomainSpecs))
	names := make(map[string]struct{}, len(s.DomainSpecs))
	for i, d := range s.DomainSpecs {
		tokenID, ok := new(big.Int).SetString(strings.TrimSpace(d.TokenID), 10)
		if !ok || tokenID.Sign() < 0 {
			return fmt.Errorf("domain[%d]: invalid token id %q", i, d.TokenID)
		}
		if _, dup := tokens[tokenID.String()]; dup {
			return fmt.Errorf("domain[%d]: duplicate token id %s", i, tokenID)
		}
		tokens[tokenID.String()] = struct{}{}
		name, err := registry.CanonicalName(d.Name)
		if err != nil {
			return fmt.Errorf("domain[%d]: %w", i, err)
		}
		if _, dup := names[name]; dup {
			return fmt.Errorf("domain[%d]: duplicate name %s", i, name)
		}
		names[name] = struct{}{}
		owner, err := types.ParseAddress(d.Owner)
		if err != nil {
			return fmt.Errorf("domain[%d] owner: %w", i, err)
		}
		s.domains = append(s.domains, Domain{TokenID: tokenID, Name: name, Owner: owner})
	}
	return nil
}
