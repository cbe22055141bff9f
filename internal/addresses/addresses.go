// Package addresses holds the per-chain contract deployments the client talks to.
package addresses

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"liquidityDesk/internal/model"
)

// Permit2 is deployed at the same address on every supported chain.
var Permit2 = common.HexToAddress("0x000000000022D473030F116dDEE9F6B43aC78BA3")

// Contract names a deployed contract role.
type Contract string

const (
	PoolManager     Contract = "POOL_MANAGER"
	PositionManager Contract = "POSITION_MANAGER"
	StateView       Contract = "STATE_VIEW"
	Permit2Contract Contract = "PERMIT2"
	UniversalRouter Contract = "UNIVERSAL_ROUTER"
	Faucet          Contract = "FAUCET"
)

// Deployment is the set of contracts on one chain.
type Deployment struct {
	ChainID         uint64
	Name            string
	PoolManager     common.Address
	PositionManager common.Address
	StateView       common.Address
	Permit2         common.Address
	UniversalRouter common.Address
	Faucet          common.Address
	Explorer        string
}

// Address returns the deployment address for role. A missing contract is an unsupported-chain error.
func (d Deployment) Address(role Contract) (common.Address, error) {
	var addr common.Address
	switch role {
	case PoolManager:
		addr = d.PoolManager
	case PositionManager:
		addr = d.PositionManager
	case StateView:
		addr = d.StateView
	case Permit2Contract:
		addr = d.Permit2
	case UniversalRouter:
		addr = d.UniversalRouter
	case Faucet:
		addr = d.Faucet
	default:
		return common.Address{}, fmt.Errorf("unknown contract %q", role)
	}
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s not deployed on chain %d", model.ErrUnsupportedChain, role, d.ChainID)
	}
	return addr, nil
}

// ExplorerTxURL links a transaction on the chain's block explorer, or returns "" when none is known.
func (d Deployment) ExplorerTxURL(txHash common.Hash) string {
	if d.Explorer == "" {
		return ""
	}
	return strings.TrimRight(d.Explorer, "/") + "/tx/" + txHash.Hex()
}

var builtin = []Deployment{
	{
		ChainID:         1,
		Name:            "mainnet",
		PoolManager:     common.HexToAddress("0x000000000004444c5dc75cB358380D2e3dE08A90"),
		PositionManager: common.HexToAddress("0xbD216513d74C8cf14cf4747E6AaA6420FF64ee9e"),
		StateView:       common.HexToAddress("0x7fFE42C4a5DEeA5b0feC41C94C136Cf115597227"),
		Permit2:         Permit2,
		UniversalRouter: common.HexToAddress("0x66a9893cC07D91D95644AEDD05D03f95e1dBA8Af"),
		Explorer:        "https://etherscan.io",
	},
	{
		ChainID:         10,
		Name:            "optimism",
		PoolManager:     common.HexToAddress("0x9a13F98Cb987694C9F086b1F5eB990EeA8264Ec3"),
		PositionManager: common.HexToAddress("0x3C3Ea4B57a46241e54610e5f022E5c45859A1017"),
		StateView:       common.HexToAddress("0xc18a3169788f4D6B6548B23d84647f42238684BB"),
		Permit2:         Permit2,
		UniversalRouter: common.HexToAddress("0x851116D9223fabED8E56C0E6b8Ad0c31d98B3507"),
		Explorer:        "https://optimistic.etherscan.io",
	},
	{
		ChainID:         8453,
		Name:            "base",
		PoolManager:     common.HexToAddress("0x498581fF718922c3f8e6A244956aF099B2652b2b"),
		PositionManager: common.HexToAddress("0x7C5f5A4bBd8fD63184577525326123B519429bDc"),
		StateView:       common.HexToAddress("0xA3c0c9b65baD0b08107Aa264b0f3dB444b867A71"),
		Permit2:         Permit2,
		UniversalRouter: common.HexToAddress("0x6fF5693b99212Da76ad316178A184AB56D299b43"),
		Explorer:        "https://basescan.org",
	},
	{
		ChainID:         42161,
		Name:            "arbitrum",
		PoolManager:     common.HexToAddress("0x360E68faCcca8cA495c1B759Fd9EEe466db9FB32"),
		PositionManager: common.HexToAddress("0xd88F38F930b7952f2DB2432Cb002E7abbF3dD869"),
		StateView:       common.HexToAddress("0x76Fd297e2D437cd7f76d50F01AfE6160f86e9990"),
		Permit2:         Permit2,
		UniversalRouter: common.HexToAddress("0xA51afAFe0263b40EdaEf0Df8781eA9aa03E381a3"),
		Explorer:        "https://arbiscan.io",
	},
}

// Book resolves deployments by chain id.
type Book struct {
	mu      sync.RWMutex
	byChain map[uint64]Deployment
}

// NewBook returns a book seeded with the built-in deployments.
func NewBook() *Book {
	b := &Book{byChain: make(map[uint64]Deployment, len(builtin))}
	for _, d := range builtin {
		b.byChain[d.ChainID] = d
	}
	return b
}

// Lookup returns the deployment for chainID.
func (b *Book) Lookup(chainID uint64) (Deployment, error) {
	b.mu.RLock()
	d, ok := b.byChain[chainID]
	b.mu.RUnlock()
	if !ok {
		return Deployment{}, fmt.Errorf("%w: chain id %d", model.ErrUnsupportedChain, chainID)
	}
	return d, nil
}

// Chains returns the known chain ids in ascending order.
func (b *Book) Chains() []uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]uint64, 0, len(b.byChain))
	for id := range b.byChain {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Set adds or replaces a deployment.
func (b *Book) Set(d Deployment) {
	b.mu.Lock()
	b.byChain[d.ChainID] = d
	b.mu.Unlock()
}

type overrideFile struct {
	Chains []chainOverride `yaml:"chains"`
}

type chainOverride struct {
	ChainID         uint64 `yaml:"chain_id"`
	Name            string `yaml:"name"`
	PoolManager     string `yaml:"pool_manager"`
	PositionManager string `yaml:"position_manager"`
	StateView       string `yaml:"state_view"`
	Permit2         string `yaml:"permit2"`
	UniversalRouter string `yaml:"universal_router"`
	Faucet          string `yaml:"faucet"`
	Explorer        string `yaml:"explorer"`
}

// LoadFile merges deployments from a YAML file into the book. Fields left blank keep the
// built-in value for a known chain.
func (b *Book) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return b.Load(data)
}

// Load merges deployments from YAML bytes.
func (b *Book) Load(data []byte) error {
	var file overrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse deployments: %w", err)
	}
	for _, o := range file.Chains {
		if o.ChainID == 0 {
			return fmt.Errorf("deployment entry missing chain_id")
		}
		d, err := b.Lookup(o.ChainID)
		if err != nil {
			d = Deployment{ChainID: o.ChainID, Permit2: Permit2}
		}
		if err := o.apply(&d); err != nil {
			return fmt.Errorf("chain %d: %w", o.ChainID, err)
		}
		b.Set(d)
	}
	return nil
}

func (o chainOverride) apply(d *Deployment) error {
	if o.Name != "" {
		d.Name = o.Name
	}
	if o.Explorer != "" {
		d.Explorer = o.Explorer
	}
	fields := []struct {
		name  string
		value string
		dst   *common.Address
	}{
		{"pool_manager", o.PoolManager, &d.PoolManager},
		{"position_manager", o.PositionManager, &d.PositionManager},
		{"state_view", o.StateView, &d.StateView},
		{"permit2", o.Permit2, &d.Permit2},
		{"universal_router", o.UniversalRouter, &d.UniversalRouter},
		{"faucet", o.Faucet, &d.Faucet},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if !common.IsHexAddress(f.value) {
			return fmt.Errorf("%s: invalid address %q", f.name, f.value)
		}
		*f.dst = common.HexToAddress(f.value)
	}
	return nil
}
