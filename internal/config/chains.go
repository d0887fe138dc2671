package config

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"v3kit/internal/sdk"
)

// ChainInfo holds the deployment addresses of one V3 fork on one chain.
type ChainInfo struct {
	ID   uint64
	Name string
	// Deployer is the CREATE2 deployer of pools: the factory on Uniswap,
	// the separate pool deployer on PancakeSwap.
	Deployer        common.Address
	InitCodeHash    common.Hash
	PositionManager common.Address
	SwapRouter      common.Address
	WrappedNative   sdk.Currency
	Native          sdk.Currency
}

// ChainTable is an immutable set of chain deployments keyed by chain id.
type ChainTable struct {
	chains map[uint64]ChainInfo
}

// NewChainTable copies infos into a table. Duplicate ids are rejected.
func NewChainTable(infos ...ChainInfo) (ChainTable, error) {
	chains := make(map[uint64]ChainInfo, len(infos))
	for _, info := range infos {
		if info.ID == 0 {
			return ChainTable{}, fmt.Errorf("chain %q: id is required", info.Name)
		}
		if _, ok := chains[info.ID]; ok {
			return ChainTable{}, fmt.Errorf("chain %d configured twice", info.ID)
		}
		chains[info.ID] = info
	}
	return ChainTable{chains: chains}, nil
}

func (t ChainTable) Lookup(id uint64) (ChainInfo, bool) {
	info, ok := t.chains[id]
	return info, ok
}

// IDs returns the configured chain ids in ascending order.
func (t ChainTable) IDs() []uint64 {
	ids := make([]uint64, 0, len(t.chains))
	for id := range t.chains {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// DefaultChainTable covers Uniswap V3 on Ethereum and PancakeSwap V3 on BSC.
func DefaultChainTable() ChainTable {
	table, _ := NewChainTable(
		ChainInfo{
			ID:              1,
			Name:            "ethereum",
			Deployer:        common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984"),
			InitCodeHash:    common.HexToHash("0xe34f199b19b2b4f47f68442619d555527d244f78a3297ea89325f843f87b8b54"),
			PositionManager: common.HexToAddress("0xC36442b4a4522E871399CD717aBDD847Ab11FE88"),
			SwapRouter:      common.HexToAddress("0xE592427A0AEce92De3Edee1F18E0157C05861564"),
			WrappedNative:   sdk.NewToken(1, common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), 18, "WETH", "Wrapped Ether"),
			Native:          sdk.NewNative(1, 18, "ETH", "Ether"),
		},
		ChainInfo{
			ID:              56,
			Name:            "bsc",
			Deployer:        common.HexToAddress("0x41ff9AA7e16B8B1a8a8dc4f0eFacd93D02d071c9"),
			InitCodeHash:    common.HexToHash("0x6ce8eb472fa82df5469c6ab6d485f17c3ad13c8cd7af59b3d4a8026c5ce0f7e2"),
			PositionManager: common.HexToAddress("0x46A15B0b27311cedF172AB29E4f4766fbE7F4364"),
			SwapRouter:      common.HexToAddress("0x1b81D678ffb9C0263b24A97847620C99d213eB14"),
			WrappedNative:   sdk.NewToken(56, common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"), 18, "WBNB", "Wrapped BNB"),
			Native:          sdk.NewNative(56, 18, "BNB", "BNB"),
		},
	)
	return table
}

type chainEntry struct {
	ID              uint64 `mapstructure:"id"`
	Name            string `mapstructure:"name"`
	Deployer        string `mapstructure:"deployer"`
	InitCodeHash    string `mapstructure:"init_code_hash"`
	PositionManager string `mapstructure:"position_manager"`
	SwapRouter      string `mapstructure:"swap_router"`
	WrappedNative   string `mapstructure:"wrapped_native"`
	NativeSymbol    string `mapstructure:"native_symbol"`
}

// loadChainTable reads the chains list, falling back to DefaultChainTable
// when the key is absent.
func loadChainTable(v *viper.Viper) (ChainTable, error) {
	if !v.IsSet("chains") {
		return DefaultChainTable(), nil
	}
	var entries []chainEntry
	if err := v.UnmarshalKey("chains", &entries); err != nil {
		return ChainTable{}, fmt.Errorf("parse chains: %w", err)
	}

	infos := make([]ChainInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.info()
		if err != nil {
			return ChainTable{}, err
		}
		infos = append(infos, info)
	}
	return NewChainTable(infos...)
}

func (e chainEntry) info() (ChainInfo, error) {
	deployer, err := ParseAddress(e.Deployer)
	if err != nil {
		return ChainInfo{}, fmt.Errorf("chain %d deployer: %w", e.ID, err)
	}
	initCode, err := parseTopic0(e.InitCodeHash)
	if err != nil {
		return ChainInfo{}, fmt.Errorf("chain %d init code hash: %w", e.ID, err)
	}
	npm, err := ParseAddress(e.PositionManager)
	if err != nil {
		return ChainInfo{}, fmt.Errorf("chain %d position manager: %w", e.ID, err)
	}
	router, err := ParseAddress(e.SwapRouter)
	if err != nil {
		return ChainInfo{}, fmt.Errorf("chain %d swap router: %w", e.ID, err)
	}
	wrapped, err := ParseAddress(e.WrappedNative)
	if err != nil {
		return ChainInfo{}, fmt.Errorf("chain %d wrapped native: %w", e.ID, err)
	}
	symbol := e.NativeSymbol
	if symbol == "" {
		symbol = "ETH"
	}
	return ChainInfo{
		ID:              e.ID,
		Name:            e.Name,
		Deployer:        deployer,
		InitCodeHash:    initCode,
		PositionManager: npm,
		SwapRouter:      router,
		WrappedNative:   sdk.NewToken(e.ID, wrapped, 18, "W"+symbol, "Wrapped "+symbol),
		Native:          sdk.NewNative(e.ID, 18, symbol, symbol),
	}, nil
}
