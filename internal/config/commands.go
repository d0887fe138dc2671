package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// PoolConfig holds configuration for the pool snapshot command.
type PoolConfig struct {
	Common
	Pools []string
	// Pair and Fee locate a pool by CREATE2 when Pools is empty.
	Pair       []string
	Fee        int
	Block      uint64
	TickRadius int
	Out        string
	PGDSN      string
}

// LoadPool merges config file, environment variables, and flags into PoolConfig.
func LoadPool(cfgFile string, flags *pflag.FlagSet) (PoolConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"tick-radius": 2,
		"out":         "./data/snapshots.jsonl",
	})
	if err != nil {
		return PoolConfig{}, err
	}
	common, err := loadCommon(v)
	if err != nil {
		return PoolConfig{}, err
	}
	return PoolConfig{
		Common:     common,
		Pools:      getStringSlice(v, "pool"),
		Pair:       getStringSlice(v, "pair"),
		Fee:        v.GetInt("fee"),
		Block:      v.GetUint64("block"),
		TickRadius: v.GetInt("tick-radius"),
		Out:        v.GetString("out"),
		PGDSN:      v.GetString("pg-dsn"),
	}, nil
}

// TxConfig holds the transaction envelope shared by calldata-producing commands.
type TxConfig struct {
	Slippage  string
	Recipient string
	Deadline  time.Duration
}

func loadTx(get func(string) string, deadline time.Duration) TxConfig {
	return TxConfig{
		Slippage:  get("slippage"),
		Recipient: get("recipient"),
		Deadline:  deadline,
	}
}

// QuoteConfig holds configuration for the quote command.
type QuoteConfig struct {
	Common
	TxConfig
	// Pools is the route in hop order.
	Pools      []string
	TokenIn    string
	TokenOut   string
	Amount     string
	TradeType  string
	TickRadius int
	NativeIn   bool
	NativeOut  bool
	CacheSize  int
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"trade-type":  "exact_input",
		"slippage":    "0.5%",
		"deadline":    20 * time.Minute,
		"tick-radius": 2,
		"cache-size":  128,
	})
	if err != nil {
		return QuoteConfig{}, err
	}
	common, err := loadCommon(v)
	if err != nil {
		return QuoteConfig{}, err
	}
	cfg := QuoteConfig{
		Common:     common,
		TxConfig:   loadTx(v.GetString, v.GetDuration("deadline")),
		Pools:      getStringSlice(v, "pool"),
		TokenIn:    v.GetString("token-in"),
		TokenOut:   v.GetString("token-out"),
		Amount:     v.GetString("amount"),
		TradeType:  v.GetString("trade-type"),
		TickRadius: v.GetInt("tick-radius"),
		NativeIn:   v.GetBool("native-in"),
		NativeOut:  v.GetBool("native-out"),
		CacheSize:  v.GetInt("cache-size"),
	}
	if cfg.NativeIn && cfg.NativeOut {
		return QuoteConfig{}, fmt.Errorf("native-in and native-out are exclusive")
	}
	return cfg, nil
}

// Position actions.
const (
	ActionMint     = "mint"
	ActionDecrease = "decrease"
)

// PositionConfig holds configuration for the position command.
type PositionConfig struct {
	Common
	TxConfig
	Pool      string
	Action    string
	TickLower int
	TickUpper int
	// Liquidity wins over Amount0/Amount1 when set.
	Liquidity  string
	Amount0    string
	Amount1    string
	TokenID    string
	Share      string
	CreatePool bool
}

// LoadPosition merges config file, environment variables, and flags into PositionConfig.
func LoadPosition(cfgFile string, flags *pflag.FlagSet) (PositionConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"action":   ActionMint,
		"slippage": "0.5%",
		"deadline": 20 * time.Minute,
		"share":    "100%",
	})
	if err != nil {
		return PositionConfig{}, err
	}
	common, err := loadCommon(v)
	if err != nil {
		return PositionConfig{}, err
	}
	cfg := PositionConfig{
		Common:     common,
		TxConfig:   loadTx(v.GetString, v.GetDuration("deadline")),
		Pool:       v.GetString("pool"),
		Action:     v.GetString("action"),
		TickLower:  v.GetInt("tick-lower"),
		TickUpper:  v.GetInt("tick-upper"),
		Liquidity:  v.GetString("liquidity"),
		Amount0:    v.GetString("amount0"),
		Amount1:    v.GetString("amount1"),
		TokenID:    v.GetString("token-id"),
		Share:      v.GetString("share"),
		CreatePool: v.GetBool("create-pool"),
	}
	switch cfg.Action {
	case ActionMint, ActionDecrease:
	default:
		return PositionConfig{}, fmt.Errorf("unknown position action %q", cfg.Action)
	}
	return cfg, nil
}

// VerifyConfig holds configuration for the verify command.
type VerifyConfig struct {
	Common
	Pool       string
	FromBlock  uint64
	ToBlock    uint64
	BatchSize  uint64
	TickRadius int
	Out        string
	PGDSN      string
	Cursor     string
	CursorName string
	Timestamps bool
	Topic0Map  map[string]string
}

// LoadVerify merges config file, environment variables, and flags into VerifyConfig.
func LoadVerify(cfgFile string, flags *pflag.FlagSet) (VerifyConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"batch-size":  uint64(2000),
		"tick-radius": 4,
		"out":         "./data/replay.jsonl",
		"cursor":      "./data/replay_cursor.json",
	})
	if err != nil {
		return VerifyConfig{}, err
	}
	common, err := loadCommon(v)
	if err != nil {
		return VerifyConfig{}, err
	}
	topics, err := getTopic0Map(v, "topic0-map")
	if err != nil {
		return VerifyConfig{}, err
	}
	return VerifyConfig{
		Common:     common,
		Pool:       v.GetString("pool"),
		FromBlock:  v.GetUint64("from"),
		ToBlock:    v.GetUint64("to"),
		BatchSize:  v.GetUint64("batch-size"),
		TickRadius: v.GetInt("tick-radius"),
		Out:        v.GetString("out"),
		PGDSN:      v.GetString("pg-dsn"),
		Cursor:     v.GetString("cursor"),
		CursorName: v.GetString("cursor-name"),
		Timestamps: v.GetBool("timestamps"),
		Topic0Map:  topics,
	}, nil
}
