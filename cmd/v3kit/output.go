package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"v3kit/internal/calldata"
	"v3kit/internal/chain"
	"v3kit/internal/config"
	"v3kit/internal/dex"
	"v3kit/internal/model"
	"v3kit/internal/v3"
)

// txJSON is an unsigned transaction body ready for a wallet.
type txJSON struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

func newTx(info config.ChainInfo, params calldata.MethodParameters, token common.Address) (txJSON, error) {
	var to common.Address
	switch params.Target {
	case calldata.ContractSwapRouter:
		to = info.SwapRouter
	case calldata.ContractPositionManager:
		to = info.PositionManager
	case calldata.ContractToken:
		to = token
	default:
		return txJSON{}, fmt.Errorf("no address for %s", params.Target)
	}
	value := params.Value
	if value == nil {
		value = new(big.Int)
	}
	return txJSON{To: to.Hex(), Data: hexutil.Encode(params.Calldata), Value: value.String()}, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// deadlineAt returns now+d as unix seconds.
func deadlineAt(now time.Time, d time.Duration) *big.Int {
	return big.NewInt(now.Add(d).Unix())
}

func dial(ctx context.Context, cfg config.Common, logger *zap.Logger) (*chain.Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	client, err := chain.Dial(ctx, cfg.RPCURL, cfg.ChainID)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	logger.Debug("rpc connected", zap.Uint64("chain_id", client.ChainID()))
	return client, nil
}

// loadSnapshot reads a pool at block (latest when nil), with ticks when
// radius is not negative.
func loadSnapshot(ctx context.Context, reader *dex.Reader, chainID uint64, pool common.Address, radius int, block *big.Int) (model.PoolSnapshot, error) {
	snap, err := reader.FetchPoolSnapshot(ctx, chainID, pool, block)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("snapshot %s: %w", pool.Hex(), err)
	}
	if radius < 0 {
		return snap, nil
	}
	window, err := reader.FetchTicks(ctx, pool, int(snap.TickSpacing), int(snap.Tick), radius, block)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("ticks %s: %w", pool.Hex(), err)
	}
	snap.TickWindow = &window
	return snap, nil
}

// loadPools builds simulator pools read at one block.
func loadPools(ctx context.Context, reader *dex.Reader, chainID uint64, addresses []common.Address, radius int, block *big.Int) ([]*v3.Pool, error) {
	pools := make([]*v3.Pool, 0, len(addresses))
	for _, addr := range addresses {
		snap, err := loadSnapshot(ctx, reader, chainID, addr, radius, block)
		if err != nil {
			return nil, err
		}
		pool, err := dex.PoolFromSnapshot(snap)
		if err != nil {
			return nil, fmt.Errorf("pool %s: %w", addr.Hex(), err)
		}
		pools = append(pools, pool)
	}
	return pools, nil
}
