package replay

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"v3kit/internal/model"
)

// LogSource is the chain access the verifier needs for log scans.
type LogSource interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// StateReader loads the pool state the replay starts from.
type StateReader interface {
	FetchPoolSnapshot(ctx context.Context, chainID uint64, pool common.Address, block *big.Int) (model.PoolSnapshot, error)
	FetchTicks(ctx context.Context, pool common.Address, tickSpacing, tickCurrent, radius int, block *big.Int) (model.TickWindow, error)
}

// Decoder turns pool logs into events.
type Decoder interface {
	Topics() []common.Hash
	Decode(chainID uint64, log types.Log) (model.PoolEvent, error)
}

// Sink receives replay results once per batch.
type Sink interface {
	PutReplayResults(ctx context.Context, results []model.ReplayResult) error
}

// Config holds the settings of one replay run.
type Config struct {
	ChainID   uint64
	Pool      common.Address
	FromBlock uint64
	// ToBlock 0 means latest.
	ToBlock   uint64
	BatchSize uint64
	// TickRadius is the number of bitmap words loaded on each side of the
	// starting tick. Negative disables tick loading, so swaps that leave the
	// starting tick-spacing interval fail to replay.
	TickRadius int
	// CursorName keys the resume cursor; empty disables resuming.
	CursorName string
	// Timestamps adds block timestamps to results.
	Timestamps bool
}

// Summary counts the outcomes of a run.
type Summary struct {
	FromBlock  uint64 `json:"from_block"`
	ToBlock    uint64 `json:"to_block"`
	Swaps      int    `json:"swaps"`
	Matched    int    `json:"matched"`
	Mismatched int    `json:"mismatched"`
	Skipped    int    `json:"skipped"`
	Positions  int    `json:"positions"`
}

// Verifier replays a pool's Swap logs through the simulator, starting from
// the on-chain state just before the range.
type Verifier struct {
	cfg     Config
	logs    LogSource
	state   StateReader
	decoder Decoder
	sink    Sink
	cursor  CursorStore
	logger  *zap.Logger
	seen    map[string]struct{}
}

// NewVerifier builds a Verifier. sink and cursor may be nil.
func NewVerifier(cfg Config, logs LogSource, state StateReader, decoder Decoder, sink Sink, cursor CursorStore, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		cfg:     cfg,
		logs:    logs,
		state:   state,
		decoder: decoder,
		sink:    sink,
		cursor:  cursor,
		logger:  logger,
		seen:    make(map[string]struct{}),
	}
}

// Run replays every batch in the configured range.
func (v *Verifier) Run(ctx context.Context) (Summary, error) {
	if v.logs == nil || v.state == nil || v.decoder == nil {
		return Summary{}, fmt.Errorf("verifier is missing a dependency")
	}
	if v.cfg.BatchSize == 0 {
		return Summary{}, fmt.Errorf("batch size must be greater than zero")
	}

	from, to, err := v.bounds(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{FromBlock: from, ToBlock: to}
	if from > to {
		v.logger.Info("nothing to replay", zap.Uint64("from", from), zap.Uint64("to", to))
		return summary, nil
	}

	state, err := v.loadState(ctx, from)
	if err != nil {
		return summary, err
	}

	ranges, err := SplitRange(from, to, v.cfg.BatchSize)
	if err != nil {
		return summary, err
	}
	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		results, err := v.replayRange(ctx, state, blockRange, &summary)
		if err != nil {
			return summary, err
		}
		if v.sink != nil {
			if err := v.sink.PutReplayResults(ctx, results); err != nil {
				return summary, fmt.Errorf("store replay results: %w", err)
			}
		}
		if v.cursor != nil && v.cfg.CursorName != "" {
			if err := v.cursor.SaveCursor(ctx, v.cfg.CursorName, blockRange.To); err != nil {
				return summary, err
			}
		}
		v.logger.Info("batch replayed",
			zap.Uint64("from", blockRange.From),
			zap.Uint64("to", blockRange.To),
			zap.Int("swaps", len(results)),
			zap.Int("matched", summary.Matched),
			zap.Int("mismatched", summary.Mismatched),
		)
	}
	return summary, nil
}

func (v *Verifier) bounds(ctx context.Context) (uint64, uint64, error) {
	from, to := v.cfg.FromBlock, v.cfg.ToBlock
	if to == 0 {
		latest, err := v.logs.LatestBlockNumber(ctx)
		if err != nil {
			return 0, 0, fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}
	if v.cursor != nil && v.cfg.CursorName != "" {
		last, ok, err := v.cursor.LoadCursor(ctx, v.cfg.CursorName)
		if err != nil {
			return 0, 0, fmt.Errorf("load cursor: %w", err)
		}
		if ok && last >= from {
			from = last + 1
			v.logger.Info("resume from cursor", zap.Uint64("last_processed", last), zap.Uint64("from", from))
		}
	}
	if from == 0 {
		return 0, 0, fmt.Errorf("replay must start after block 0")
	}
	return from, to, nil
}

func (v *Verifier) loadState(ctx context.Context, from uint64) (*poolState, error) {
	block := new(big.Int).SetUint64(from - 1)
	snap, err := v.state.FetchPoolSnapshot(ctx, v.cfg.ChainID, v.cfg.Pool, block)
	if err != nil {
		return nil, fmt.Errorf("snapshot at %d: %w", from-1, err)
	}
	if v.cfg.TickRadius >= 0 {
		window, err := v.state.FetchTicks(ctx, v.cfg.Pool, int(snap.TickSpacing), int(snap.Tick), v.cfg.TickRadius, block)
		if err != nil {
			return nil, fmt.Errorf("ticks at %d: %w", from-1, err)
		}
		snap.TickWindow = &window
	}
	v.logger.Info("replay state loaded",
		zap.String("pool", snap.Address),
		zap.Uint64("block", from-1),
		zap.Int32("tick", snap.Tick),
		zap.String("liquidity", snap.Liquidity),
	)
	return newPoolState(snap)
}

func (v *Verifier) replayRange(ctx context.Context, state *poolState, blockRange BlockRange, summary *Summary) ([]model.ReplayResult, error) {
	logs, err := v.logs.FilterLogs(ctx, blockRange.From, blockRange.To, []common.Address{v.cfg.Pool}, v.decoder.Topics())
	if err != nil {
		return nil, fmt.Errorf("filter logs %d..%d: %w", blockRange.From, blockRange.To, err)
	}
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})

	results := make([]model.ReplayResult, 0)
	for _, log := range logs {
		if log.Removed || v.isDuplicate(log) {
			continue
		}
		event, err := v.decoder.Decode(v.cfg.ChainID, log)
		if err != nil {
			return nil, fmt.Errorf("decode log %s:%d: %w", log.TxHash.Hex(), log.Index, err)
		}

		switch {
		case event.Mint != nil:
			summary.Positions++
			if err := v.applyPosition(state, event.Mint.TickLower, event.Mint.TickUpper, event.Mint.Amount, false); err != nil {
				return nil, fmt.Errorf("mint %s:%d: %w", event.TxHash, event.LogIndex, err)
			}
		case event.Burn != nil:
			summary.Positions++
			if err := v.applyPosition(state, event.Burn.TickLower, event.Burn.TickUpper, event.Burn.Amount, true); err != nil {
				return nil, fmt.Errorf("burn %s:%d: %w", event.TxHash, event.LogIndex, err)
			}
		case event.Swap != nil:
			result := state.replaySwap(event.Swap)
			result.ChainID = event.ChainID
			result.Pool = event.Address
			result.BlockNumber = event.BlockNumber
			result.TxHash = event.TxHash
			result.LogIndex = event.LogIndex
			if v.cfg.Timestamps {
				ts, err := v.logs.BlockTimestamp(ctx, event.BlockNumber)
				if err != nil {
					return nil, fmt.Errorf("block timestamp %d: %w", event.BlockNumber, err)
				}
				result.Timestamp = ts
			}
			v.count(result, summary)
			if err := state.applySwap(event.Swap); err != nil {
				return nil, fmt.Errorf("swap %s:%d: %w", event.TxHash, event.LogIndex, err)
			}
			results = append(results, result)
		}
	}
	return results, nil
}

func (v *Verifier) applyPosition(state *poolState, lower, upper int32, amount string, burn bool) error {
	delta, err := parseBig("amount", amount)
	if err != nil {
		return err
	}
	if burn {
		delta.Neg(delta)
	}
	return state.applyPosition(int(lower), int(upper), delta)
}

func (v *Verifier) count(result model.ReplayResult, summary *Summary) {
	summary.Swaps++
	switch {
	case result.Skipped:
		summary.Skipped++
	case result.Match:
		summary.Matched++
	default:
		summary.Mismatched++
		v.logger.Warn("swap replay mismatch",
			zap.String("tx", result.TxHash),
			zap.Uint("log_index", result.LogIndex),
			zap.String("trade_type", result.TradeType),
			zap.String("chain_amount", result.ChainAmount),
			zap.String("sim_amount", result.SimAmount),
			zap.String("error", result.Error),
		)
	}
}

func (v *Verifier) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := v.seen[id]; ok {
		return true
	}
	v.seen[id] = struct{}{}
	return false
}
