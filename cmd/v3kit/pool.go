package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"v3kit/internal/config"
	"v3kit/internal/dex"
	"v3kit/internal/model"
	"v3kit/internal/sdk"
	"v3kit/internal/storage"
	"v3kit/internal/storage/postgres"
	"v3kit/internal/v3"
)

func runPool(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPool(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	addresses, err := poolAddresses(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	client, err := dial(ctx, cfg.Common, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	block := cfg.Block
	if block == 0 {
		if block, err = client.LatestBlockNumber(ctx); err != nil {
			return fmt.Errorf("latest block: %w", err)
		}
	}

	reader := dex.NewReader(client, logger)
	snapshots := make([]model.PoolSnapshot, 0, len(addresses))
	for _, addr := range addresses {
		snap, err := loadSnapshot(ctx, reader, client.ChainID(), addr, cfg.TickRadius, new(big.Int).SetUint64(block))
		if err != nil {
			return err
		}
		ticks := 0
		if snap.TickWindow != nil {
			ticks = len(snap.TickWindow.Ticks)
		}
		logger.Info("pool snapshot",
			zap.String("pool", snap.Address),
			zap.String("pair", snap.Token0.Symbol+"/"+snap.Token1.Symbol),
			zap.Uint32("fee", snap.Fee),
			zap.Int32("tick", snap.Tick),
			zap.String("liquidity", snap.Liquidity),
			zap.Int("ticks", ticks),
		)
		snapshots = append(snapshots, snap)
	}

	sink, closeSink, err := snapshotSink(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSink()

	if err := sink.PutSnapshots(ctx, snapshots); err != nil {
		return fmt.Errorf("store snapshots: %w", err)
	}
	logger.Info("snapshots stored", zap.Int("count", len(snapshots)), zap.Uint64("block", block))
	return nil
}

// poolAddresses returns --pool, or the address derived from --pair and --fee.
func poolAddresses(cfg config.PoolConfig) ([]common.Address, error) {
	addresses, err := config.ParseAddresses(cfg.Pools)
	if err != nil {
		return nil, err
	}
	if len(addresses) > 0 {
		return addresses, nil
	}
	if len(cfg.Pair) == 0 {
		return nil, fmt.Errorf("pool or pair is required")
	}
	if len(cfg.Pair) != 2 {
		return nil, fmt.Errorf("pair needs two tokens, got %d", len(cfg.Pair))
	}

	info, err := cfg.Chain()
	if err != nil {
		return nil, err
	}
	tokens, err := config.ParseAddresses(cfg.Pair)
	if err != nil {
		return nil, err
	}
	if len(tokens) != 2 {
		return nil, fmt.Errorf("pair needs two tokens, got %d", len(tokens))
	}
	if _, ok := v3.TickSpacingForFee(cfg.Fee); !ok {
		return nil, fmt.Errorf("unknown fee tier %d", cfg.Fee)
	}
	addr, err := v3.ComputePoolAddress(
		info.Deployer,
		sdk.NewToken(info.ID, tokens[0], 18, "", ""),
		sdk.NewToken(info.ID, tokens[1], 18, "", ""),
		cfg.Fee,
		info.InitCodeHash,
	)
	if err != nil {
		return nil, err
	}
	return []common.Address{addr}, nil
}

// snapshotSink prefers Postgres when a DSN is configured.
func snapshotSink(ctx context.Context, cfg config.PoolConfig) (storage.Storage, func(), error) {
	if cfg.PGDSN == "" {
		return storage.NewJsonlStorage(cfg.Out), func() {}, nil
	}
	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, store.Close, nil
}
