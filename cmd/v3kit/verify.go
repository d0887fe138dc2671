package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"v3kit/internal/config"
	"v3kit/internal/dex"
	"v3kit/internal/replay"
	"v3kit/internal/storage"
	"v3kit/internal/storage/postgres"
)

func runVerify(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadVerify(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	poolAddr, err := config.ParseAddress(cfg.Pool)
	if err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	if cfg.FromBlock == 0 {
		return fmt.Errorf("from block is required")
	}
	decoder, err := dex.NewV3PoolDecoder(dex.DecoderConfig{Topic0Map: cfg.Topic0Map})
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

	sink, cursor, closeStore, err := verifyStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	verifier := replay.NewVerifier(replay.Config{
		ChainID:    client.ChainID(),
		Pool:       poolAddr,
		FromBlock:  cfg.FromBlock,
		ToBlock:    cfg.ToBlock,
		BatchSize:  cfg.BatchSize,
		TickRadius: cfg.TickRadius,
		CursorName: cfg.CursorName,
		Timestamps: cfg.Timestamps,
	}, client, dex.NewReader(client, logger), decoder, sink, cursor, logger)

	logger.Info("verify start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("pool", poolAddr.Hex()),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Int("tick_radius", cfg.TickRadius),
		zap.String("cursor_name", cfg.CursorName),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)

	summary, err := verifier.Run(ctx)
	if err != nil {
		return err
	}
	if err := writeJSON(os.Stdout, summary); err != nil {
		return err
	}
	if summary.Mismatched > 0 {
		return fmt.Errorf("%d of %d swaps did not replay", summary.Mismatched, summary.Swaps)
	}
	return nil
}

// verifyStores uses Postgres for results and cursor when a DSN is set, and
// the JSONL file plus cursor file otherwise.
func verifyStores(ctx context.Context, cfg config.VerifyConfig) (replay.Sink, replay.CursorStore, func(), error) {
	if cfg.PGDSN == "" {
		return storage.NewJsonlStorage(cfg.Out), replay.NewFileCursorStore(cfg.Cursor), func() {}, nil
	}
	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, nil, err
	}
	return store, store, store.Close, nil
}
