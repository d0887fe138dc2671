package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "v3kit",
		Short:        "Concentrated-liquidity pool toolkit",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("rpc", "", "RPC URL")
	root.PersistentFlags().Uint64("chain-id", 1, "chain id expected from the RPC")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Snapshot pool state and initialized ticks",
		RunE:  runPool,
	}

	poolCmd.Flags().StringSlice("pool", nil, "pool addresses (comma-separated)")
	poolCmd.Flags().StringSlice("pair", nil, "token pair used to derive the pool address")
	poolCmd.Flags().Int("fee", 0, "fee tier in hundredths of a bip, used with --pair")
	poolCmd.Flags().Uint64("block", 0, "block to read at, 0 means latest")
	poolCmd.Flags().Int("tick-radius", 2, "bitmap words loaded on each side of the current tick, negative skips ticks")
	poolCmd.Flags().String("out", "./data/snapshots.jsonl", "output JSONL path")
	poolCmd.Flags().String("pg-dsn", "", "Postgres DSN")

	root.AddCommand(poolCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a trade along a route and encode the router call",
		RunE:  runQuote,
	}

	quoteCmd.Flags().StringSlice("pool", nil, "route pools in hop order (comma-separated)")
	quoteCmd.Flags().String("token-in", "", "input token address")
	quoteCmd.Flags().String("token-out", "", "output token address")
	quoteCmd.Flags().String("amount", "", "amount in token units, input for exact_input and output for exact_output")
	quoteCmd.Flags().String("trade-type", "exact_input", "exact_input or exact_output")
	quoteCmd.Flags().Int("tick-radius", 2, "bitmap words loaded on each side of the current tick")
	quoteCmd.Flags().Bool("native-in", false, "pay the input in the native currency")
	quoteCmd.Flags().Bool("native-out", false, "unwrap the output to the native currency")
	quoteCmd.Flags().Int("cache-size", 128, "quote cache capacity")
	addTxFlags(quoteCmd)

	root.AddCommand(quoteCmd)

	positionCmd := &cobra.Command{
		Use:   "position",
		Short: "Size a liquidity position and encode the position manager call",
		RunE:  runPosition,
	}

	positionCmd.Flags().String("pool", "", "pool address")
	positionCmd.Flags().String("action", "mint", "mint or decrease")
	positionCmd.Flags().Int("tick-lower", 0, "lower tick")
	positionCmd.Flags().Int("tick-upper", 0, "upper tick")
	positionCmd.Flags().String("liquidity", "", "raw position liquidity")
	positionCmd.Flags().String("amount0", "", "token0 amount in token units")
	positionCmd.Flags().String("amount1", "", "token1 amount in token units")
	positionCmd.Flags().String("token-id", "", "position NFT id, for decrease")
	positionCmd.Flags().String("share", "100%", "share of liquidity to remove, for decrease")
	positionCmd.Flags().Bool("create-pool", false, "initialize the pool in the same call")
	addTxFlags(positionCmd)

	root.AddCommand(positionCmd)

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay historical swaps through the simulator",
		RunE:  runVerify,
	}

	verifyCmd.Flags().String("pool", "", "pool address")
	verifyCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	verifyCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	verifyCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	verifyCmd.Flags().Int("tick-radius", 4, "bitmap words loaded on each side of the starting tick")
	verifyCmd.Flags().String("out", "./data/replay.jsonl", "output JSONL path")
	verifyCmd.Flags().String("pg-dsn", "", "Postgres DSN, replaces the JSONL output and cursor file")
	verifyCmd.Flags().String("cursor", "./data/replay_cursor.json", "cursor file path")
	verifyCmd.Flags().String("cursor-name", "", "cursor key, empty disables resuming")
	verifyCmd.Flags().Bool("timestamps", false, "attach block timestamps to results")
	verifyCmd.Flags().String("topic0-map", "", "extra topic0->event mappings (comma-separated key=value)")

	root.AddCommand(verifyCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addTxFlags(cmd *cobra.Command) {
	cmd.Flags().String("slippage", "0.5%", "slippage tolerance")
	cmd.Flags().String("recipient", "", "recipient address, calldata is skipped when empty")
	cmd.Flags().Duration("deadline", 20*time.Minute, "transaction deadline from now")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
