package main

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"v3kit/internal/calldata"
	"v3kit/internal/config"
	"v3kit/internal/dex"
	"v3kit/internal/sdk"
	"v3kit/internal/v3"
)

type positionOutput struct {
	Pool      string   `json:"pool"`
	Action    string   `json:"action"`
	TickLower int      `json:"tick_lower"`
	TickUpper int      `json:"tick_upper"`
	Liquidity string   `json:"liquidity"`
	Amount0   string   `json:"amount0"`
	Amount1   string   `json:"amount1"`
	Approve   []txJSON `json:"approve,omitempty"`
	Tx        *txJSON  `json:"tx,omitempty"`
}

func runPosition(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPosition(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	info, err := cfg.Chain()
	if err != nil {
		return err
	}
	poolAddr, err := config.ParseAddress(cfg.Pool)
	if err != nil {
		return fmt.Errorf("pool: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()

	client, err := dial(ctx, cfg.Common, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	snap, err := loadSnapshot(ctx, dex.NewReader(client, logger), client.ChainID(), poolAddr, -1, nil)
	if err != nil {
		return err
	}
	pool, err := dex.PoolFromSnapshot(snap)
	if err != nil {
		return err
	}

	position, err := buildPosition(pool, cfg)
	if err != nil {
		return err
	}
	out := positionOutput{
		Pool:      snap.Address,
		Action:    cfg.Action,
		TickLower: position.TickLower(),
		TickUpper: position.TickUpper(),
		Liquidity: position.Liquidity().String(),
		Amount0:   position.Amount0().ToExact(),
		Amount1:   position.Amount1().ToExact(),
	}
	if cfg.Recipient != "" {
		if err := attachPositionTx(&out, position, info, cfg); err != nil {
			return err
		}
	}

	logger.Info("position",
		zap.String("pool", out.Pool),
		zap.String("action", out.Action),
		zap.String("liquidity", out.Liquidity),
	)
	return writeJSON(os.Stdout, out)
}

// buildPosition uses --liquidity when given, otherwise the largest position
// the supplied token amounts can fund.
func buildPosition(pool *v3.Pool, cfg config.PositionConfig) (*v3.Position, error) {
	if cfg.Liquidity != "" {
		liquidity, ok := new(big.Int).SetString(cfg.Liquidity, 10)
		if !ok {
			return nil, fmt.Errorf("liquidity %q: %w", cfg.Liquidity, sdk.ErrParse)
		}
		return v3.NewPosition(pool, cfg.TickLower, cfg.TickUpper, liquidity)
	}
	if cfg.Action == config.ActionDecrease {
		return nil, fmt.Errorf("decrease needs the position liquidity")
	}

	var amount0, amount1 *big.Int
	var err error
	if cfg.Amount0 != "" {
		if amount0, err = sdk.ParseUnits(cfg.Amount0, pool.Token0().Decimals); err != nil {
			return nil, fmt.Errorf("amount0: %w", err)
		}
	}
	if cfg.Amount1 != "" {
		if amount1, err = sdk.ParseUnits(cfg.Amount1, pool.Token1().Decimals); err != nil {
			return nil, fmt.Errorf("amount1: %w", err)
		}
	}
	switch {
	case amount0 != nil && amount1 != nil:
		return v3.PositionFromAmounts(pool, cfg.TickLower, cfg.TickUpper, amount0, amount1, true)
	case amount0 != nil:
		return v3.PositionFromAmount0(pool, cfg.TickLower, cfg.TickUpper, amount0, true)
	case amount1 != nil:
		return v3.PositionFromAmount1(pool, cfg.TickLower, cfg.TickUpper, amount1)
	default:
		return nil, fmt.Errorf("liquidity or an amount is required")
	}
}

func attachPositionTx(out *positionOutput, position *v3.Position, info config.ChainInfo, cfg config.PositionConfig) error {
	recipient, err := config.ParseAddress(cfg.Recipient)
	if err != nil {
		return fmt.Errorf("recipient: %w", err)
	}
	slippage, err := sdk.ParsePercent(cfg.Slippage)
	if err != nil {
		return fmt.Errorf("slippage: %w", err)
	}
	deadline := deadlineAt(time.Now(), cfg.Deadline)

	var req calldata.Request
	switch cfg.Action {
	case config.ActionMint:
		req = calldata.MintRequest{
			Position:   position,
			Recipient:  recipient,
			Deadline:   deadline,
			Slippage:   slippage,
			CreatePool: cfg.CreatePool,
		}
		desired := position.MintAmounts()
		pool := position.Pool()
		for _, allowance := range []struct {
			token  sdk.Currency
			amount *big.Int
		}{
			{pool.Token0(), desired.Amount0},
			{pool.Token1(), desired.Amount1},
		} {
			if allowance.amount.Sign() == 0 {
				continue
			}
			params, err := calldata.Encode(calldata.ApproveRequest{
				Token:   allowance.token.Address,
				Spender: info.PositionManager,
				Amount:  allowance.amount,
			})
			if err != nil {
				return err
			}
			tx, err := newTx(info, params, allowance.token.Address)
			if err != nil {
				return err
			}
			out.Approve = append(out.Approve, tx)
		}
	case config.ActionDecrease:
		tokenID, ok := new(big.Int).SetString(cfg.TokenID, 10)
		if !ok {
			return fmt.Errorf("token id %q: %w", cfg.TokenID, sdk.ErrParse)
		}
		share, err := sdk.ParsePercent(cfg.Share)
		if err != nil {
			return fmt.Errorf("share: %w", err)
		}
		req = calldata.DecreaseLiquidityRequest{
			TokenID:        tokenID,
			Position:       position,
			LiquidityShare: share,
			Recipient:      recipient,
			Deadline:       deadline,
			Slippage:       slippage,
		}
	}

	params, err := calldata.Encode(req)
	if err != nil {
		return err
	}
	tx, err := newTx(info, params, position.Pool().Token0().Address)
	if err != nil {
		return err
	}
	out.Tx = &tx
	return nil
}
