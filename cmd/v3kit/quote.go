package main

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"v3kit/internal/calldata"
	"v3kit/internal/config"
	"v3kit/internal/dex"
	"v3kit/internal/quote"
	"v3kit/internal/sdk"
	"v3kit/internal/v3"
)

type quoteOutput struct {
	Block          uint64   `json:"block"`
	Path           []string `json:"path"`
	TradeType      string   `json:"trade_type"`
	Input          string   `json:"input"`
	Output         string   `json:"output"`
	MinimumOut     string   `json:"minimum_out"`
	MaximumIn      string   `json:"maximum_in"`
	ExecutionPrice string   `json:"execution_price"`
	PriceImpact    string   `json:"price_impact"`
	Fingerprint    string   `json:"fingerprint"`
	Approve        *txJSON  `json:"approve,omitempty"`
	Swap           *txJSON  `json:"swap,omitempty"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
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
	addresses, err := config.ParseAddresses(cfg.Pools)
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		return fmt.Errorf("route pool list is required")
	}
	tokenIn, err := config.ParseAddress(cfg.TokenIn)
	if err != nil {
		return fmt.Errorf("token-in: %w", err)
	}
	tokenOut, err := config.ParseAddress(cfg.TokenOut)
	if err != nil {
		return fmt.Errorf("token-out: %w", err)
	}
	tradeType, err := v3.ParseTradeType(cfg.TradeType)
	if err != nil {
		return err
	}
	slippage, err := sdk.ParsePercent(cfg.Slippage)
	if err != nil {
		return fmt.Errorf("slippage: %w", err)
	}
	if cfg.NativeIn && tokenIn != info.WrappedNative.Address {
		return fmt.Errorf("native-in needs token-in %s", info.WrappedNative.Address.Hex())
	}
	if cfg.NativeOut && tokenOut != info.WrappedNative.Address {
		return fmt.Errorf("native-out needs token-out %s", info.WrappedNative.Address.Hex())
	}

	ctx, stop := signalContext()
	defer stop()

	client, err := dial(ctx, cfg.Common, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	block, err := client.LatestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("latest block: %w", err)
	}
	reader := dex.NewReader(client, logger)
	pools, err := loadPools(ctx, reader, client.ChainID(), addresses, cfg.TickRadius, new(big.Int).SetUint64(block))
	if err != nil {
		return err
	}

	input, err := poolCurrency(pools[0], tokenIn)
	if err != nil {
		return fmt.Errorf("token-in: %w", err)
	}
	output, err := poolCurrency(pools[len(pools)-1], tokenOut)
	if err != nil {
		return fmt.Errorf("token-out: %w", err)
	}
	route, err := v3.NewRoute(pools, input, output)
	if err != nil {
		return err
	}

	fixed := input
	if tradeType == v3.ExactOutput {
		fixed = output
	}
	raw, err := sdk.ParseUnits(cfg.Amount, fixed.Decimals)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	amount, err := sdk.FromRawAmount(fixed, raw)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}

	quoter := quote.NewQuoter(quote.NewCache(cfg.CacheSize), logger)
	q, _, err := quoter.Quote(ctx, quote.Request{Route: route, Amount: amount, TradeType: tradeType, Tolerance: slippage})
	if err != nil {
		return err
	}

	out, err := describeQuote(q, block)
	if err != nil {
		return err
	}
	if cfg.Recipient != "" {
		if err := attachSwap(&out, q, info, cfg); err != nil {
			return err
		}
	}

	logger.Info("quote",
		zap.Uint64("block", block),
		zap.String("input", out.Input),
		zap.String("output", out.Output),
		zap.String("price_impact", out.PriceImpact),
	)
	return writeJSON(os.Stdout, out)
}

// poolCurrency returns the pool token with address addr.
func poolCurrency(pool *v3.Pool, addr common.Address) (sdk.Currency, error) {
	switch addr {
	case pool.Token0().Address:
		return pool.Token0(), nil
	case pool.Token1().Address:
		return pool.Token1(), nil
	default:
		return sdk.Currency{}, fmt.Errorf("%s not in pool %s: %w", addr.Hex(), pool, sdk.ErrInvalidRoute)
	}
}

func describeQuote(q quote.Quote, block uint64) (quoteOutput, error) {
	price, err := q.ExecutionPrice.ToSignificant(8, sdk.RoundHalfUp)
	if err != nil {
		return quoteOutput{}, fmt.Errorf("execution price: %w", err)
	}
	impact, err := q.PriceImpact.ToFixed(2, sdk.RoundHalfUp)
	if err != nil {
		return quoteOutput{}, fmt.Errorf("price impact: %w", err)
	}
	path := q.Trade.Route().Path()
	symbols := make([]string, 0, len(path))
	for _, c := range path {
		symbols = append(symbols, c.Symbol)
	}
	return quoteOutput{
		Block:          block,
		Path:           symbols,
		TradeType:      q.Trade.TradeType().String(),
		Input:          q.Trade.InputAmount().ToExact(),
		Output:         q.Trade.OutputAmount().ToExact(),
		MinimumOut:     q.MinimumOut.ToExact(),
		MaximumIn:      q.MaximumIn.ToExact(),
		ExecutionPrice: price,
		PriceImpact:    impact + "%",
		Fingerprint:    q.Fingerprint,
	}, nil
}

// attachSwap encodes the router call, plus an allowance when the input is an ERC20.
func attachSwap(out *quoteOutput, q quote.Quote, info config.ChainInfo, cfg config.QuoteConfig) error {
	recipient, err := config.ParseAddress(cfg.Recipient)
	if err != nil {
		return fmt.Errorf("recipient: %w", err)
	}
	slippage, err := sdk.ParsePercent(cfg.Slippage)
	if err != nil {
		return fmt.Errorf("slippage: %w", err)
	}
	params, err := calldata.Encode(calldata.SwapRequest{
		Trade:     q.Trade,
		Recipient: recipient,
		Deadline:  deadlineAt(time.Now(), cfg.Deadline),
		Slippage:  slippage,
		NativeIn:  cfg.NativeIn,
		NativeOut: cfg.NativeOut,
	})
	if err != nil {
		return err
	}
	swap, err := newTx(info, params, common.Address{})
	if err != nil {
		return err
	}
	out.Swap = &swap

	if cfg.NativeIn {
		return nil
	}
	tokenIn := q.Trade.Route().Input().Address
	approveParams, err := calldata.Encode(calldata.ApproveRequest{
		Token:   tokenIn,
		Spender: info.SwapRouter,
		Amount:  q.MaximumIn.Quotient(),
	})
	if err != nil {
		return err
	}
	approve, err := newTx(info, approveParams, tokenIn)
	if err != nil {
		return err
	}
	out.Approve = &approve
	return nil
}
