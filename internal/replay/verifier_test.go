package replay

import (
	"context"
	"fmt"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"v3kit/internal/model"
	"v3kit/internal/sdk"
	"v3kit/internal/v3"
	"v3kit/internal/v3math"
)

var (
	testPool = common.HexToAddress("0x60594a405d53811d3BC4766596EFD80fd545A270")
	dai      = sdk.NewToken(1, common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), 18, "DAI", "Dai Stablecoin")
	weth     = sdk.NewToken(1, common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), 18, "WETH", "Wrapped Ether")
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

type fakeLogs struct {
	latest  uint64
	logs    []types.Log
	filters int
}

func (f *fakeLogs) LatestBlockNumber(context.Context) (uint64, error) { return f.latest, nil }

func (f *fakeLogs) BlockTimestamp(_ context.Context, number uint64) (uint64, error) {
	return 1_700_000_000 + number*12, nil
}

func (f *fakeLogs) FilterLogs(_ context.Context, from, to uint64, _ []common.Address, _ []common.Hash) ([]types.Log, error) {
	f.filters++
	var out []types.Log
	for _, log := range f.logs {
		if log.BlockNumber >= from && log.BlockNumber <= to {
			out = append(out, log)
		}
	}
	return out, nil
}

type fakeState struct {
	snap      model.PoolSnapshot
	window    model.TickWindow
	snapBlock uint64
	tickCalls int
}

func (f *fakeState) FetchPoolSnapshot(_ context.Context, _ uint64, _ common.Address, block *big.Int) (model.PoolSnapshot, error) {
	f.snapBlock = block.Uint64()
	return f.snap, nil
}

func (f *fakeState) FetchTicks(context.Context, common.Address, int, int, int, *big.Int) (model.TickWindow, error) {
	f.tickCalls++
	return f.window, nil
}

// fakeDecoder resolves logs by their index.
type fakeDecoder map[uint]model.PoolEvent

func (fakeDecoder) Topics() []common.Hash { return nil }

func (d fakeDecoder) Decode(chainID uint64, log types.Log) (model.PoolEvent, error) {
	event, ok := d[log.Index]
	if !ok {
		return model.PoolEvent{}, fmt.Errorf("no event at %d", log.Index)
	}
	event.ChainID = chainID
	event.BlockNumber = log.BlockNumber
	event.TxHash = log.TxHash.Hex()
	event.LogIndex = log.Index
	event.Address = log.Address.Hex()
	return event, nil
}

type memorySink struct {
	batches [][]model.ReplayResult
}

func (s *memorySink) PutReplayResults(_ context.Context, results []model.ReplayResult) error {
	s.batches = append(s.batches, results)
	return nil
}

func (s *memorySink) all() []model.ReplayResult {
	var out []model.ReplayResult
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

// scenario builds chain history by running the simulator forward: swap,
// mint, swap, tampered swap, burn, exact-output swap.
type scenario struct {
	t       *testing.T
	ticks   map[int]v3.Tick
	pool    *v3.Pool
	logs    []types.Log
	decoder fakeDecoder
}

func newScenario(t *testing.T) *scenario {
	s := &scenario{t: t, ticks: map[int]v3.Tick{}, decoder: fakeDecoder{}}
	s.addTick(-120, e18(10))
	s.addTick(120, new(big.Int).Neg(e18(10)))
	s.pool = s.build(v3math.Q96, 0, e18(10))
	return s
}

func (s *scenario) addTick(index int, net *big.Int) {
	cur, ok := s.ticks[index]
	if !ok {
		cur = v3.Tick{Index: index, LiquidityNet: new(big.Int), LiquidityGross: new(big.Int)}
	}
	s.ticks[index] = v3.Tick{
		Index:          index,
		LiquidityNet:   new(big.Int).Add(cur.LiquidityNet, net),
		LiquidityGross: new(big.Int).Add(cur.LiquidityGross, new(big.Int).Abs(net)),
	}
}

func (s *scenario) removeTick(index int, net *big.Int) {
	cur := s.ticks[index]
	gross := new(big.Int).Sub(cur.LiquidityGross, new(big.Int).Abs(net))
	if gross.Sign() == 0 {
		delete(s.ticks, index)
		return
	}
	s.ticks[index] = v3.Tick{Index: index, LiquidityNet: new(big.Int).Sub(cur.LiquidityNet, net), LiquidityGross: gross}
}

func (s *scenario) build(sqrt *big.Int, tick int, liquidity *big.Int) *v3.Pool {
	s.t.Helper()
	ticks := make([]v3.Tick, 0, len(s.ticks))
	for _, tk := range s.ticks {
		ticks = append(ticks, tk)
	}
	window, err := v3.NewTickWindow(ticks, 60, -15360, 15359)
	if err != nil {
		s.t.Fatalf("tick window: %v", err)
	}
	pool, err := v3.NewPool(v3.PoolParams{TokenA: dai, TokenB: weth, Fee: v3.FeeMedium, SqrtPriceX96: sqrt, Liquidity: liquidity, Tick: tick, Ticks: window})
	if err != nil {
		s.t.Fatalf("pool: %v", err)
	}
	return pool
}

func (s *scenario) emit(block uint64, event model.PoolEvent) {
	index := uint(len(s.logs))
	s.logs = append(s.logs, types.Log{
		Address:     testPool,
		BlockNumber: block,
		TxHash:      common.BigToHash(big.NewInt(int64(index + 1))),
		Index:       index,
	})
	s.decoder[index] = event
}

func (s *scenario) swapIn(block uint64, token sdk.Currency, raw *big.Int, tamper bool) {
	s.t.Helper()
	amount, err := sdk.FromRawAmount(token, raw)
	if err != nil {
		s.t.Fatalf("amount: %v", err)
	}
	out, next, err := s.pool.GetOutputAmount(amount, nil)
	if err != nil {
		s.t.Fatalf("simulate: %v", err)
	}
	paid := new(big.Int).Neg(out.Quotient())
	if tamper {
		paid.Sub(paid, big.NewInt(1))
	}
	s.emitSwap(block, token, raw, paid, next)
}

func (s *scenario) swapOut(block uint64, token sdk.Currency, raw *big.Int) {
	s.t.Helper()
	amount, err := sdk.FromRawAmount(token, raw)
	if err != nil {
		s.t.Fatalf("amount: %v", err)
	}
	in, next, err := s.pool.GetInputAmount(amount, nil)
	if err != nil {
		s.t.Fatalf("simulate: %v", err)
	}
	s.emitSwap(block, in.Currency(), in.Quotient(), new(big.Int).Neg(raw), next)
}

func (s *scenario) emitSwap(block uint64, tokenIn sdk.Currency, in, paid *big.Int, next *v3.Pool) {
	amount0, amount1 := in, paid
	if !tokenIn.Equal(s.pool.Token0()) {
		amount0, amount1 = paid, in
	}
	s.emit(block, model.PoolEvent{EventName: model.EventSwap, Swap: &model.SwapEventData{
		Amount0:      amount0.String(),
		Amount1:      amount1.String(),
		SqrtPriceX96: next.SqrtRatioX96().String(),
		Liquidity:    next.Liquidity().String(),
		Tick:         int32(next.TickCurrent()),
	}})
	s.pool = next
}

func (s *scenario) position(block uint64, lower, upper int, amount *big.Int, burn bool) {
	s.t.Helper()
	liquidity := s.pool.Liquidity()
	active := lower <= s.pool.TickCurrent() && s.pool.TickCurrent() < upper
	if burn {
		s.removeTick(lower, amount)
		s.removeTick(upper, new(big.Int).Neg(amount))
		if active {
			liquidity.Sub(liquidity, amount)
		}
		s.emit(block, model.PoolEvent{EventName: model.EventBurn, Burn: &model.BurnEventData{TickLower: int32(lower), TickUpper: int32(upper), Amount: amount.String()}})
	} else {
		s.addTick(lower, amount)
		s.addTick(upper, new(big.Int).Neg(amount))
		if active {
			liquidity.Add(liquidity, amount)
		}
		s.emit(block, model.PoolEvent{EventName: model.EventMint, Mint: &model.MintEventData{TickLower: int32(lower), TickUpper: int32(upper), Amount: amount.String()}})
	}
	s.pool = s.build(s.pool.SqrtRatioX96(), s.pool.TickCurrent(), liquidity)
}

func startSnapshot() model.PoolSnapshot {
	return model.PoolSnapshot{
		ChainID:      1,
		Address:      testPool.Hex(),
		Token0:       model.TokenMeta{Address: dai.Address.Hex(), Decimals: 18, Symbol: "DAI"},
		Token1:       model.TokenMeta{Address: weth.Address.Hex(), Decimals: 18, Symbol: "WETH"},
		Fee:          3000,
		TickSpacing:  60,
		SqrtPriceX96: v3math.Q96.String(),
		Tick:         0,
		Liquidity:    e18(10).String(),
	}
}

func startWindow() model.TickWindow {
	return model.TickWindow{
		Lower: -15360,
		Upper: 15359,
		Ticks: []model.TickRecord{
			{Index: -120, LiquidityNet: e18(10).String(), LiquidityGross: e18(10).String()},
			{Index: 120, LiquidityNet: new(big.Int).Neg(e18(10)).String(), LiquidityGross: e18(10).String()},
		},
	}
}

func buildHistory(t *testing.T) *scenario {
	s := newScenario(t)
	s.swapIn(101, dai, big.NewInt(1e15), false)
	s.position(102, -60, 60, e18(5), false)
	s.swapIn(103, weth, big.NewInt(2e15), false)
	s.swapIn(106, dai, big.NewInt(5e14), true)
	s.position(107, -60, 60, e18(5), true)
	s.swapOut(108, dai, big.NewInt(7e14))
	return s
}

func TestVerifierReplaysHistory(t *testing.T) {
	history := buildHistory(t)
	logs := &fakeLogs{latest: 110, logs: append(history.logs, history.logs[0])}
	state := &fakeState{snap: startSnapshot(), window: startWindow()}
	sink := &memorySink{}
	cursor := NewFileCursorStore(filepath.Join(t.TempDir(), "cursor.json"))

	cfg := Config{ChainID: 1, Pool: testPool, FromBlock: 101, BatchSize: 5, TickRadius: 0, CursorName: "dai-weth", Timestamps: true}
	verifier := NewVerifier(cfg, logs, state, history.decoder, sink, cursor, nil)

	summary, err := verifier.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if state.snapBlock != 100 || state.tickCalls != 1 {
		t.Fatalf("state loaded at %d with %d tick calls", state.snapBlock, state.tickCalls)
	}
	if summary.Swaps != 4 || summary.Matched != 3 || summary.Mismatched != 1 || summary.Positions != 2 {
		t.Fatalf("summary mismatch: %+v", summary)
	}
	if summary.FromBlock != 101 || summary.ToBlock != 110 || len(sink.batches) != 2 {
		t.Fatalf("range mismatch: %+v with %d batches", summary, len(sink.batches))
	}

	results := sink.all()
	if len(results) != 4 {
		t.Fatalf("results: %d", len(results))
	}
	for i, want := range []bool{true, true, false, true} {
		if results[i].Match != want {
			t.Fatalf("result %d match = %v: %+v", i, results[i].Match, results[i])
		}
	}
	tampered := results[2]
	if tampered.BlockNumber != 106 || tampered.TradeType != v3.ExactInput.String() || tampered.SimAmount == tampered.ChainAmount {
		t.Fatalf("tampered result mismatch: %+v", tampered)
	}
	if results[0].Timestamp != 1_700_000_000+101*12 || results[0].Pool != testPool.Hex() {
		t.Fatalf("envelope mismatch: %+v", results[0])
	}

	last, ok, err := cursor.LoadCursor(context.Background(), "dai-weth")
	if err != nil || !ok || last != 110 {
		t.Fatalf("cursor = %d, %v, %v", last, ok, err)
	}

	again := NewVerifier(cfg, logs, state, history.decoder, sink, cursor, nil)
	filters := logs.filters
	summary, err = again.Run(context.Background())
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if summary.Swaps != 0 || logs.filters != filters {
		t.Fatalf("resumed run replayed again: %+v", summary)
	}
}

func TestVerifierWithoutTicks(t *testing.T) {
	history := buildHistory(t)
	logs := &fakeLogs{latest: 101, logs: history.logs}
	state := &fakeState{snap: startSnapshot()}
	sink := &memorySink{}

	cfg := Config{ChainID: 1, Pool: testPool, FromBlock: 101, ToBlock: 101, BatchSize: 10, TickRadius: -1}
	summary, err := NewVerifier(cfg, logs, state, history.decoder, sink, nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if state.tickCalls != 0 {
		t.Fatalf("ticks loaded with negative radius")
	}
	if summary.Swaps != 1 || summary.Mismatched != 1 {
		t.Fatalf("summary mismatch: %+v", summary)
	}
	if results := sink.all(); results[0].Error == "" {
		t.Fatalf("expected simulator error without ticks: %+v", results[0])
	}
}

func TestVerifierRejectsGenesis(t *testing.T) {
	cfg := Config{ChainID: 1, Pool: testPool, FromBlock: 0, ToBlock: 10, BatchSize: 10}
	_, err := NewVerifier(cfg, &fakeLogs{}, &fakeState{}, fakeDecoder{}, nil, nil, nil).Run(context.Background())
	if err == nil {
		t.Fatalf("expected error for block 0 start")
	}
}

func TestPoolStatePositions(t *testing.T) {
	snap := startSnapshot()
	window := startWindow()
	snap.TickWindow = &window
	state, err := newPoolState(snap)
	if err != nil {
		t.Fatalf("state: %v", err)
	}

	if err := state.applyPosition(60, 180, e18(1)); err != nil {
		t.Fatalf("mint out of range: %v", err)
	}
	if state.liquidity.Cmp(e18(10)) != 0 {
		t.Fatalf("inactive mint changed liquidity: %s", state.liquidity)
	}
	if got := state.ticks[180].gross; got.Cmp(e18(1)) != 0 {
		t.Fatalf("tick 180 gross = %s", got)
	}

	if err := state.applyPosition(-60, 120, e18(1)); err != nil {
		t.Fatalf("mint in range: %v", err)
	}
	if state.liquidity.Cmp(e18(11)) != 0 {
		t.Fatalf("active mint liquidity = %s", state.liquidity)
	}
	if got := state.ticks[120].net; got.Cmp(new(big.Int).Neg(e18(11))) != 0 {
		t.Fatalf("tick 120 net = %s", got)
	}

	if err := state.applyPosition(60, 180, new(big.Int).Neg(e18(1))); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if _, ok := state.ticks[60]; ok {
		t.Fatalf("fully burned tick kept")
	}
	if _, ok := state.ticks[180]; ok {
		t.Fatalf("fully burned tick kept")
	}

	if err := state.applyPosition(-120, 120, new(big.Int).Neg(e18(12))); err == nil {
		t.Fatalf("expected error burning more than active liquidity")
	}
	if err := state.applyPosition(60, 60, e18(1)); err == nil {
		t.Fatalf("expected error for empty range")
	}
	pool, err := state.pool()
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if pool.Liquidity().Cmp(e18(11)) != 0 {
		t.Fatalf("pool liquidity = %s", pool.Liquidity())
	}
}
