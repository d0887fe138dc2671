package dex

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"v3kit/internal/v3"
	"v3kit/internal/v3math"
)

type fakeToken struct {
	decimals uint8
	symbol   string
	name     string
	bytes32  bool
}

type fakePool struct {
	meta      PoolMeta
	sqrtPrice *big.Int
	tick      int64
	liquidity *big.Int
	bitmap    map[int16]*big.Int
	ticks     map[int64][2]*big.Int
}

// fakeChain answers eth_call by ABI-encoding canned pool and token state.
type fakeChain struct {
	pools  map[common.Address]fakePool
	tokens map[common.Address]fakeToken
	calls  map[string]int
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, fmt.Errorf("bad call")
	}
	if pool, ok := f.pools[*msg.To]; ok {
		return f.poolCall(pool, msg.Data)
	}
	if token, ok := f.tokens[*msg.To]; ok {
		return f.tokenCall(token, msg.Data)
	}
	return nil, fmt.Errorf("execution reverted")
}

func (f *fakeChain) poolCall(pool fakePool, data []byte) ([]byte, error) {
	parsed, _ := V3PoolABI()
	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	f.calls[method.Name]++
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	zero := new(big.Int)
	switch method.Name {
	case "token0":
		return method.Outputs.Pack(pool.meta.Token0)
	case "token1":
		return method.Outputs.Pack(pool.meta.Token1)
	case "fee":
		return method.Outputs.Pack(big.NewInt(int64(pool.meta.Fee)))
	case "tickSpacing":
		return method.Outputs.Pack(big.NewInt(int64(pool.meta.TickSpacing)))
	case "liquidity":
		return method.Outputs.Pack(pool.liquidity)
	case "slot0":
		return method.Outputs.Pack(pool.sqrtPrice, big.NewInt(pool.tick), uint16(0), uint16(1), uint16(1), uint32(0), true)
	case "tickBitmap":
		word := pool.bitmap[args[0].(int16)]
		if word == nil {
			word = zero
		}
		return method.Outputs.Pack(word)
	case "ticks":
		tick, ok := pool.ticks[args[0].(*big.Int).Int64()]
		if !ok {
			tick = [2]*big.Int{zero, zero}
		}
		return method.Outputs.Pack(tick[0], tick[1], zero, zero, zero, zero, uint32(0), ok)
	}
	return nil, fmt.Errorf("unexpected method %s", method.Name)
}

func (f *fakeChain) tokenCall(token fakeToken, data []byte) ([]byte, error) {
	var parsed abi.ABI
	if token.bytes32 {
		parsed, _ = erc20ABIBytes32Instance()
	} else {
		parsed, _ = erc20ABIStringInstance()
	}
	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	f.calls[method.Name]++
	text := func(s string) interface{} {
		if !token.bytes32 {
			return s
		}
		var out [32]byte
		copy(out[:], s)
		return out
	}
	switch method.Name {
	case "decimals":
		return method.Outputs.Pack(token.decimals)
	case "symbol":
		return method.Outputs.Pack(text(token.symbol))
	case "name":
		return method.Outputs.Pack(text(token.name))
	}
	return nil, fmt.Errorf("unexpected method %s", method.Name)
}

var (
	testPool   = common.HexToAddress("0x5777d92f208679db4b9778590fa3cab3ac9e2168")
	testToken0 = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	testToken1 = common.HexToAddress("0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2")
)

func newFakeChain() *fakeChain {
	e18 := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return &fakeChain{
		pools: map[common.Address]fakePool{
			testPool: {
				meta:      PoolMeta{Token0: testToken0, Token1: testToken1, Fee: 3000, TickSpacing: 60},
				sqrtPrice: v3math.Q96,
				tick:      0,
				liquidity: e18,
				bitmap: map[int16]*big.Int{
					0:  new(big.Int).Lsh(big.NewInt(1), 1),
					-1: new(big.Int).Lsh(big.NewInt(1), 254),
				},
				ticks: map[int64][2]*big.Int{
					-120: {e18, e18},
					60:   {e18, new(big.Int).Neg(e18)},
				},
			},
		},
		tokens: map[common.Address]fakeToken{
			testToken0: {decimals: 18, symbol: "DAI", name: "Dai Stablecoin"},
			testToken1: {decimals: 18, symbol: "MKR", name: "Maker", bytes32: true},
		},
	}
}

func TestFetchPoolSnapshot(t *testing.T) {
	chain := newFakeChain()
	reader := NewReader(chain, nil)

	snap, err := reader.FetchPoolSnapshot(context.Background(), 1, testPool, big.NewInt(19_000_000))
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Fee != 3000 || snap.TickSpacing != 60 || snap.Tick != 0 || snap.BlockNumber != 19_000_000 {
		t.Fatalf("snapshot fields mismatch: %+v", snap)
	}
	if snap.SqrtPriceX96 != v3math.Q96.String() || snap.Liquidity != "1000000000000000000" {
		t.Fatalf("snapshot state mismatch: %+v", snap)
	}
	if snap.Token0.Symbol != "DAI" || snap.Token0.Decimals != 18 {
		t.Fatalf("token0 meta mismatch: %+v", snap.Token0)
	}
	if snap.Token1.Symbol != "MKR" || snap.Token1.Name != "Maker" {
		t.Fatalf("bytes32 token meta mismatch: %+v", snap.Token1)
	}

	if _, err := reader.FetchPoolSnapshot(context.Background(), 1, testPool, nil); err != nil {
		t.Fatalf("second snapshot: %v", err)
	}
	if chain.calls["token0"] != 1 || chain.calls["decimals"] != 2 {
		t.Fatalf("metadata not cached: %v", chain.calls)
	}
	if chain.calls["slot0"] != 2 {
		t.Fatalf("slot0 should be read per snapshot: %v", chain.calls)
	}

	if _, err := reader.FetchPoolSnapshot(context.Background(), 1, common.HexToAddress("0x01"), nil); err == nil {
		t.Fatalf("expected error for unknown pool")
	}
}

func TestFetchTicksAndBuildPool(t *testing.T) {
	chain := newFakeChain()
	reader := NewReader(chain, nil)

	snap, err := reader.FetchPoolSnapshot(context.Background(), 1, testPool, nil)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	pool, err := PoolFromSnapshot(snap)
	if err != nil {
		t.Fatalf("pool without ticks: %v", err)
	}
	if _, ok := pool.TickDataProvider().(v3.NoTickData); !ok {
		t.Fatalf("expected NoTickData, got %T", pool.TickDataProvider())
	}

	window, err := reader.FetchTicks(context.Background(), testPool, 60, 0, 1, nil)
	if err != nil {
		t.Fatalf("fetch ticks: %v", err)
	}
	if chain.calls["tickBitmap"] != 3 || chain.calls["ticks"] != 2 {
		t.Fatalf("unexpected calls: %v", chain.calls)
	}
	if window.Lower != -15360 || window.Upper != 30719 {
		t.Fatalf("window bounds [%d, %d]", window.Lower, window.Upper)
	}
	if len(window.Ticks) != 2 || window.Ticks[0].Index != -120 || window.Ticks[1].Index != 60 {
		t.Fatalf("ticks mismatch: %+v", window.Ticks)
	}
	if window.Ticks[1].LiquidityNet != "-1000000000000000000" {
		t.Fatalf("liquidity net mismatch: %+v", window.Ticks[1])
	}

	snap.TickWindow = &window
	pool, err = PoolFromSnapshot(snap)
	if err != nil {
		t.Fatalf("pool with ticks: %v", err)
	}
	provider, ok := pool.TickDataProvider().(*v3.TickWindow)
	if !ok {
		t.Fatalf("expected *v3.TickWindow, got %T", pool.TickDataProvider())
	}
	if provider.Lower() != -15360 || len(provider.Ticks()) != 2 {
		t.Fatalf("provider mismatch")
	}
	if pool.Token0().Symbol != "DAI" || pool.Fee() != 3000 || pool.TickSpacing() != 60 {
		t.Fatalf("pool mismatch: %s", pool)
	}

	if _, err := reader.FetchTicks(context.Background(), testPool, 0, 0, 1, nil); err == nil {
		t.Fatalf("expected error for zero spacing")
	}
}
