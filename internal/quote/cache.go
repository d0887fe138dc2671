package quote

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/ethereum/go-ethereum/crypto"

	"v3kit/internal/sdk"
	"v3kit/internal/v3"
)

// Fingerprint identifies a quote request. Two requests share a fingerprint
// only when their pools hold the same state and the amount, trade type and
// tolerance match.
func Fingerprint(route *v3.Route, amount sdk.CurrencyAmount, tradeType v3.TradeType, tolerance sdk.Percent) common.Hash {
	var buf []byte
	buf = binary.BigEndian.AppendUint64(buf, route.ChainID())
	for _, c := range route.Path() {
		buf = appendCurrency(buf, c)
	}
	for _, p := range route.Pools() {
		buf = appendPool(buf, p)
	}
	buf = appendCurrency(buf, amount.Currency())
	buf = appendFraction(buf, amount.AsFraction())
	buf = append(buf, byte(tradeType))
	if tolerance.IsSet() {
		buf = appendFraction(buf, tolerance.Fraction)
	}
	return crypto.Keccak256Hash(buf)
}

func appendCurrency(buf []byte, c sdk.Currency) []byte {
	buf = binary.BigEndian.AppendUint64(buf, c.ChainID)
	if c.Native {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return append(buf, c.Address.Bytes()...)
}

// Tick data provider kinds, written ahead of the ticks in a pool preimage.
const (
	providerNone byte = iota
	providerList
	providerWindow
	providerOther
)

func appendPool(buf []byte, p *v3.Pool) []byte {
	buf = append(buf, p.Token0().Address.Bytes()...)
	buf = append(buf, p.Token1().Address.Bytes()...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(p.Fee()))
	buf = binary.BigEndian.AppendUint32(buf, uint32(int32(p.TickSpacing())))
	buf = binary.BigEndian.AppendUint32(buf, uint32(int32(p.TickCurrent())))
	buf = appendBig(buf, p.SqrtRatioX96())
	buf = appendBig(buf, p.Liquidity())

	var ticks []v3.Tick
	switch provider := p.TickDataProvider().(type) {
	case v3.NoTickData:
		buf = append(buf, providerNone)
	case *v3.TickList:
		buf = append(buf, providerList)
		ticks = provider.Ticks()
	case *v3.TickWindow:
		buf = append(buf, providerWindow)
		buf = binary.BigEndian.AppendUint32(buf, uint32(int32(provider.Lower())))
		buf = binary.BigEndian.AppendUint32(buf, uint32(int32(provider.Upper())))
		ticks = provider.Ticks()
	default:
		buf = append(buf, providerOther)
		if list, ok := provider.(interface{ Ticks() []v3.Tick }); ok {
			ticks = list.Ticks()
		}
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(ticks)))
	for _, t := range ticks {
		buf = binary.BigEndian.AppendUint32(buf, uint32(int32(t.Index)))
		buf = appendBig(buf, t.LiquidityNet)
	}
	return buf
}

func appendFraction(buf []byte, f sdk.Fraction) []byte {
	buf = appendBig(buf, f.Numerator())
	return appendBig(buf, f.Denominator())
}

// appendBig writes a sign byte and a length-prefixed magnitude.
func appendBig(buf []byte, v *big.Int) []byte {
	sign := byte(0)
	if v.Sign() < 0 {
		sign = 1
	}
	mag := v.Bytes()
	buf = append(buf, sign)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(mag)))
	return append(buf, mag...)
}

// Cache holds computed quotes by fingerprint. When full, the least recently
// used entry is evicted.
type Cache struct {
	entries *lru.Cache[common.Hash, Quote]
}

// NewCache returns a cache holding at most capacity quotes. Capacities below
// one hold a single quote.
func NewCache(capacity int) *Cache {
	return &Cache{entries: lru.NewCache[common.Hash, Quote](capacity)}
}

func (c *Cache) Get(key common.Hash) (Quote, bool) {
	return c.entries.Get(key)
}

func (c *Cache) Set(key common.Hash, q Quote) {
	c.entries.Add(key, q)
}

func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.entries.Purge()
}
