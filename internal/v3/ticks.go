package v3

import (
	"fmt"
	"math/big"
	"sort"

	"v3kit/internal/sdk"
	"v3kit/internal/v3math"
)

// Tick is an initialized tick: the liquidity referencing it and the net
// change applied when price crosses it left to right.
type Tick struct {
	Index          int      `json:"index"`
	LiquidityGross *big.Int `json:"liquidityGross"`
	LiquidityNet   *big.Int `json:"liquidityNet"`
}

// TickDataProvider supplies the initialized ticks a swap simulation crosses.
type TickDataProvider interface {
	// GetTick returns the initialized tick at index.
	GetTick(index int) (Tick, error)
	// NextInitializedTickWithinOneWord returns the next initialized tick at or
	// below (lte) or above tick, limited to one 256-tick bitmap word, and
	// whether the returned tick is initialized.
	NextInitializedTickWithinOneWord(tick int, lte bool, tickSpacing int) (int, bool, error)
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// TickList is a TickDataProvider over a fully known, sorted set of ticks.
type TickList struct {
	ticks []Tick
}

// NewTickList validates ticks for the given spacing: every index aligned,
// no duplicates and liquidityNet summing to zero. Input order is not required.
func NewTickList(ticks []Tick, tickSpacing int) (*TickList, error) {
	sorted, err := sortTicks(ticks, tickSpacing)
	if err != nil {
		return nil, err
	}
	net := new(big.Int)
	for _, t := range sorted {
		net.Add(net, t.LiquidityNet)
	}
	if net.Sign() != 0 {
		return nil, fmt.Errorf("liquidity net sums to %s: %w", net, sdk.ErrInvalidArgument)
	}
	return &TickList{ticks: sorted}, nil
}

func sortTicks(ticks []Tick, tickSpacing int) ([]Tick, error) {
	if tickSpacing <= 0 {
		return nil, fmt.Errorf("tick spacing %d: %w", tickSpacing, sdk.ErrInvalidArgument)
	}
	sorted := make([]Tick, len(ticks))
	copy(sorted, ticks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	for i, t := range sorted {
		if t.Index%tickSpacing != 0 {
			return nil, fmt.Errorf("tick %d not aligned to spacing %d: %w", t.Index, tickSpacing, sdk.ErrInvalidArgument)
		}
		if t.Index < v3math.MinTick || t.Index > v3math.MaxTick {
			return nil, fmt.Errorf("tick %d: %w", t.Index, sdk.ErrTickOutOfRange)
		}
		if i > 0 && sorted[i-1].Index == t.Index {
			return nil, fmt.Errorf("duplicate tick %d: %w", t.Index, sdk.ErrInvalidArgument)
		}
		if t.LiquidityNet == nil || t.LiquidityGross == nil {
			return nil, fmt.Errorf("tick %d missing liquidity: %w", t.Index, sdk.ErrInvalidArgument)
		}
	}
	return sorted, nil
}

// Ticks returns a copy of the sorted ticks.
func (l *TickList) Ticks() []Tick {
	out := make([]Tick, len(l.ticks))
	copy(out, l.ticks)
	return out
}

func (l *TickList) isBelowSmallest(tick int) bool {
	return len(l.ticks) == 0 || tick < l.ticks[0].Index
}

func (l *TickList) isAtOrAboveLargest(tick int) bool {
	return len(l.ticks) == 0 || tick >= l.ticks[len(l.ticks)-1].Index
}

// search returns the position of the largest tick <= tick. The caller
// guarantees tick is not below the smallest.
func (l *TickList) search(tick int) int {
	i := sort.Search(len(l.ticks), func(i int) bool { return l.ticks[i].Index > tick })
	return i - 1
}

func (l *TickList) GetTick(index int) (Tick, error) {
	if !l.isBelowSmallest(index) {
		if t := l.ticks[l.search(index)]; t.Index == index {
			return t, nil
		}
	}
	return Tick{}, fmt.Errorf("tick %d not initialized: %w", index, sdk.ErrInvalidArgument)
}

func (l *TickList) nextInitializedTick(tick int, lte bool) Tick {
	if lte {
		if l.isAtOrAboveLargest(tick) {
			return l.ticks[len(l.ticks)-1]
		}
		return l.ticks[l.search(tick)]
	}
	if l.isBelowSmallest(tick) {
		return l.ticks[0]
	}
	return l.ticks[l.search(tick)+1]
}

func (l *TickList) NextInitializedTickWithinOneWord(tick int, lte bool, tickSpacing int) (int, bool, error) {
	compressed := floorDiv(tick, tickSpacing)

	if lte {
		wordPos := compressed >> 8
		minimum := (wordPos << 8) * tickSpacing
		if l.isBelowSmallest(tick) {
			return minimum, false, nil
		}
		index := l.nextInitializedTick(tick, true).Index
		next := max(minimum, index)
		return next, next == index, nil
	}

	wordPos := (compressed + 1) >> 8
	maximum := ((wordPos+1)<<8)*tickSpacing - 1
	if l.isAtOrAboveLargest(tick) {
		return maximum, false, nil
	}
	index := l.nextInitializedTick(tick, false).Index
	next := min(maximum, index)
	return next, next == index, nil
}

// NoTickData is the provider for a pool known only by its current snapshot.
// Liquidity is assumed constant inside the tick-spacing interval holding the
// current tick; a swap that would cross either edge of it fails.
type NoTickData struct{}

func (NoTickData) GetTick(index int) (Tick, error) {
	return Tick{}, fmt.Errorf("no tick data to cross tick %d: %w", index, sdk.ErrInsufficientLiquidity)
}

func (NoTickData) NextInitializedTickWithinOneWord(tick int, lte bool, tickSpacing int) (int, bool, error) {
	if tickSpacing <= 0 {
		return 0, false, fmt.Errorf("tick spacing %d: %w", tickSpacing, sdk.ErrInvalidArgument)
	}
	lower := floorDiv(tick, tickSpacing) * tickSpacing
	if lte {
		return lower, true, nil
	}
	return lower + tickSpacing, true, nil
}

// TickWindow is a TickDataProvider over the initialized ticks of a run of
// bitmap words read from chain. Ticks between Lower and Upper are fully
// known; a swap that walks past either bound fails.
type TickWindow struct {
	list  TickList
	lower int
	upper int
}

// WordBounds returns the first and last tick covered by bitmap words
// [firstWord, lastWord] at tickSpacing.
func WordBounds(firstWord, lastWord, tickSpacing int) (int, int) {
	return (firstWord << 8) * tickSpacing, ((lastWord+1)<<8)*tickSpacing - 1
}

// NewTickWindow validates ticks like NewTickList, except that liquidityNet
// need not sum to zero. Every tick must lie in [lower, upper].
func NewTickWindow(ticks []Tick, tickSpacing, lower, upper int) (*TickWindow, error) {
	if lower > upper {
		return nil, fmt.Errorf("tick window [%d, %d]: %w", lower, upper, sdk.ErrInvalidArgument)
	}
	sorted, err := sortTicks(ticks, tickSpacing)
	if err != nil {
		return nil, err
	}
	if n := len(sorted); n > 0 && (sorted[0].Index < lower || sorted[n-1].Index > upper) {
		return nil, fmt.Errorf("ticks outside window [%d, %d]: %w", lower, upper, sdk.ErrInvalidArgument)
	}
	return &TickWindow{list: TickList{ticks: sorted}, lower: lower, upper: upper}, nil
}

func (w *TickWindow) Lower() int { return w.lower }
func (w *TickWindow) Upper() int { return w.upper }

// Ticks returns a copy of the sorted ticks.
func (w *TickWindow) Ticks() []Tick { return w.list.Ticks() }

func (w *TickWindow) outside(tick int) error {
	if tick < w.lower || tick > w.upper {
		return fmt.Errorf("tick %d outside loaded window [%d, %d]: %w", tick, w.lower, w.upper, sdk.ErrInsufficientLiquidity)
	}
	return nil
}

func (w *TickWindow) GetTick(index int) (Tick, error) {
	if err := w.outside(index); err != nil {
		return Tick{}, err
	}
	return w.list.GetTick(index)
}

// NextInitializedTickWithinOneWord searches the loaded ticks and never reports
// a tick beyond the window. Searching upward from the upper edge fails, since
// the ticks above it were not loaded.
func (w *TickWindow) NextInitializedTickWithinOneWord(tick int, lte bool, tickSpacing int) (int, bool, error) {
	if err := w.outside(tick); err != nil {
		return 0, false, err
	}
	if !lte && tick >= w.upper {
		return 0, false, fmt.Errorf("no ticks loaded above %d: %w", w.upper, sdk.ErrInsufficientLiquidity)
	}
	next, initialized, err := w.list.NextInitializedTickWithinOneWord(tick, lte, tickSpacing)
	if err != nil {
		return 0, false, err
	}
	switch {
	case next > w.upper:
		return w.upper, false, nil
	case next < w.lower:
		return w.lower, false, nil
	}
	return next, initialized, nil
}
