package model

// PoolSnapshot is a pool's immutable parameters plus its live state at one block.
type PoolSnapshot struct {
	ChainID      uint64      `json:"chain_id"`
	Address      string      `json:"address"`
	BlockNumber  uint64      `json:"block_number"`
	Token0       TokenMeta   `json:"token0"`
	Token1       TokenMeta   `json:"token1"`
	Fee          uint32      `json:"fee"`
	TickSpacing  int32       `json:"tick_spacing"`
	SqrtPriceX96 string      `json:"sqrt_price_x96"`
	Tick         int32       `json:"tick"`
	Liquidity    string      `json:"liquidity"`
	TickWindow   *TickWindow `json:"tick_window,omitempty"`
}

// TickWindow holds every initialized tick between Lower and Upper inclusive.
type TickWindow struct {
	Lower int32        `json:"lower"`
	Upper int32        `json:"upper"`
	Ticks []TickRecord `json:"ticks"`
}

// TickRecord is one initialized tick.
type TickRecord struct {
	Index          int32  `json:"index"`
	LiquidityNet   string `json:"liquidity_net"`
	LiquidityGross string `json:"liquidity_gross"`
}
