package model

// Event names carried in PoolEvent.EventName.
const (
	EventSwap = "Swap"
	EventMint = "Mint"
	EventBurn = "Burn"
)

// PoolEvent is a decoded pool log. Exactly one payload is set, matching EventName.
type PoolEvent struct {
	ChainID     uint64         `json:"chain_id"`
	BlockNumber uint64         `json:"block_number"`
	TxHash      string         `json:"tx_hash"`
	TxIndex     uint           `json:"tx_index"`
	LogIndex    uint           `json:"log_index"`
	Address     string         `json:"address"`
	EventName   string         `json:"event_name"`
	Timestamp   uint64         `json:"timestamp,omitempty"`
	Swap        *SwapEventData `json:"swap,omitempty"`
	Mint        *MintEventData `json:"mint,omitempty"`
	Burn        *BurnEventData `json:"burn,omitempty"`
}

// SwapEventData is the decoded Swap event payload.
type SwapEventData struct {
	Sender       string `json:"sender"`
	Recipient    string `json:"recipient"`
	Amount0      string `json:"amount0"`
	Amount1      string `json:"amount1"`
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	Liquidity    string `json:"liquidity"`
	Tick         int32  `json:"tick"`
}

// MintEventData is the decoded Mint event payload.
type MintEventData struct {
	Sender    string `json:"sender"`
	Owner     string `json:"owner"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	Amount    string `json:"amount"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
}

// BurnEventData is the decoded Burn event payload.
type BurnEventData struct {
	Owner     string `json:"owner"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	Amount    string `json:"amount"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
}
