package model

// ReplayResult compares one on-chain swap with the local simulation of it.
type ReplayResult struct {
	ChainID     uint64 `json:"chain_id"`
	Pool        string `json:"pool"`
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint   `json:"log_index"`
	Timestamp   uint64 `json:"timestamp,omitempty"`

	// TradeType is the simulation that reproduced the swap, or exact input when none did.
	TradeType       string `json:"trade_type"`
	AmountSpecified string `json:"amount_specified"`
	ChainAmount     string `json:"chain_amount"`
	SimAmount       string `json:"sim_amount,omitempty"`
	ChainSqrtPrice  string `json:"chain_sqrt_price_x96"`
	SimSqrtPrice    string `json:"sim_sqrt_price_x96,omitempty"`
	ChainTick       int32  `json:"chain_tick"`
	SimTick         int32  `json:"sim_tick"`

	Match   bool   `json:"match"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}
