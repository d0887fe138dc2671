package replay

import (
	"fmt"

	"v3kit/internal/sdk"
)

// BlockRange is an inclusive block range scanned in one eth_getLogs call.
type BlockRange struct {
	From uint64
	To   uint64
}

// Len is the number of blocks in the range.
func (r BlockRange) Len() uint64 { return r.To - r.From + 1 }

// SplitRange cuts [from, to] into consecutive batches of at most batchSize blocks.
func SplitRange(from, to, batchSize uint64) ([]BlockRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero: %w", sdk.ErrInvalidArgument)
	}
	if to < from {
		return nil, fmt.Errorf("block range %d..%d is reversed: %w", from, to, sdk.ErrInvalidArgument)
	}

	ranges := make([]BlockRange, 0, (to-from)/batchSize+1)
	for start := from; ; start += batchSize {
		if to-start < batchSize {
			return append(ranges, BlockRange{From: start, To: to}), nil
		}
		ranges = append(ranges, BlockRange{From: start, To: start + batchSize - 1})
	}
}
