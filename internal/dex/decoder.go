package dex

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"v3kit/internal/model"
)

// PancakeSwapTopic is the PancakeSwap V3 Swap event, which appends two
// protocol-fee words to the Uniswap layout.
var PancakeSwapTopic = common.HexToHash("0x19b47279256b2a23a1665c810c8d55a1758940ee09377d4f8d26497a3577dc83")

// DecoderConfig configures decoder behavior.
type DecoderConfig struct {
	// Topic0Map adds topic0 aliases for forks whose events extend the V3 layout.
	Topic0Map map[string]string
}

// V3PoolDecoder decodes PancakeSwap V3 / Uniswap V3 pool events.
type V3PoolDecoder struct {
	poolABI     abi.ABI
	topicToName map[common.Hash]string
}

// NewV3PoolDecoder builds a V3 pool decoder.
func NewV3PoolDecoder(cfg DecoderConfig) (*V3PoolDecoder, error) {
	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, err
	}

	topicToName := map[common.Hash]string{
		poolABI.Events[model.EventSwap].ID: model.EventSwap,
		poolABI.Events[model.EventMint].ID: model.EventMint,
		poolABI.Events[model.EventBurn].ID: model.EventBurn,
		PancakeSwapTopic:                   model.EventSwap,
	}

	for topic0, name := range cfg.Topic0Map {
		original := name
		name = normalizeEventName(name)
		if name == "" {
			return nil, fmt.Errorf("unsupported event name in topic0 map: %s", original)
		}
		if topic0 == "" {
			continue
		}
		topicToName[common.HexToHash(topic0)] = name
	}

	return &V3PoolDecoder{
		poolABI:     poolABI,
		topicToName: topicToName,
	}, nil
}

// Topics lists every topic0 the decoder accepts, for log filters.
func (d *V3PoolDecoder) Topics() []common.Hash {
	out := make([]common.Hash, 0, len(d.topicToName))
	for topic := range d.topicToName {
		out = append(out, topic)
	}
	return out
}

// CanDecode checks if the topic0 is supported.
func (d *V3PoolDecoder) CanDecode(topic0 common.Hash) bool {
	_, ok := d.topicToName[topic0]
	return ok
}

// Decode converts a raw log into a PoolEvent.
func (d *V3PoolDecoder) Decode(chainID uint64, log types.Log) (model.PoolEvent, error) {
	if len(log.Topics) == 0 {
		return model.PoolEvent{}, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[log.Topics[0]]
	if !ok {
		return model.PoolEvent{}, fmt.Errorf("unsupported topic0: %s", log.Topics[0].Hex())
	}

	event := model.PoolEvent{
		ChainID:     chainID,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash.Hex(),
		TxIndex:     log.TxIndex,
		LogIndex:    log.Index,
		Address:     log.Address.Hex(),
		EventName:   name,
	}

	var err error
	switch name {
	case model.EventSwap:
		event.Swap, err = d.decodeSwap(log)
	case model.EventMint:
		event.Mint, err = d.decodeMint(log)
	case model.EventBurn:
		event.Burn, err = d.decodeBurn(log)
	default:
		err = fmt.Errorf("unsupported event name: %s", name)
	}
	if err != nil {
		return model.PoolEvent{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return event, nil
}

func normalizeEventName(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "swap":
		return model.EventSwap
	case "mint":
		return model.EventMint
	case "burn":
		return model.EventBurn
	default:
		return ""
	}
}

func (d *V3PoolDecoder) decodeSwap(log types.Log) (*model.SwapEventData, error) {
	event := d.poolABI.Events[model.EventSwap]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return nil, err
	}

	var indexed struct {
		Sender    common.Address
		Recipient common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 5 {
		return nil, fmt.Errorf("unexpected swap values: %d", len(values))
	}

	ints, err := bigInts(values)
	if err != nil {
		return nil, err
	}
	tick, err := int24FromBig(ints[4])
	if err != nil {
		return nil, err
	}

	return &model.SwapEventData{
		Sender:       indexed.Sender.Hex(),
		Recipient:    indexed.Recipient.Hex(),
		Amount0:      ints[0].String(),
		Amount1:      ints[1].String(),
		SqrtPriceX96: ints[2].String(),
		Liquidity:    ints[3].String(),
		Tick:         tick,
	}, nil
}

type positionIndexed struct {
	Owner     common.Address
	TickLower *big.Int
	TickUpper *big.Int
}

func (d *V3PoolDecoder) positionTopics(event abi.Event, topics []common.Hash) (common.Address, int32, int32, error) {
	indexedTopics, err := parseIndexedTopics(event, topics)
	if err != nil {
		return common.Address{}, 0, 0, err
	}
	var indexed positionIndexed
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return common.Address{}, 0, 0, fmt.Errorf("parse topics: %w", err)
	}
	tickLower, err := int24FromBig(indexed.TickLower)
	if err != nil {
		return common.Address{}, 0, 0, err
	}
	tickUpper, err := int24FromBig(indexed.TickUpper)
	if err != nil {
		return common.Address{}, 0, 0, err
	}
	return indexed.Owner, tickLower, tickUpper, nil
}

func (d *V3PoolDecoder) decodeMint(log types.Log) (*model.MintEventData, error) {
	event := d.poolABI.Events[model.EventMint]
	owner, tickLower, tickUpper, err := d.positionTopics(event, log.Topics)
	if err != nil {
		return nil, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 4 {
		return nil, fmt.Errorf("unexpected mint values: %d", len(values))
	}
	sender, err := asAddress(values[0])
	if err != nil {
		return nil, err
	}
	ints, err := bigInts(values[1:])
	if err != nil {
		return nil, err
	}

	return &model.MintEventData{
		Sender:    sender.Hex(),
		Owner:     owner.Hex(),
		TickLower: tickLower,
		TickUpper: tickUpper,
		Amount:    ints[0].String(),
		Amount0:   ints[1].String(),
		Amount1:   ints[2].String(),
	}, nil
}

func (d *V3PoolDecoder) decodeBurn(log types.Log) (*model.BurnEventData, error) {
	event := d.poolABI.Events[model.EventBurn]
	owner, tickLower, tickUpper, err := d.positionTopics(event, log.Topics)
	if err != nil {
		return nil, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("unexpected burn values: %d", len(values))
	}
	ints, err := bigInts(values)
	if err != nil {
		return nil, err
	}

	return &model.BurnEventData{
		Owner:     owner.Hex(),
		TickLower: tickLower,
		TickUpper: tickUpper,
		Amount:    ints[0].String(),
		Amount0:   ints[1].String(),
		Amount1:   ints[2].String(),
	}, nil
}

func bigInts(values []interface{}) ([]*big.Int, error) {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		n, err := asBigInt(v)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func parseIndexedTopics(event abi.Event, topics []common.Hash) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	return topics[1:], nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

// unpackNonIndexed ignores trailing words, so extended fork layouts decode
// as their V3 prefix.
func unpackNonIndexed(event abi.Event, data []byte) ([]interface{}, error) {
	args := event.Inputs.NonIndexed()
	if need := len(args) * 32; len(data) > need {
		data = data[:need]
	}
	values, err := args.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}
