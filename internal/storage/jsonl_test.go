package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"v3kit/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "records.jsonl")
	sink := NewJsonlStorage(path)
	ctx := context.Background()

	snap := model.PoolSnapshot{ChainID: 56, Address: "0xpool", Fee: 500, SqrtPriceX96: "79228162514264337593543950336", Liquidity: "1"}
	if err := sink.PutSnapshots(ctx, []model.PoolSnapshot{snap}); err != nil {
		t.Fatalf("put snapshots: %v", err)
	}
	if err := sink.PutSnapshots(ctx, nil); err != nil {
		t.Fatalf("put empty batch: %v", err)
	}
	if err := sink.PutSnapshots(ctx, []model.PoolSnapshot{snap, snap}); err != nil {
		t.Fatalf("put snapshots: %v", err)
	}

	got, err := ReadJSONL[model.PoolSnapshot](path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 || got[2].SqrtPriceX96 != snap.SqrtPriceX96 || got[0].Fee != 500 {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 3 {
		t.Fatalf("lines = %d", lines)
	}
}

func TestJsonlStorageReplayResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.jsonl")
	sink := NewJsonlStorage(path)
	results := []model.ReplayResult{
		{TxHash: "0x01", Match: true, TradeType: "exact_input"},
		{TxHash: "0x02", Error: "no tick data"},
	}
	if err := sink.PutReplayResults(context.Background(), results); err != nil {
		t.Fatalf("put results: %v", err)
	}
	got, err := ReadJSONL[model.ReplayResult](path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || !got[0].Match || got[1].Error != "no tick data" {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if _, err := ReadJSONL[model.ReplayResult](filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if err := os.WriteFile(path, []byte("{not json}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadJSONL[model.ReplayResult](path); err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("expected parse error with line number, got %v", err)
	}
}
