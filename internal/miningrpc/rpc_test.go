package miningrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseCompactBits(t *testing.T) {
	got, err := parseCompactBits("1d00ffff")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0x1d00ffff {
		t.Fatalf("got 0x%x, want 0x1d00ffff", got)
	}
}

func TestBuildCoinbaseTxReservesWeight(t *testing.T) {
	short := buildCoinbaseTx(100, 5_000_000_000, 0)
	long := buildCoinbaseTx(100, 5_000_000_000, 4000)
	if len(long.TxIn[0].SignatureScript) <= len(short.TxIn[0].SignatureScript) {
		t.Fatalf("expected reserved weight to grow the scriptSig")
	}
	if long.TxOut[0].Value != 5_000_000_000 {
		t.Fatalf("unexpected coinbase value: %d", long.TxOut[0].Value)
	}
}

func TestRPCMiningGetChainInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"result": map[string]interface{}{
				"bestblockhash":        "0000000000000000000000000000000000000000000000000000000000000abc",
				"blocks":               100,
				"initialblockdownload": false,
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	m, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	info, err := m.getChainInfo(context.Background())
	if err != nil {
		t.Fatalf("getChainInfo: %v", err)
	}
	if info.Blocks != 100 {
		t.Fatalf("unexpected height: %d", info.Blocks)
	}
	if m.IsInitialBlockDownload() {
		t.Fatalf("expected IsInitialBlockDownload to be false")
	}
}
