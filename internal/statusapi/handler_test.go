package statusapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

type fakeEngine struct {
	clients       int
	cacheLen      int
	prevHash      chainhash.Hash
	lastBlockTime time.Time
}

func (f fakeEngine) ConnectedClients() int              { return f.clients }
func (f fakeEngine) CacheLen() int                      { return f.cacheLen }
func (f fakeEngine) BestPrevHash() chainhash.Hash       { return f.prevHash }
func (f fakeEngine) LastBlockTime() time.Time           { return f.lastBlockTime }

func TestHandleStatusReportsEngineSnapshot(t *testing.T) {
	engine := fakeEngine{clients: 3, cacheLen: 5, lastBlockTime: time.Now().Add(-2 * time.Minute)}
	srv := New(engine, nil)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ConnectedClients != 3 || resp.CachedTemplates != 5 {
		t.Fatalf("unexpected snapshot: %+v", resp)
	}
	if resp.SecondsSinceBlock < 100 {
		t.Fatalf("expected seconds_since_block to reflect the 2 minute-old last block time, got %f", resp.SecondsSinceBlock)
	}
}

func TestHandleSubmissionsWithNilAuditReturnsEmptyList(t *testing.T) {
	srv := New(fakeEngine{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/status/submissions", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if count, _ := body["count"].(float64); count != 0 {
		t.Fatalf("expected count 0, got %v", body["count"])
	}
}
