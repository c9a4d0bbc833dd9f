package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"options-desk/internal/engine"
	"options-desk/internal/models"
	"options-desk/internal/syncbus"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	bus := syncbus.New(zerolog.Nop())
	eng := engine.New(engine.Config{
		Symbol:  "NIFTY",
		Expiry:  time.Now().AddDate(0, 0, 14),
		LotSize: 75,
	}, bus, nil, nil, zerolog.Nop())
	t.Cleanup(eng.Close)

	srv := New(DefaultConfig(), eng, zerolog.Nop())
	go srv.hub.run()
	t.Cleanup(func() { close(srv.hub.stop) })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestAPIHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestAPIBuyAndPositions(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/buy", "application/json",
		strings.NewReader(`{"strike": 25000, "optionType": "CE"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("buy status = %d, want 200", resp.StatusCode)
	}

	var leg models.Leg
	if err := json.NewDecoder(resp.Body).Decode(&leg); err != nil {
		t.Fatal(err)
	}
	if leg.Quantity != 1 || leg.Key.Strike != 25000 {
		t.Errorf("unexpected leg: %+v", leg)
	}

	posResp, err := http.Get(ts.URL + "/api/positions")
	if err != nil {
		t.Fatal(err)
	}
	defer posResp.Body.Close()
	var records []map[string]interface{}
	if err := json.NewDecoder(posResp.Body).Decode(&records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("positions = %d, want 1", len(records))
	}
	if records[0]["optionType"] != "CE" || records[0]["side"] != "BUY" {
		t.Errorf("unexpected record: %v", records[0])
	}
}

func TestAPIBuyRejectsInvalidKey(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/buy", "application/json",
		strings.NewReader(`{"strike": 0, "optionType": "CE"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAPIImportRejectsMalformed(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/positions", "application/json",
		strings.NewReader(`[{"strike": 25000, "optionType": "XX", "side": "BUY", "quantity": 1}]`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAPIImportReplacesPositions(t *testing.T) {
	_, ts := newTestServer(t)

	http.Post(ts.URL+"/api/buy", "application/json",
		strings.NewReader(`{"strike": 24800, "optionType": "PE"}`))

	payload := `[{"strike":25000,"optionType":"CE","side":"BUY","quantity":2,"entryPremium":120,"lotSize":75}]`
	resp, err := http.Post(ts.URL+"/api/positions", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import status = %d, want 200", resp.StatusCode)
	}

	posResp, err := http.Get(ts.URL + "/api/positions")
	if err != nil {
		t.Fatal(err)
	}
	defer posResp.Body.Close()
	var records []map[string]interface{}
	json.NewDecoder(posResp.Body).Decode(&records)
	if len(records) != 1 || records[0]["quantity"].(float64) != 2 {
		t.Errorf("positions after import = %v, want the imported leg only", records)
	}
}

func TestAPIMethodGuards(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/api/buy", "/api/sell", "/api/reduce", "/api/clear", "/api/symbol", "/api/expiry"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("GET %s status = %d, want 405", path, resp.StatusCode)
		}
	}
}

func TestAPIClear(t *testing.T) {
	_, ts := newTestServer(t)

	http.Post(ts.URL+"/api/buy", "application/json",
		strings.NewReader(`{"strike": 25000, "optionType": "CE"}`))
	resp, err := http.Post(ts.URL+"/api/clear", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	posResp, err := http.Get(ts.URL + "/api/positions")
	if err != nil {
		t.Fatal(err)
	}
	defer posResp.Body.Close()
	var records []map[string]interface{}
	json.NewDecoder(posResp.Body).Decode(&records)
	if len(records) != 0 {
		t.Errorf("positions after clear = %v, want none", records)
	}
}
