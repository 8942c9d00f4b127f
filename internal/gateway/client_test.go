package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"latte-lab/internal/logger"
	"latte-lab/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(server.URL, 5*time.Second, logger.New("test"))
	return client, server
}

func TestCall_SuccessPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"item":{"id":"latte","name":"Latte","description":"","isActive":true}}]`))
	})

	raw, err := client.Call(context.Background(), "/Menu/_allActiveItems", struct{}{})
	if err != nil {
		t.Fatalf("Call returned error: %v", err)
	}

	var rows []struct {
		Item models.MenuItem `json:"item"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if len(rows) != 1 || rows[0].Item.ID != "latte" {
		t.Fatalf("unexpected payload: %+v", rows)
	}
}

func TestCall_ErrorEnvelope(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":"order not found"}`))
	})

	_, err := client.Call(context.Background(), "/Order/_lines", map[string]string{"order": "o1"})
	reason, ok := IsDomainError(err)
	if !ok {
		t.Fatalf("expected DomainError, got %v", err)
	}
	if reason != "order not found" {
		t.Fatalf("expected reason to be surfaced verbatim, got %q", reason)
	}
}

func TestCall_MalformedBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	})

	_, err := client.Call(context.Background(), "/Menu/_allActiveItems", struct{}{})
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestCall_TransportFailure(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := client.Call(context.Background(), "/Menu/_allActiveItems", struct{}{})
	if err == nil {
		t.Fatal("expected error after server shutdown")
	}
	if _, ok := IsDomainError(err); ok {
		t.Fatalf("transport failure must not be a DomainError: %v", err)
	}
}

func TestCall_Non2xxStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"upstream"}`))
	})

	_, err := client.Call(context.Background(), "/Order/open", map[string]string{"user": "u1"})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if _, ok := IsDomainError(err); ok {
		t.Fatalf("non-2xx must map to a transport failure, got DomainError: %v", err)
	}
}

func TestOrderGateway_OpenMirrorsServerID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["user"] != "u1" {
			t.Errorf("expected user u1, got %q", req["user"])
		}
		w.Write([]byte(`{"order":"o42"}`))
	})

	orderID, err := NewOrderGateway(client).Open(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if orderID != "o42" {
		t.Fatalf("expected order id o42, got %q", orderID)
	}
}

func TestMenuGateway_ValidateSelectionSetRelaysRows(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"ok":false,"reason":"Option Milk requires 1 choice"}]`))
	})

	results, err := NewMenuGateway(client).ValidateSelectionSet(context.Background(), "latte", nil)
	if err != nil {
		t.Fatalf("ValidateSelectionSet returned error: %v", err)
	}
	if len(results) != 1 || results[0].OK || results[0].Reason != "Option Milk requires 1 choice" {
		t.Fatalf("expected server row unchanged, got %+v", results)
	}
}

func TestOrderGateway_CompleteRelaysDomainError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["order"] != "o42" {
			t.Errorf("expected order o42, got %q", req["order"])
		}
		w.Write([]byte(`{"error":"order is not pending"}`))
	})

	err := NewOrderGateway(client).Complete(context.Background(), "o42")
	reason, ok := IsDomainError(err)
	if !ok || reason != "order is not pending" {
		t.Fatalf("expected the server reason verbatim, got %v", err)
	}
}

func TestOrderGateway_OrdersByStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["status"] != "pending" {
			t.Errorf("expected status pending, got %q", req["status"])
		}
		w.Write([]byte(`[{"order":{"id":"o1","user":"u1","status":"pending"}},{"order":{"id":"o2","user":"u2","status":"pending"}}]`))
	})

	orders, err := NewOrderGateway(client).OrdersByStatus(context.Background(), models.StatusPending)
	if err != nil {
		t.Fatalf("OrdersByStatus returned error: %v", err)
	}
	if len(orders) != 2 || orders[0].ID != "o1" || orders[1].User != "u2" {
		t.Fatalf("unexpected orders: %+v", orders)
	}
}

func TestOrderGateway_UnexpectedShape(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"something":"else"}`))
	})

	_, err := NewOrderGateway(client).Open(context.Background(), "u1")
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}
