package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientInitiateTransfer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transfer" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test" {
			t.Errorf("unexpected authorization header: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":true,"message":"Transfer queued","data":{"reference":"wd:1","transfer_code":"TRF_abc","status":"pending"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", time.Second)
	transfer, err := c.InitiateTransfer(context.Background(), TransferRequest{
		Amount:    5_000,
		Recipient: "RCP_xyz",
		Reference: "wd:1",
	})
	if err != nil {
		t.Fatalf("initiate transfer: %v", err)
	}
	if transfer.TransferCode != "TRF_abc" || transfer.Status != "pending" {
		t.Fatalf("unexpected transfer: %+v", transfer)
	}
}

func TestClientRejectedTransfer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":false,"message":"Insufficient gateway balance"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", time.Second)
	_, err := c.InitiateTransfer(context.Background(), TransferRequest{Amount: 5_000, Recipient: "RCP_xyz", Reference: "wd:1"})
	if !errors.Is(err, ErrGatewayRejected) {
		t.Fatalf("expected gateway rejected, got %v", err)
	}
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", 20*time.Millisecond)
	_, err := c.InitiateTransfer(context.Background(), TransferRequest{Amount: 5_000, Recipient: "RCP_xyz", Reference: "wd:1"})
	if !errors.Is(err, ErrGatewayTimeout) {
		t.Fatalf("expected gateway timeout, got %v", err)
	}
}

func TestClientResolveAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bank/resolve" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("account_number"); got != "0001234567" {
			t.Errorf("unexpected account number: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":true,"data":{"account_number":"0001234567","account_name":"ADA OBI"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", time.Second)
	resolved, err := c.ResolveAccount(context.Background(), "0001234567", "058")
	if err != nil {
		t.Fatalf("resolve account: %v", err)
	}
	if resolved.AccountName != "ADA OBI" {
		t.Fatalf("unexpected resolved account: %+v", resolved)
	}
}

func TestClientListBanks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":true,"data":[{"name":"Wema Bank","code":"035","slug":"wema-bank"},{"name":"Zenith Bank","code":"057","slug":"zenith-bank"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", time.Second)
	banks, err := c.ListBanks(context.Background())
	if err != nil {
		t.Fatalf("list banks: %v", err)
	}
	if len(banks) != 2 || banks[0].Code != "035" {
		t.Fatalf("unexpected banks: %+v", banks)
	}
}
