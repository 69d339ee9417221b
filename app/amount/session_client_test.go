package amount

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestResolveAmountSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/internal/sessions/tx-1/amount" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"amount":"120.50"}`))
	}))
	defer server.Close()

	client := NewSessionClient(SessionClientConfig{BaseURL: server.URL})
	amount, err := client.ResolveAmount(context.Background(), "tx-1")
	if err != nil {
		t.Fatalf("ResolveAmount failed: %v", err)
	}
	if !amount.Equal(decimal.RequireFromString("120.50")) {
		t.Fatalf("expected 120.50, got %s", amount)
	}
}

func TestResolveAmountNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewSessionClient(SessionClientConfig{BaseURL: server.URL})
	_, err := client.ResolveAmount(context.Background(), "tx-1")
	if !errors.Is(err, ErrAmountUnavailable) {
		t.Fatalf("expected ErrAmountUnavailable, got %v", err)
	}
}

func TestResolveAmountMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewSessionClient(SessionClientConfig{BaseURL: server.URL})
	if _, err := client.ResolveAmount(context.Background(), "tx-1"); !errors.Is(err, ErrAmountUnavailable) {
		t.Fatalf("expected ErrAmountUnavailable, got %v", err)
	}
}

func TestResolveAmountNegativeRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"amount":"-5.00"}`))
	}))
	defer server.Close()

	client := NewSessionClient(SessionClientConfig{BaseURL: server.URL})
	if _, err := client.ResolveAmount(context.Background(), "tx-1"); !errors.Is(err, ErrAmountUnavailable) {
		t.Fatalf("expected ErrAmountUnavailable, got %v", err)
	}
}

func TestResolveAmountMissingBaseURL(t *testing.T) {
	client := NewSessionClient(SessionClientConfig{})
	if _, err := client.ResolveAmount(context.Background(), "tx-1"); !errors.Is(err, ErrAmountUnavailable) {
		t.Fatalf("expected ErrAmountUnavailable, got %v", err)
	}
}
