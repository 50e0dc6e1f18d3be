package calls

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"callgenie_backend/platform/apperr"
	"callgenie_backend/platform/logger"
)

type providerTestConfig struct {
	baseURL string
}

func (c providerTestConfig) GetCallProviderBaseURL() string { return c.baseURL }
func (c providerTestConfig) GetCallProviderAPIKey() string  { return "test-key" }

func TestCreateBatchCall(t *testing.T) {
	var got createBatchCallRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/create-batch-call" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(createBatchCallResponse{BatchCallID: "batch_42"})
	}))
	defer srv.Close()

	client := NewProviderClient(providerTestConfig{baseURL: srv.URL}, logger.New("development"))

	result, err := client.CreateBatchCall(context.Background(), BatchRequest{
		ProviderAgentID: "agent_abc",
		CallerNumber:    "+15550001111",
		BatchName:       "friday-campaign",
		Leads: []BatchLead{
			{Name: "Jane", PhoneNumber: "+15550002222", Address: "12 Elm St"},
			{PhoneNumber: "+15550003333"},
		},
	})
	if err != nil {
		t.Fatalf("CreateBatchCall failed: %v", err)
	}
	if result.BatchID != "batch_42" || result.LeadCount != 2 {
		t.Fatalf("unexpected result %+v", result)
	}

	if got.FromNumber != "+15550001111" || got.OverrideAgentID != "agent_abc" {
		t.Fatalf("unexpected request body %+v", got)
	}
	if len(got.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(got.Tasks))
	}
	if got.Tasks[0].Variables["name"] != "Jane" || got.Tasks[0].Variables["address"] != "12 Elm St" {
		t.Fatalf("unexpected task variables %+v", got.Tasks[0].Variables)
	}
	if got.Tasks[1].Variables != nil {
		t.Fatalf("expected no variables for bare lead, got %+v", got.Tasks[1].Variables)
	}
}

func TestProviderErrorSurfacedVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":"insufficient provider balance"}`))
	}))
	defer srv.Close()

	client := NewProviderClient(providerTestConfig{baseURL: srv.URL}, logger.New("development"))

	_, err := client.CreateBatchCall(context.Background(), BatchRequest{
		Leads: []BatchLead{{PhoneNumber: "+15550002222"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream kind, got %v", err)
	}
	var domainErr *apperr.Error
	if !errors.As(err, &domainErr) || domainErr.Message != "insufficient provider balance" {
		t.Fatalf("expected verbatim provider message, got %v", err)
	}
}

func TestCreatePhoneCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/create-phone-call" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(createPhoneCallResponse{CallID: "call_42"})
	}))
	defer srv.Close()

	client := NewProviderClient(providerTestConfig{baseURL: srv.URL}, logger.New("development"))

	result, err := client.CreatePhoneCall(context.Background(), SingleRequest{
		ProviderAgentID: "agent_abc",
		CallerNumber:    "+15550001111",
		PhoneNumber:     "+15550002222",
	})
	if err != nil {
		t.Fatalf("CreatePhoneCall failed: %v", err)
	}
	if result.CallID != "call_42" {
		t.Fatalf("unexpected call id %q", result.CallID)
	}
}
