package webhook_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cta-observatory/zfits-runsource/adapter"
	"github.com/cta-observatory/zfits-runsource/adapter/webhook"
	"github.com/cta-observatory/zfits-runsource/types"
)

func sampleEvent() *adapter.RunAssembledEvent {
	return &adapter.RunAssembledEvent{
		ContractVersion: "1.0",
		EventType:       "run_assembled",
		ObsID:           2000000016,
		SBID:            2000000008,
		TelID:           1,
		Site:            "north",
		Day:             "2023-10-03",
		Outcome:         "success",
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		EventCount:      1200,
		FirstEventID:    1,
		LastEventID:     1200,
	}
}

func TestPublish_PostsJSON(t *testing.T) {
	var got adapter.RunAssembledEvent
	var headers http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a, err := webhook.New(webhook.Config{URL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	if err := a.Publish(t.Context(), sampleEvent()); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}

	if ct := headers.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s", ct)
	}
	if ua := headers.Get("User-Agent"); ua != "zfitsrun/"+types.Version {
		t.Errorf("User-Agent = %s", ua)
	}
	if obs := headers.Get("X-Zfits-Obs-Id"); obs != "2000000016" {
		t.Errorf("X-Zfits-Obs-Id = %s", obs)
	}
	if tel := headers.Get("X-Zfits-Tel-Id"); tel != "1" {
		t.Errorf("X-Zfits-Tel-Id = %s", tel)
	}
	if outcome := headers.Get("X-Zfits-Outcome"); outcome != "success" {
		t.Errorf("X-Zfits-Outcome = %s", outcome)
	}
	if got.ObsID != 2000000016 {
		t.Errorf("ObsID = %d, want 2000000016", got.ObsID)
	}
	if got.Outcome != "success" {
		t.Errorf("Outcome = %s, want success", got.Outcome)
	}
	if got.ContractVersion != "1.0" {
		t.Errorf("ContractVersion = %s, want 1.0", got.ContractVersion)
	}
}

func TestPublish_CustomHeaders(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	a, err := webhook.New(webhook.Config{
		URL:     srv.URL,
		Headers: map[string]string{"Authorization": "Bearer token123"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	if err := a.Publish(t.Context(), sampleEvent()); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}
	if auth != "Bearer token123" {
		t.Errorf("Authorization = %s", auth)
	}
}

func TestPublish_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	a, err := webhook.New(webhook.Config{URL: srv.URL, Retries: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	err = a.Publish(t.Context(), sampleEvent())
	if err == nil {
		t.Fatal("expected a publish error")
	}

	var statusErr *webhook.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusUnprocessableEntity {
		t.Errorf("Code = %d, want 422", statusErr.Code)
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1", calls.Load())
	}
}

func TestPublish_ServerErrorRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a, err := webhook.New(webhook.Config{URL: srv.URL, Retries: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	if err := a.Publish(t.Context(), sampleEvent()); err != nil {
		t.Fatalf("unexpected publish error after retry: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("server called %d times, want 2", calls.Load())
	}
}

func TestPublish_ExhaustedRetries(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	a, err := webhook.New(webhook.Config{URL: srv.URL, Retries: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	err = a.Publish(t.Context(), sampleEvent())
	if err == nil {
		t.Fatal("expected a publish error")
	}
	if calls.Load() != 2 {
		t.Errorf("server called %d times, want 2", calls.Load())
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := webhook.New(webhook.Config{}); err == nil {
		t.Error("expected an error for an empty URL")
	}
	if _, err := webhook.New(webhook.Config{URL: "http://localhost", Retries: -1}); err == nil {
		t.Error("expected an error for negative retries")
	}
}
