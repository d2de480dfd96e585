package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tallr-app/tallr/internal/core"
)

func TestStateSendsBearerToken(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/state" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/state")
		}
		snap := core.NewSnapshot()
		snap.Tasks["t1"] = &core.Task{ID: "t1", State: core.StateWorking}
		_ = json.NewEncoder(w).Encode(snap)
	}))
	defer ts.Close()

	c := New(ts.URL, "secret-token")
	snap, err := c.State(context.Background())
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}

	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer secret-token")
	}
	if _, ok := snap.Tasks["t1"]; !ok {
		t.Errorf("snapshot missing task t1")
	}
}

func TestHealth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/health")
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ok", "timestamp": 1700000000, "tasks": 3, "projects": 1,
		})
	}))
	defer ts.Close()

	health, err := New(ts.URL, "tok").Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("status = %q, want %q", health.Status, "ok")
	}
	if health.Tasks != 3 {
		t.Errorf("tasks = %d, want 3", health.Tasks)
	}
}

func TestUnauthorizedSurfacesAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer ts.Close()

	_, err := New(ts.URL, "bad").State(context.Background())
	if err == nil {
		t.Fatal("State() error = nil, want APIError")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", apiErr.StatusCode, http.StatusUnauthorized)
	}
	if apiErr.Message != "unauthorized" {
		t.Errorf("message = %q, want %q", apiErr.Message, "unauthorized")
	}
}

func TestErrorWithoutJSONBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := New(ts.URL, "tok").Health(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.Message == "" {
		t.Errorf("message is empty, want status text fallback")
	}
}

func TestConnectionRefused(t *testing.T) {
	c := New("http://127.0.0.1:1", "tok")
	if _, err := c.State(context.Background()); err == nil {
		t.Fatal("State() error = nil, want connection failure")
	}
}
