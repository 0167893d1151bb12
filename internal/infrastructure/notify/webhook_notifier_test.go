package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"obiwork/internal/ports"
)

func TestNotifyPostsPayload(t *testing.T) {
	var received atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		received.Store(body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(map[string]string{ports.ChannelTriage: srv.URL}, time.Second)
	if !n.Notify(context.Background(), ports.ChannelTriage, map[string]any{"applicationId": "a1"}) {
		t.Fatal("Notify() = false, want true")
	}
	body, _ := received.Load().(map[string]any)
	if body["applicationId"] != "a1" {
		t.Fatalf("received body = %v", body)
	}
}

func TestNotifyUnconfiguredChannel(t *testing.T) {
	n := NewWebhookNotifier(map[string]string{ports.ChannelInternal: "  "}, 0)
	if n.Configured(ports.ChannelInternal) {
		t.Fatal("blank URL counted as configured")
	}
	if n.Notify(context.Background(), ports.ChannelInternal, map[string]any{}) {
		t.Fatal("Notify() = true for unconfigured channel")
	}
}

func TestNotifyFailureAndTimeout(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	n := NewWebhookNotifier(map[string]string{
		ports.ChannelTriage:   failing.URL,
		ports.ChannelInternal: slow.URL,
	}, 100*time.Millisecond)

	if n.Notify(context.Background(), ports.ChannelTriage, map[string]any{}) {
		t.Fatal("Notify() = true on 502")
	}
	start := time.Now()
	if n.Notify(context.Background(), ports.ChannelInternal, map[string]any{}) {
		t.Fatal("Notify() = true on timeout")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Notify() took %s, timeout not applied", elapsed)
	}
}
