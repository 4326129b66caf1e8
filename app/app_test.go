package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pubsub "event_framework"
	"event_framework/config"
)

type wiredEvent struct{}

func TestNewWiresComponents(t *testing.T) {
	a := New(config.Config{QueueSize: 8, WorkerCount: 1, HTTPPort: ":0"})

	if a.Publisher() == nil || a.Queue() == nil || a.Mux() == nil {
		t.Fatalf("components missing after New")
	}

	done := make(chan struct{})
	pubsub.SubscribeFunc(a.Publisher(), func(wiredEvent) { close(done) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Queue().Start(ctx)
	if !a.Queue().Enqueue(wiredEvent{}) {
		t.Fatalf("enqueue through the wired queue failed")
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("event did not reach the handler through the queue")
	}
}

func TestOpsRoutesRegistered(t *testing.T) {
	a := New(config.Config{QueueSize: 8, WorkerCount: 1})

	req := httptest.NewRequest(http.MethodGet, "/ops/health", nil)
	rr := httptest.NewRecorder()
	a.Mux().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("health route not registered, status %d", rr.Code)
	}
}
