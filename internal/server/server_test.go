package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Host != "0.0.0.0" {
		t.Fatalf("Host = %q; want %q", cfg.Host, "0.0.0.0")
	}
	if cfg.Port != 3006 {
		t.Fatalf("Port = %d; want %d", cfg.Port, 3006)
	}
	if cfg.ReadTimeout != 15*time.Second {
		t.Fatalf("ReadTimeout = %v; want %v", cfg.ReadTimeout, 15*time.Second)
	}
	if cfg.WriteTimeout < 3*time.Minute {
		t.Fatalf("WriteTimeout = %v; must outlast a full retry budget", cfg.WriteTimeout)
	}
	if cfg.IdleTimeout != 60*time.Second {
		t.Fatalf("IdleTimeout = %v; want %v", cfg.IdleTimeout, 60*time.Second)
	}
}

func TestNewServer_ConfiguresAddressAndHandler(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", Port: 18080, ReadTimeout: time.Second, WriteTimeout: 2 * time.Second, IdleTimeout: 3 * time.Second}
	s := NewServer(http.NotFoundHandler(), cfg, nil)

	if s == nil {
		t.Fatal("NewServer() returned nil")
	}
	if s.Addr() != "127.0.0.1:18080" {
		t.Fatalf("Addr = %q; want %q", s.Addr(), "127.0.0.1:18080")
	}
	if s.http.Handler == nil {
		t.Fatal("Handler should not be nil")
	}
	if s.http.WriteTimeout != 2*time.Second {
		t.Fatalf("WriteTimeout = %v; want 2s", s.http.WriteTimeout)
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	s := NewServer(handler, DefaultConfig(), nil)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(context.Background(), l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Fatalf("body = %q; want pong", body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Serve returned %v; want nil after shutdown", err)
	}
}

func TestServer_ShutdownDeadlineCancelsInFlightRequests(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	started := make(chan struct{})
	aborted := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
		close(aborted)
	})
	s := NewServer(handler, DefaultConfig(), nil)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(context.Background(), l) }()
	go func() {
		resp, err := http.Get("http://" + l.Addr().String() + "/generate")
		if err == nil {
			resp.Body.Close()
		}
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("request never reached the handler")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown past the drain deadline = %v; want nil", err)
	}

	select {
	case <-aborted:
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight request context was not canceled")
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Serve returned %v; want nil after shutdown", err)
	}
}
