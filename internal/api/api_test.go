package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func fastRetry() *RetryConfig {
	return &RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond}
}

func TestGETSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Referer") != "https://www.nseindia.com/" {
			t.Errorf("Expected NSE referer, got %q", r.Header.Get("Referer"))
		}
		if r.Header.Get("X-Desk") != "recon" {
			t.Errorf("Expected default header, got %q", r.Header.Get("X-Desk"))
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(WithHeader("X-Desk", "recon"))
	resp, err := c.GET(context.Background(), srv.URL, NSEArchiveHeaders())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("Expected body ok, got %q", resp.Body)
	}
}

func TestGETWithRetryRecoversFromServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("done"))
	}))
	defer srv.Close()

	resp, err := NewClient().GETWithRetry(context.Background(), srv.URL, fastRetry())
	if err != nil {
		t.Fatalf("Expected success on third attempt, got %v", err)
	}
	if string(resp.Body) != "done" || atomic.LoadInt32(&calls) != 3 {
		t.Errorf("Expected 3 calls ending in done, got %d calls body %q", calls, resp.Body)
	}
}

func TestGETWithRetryStopsOnNotFound(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewClient().GETWithRetry(context.Background(), srv.URL, fastRetry())
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404 StatusError, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("Expected a single attempt, got %d", calls)
	}
}

func TestGETWithRetryHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient().GETWithRetry(ctx, srv.URL, &RetryConfig{MaxAttempts: 5, InitialWait: time.Hour, MaxWait: time.Hour})
	if err == nil {
		t.Fatal("Expected error for cancelled context")
	}
}

func TestMaxBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	resp, err := NewClient(WithMaxBody(4)).GET(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(resp.Body) != "0123" {
		t.Errorf("Expected truncated body, got %q", resp.Body)
	}
}
