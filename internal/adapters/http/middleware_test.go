package httpadapter

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitReturns429WhenExhausted(t *testing.T) {
	handler := rateLimitMiddleware(okHandler(), 1, 1)
	server := httptest.NewServer(handler)
	defer server.Close()

	first, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	first.Body.Close()
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first status = %d, want 200", first.StatusCode)
	}

	second, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	second.Body.Close()
	if second.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.StatusCode)
	}
	if second.Header.Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header on 429")
	}
}

func TestRateLimitDisabledWhenRPSNonPositive(t *testing.T) {
	handler := rateLimitMiddleware(okHandler(), 0, 0)
	server := httptest.NewServer(handler)
	defer server.Close()

	for i := 0; i < 10; i++ {
		resp, err := http.Get(server.URL)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, resp.StatusCode)
		}
	}
}

func TestBackpressureSheds503WhenSaturated(t *testing.T) {
	release := make(chan struct{})
	slow := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	})

	handler := backpressureMiddleware(slow, 1, 50*time.Millisecond)
	server := httptest.NewServer(handler)
	defer server.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := http.Get(server.URL)
		if err != nil {
			t.Errorf("occupying request: %v", err)
			return
		}
		resp.Body.Close()
	}()

	// Give the first request time to take the only slot.
	time.Sleep(20 * time.Millisecond)

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("shed request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}

	close(release)
	wg.Wait()
}

func TestBackpressureAdmitsWhenSlotFrees(t *testing.T) {
	handler := backpressureMiddleware(okHandler(), 1, time.Second)
	server := httptest.NewServer(handler)
	defer server.Close()

	for i := 0; i < 5; i++ {
		resp, err := http.Get(server.URL)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, resp.StatusCode)
		}
	}
}

func TestRequestIDPropagated(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(requestIDMiddleware(inner))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	req.Header.Set(requestIDHeader, "req-abc")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	if seen != "req-abc" {
		t.Fatalf("request id in context = %q, want %q", seen, "req-abc")
	}
	if got := resp.Header.Get(requestIDHeader); got != "req-abc" {
		t.Fatalf("request id header = %q, want %q", got, "req-abc")
	}
}
