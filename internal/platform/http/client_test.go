package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient() *Client {
	return NewClient(ClientOptions{
		Timeout:         2 * time.Second,
		RequestsPerSec:  1000,
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
	})
}

func TestDoRequest(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantCalls int32
		wantCode  int
	}{
		{"ok on first try", []int{200}, 1, 0},
		{"retries server errors", []int{500, 503, 200}, 3, 0},
		{"gives up after max retries", []int{500, 500, 500, 500}, 3, 500},
		{"does not retry bad request", []int{400, 200}, 1, 400},
		{"retries rate limiting", []int{429, 200}, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.statuses[int(n)-1])
			}))
			defer srv.Close()

			req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
			if err != nil {
				t.Fatal(err)
			}

			resp, err := newTestClient().DoRequest(context.Background(), req)
			if got := atomic.LoadInt32(&calls); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}

			if tt.wantCode == 0 {
				if err != nil {
					t.Fatalf("DoRequest() error = %v", err)
				}
				resp.Body.Close()
				return
			}

			var statusErr *HTTPStatusError
			if !errors.As(err, &statusErr) || statusErr.StatusCode != tt.wantCode {
				t.Errorf("error = %v, want status %d", err, tt.wantCode)
			}
		})
	}
}

func TestDoRequestCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	if _, err := newTestClient().DoRequest(ctx, req); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}
