package twelvedata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Alias1177/dtiquant/internal/model"
)

func newTestServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/time_series" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("interval") != "1day" || q.Get("symbol") != "AAPL" || q.Get("apikey") != "secret" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(baseURL string) *Client {
	return NewClient(ClientOptions{
		APIKey:          "secret",
		BaseURL:         baseURL,
		RequestTimeout:  2 * time.Second,
		RequestsPerSec:  100,
		MaxRetries:      1,
		MaxRetryTimeout: time.Second,
	})
}

func TestGetDailyCandles(t *testing.T) {
	body := `{
		"meta": {"symbol": "AAPL", "interval": "1day"},
		"values": [
			{"datetime": "2024-01-03", "open": "11", "high": "12", "low": "10", "close": "11.5", "volume": "300"},
			{"datetime": "2024-01-02", "open": "10", "high": "11", "low": "9", "close": "10.5", "volume": "200"}
		],
		"status": "ok"
	}`
	srv := newTestServer(t, http.StatusOK, body)

	candles, err := newTestClient(srv.URL).GetDailyCandles(context.Background(), "AAPL", 2)
	if err != nil {
		t.Fatalf("GetDailyCandles() error = %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("len = %d, want 2", len(candles))
	}

	first := candles[0]
	if !first.Date.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("candles are not sorted oldest first: %s", first.Date)
	}
	if first.Close != 10.5 || first.High != 11 || first.Volume != 200 {
		t.Errorf("first candle = %+v", first)
	}
}

func TestGetDailyCandlesErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"api error", http.StatusOK, `{"status": "error", "message": "invalid symbol"}`},
		{"empty values", http.StatusOK, `{"status": "ok", "values": []}`},
		{"bad json", http.StatusOK, `{"values": [`},
		{"bad datetime", http.StatusOK, `{"status": "ok", "values": [{"datetime": "yesterday", "open": "1", "high": "1", "low": "1", "close": "1"}]}`},
		{"unauthorized", http.StatusUnauthorized, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.status, tt.body)
			if _, err := newTestClient(srv.URL).GetDailyCandles(context.Background(), "AAPL", 10); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestGetDailyCandlesInvalidDays(t *testing.T) {
	client := newTestClient("http://127.0.0.1:0")
	for _, days := range []int{0, -1, maxOutputSize + 1} {
		if _, err := client.GetDailyCandles(context.Background(), "AAPL", days); !errors.Is(err, model.ErrInvalidInput) {
			t.Errorf("days %d: error = %v, want ErrInvalidInput", days, err)
		}
	}
}
