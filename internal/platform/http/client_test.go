package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *Client {
	return NewClient(ClientOptions{
		Timeout:         time.Second,
		RequestsPerSec:  100,
		MaxRetries:      2,
		MaxRetryTimeout: 2 * time.Second,
	})
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":"42"}`))
	}))
	defer srv.Close()

	var out struct {
		Value string `json:"value"`
	}
	require.NoError(t, testClient().GetJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, "42", out.Value)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var out map[string]interface{}
	require.NoError(t, testClient().GetJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	var out map[string]interface{}
	err := testClient().GetJSON(context.Background(), srv.URL, &out)
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient()
	c.maxRetries = 0
	var out map[string]interface{}
	for i := 0; i < 3; i++ {
		assert.Error(t, c.GetJSON(context.Background(), srv.URL, &out))
	}

	err := c.GetJSON(context.Background(), srv.URL, &out)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
		wantOpen  bool
	}{
		{"bad request", http.StatusBadRequest, 5, false},
		{"not found", http.StatusNotFound, 5, false},
		{"rate limited", http.StatusTooManyRequests, 3, true},
		{"bad gateway", http.StatusBadGateway, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := testClient()
			c.maxRetries = 0
			var out map[string]interface{}
			var err error
			for i := 0; i < 5; i++ {
				err = c.GetJSON(context.Background(), srv.URL, &out)
				require.Error(t, err)
			}

			assert.Equal(t, tt.wantOpen, errors.Is(err, gobreaker.ErrOpenState))
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
			if !tt.wantOpen {
				var statusErr *HTTPStatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, tt.status, statusErr.StatusCode)
			}
		})
	}
}

func TestIsHealthy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"bad request", &HTTPStatusError{StatusCode: http.StatusBadRequest}, true},
		{"wrapped forbidden", fmt.Errorf("fetch: %w", &HTTPStatusError{StatusCode: http.StatusForbidden}), true},
		{"rate limited", &HTTPStatusError{StatusCode: http.StatusTooManyRequests}, false},
		{"server error", &HTTPStatusError{StatusCode: http.StatusServiceUnavailable}, false},
		{"transport", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isHealthy(tt.err))
		})
	}
}

func TestMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	var out map[string]interface{}
	assert.Error(t, testClient().GetJSON(context.Background(), srv.URL, &out))
}
