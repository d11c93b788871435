package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func TestClientGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("unexpected User-Agent %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	c := NewClient(Config{UserAgent: "test-agent"}, nil, nil)
	body, err := c.GetString(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GetString() error = %v", err)
	}
	if body != "<html>ok</html>" {
		t.Errorf("body = %q", body)
	}
}

func TestClientStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(Config{}, nil, nil)
	_, err := c.Get(context.Background(), server.URL)
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != 404 {
		t.Errorf("expected status 404, got %v", err)
	}
	if err.Error() != "HTTP error! status: 404" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestClientDoesNotRetry(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(Config{}, nil, nil)
	c.Get(context.Background(), server.URL)

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected exactly 1 request, got %d", got)
	}
}

func TestClientBreakerOpens(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(Config{MaxFailures: 2, OpenTimeout: time.Minute}, nil, nil)
	for i := 0; i < 2; i++ {
		c.Get(context.Background(), server.URL)
	}

	if c.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", c.State())
	}

	_, err := c.Get(context.Background(), server.URL)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("open breaker should not reach the server, got %d hits", got)
	}
}

func TestClientNotFoundDoesNotTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(Config{MaxFailures: 1}, nil, nil)
	for i := 0; i < 3; i++ {
		c.Get(context.Background(), server.URL)
	}
	if c.State() != gobreaker.StateClosed {
		t.Errorf("4xx responses should not open the breaker, got %s", c.State())
	}
}
