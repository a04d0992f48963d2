package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "secret", Options{Timeout: 2 * time.Second}), srv
}

func TestClientGetDecodesData(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/profile/counts", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":{"notifications":3,"messages":7}}`))
	})

	var out struct {
		Notifications int `json:"notifications"`
		Messages      int `json:"messages"`
	}
	require.NoError(t, c.Get(context.Background(), "/profile/counts", &out))
	assert.Equal(t, 3, out.Notifications)
	assert.Equal(t, 7, out.Messages)
}

func TestClientOmitsAuthorizationWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "", Options{})
	require.NoError(t, c.Post(context.Background(), "/x", nil))
}

func TestClientErrorEnvelope(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"An error occurred while loading notifications"}`))
	})

	err := c.Get(context.Background(), "/feed", nil)
	require.Error(t, err)

	var sErr *StatusError
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, http.StatusOK, sErr.StatusCode)
	assert.Equal(t, "error", sErr.Status)
	assert.Contains(t, sErr.Error(), "loading notifications")
	assert.False(t, IsTransportError(err))
}

func TestClientNon2xx(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","message":"Failed to load counts"}`))
	})

	err := c.Get(context.Background(), "/profile/counts", nil)
	var sErr *StatusError
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, http.StatusInternalServerError, sErr.StatusCode)
	assert.Equal(t, "Failed to load counts", sErr.Message)
}

func TestClientNon2xxWithoutJSON(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})

	err := c.Get(context.Background(), "/profile/counts", nil)
	var sErr *StatusError
	require.True(t, errors.As(err, &sErr))
	assert.Contains(t, sErr.Message, "bad gateway")
}

func TestClientUnauthorized(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","message":"Authentication required. Please login."}`))
	})

	err := c.Get(context.Background(), "/profile/counts", nil)
	require.True(t, IsAuthError(err))
	assert.Contains(t, err.Error(), "Please login")
}

func TestClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, "t", Options{Timeout: time.Second})
	err := c.Get(context.Background(), "/profile/counts", nil)
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.False(t, IsStatusError(err))
}

func TestClientMalformedData(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","data":"not-an-object"}`))
	})

	var out struct{ N int }
	err := c.Get(context.Background(), "/x", &out)
	assert.True(t, IsStatusError(err))
}

func TestClientBreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "t", Options{
		BreakerFailures: 2,
		BreakerCooldown: time.Minute,
	})

	for i := 0; i < 2; i++ {
		require.True(t, IsStatusError(c.Get(context.Background(), "/x", nil)))
	}

	err := c.Get(context.Background(), "/x", nil)
	require.True(t, IsTransportError(err))
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(2), hits.Load())
}

func TestClientBreakerIgnoresClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":"error","message":"Notification not found"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "t", Options{BreakerFailures: 1})
	for i := 0; i < 3; i++ {
		assert.True(t, IsStatusError(c.Post(context.Background(), "/x", nil)))
	}
	assert.Equal(t, int32(3), hits.Load())
}
