package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veritel/pkg/requestcontext"
)

func TestMemoryStoreAllow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	t.Run("allows up to the limit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			result, err := store.Allow(ctx, "rl:ip:1.2.3.4", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, result.Allowed)
			assert.Equal(t, 3-i-1, result.Remaining)
		}

		result, err := store.Allow(ctx, "rl:ip:1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, result.Allowed)
	})

	t.Run("keys are independent", func(t *testing.T) {
		result, err := store.Allow(ctx, "rl:ip:5.6.7.8", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("window slides", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			_, err := store.Allow(ctx, "rl:ip:short", 2, 50*time.Millisecond)
			require.NoError(t, err)
		}
		denied, err := store.Allow(ctx, "rl:ip:short", 2, 50*time.Millisecond)
		require.NoError(t, err)
		assert.False(t, denied.Allowed)

		time.Sleep(60 * time.Millisecond)

		again, err := store.Allow(ctx, "rl:ip:short", 2, 50*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, again.Allowed)
	})
}

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (*Result, error) {
	return nil, assert.AnError
}

func TestMiddleware(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	request := func(ip string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/verify/query", nil)
		return req.WithContext(requestcontext.WithClientIP(req.Context(), ip))
	}

	t.Run("throttles after the limit", func(t *testing.T) {
		guarded := Middleware(NewMemoryStore(), 2, time.Minute, logger)(next)

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			guarded.ServeHTTP(w, request("1.2.3.4"))
			require.Equal(t, http.StatusOK, w.Code)
		}

		w := httptest.NewRecorder()
		guarded.ServeHTTP(w, request("1.2.3.4"))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("fails open when the store errors", func(t *testing.T) {
		guarded := Middleware(failingStore{}, 1, time.Minute, logger)(next)
		w := httptest.NewRecorder()
		guarded.ServeHTTP(w, request("1.2.3.4"))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("skips requests without client IP", func(t *testing.T) {
		guarded := Middleware(NewMemoryStore(), 1, time.Minute, logger)(next)
		req := httptest.NewRequest(http.MethodPost, "/verify/query", nil)
		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			guarded.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})
}
