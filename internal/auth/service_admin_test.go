package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"veritel/internal/audit"
	dErrors "veritel/pkg/domain-errors"
	"veritel/pkg/requestcontext"
)

func newTestService(t *testing.T, opts ...Option) (*Service, *audit.MemoryPublisher) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	publisher := audit.NewMemoryPublisher()
	opts = append([]Option{WithAuditPublisher(publisher)}, opts...)
	tokens := NewTokenService("test-signing-key", "veritel", "veritel-admin")
	return NewService(tokens, NewMemoryRevocationList(), "admin", string(hash), opts...), publisher
}

func TestServiceLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("issues token for valid credentials", func(t *testing.T) {
		svc, publisher := newTestService(t)

		token, ttl, err := svc.Login(ctx, "admin", "hunter2")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, defaultTokenTTL, ttl)

		subject, err := svc.Authenticate(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "admin", subject)

		events := publisher.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionAdminLogin, events[0].Action)
		assert.Equal(t, "admin", events[0].Actor)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		svc, publisher := newTestService(t)

		_, _, err := svc.Login(ctx, "admin", "wrong")
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
		assert.Empty(t, publisher.Events())
	})

	t.Run("rejects unknown login with the same error", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, _, err := svc.Login(ctx, "root", "hunter2")
		require.Error(t, err)
		assert.Equal(t, "invalid credentials", dErrors.DescriptionOf(err))
	})

	t.Run("honors configured token TTL", func(t *testing.T) {
		svc, _ := newTestService(t, WithTokenTTL(30*time.Minute))

		_, ttl, err := svc.Login(ctx, "admin", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, 30*time.Minute, ttl)
	})
}

func TestServiceLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("revoked token fails authentication", func(t *testing.T) {
		svc, _ := newTestService(t)

		token, _, err := svc.Login(ctx, "admin", "hunter2")
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx, token))

		_, err = svc.Authenticate(ctx, token)
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
		assert.Equal(t, "token has been revoked", dErrors.DescriptionOf(err))
	})

	t.Run("logout with invalid token fails", func(t *testing.T) {
		svc, _ := newTestService(t)
		err := svc.Logout(ctx, "bogus")
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})
}

func TestMiddleware(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	var seenSubject string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenSubject = requestcontext.AdminSubject(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	guarded := Middleware(svc)(next)

	t.Run("passes valid token and injects subject", func(t *testing.T) {
		token, _, err := svc.Login(ctx, "admin", "hunter2")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPatch, "/admin/entities", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		guarded.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "admin", seenSubject)
	})

	t.Run("rejects missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/admin/entities", nil)
		w := httptest.NewRecorder()
		guarded.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects revoked token", func(t *testing.T) {
		token, _, err := svc.Login(ctx, "admin", "hunter2")
		require.NoError(t, err)
		require.NoError(t, svc.Logout(ctx, token))

		req := httptest.NewRequest(http.MethodPatch, "/admin/entities", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		guarded.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
