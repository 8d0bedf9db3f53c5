package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/stockline/stockline/internal/shared"
	_ "github.com/stockline/stockline/testing"
)

func buildStack(t *testing.T, tokens *shared.TokenManager, inner http.Handler) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := inner
	stack := MiddlewareStack(MiddlewareConfig{Logger: logger, TokenManager: tokens})
	for i := len(stack) - 1; i >= 0; i-- {
		handler = stack[i](handler)
	}
	return handler
}

func TestMiddlewareStackLoadsPrincipal(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tokens := shared.NewTokenManager(client, "stockline_test", "test-secret", time.Hour)

	token, err := tokens.Issue(context.Background(), shared.Principal{UserID: 11, Role: "staff"})
	require.NoError(t, err)

	var got *shared.Principal
	handler := buildStack(t, tokens, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = shared.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, got)
	require.EqualValues(t, 11, got.UserID)
	require.Equal(t, "staff", got.Role)
}

func TestMiddlewareStackWithoutToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tokens := shared.NewTokenManager(client, "stockline_test", "test-secret", time.Hour)

	var got *shared.Principal
	served := false
	handler := buildStack(t, tokens, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = shared.PrincipalFromContext(r.Context())
		served = true
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))

	// Loading only: the request goes through without a principal.
	require.True(t, served)
	require.Nil(t, got)
	require.Equal(t, http.StatusOK, rec.Code)
}
