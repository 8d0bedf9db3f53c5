package auth_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/stockline/stockline/internal/auth"
)

func newRouter(h *auth.Handler) chi.Router {
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func newTestLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
