package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockline/stockline/internal/auth"
	"github.com/stockline/stockline/internal/shared"
	_ "github.com/stockline/stockline/testing"
)

type stubRepo struct {
	users map[string]*auth.User
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: make(map[string]*auth.User)}
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	user, ok := s.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (s *stubRepo) Insert(ctx context.Context, user auth.User) (*auth.User, error) {
	if _, ok := s.users[user.Email]; ok {
		return nil, shared.ErrConflict
	}
	user.ID = int64(len(s.users) + 1)
	user.IsActive = true
	s.users[user.Email] = &user
	return &user, nil
}

func newHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.TokenManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tokens := shared.NewTokenManager(client, "stockline_test", "test-secret", time.Hour)
	service := auth.NewService(repo, tokens)
	logger := newTestLogger(t)
	return auth.NewHandler(logger, service), tokens
}

func TestSignupIssuesToken(t *testing.T) {
	handler, tokens := newHandler(t, newStubRepo())

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"name":"Jo","email":"jo@example.com","password":"secret123"}`))
	res := httptest.NewRecorder()
	router := newRouter(handler)
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusCreated, res.Code)

	var body struct {
		Token string    `json:"token"`
		User  auth.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	require.Equal(t, "customer", body.User.Role)

	principal, err := tokens.Resolve(context.Background(), body.Token)
	require.NoError(t, err)
	require.Equal(t, body.User.ID, principal.UserID)
	require.Equal(t, "customer", principal.Role)
}

func TestSignupDuplicateEmail(t *testing.T) {
	repo := newStubRepo()
	handler, _ := newHandler(t, repo)
	router := newRouter(handler)

	payload := `{"name":"Jo","email":"jo@example.com","password":"secret123"}`
	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(payload)))
	require.Equal(t, http.StatusCreated, res.Code)

	res = httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(payload)))
	require.Equal(t, http.StatusConflict, res.Code)
}

func TestLoginFoldsFailures(t *testing.T) {
	repo := newStubRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("rightpassword"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo.users["jo@example.com"] = &auth.User{ID: 1, Email: "jo@example.com", PasswordHash: string(hash), Role: "staff", IsActive: true}
	repo.users["gone@example.com"] = &auth.User{ID: 2, Email: "gone@example.com", PasswordHash: string(hash), Role: "staff", IsActive: false}

	handler, _ := newHandler(t, repo)
	router := newRouter(handler)

	cases := []struct {
		name    string
		payload string
		want    int
	}{
		{"valid", `{"email":"jo@example.com","password":"rightpassword"}`, http.StatusOK},
		{"wrong password", `{"email":"jo@example.com","password":"wrongpassword"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"nobody@example.com","password":"rightpassword"}`, http.StatusUnauthorized},
		{"inactive account", `{"email":"gone@example.com","password":"rightpassword"}`, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := httptest.NewRecorder()
			router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tc.payload)))
			require.Equal(t, tc.want, res.Code)
		})
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	repo := newStubRepo()
	handler, tokens := newHandler(t, repo)
	router := newRouter(handler)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"name":"Jo","email":"jo@example.com","password":"secret123"}`)))
	require.Equal(t, http.StatusCreated, res.Code)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusNoContent, res.Code)

	_, err := tokens.Resolve(context.Background(), body.Token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}
