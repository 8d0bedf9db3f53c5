package shared

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenManager stores opaque bearer tokens in Redis, mapping each token to
// the principal it was issued for. Tokens are keyed by an HMAC of their
// value, so the raw bearer tokens never appear in Redis.
type TokenManager struct {
	client *redis.Client
	prefix string
	secret []byte
	ttl    time.Duration
}

type tokenPayload struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// NewTokenManager constructs a TokenManager keyed with secret.
func NewTokenManager(client *redis.Client, prefix, secret string, ttl time.Duration) *TokenManager {
	if prefix == "" {
		prefix = "token"
	}
	return &TokenManager{client: client, prefix: prefix, secret: []byte(secret), ttl: ttl}
}

// Issue creates a new token for the principal and persists it with TTL.
func (tm *TokenManager) Issue(ctx context.Context, p Principal) (string, error) {
	if tm == nil || tm.client == nil {
		return "", errors.New("token manager not initialised")
	}
	token := uuid.NewString()
	data, err := json.Marshal(tokenPayload{UserID: p.UserID, Role: p.Role})
	if err != nil {
		return "", err
	}
	if err := tm.client.Set(ctx, tm.key(token), data, tm.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve looks up the principal for a token. Returns ErrUnauthorized when
// the token is unknown or expired.
func (tm *TokenManager) Resolve(ctx context.Context, token string) (*Principal, error) {
	if tm == nil || tm.client == nil {
		return nil, errors.New("token manager not initialised")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthorized
	}
	data, err := tm.client.Get(ctx, tm.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	var payload tokenPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return &Principal{UserID: payload.UserID, Role: payload.Role}, nil
}

// Revoke deletes a token. Revoking an unknown token is not an error.
func (tm *TokenManager) Revoke(ctx context.Context, token string) error {
	if tm == nil || tm.client == nil {
		return errors.New("token manager not initialised")
	}
	if token == "" {
		return nil
	}
	if err := tm.client.Del(ctx, tm.key(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (tm *TokenManager) key(token string) string {
	mac := hmac.New(sha256.New, tm.secret)
	mac.Write([]byte(token))
	return tm.prefix + ":" + hex.EncodeToString(mac.Sum(nil))
}
