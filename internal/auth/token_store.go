package auth

import (
	"context"
	"strconv"
	"time"

	"manpower/internal/cache"
)

const passwordChangedKeyPrefix = "password_changed:"

// TokenStoreInterface defines the interface for token revocation state.
type TokenStoreInterface interface {
	// MarkPasswordChanged revokes every token of userID issued before at.
	MarkPasswordChanged(ctx context.Context, userID string, at time.Time) error
	// PasswordChangedAt returns the last recorded change, or the zero time.
	PasswordChangedAt(ctx context.Context, userID string) (time.Time, error)
}

// TokenStore keeps revocation markers in Redis. Markers expire together
// with the longest-lived token they could affect.
type TokenStore struct {
	cache *cache.Client
	ttl   time.Duration
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client, tokenTTL time.Duration) *TokenStore {
	return &TokenStore{cache: cache, ttl: tokenTTL}
}

// MarkPasswordChanged records the change instant for userID.
func (s *TokenStore) MarkPasswordChanged(ctx context.Context, userID string, at time.Time) error {
	value := strconv.FormatInt(at.Unix(), 10)
	return s.cache.Set(ctx, passwordChangedKeyPrefix+userID, []byte(value), s.ttl)
}

// PasswordChangedAt reads the marker for userID. Redis being unavailable
// reads as "never changed".
func (s *TokenStore) PasswordChangedAt(ctx context.Context, userID string) (time.Time, error) {
	data, _ := s.cache.Get(ctx, passwordChangedKeyPrefix+userID)
	if data == nil {
		return time.Time{}, nil
	}
	secs, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return time.Time{}, nil
	}
	return time.Unix(secs, 0), nil
}
