package codes

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// InviteTokenTTL is how long an invite / set-password link stays valid.
const InviteTokenTTL = 72 * time.Hour

// InviteStore issues opaque one-time tokens that let an invited user set
// their first password.
type InviteStore struct {
	rdb redis.UniversalClient
}

// NewInviteStore creates an InviteStore.
func NewInviteStore(rdb redis.UniversalClient) *InviteStore {
	return &InviteStore{rdb: rdb}
}

// Issue creates a fresh token bound to the user id.
func (s *InviteStore) Issue(ctx context.Context, userID uint64) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invite token: %w", err)
	}
	token := hex.EncodeToString(buf)

	key := inviteKey(token)
	if err := s.rdb.Set(ctx, key, strconv.FormatUint(userID, 10), InviteTokenTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store invite token: %w", err)
	}
	return token, nil
}

// Consume resolves a token to its user id and invalidates it. The second
// return value is false when the token is unknown or expired.
func (s *InviteStore) Consume(ctx context.Context, token string) (uint64, bool, error) {
	key := inviteKey(token)
	raw, err := s.rdb.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve invite token: %w", err)
	}

	userID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt invite token payload: %w", err)
	}
	return userID, true, nil
}

func inviteKey(token string) string {
	return "auth:invite:" + token
}
