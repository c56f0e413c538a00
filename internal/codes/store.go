// Package codes issues and verifies short-lived one-time codes for
// password reset and account activation. Codes are never stored in
// cleartext; redis TTLs enforce expiry and the issuance throttle.
package codes

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// CodeTTL is how long a stored code (and its attempt counter) lives.
	CodeTTL = 10 * time.Minute
	// ThrottleTTL is the minimum interval between issuances per contact.
	ThrottleTTL = time.Minute
	// MaxAttempts caps failed verifications before lockout.
	MaxAttempts = 5
)

// Store generates, throttles and verifies 6-digit one-time codes keyed by
// user id. All state lives in redis under the auth:pr: prefix; no other
// subsystem writes those keys.
type Store struct {
	rdb  redis.UniversalClient
	salt string
}

// NewStore creates a Store. The salt is mixed into code hashes and must be
// stable across processes sharing the same redis.
func NewStore(rdb redis.UniversalClient, salt string) *Store {
	return &Store{rdb: rdb, salt: salt}
}

// Generate produces a uniformly random zero-padded 6-digit code.
func (s *Store) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// CanIssue atomically opens a throttle window for the contact address.
// It returns false without mutating anything while a window is active, so
// concurrent callers within the window get exactly one true.
func (s *Store) CanIssue(ctx context.Context, contact string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, throttleKey(contact), "1", ThrottleTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark throttle window: %w", err)
	}
	return ok, nil
}

// StoreCode persists the hash of the code for the user and resets any
// previous attempt counter. Re-issuing is legal from any state.
func (s *Store) StoreCode(ctx context.Context, userID uint64, code string) error {
	if err := s.rdb.Set(ctx, codeKey(userID), s.hash(code), CodeTTL).Err(); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	if err := s.rdb.Del(ctx, attemptsKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to reset attempts: %w", err)
	}
	return nil
}

// Verify checks the code and consumes it on success. Every call counts an
// attempt; past MaxAttempts the comparison is skipped and the result is
// indistinguishable from a wrong code.
func (s *Store) Verify(ctx context.Context, userID uint64, code string) (bool, error) {
	attempts, err := s.rdb.Incr(ctx, attemptsKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to count attempt: %w", err)
	}
	if attempts == 1 {
		if err := s.rdb.Expire(ctx, attemptsKey(userID), CodeTTL).Err(); err != nil {
			return false, fmt.Errorf("failed to expire attempts: %w", err)
		}
	}
	if attempts > MaxAttempts {
		return false, nil
	}

	ok, err := s.compare(ctx, userID, code)
	if err != nil || !ok {
		return false, err
	}

	// One-time use: drop the code and the counter together.
	if err := s.rdb.Del(ctx, codeKey(userID), attemptsKey(userID)).Err(); err != nil {
		return false, fmt.Errorf("failed to consume code: %w", err)
	}
	return true, nil
}

// Peek checks the code without consuming it or counting an attempt. Used by
// the intermediate "is this code valid" step before the final submit.
func (s *Store) Peek(ctx context.Context, userID uint64, code string) (bool, error) {
	return s.compare(ctx, userID, code)
}

func (s *Store) compare(ctx context.Context, userID uint64, code string) (bool, error) {
	stored, err := s.rdb.Get(ctx, codeKey(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load code: %w", err)
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(s.hash(code))) == 1, nil
}

func (s *Store) hash(code string) string {
	sum := sha256.Sum256([]byte(s.salt + code))
	return hex.EncodeToString(sum[:])
}

func codeKey(userID uint64) string {
	return fmt.Sprintf("auth:pr:code:%d", userID)
}

func attemptsKey(userID uint64) string {
	return fmt.Sprintf("auth:pr:attempts:%d", userID)
}

func throttleKey(contact string) string {
	return "auth:pr:throttle:" + strings.ToLower(contact)
}
