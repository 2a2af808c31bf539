// Package verification caches one-time email verification codes in Redis
// with a TTL. Codes are single-use: a successful redeem deletes the key.
// Only a bcrypt hash of the code is stored, so reading the cache does not
// yield a redeemable code.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	dErrors "studygate/pkg/domain-errors"
	"studygate/pkg/sentinel"
)

const keyPrefix = "verification:code:"

// CodeStore stores verification codes keyed by email.
type CodeStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewCodeStore creates a store with the given code lifetime.
func NewCodeStore(client redis.Cmdable, ttl time.Duration) *CodeStore {
	return &CodeStore{client: client, ttl: ttl}
}

// GenerateCode returns a 6-digit numeric code.
func GenerateCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	code := make([]byte, 6)
	for i, b := range buf {
		code[i] = '0' + b%10
	}
	return string(code), nil
}

// hashCode returns a bcrypt hash of the code for storage.
func hashCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash verification code: %w", err)
	}
	return string(hash), nil
}

// codeMatches reports whether code matches the stored bcrypt hash.
func codeMatches(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

// Save stores the code for the email, replacing any outstanding one.
func (s *CodeStore) Save(ctx context.Context, email, code string) error {
	hash, err := hashCode(code)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, keyPrefix+email, hash, s.ttl).Err(); err != nil {
		return fmt.Errorf("save verification code: %w", err)
	}
	return nil
}

// Redeem checks the code and consumes it on success. Expired or absent codes
// return sentinel.ErrExpired; a wrong code is an invalid-input error and the
// stored code stays valid.
func (s *CodeStore) Redeem(ctx context.Context, email, code string) error {
	stored, err := s.client.Get(ctx, keyPrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return sentinel.ErrExpired
	}
	if err != nil {
		return fmt.Errorf("load verification code: %w", err)
	}
	if !codeMatches(stored, code) {
		return dErrors.New(dErrors.CodeInvalidInput, "verification code does not match")
	}
	if err := s.client.Del(ctx, keyPrefix+email).Err(); err != nil {
		return fmt.Errorf("consume verification code: %w", err)
	}
	return nil
}
