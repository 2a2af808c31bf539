//go:build integration

package verification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "studygate/pkg/domain-errors"
	"studygate/pkg/sentinel"
	"studygate/pkg/testutil/containers"
)

func TestCodeStore_SaveAndRedeem(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewCodeStore(rc.Client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jordan@example.com", "123456"))
	require.NoError(t, store.Redeem(ctx, "jordan@example.com", "123456"))

	// Codes are single-use.
	err := store.Redeem(ctx, "jordan@example.com", "123456")
	assert.ErrorIs(t, err, sentinel.ErrExpired)
}

func TestCodeStore_WrongCodeKeepsStoredCode(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewCodeStore(rc.Client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jordan@example.com", "123456"))

	err := store.Redeem(ctx, "jordan@example.com", "654321")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	require.NoError(t, store.Redeem(ctx, "jordan@example.com", "123456"))
}

func TestCodeStore_CodesExpire(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewCodeStore(rc.Client, time.Second)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jordan@example.com", "123456"))
	time.Sleep(1500 * time.Millisecond)

	err := store.Redeem(ctx, "jordan@example.com", "123456")
	assert.ErrorIs(t, err, sentinel.ErrExpired)
}

func TestCodeStore_SaveReplacesOutstandingCode(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewCodeStore(rc.Client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jordan@example.com", "111111"))
	require.NoError(t, store.Save(ctx, "jordan@example.com", "222222"))

	err := store.Redeem(ctx, "jordan@example.com", "111111")
	require.Error(t, err)
	require.NoError(t, store.Redeem(ctx, "jordan@example.com", "222222"))
}
