package checkin

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCodes(t *testing.T, ttl time.Duration) (*Codes, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, ttl, "https://rollwise.test/"), mr
}

func TestIssueAndResolve(t *testing.T) {
	codes, mr := setupCodes(t, time.Minute)
	ctx := context.Background()

	code, err := codes.Issue(ctx, "event-1")
	require.NoError(t, err)
	assert.Len(t, code.Code, 22)
	assert.True(t, strings.HasPrefix(code.ScanURL, "https://rollwise.test/scan/event-1?code="))
	assert.Equal(t, time.Minute, mr.TTL(codeKey(code.Code)))

	eventID, err := codes.Resolve(ctx, code.Code)
	require.NoError(t, err)
	assert.Equal(t, "event-1", eventID)

	// still valid for the next scanner
	eventID, err = codes.Resolve(ctx, code.Code)
	require.NoError(t, err)
	assert.Equal(t, "event-1", eventID)
}

func TestResolveExpired(t *testing.T) {
	codes, mr := setupCodes(t, time.Minute)
	ctx := context.Background()

	code, err := codes.Issue(ctx, "event-1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = codes.Resolve(ctx, code.Code)
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestDisabledWithoutRedis(t *testing.T) {
	codes := New(nil, time.Minute, "")
	assert.False(t, codes.Enabled())

	_, err := codes.Issue(context.Background(), "event-1")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = codes.Resolve(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
