package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-123"

func newManager(t *testing.T, withRedis bool) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	var (
		rdb *redis.Client
		mr  *miniredis.Miniredis
	)
	if withRedis {
		var err error
		mr, err = miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(mr.Close)
		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
	}
	return NewManager(testSecret, 24*time.Hour, 365*24*time.Hour, rdb), mr
}

func TestManager_IssueAndParse(t *testing.T) {
	m, _ := newManager(t, false)
	ctx := context.Background()

	tests := []struct {
		name     string
		remember bool
		ttl      time.Duration
	}{
		{"browser session", false, 24 * time.Hour},
		{"remembered session", true, 365 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, issued, err := m.Issue(42, tt.remember)
			require.NoError(t, err)
			assert.NotEmpty(t, issued.ID)
			assert.WithinDuration(t, time.Now().Add(tt.ttl), issued.ExpiresAt, 5*time.Second)

			s, err := m.Parse(ctx, raw)
			require.NoError(t, err)
			assert.Equal(t, uint(42), s.UserID)
			assert.Equal(t, issued.ID, s.ID)
			assert.Equal(t, tt.remember, s.Remember)
		})
	}
}

func TestManager_ParseRejects(t *testing.T) {
	m, _ := newManager(t, false)
	ctx := context.Background()

	raw, _, err := m.Issue(1, false)
	require.NoError(t, err)

	other := NewManager("a-completely-different-secret-value", time.Hour, time.Hour, nil)
	forged, _, err := other.Issue(1, false)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "1", "iss": issuer, "jti": "x", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "iss": "someone-else", "jti": "x", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"tampered", raw + "x"},
		{"wrong key", forged},
		{"alg none", noneToken},
		{"wrong issuer", wrongIssuer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Parse(ctx, tt.raw)
			assert.ErrorIs(t, err, ErrInvalidSession)
		})
	}
}

func TestManager_ParseRejectsExpired(t *testing.T) {
	m, _ := newManager(t, false)
	issuedAt := time.Now().Add(-48 * time.Hour)
	m.now = func() time.Time { return issuedAt }

	raw, _, err := m.Issue(5, false)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestManager_Revoke(t *testing.T) {
	m, mr := newManager(t, true)
	ctx := context.Background()

	raw, issued, err := m.Issue(3, false)
	require.NoError(t, err)

	_, err = m.Parse(ctx, raw)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, issued))
	assert.True(t, mr.Exists(revokedKey+issued.ID))
	assert.InDelta(t, (24 * time.Hour).Seconds(), mr.TTL(revokedKey+issued.ID).Seconds(), 5)

	_, err = m.Parse(ctx, raw)
	assert.ErrorIs(t, err, ErrRevoked)

	other, _, err := m.Issue(3, false)
	require.NoError(t, err)
	_, err = m.Parse(ctx, other)
	assert.NoError(t, err)
}

func TestManager_RevokeWithoutRedis(t *testing.T) {
	m, _ := newManager(t, false)
	_, issued, err := m.Issue(3, true)
	require.NoError(t, err)
	assert.NoError(t, m.Revoke(context.Background(), issued))
}
