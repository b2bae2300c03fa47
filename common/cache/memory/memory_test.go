package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"skilltrends/common/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Skills []string `json:"skills"`
}

func (s snapshot) MarshalBinary() ([]byte, error) {
	return json.Marshal(s)
}

func (s *snapshot) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, s)
}

func TestSetGet(t *testing.T) {
	ctx := context.Background()
	c := New(cache.DefaultOptions())

	original := snapshot{Skills: []string{"python", "sql"}}
	require.NoError(t, c.Set(ctx, "k", original, time.Hour))

	// Mutating the caller's value after Set must not leak into the entry.
	original.Skills[0] = "cobol"

	var got snapshot
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, []string{"python", "sql"}, got.Skills)

	var s string
	require.NoError(t, c.Set(ctx, "plain", "value", 0))
	require.NoError(t, c.Get(ctx, "plain", &s))
	assert.Equal(t, "value", s)
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(cache.Options{DefaultTTL: 24 * time.Hour}).WithClock(func() time.Time { return now })

	require.NoError(t, c.Set(ctx, "k", "v", 0))

	now = now.Add(23 * time.Hour)
	var s string
	require.NoError(t, c.Get(ctx, "k", &s))

	now = now.Add(time.Hour)
	assert.ErrorIs(t, c.Get(ctx, "k", &s), cache.ErrNotFound)
}

func TestExpiryOnRealClock(t *testing.T) {
	ctx := context.Background()
	c := New(cache.DefaultOptions())

	require.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	var s string
	assert.ErrorIs(t, c.Get(ctx, "k", &s), cache.ErrNotFound)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	c := New(cache.DefaultOptions())

	require.NoError(t, c.Set(ctx, "a", "1", 0))
	require.NoError(t, c.Set(ctx, "b", "2", 0))
	assert.Equal(t, 2, c.Len())

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len())
	var s string
	assert.ErrorIs(t, c.Get(ctx, "a", &s), cache.ErrNotFound)
}

func TestErrors(t *testing.T) {
	ctx := context.Background()
	c := New(cache.DefaultOptions())

	var s string
	assert.ErrorIs(t, c.Get(ctx, "missing", &s), cache.ErrNotFound)
	assert.ErrorIs(t, c.Set(ctx, "", "v", 0), cache.ErrInvalidKey)
	assert.ErrorIs(t, c.Set(ctx, "k", 42, 0), cache.ErrInvalidValue)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	var n int
	assert.ErrorIs(t, c.Get(ctx, "k", &n), cache.ErrInvalidValue)

	require.NoError(t, c.Delete(ctx, "k"))
	assert.ErrorIs(t, c.Get(ctx, "k", &s), cache.ErrNotFound)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Set(ctx, "k", "v", 0), cache.ErrClosed)
	assert.ErrorIs(t, c.Get(ctx, "k", &s), cache.ErrClosed)
}
