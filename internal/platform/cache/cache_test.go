package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid-redis", "redis://localhost:6379", false},
		{"valid-with-db", "redis://localhost:6379/0", false},
		{"empty", "", true},
		{"wrong-scheme", "http://localhost:6379", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_UnreachableHost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping unreachable host test in short mode")
	}

	_, err := New(t.Context(), "redis://localhost:59999", "test")
	if err == nil {
		t.Fatal("New() should return error for unreachable host")
	}
}

func TestCache_Redis(t *testing.T) {
	s := miniredis.RunT(t)

	c, err := New(context.Background(), "redis://"+s.Addr(), "pai-quiz")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	tests := map[string]struct {
		arrange func(t *testing.T)
		assert  func(t *testing.T)
	}{
		"miss": {
			arrange: func(t *testing.T) {},
			assert: func(t *testing.T) {
				_, ok, err := c.Get(context.Background(), "nope")
				require.NoError(t, err)
				require.False(t, ok)
			},
		},
		"hit with prefix": {
			arrange: func(t *testing.T) {
				require.NoError(t, c.Set(context.Background(), "gen:abc", `["Algebra"]`, time.Hour))
			},
			assert: func(t *testing.T) {
				v, ok, err := c.Get(context.Background(), "gen:abc")
				require.NoError(t, err)
				require.True(t, ok)
				require.Equal(t, `["Algebra"]`, v)
				require.True(t, s.Exists("pai-quiz:gen:abc"))
			},
		},
		"expires": {
			arrange: func(t *testing.T) {
				require.NoError(t, c.Set(context.Background(), "short", "v", time.Minute))
				s.FastForward(2 * time.Minute)
			},
			assert: func(t *testing.T) {
				_, ok, err := c.Get(context.Background(), "short")
				require.NoError(t, err)
				require.False(t, ok)
			},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			tc.arrange(t)
			tc.assert(t)
		})
	}

	require.NoError(t, c.HealthCheck(context.Background()))
}

func TestCache_NoPrefix(t *testing.T) {
	s := miniredis.RunT(t)
	c := NewWithClient(redis.NewClient(&redis.Options{Addr: s.Addr()}), "")

	require.NoError(t, c.Set(context.Background(), "k", "v", 0))
	got, err := s.Get("k")
	require.NoError(t, err)
	require.Equal(t, "v", got)
}

func TestMemory(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "forever", "a", 0))
	require.NoError(t, m.Set(ctx, "brief", "b", time.Minute))

	v, ok, err := m.Get(ctx, "brief")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "b", v)

	now = now.Add(time.Minute)

	_, ok, _ = m.Get(ctx, "brief")
	require.False(t, ok, "entry should expire at its deadline")

	v, ok, _ = m.Get(ctx, "forever")
	require.True(t, ok)
	require.Equal(t, "a", v)

	require.NoError(t, m.HealthCheck(ctx))
}
