package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/zkmonitor/xerrors"
)

func newTestLimiter(t *testing.T) Limiter {
	t.Helper()
	l, err := NewStandalone(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

// TestStandalone_Allow 测试令牌桶突发容量
func TestStandalone_Allow(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()
	limit := Limit{Rate: 1, Burst: 3}

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "poll:prod", limit)
		require.NoError(t, err)
		assert.True(t, ok, "burst 内第 %d 次应通过", i+1)
	}
	ok, err := l.Allow(ctx, "poll:prod", limit)
	require.NoError(t, err)
	assert.False(t, ok)

	// 不同 key 互不影响
	ok, err = l.Allow(ctx, "poll:dev", limit)
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestStandalone_AllowN 测试批量获取令牌
func TestStandalone_AllowN(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()

	ok, err := l.AllowN(ctx, "k", Limit{Rate: 1, Burst: 5}, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = l.AllowN(ctx, "k", Limit{Rate: 1, Burst: 5}, 0)
	assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))
}

// TestStandalone_Validate 测试非法参数
func TestStandalone_Validate(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()

	_, err := l.Allow(ctx, "", Limit{Rate: 1, Burst: 1})
	assert.ErrorIs(t, err, ErrKeyEmpty)

	_, err = l.Allow(ctx, "k", Limit{Rate: 0, Burst: 1})
	assert.ErrorIs(t, err, ErrInvalidLimit)

	assert.ErrorIs(t, l.Wait(ctx, "k", Limit{Rate: 1, Burst: 0}), ErrInvalidLimit)
}

// TestStandalone_Wait 测试阻塞等待与 ctx 取消
func TestStandalone_Wait(t *testing.T) {
	l := newTestLimiter(t)
	limit := Limit{Rate: 1000, Burst: 1}

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(context.Background(), "k", limit))
	}
	assert.Less(t, time.Since(start), time.Second)

	slow := Limit{Rate: 0.01, Burst: 1}
	require.NoError(t, l.Wait(context.Background(), "slow", slow))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "slow", slow))
}

// TestStandalone_EvictIdle 测试清理空闲限流器
func TestStandalone_EvictIdle(t *testing.T) {
	l, err := NewStandalone(&StandaloneConfig{IdleTimeout: time.Millisecond, CleanupInterval: time.Hour})
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Allow(context.Background(), "k", Limit{Rate: 1, Burst: 1})
	require.NoError(t, err)

	impl := l.(*standaloneLimiter)
	assert.Equal(t, 1, impl.evictIdle(time.Now().Add(time.Second)))
	assert.Equal(t, 0, impl.evictIdle(time.Now().Add(time.Second)))
	assert.NoError(t, l.Close())
}
