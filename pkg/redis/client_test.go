package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roperito/roperito-backend/pkg/config"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "login:ip:1.2.3.4", 2, time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.EqualValues(t, 1, count)
	require.Len(t, mock.expireCalls, 1)
	assert.Equal(t, "rp:rate_limit:login:ip:1.2.3.4", mock.expireCalls[0].key)

	allowed, count, err = client.FixedWindowAllow(ctx, "login:ip:1.2.3.4", 2, time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.EqualValues(t, 2, count)
	assert.Len(t, mock.expireCalls, 1, "expire should not be set again")

	allowed, _, err = client.FixedWindowAllow(ctx, "login:ip:1.2.3.4", 2, time.Second)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	require.NoError(t, client.Set(ctx, "k", "v", time.Minute))
	got, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	ok, err := client.SetNX(ctx, "k", "other", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, client.Del(ctx, "k"))
	_, err = client.Get(ctx, "k")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestPublishRecordsMessages(t *testing.T) {
	mock := newMockCmdable()
	client := &Client{store: mock}

	n, err := client.Publish(context.Background(), client.ChannelName("events"), `{"event":"new-order"}`)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, []string{`{"event":"new-order"}`}, mock.published["rp:relay:events"])
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	ctx := context.Background()
	assert.Error(t, client.Ping(ctx))
	_, err := client.Publish(ctx, "c", "x")
	assert.Error(t, err)
	_, err = client.Subscribe(ctx, "c")
	assert.Error(t, err)
	assert.NoError(t, client.Close())
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "rp:idempotency:scope:id", client.IdempotencyKey("scope", "id"))
	assert.Equal(t, "rp:rate_limit:scope", client.RateLimitKey("scope"))
	assert.Equal(t, "rp:session:access:abc", client.AccessSessionKey("abc"))
	assert.Equal(t, "rp:lock:order-expiry", client.LockKey("order-expiry"))
	assert.Equal(t, "rp:relay:events", client.ChannelName("events"))

	custom := &Client{namespace: "staging"}
	assert.Equal(t, "staging:lock:x", custom.LockKey(" x "))
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 3})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	published   map[string][]string
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:      make(map[string]string),
		incr:      make(map[string]int64),
		published: make(map[string][]string),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(_ context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	m.published[channel] = append(m.published[channel], fmt.Sprint(message))
	return redis.NewIntResult(1, nil)
}
