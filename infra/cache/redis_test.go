package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bikeprice/core/factory"
	"github.com/kilianp07/bikeprice/core/prediction"
)

func TestRedisConfig_SetDefaults(t *testing.T) {
	var c RedisConfig
	c.SetDefaults()
	assert.Equal(t, "bikeprice:prediction:", c.Prefix)
	assert.Equal(t, time.Hour, c.TTL)
	assert.Equal(t, 200*time.Millisecond, c.Timeout)

	c = RedisConfig{Prefix: "x:", TTL: time.Minute}
	c.SetDefaults()
	assert.Equal(t, "x:", c.Prefix)
	assert.Equal(t, time.Minute, c.TTL)
}

func TestNewRedisCache_RequiresAddr(t *testing.T) {
	_, err := NewRedisCache(RedisConfig{})
	assert.Error(t, err)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	_, err := NewRedisCache(RedisConfig{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestRedisFactory_Registered(t *testing.T) {
	_, err := prediction.NewCache(factory.ModuleConfig{Type: "redis", Conf: map[string]any{"ttl": "bad"}})
	assert.Error(t, err)
}
