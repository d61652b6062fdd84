package database

import (
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnconfiguredBackends(t *testing.T) {
	cfg := &config.Config{}

	_, err := GetPostgres(cfg)
	assert.True(t, errors.Is(err, ErrNotConfigured))

	_, err = GetRedis(cfg)
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestUnreachableRedisIsClosed(t *testing.T) {
	redisOnce = sync.Once{}
	t.Cleanup(func() {
		redisOnce = sync.Once{}
		redisClient, redisErr = nil, nil
	})

	// Grab a free port, then release it so nothing is listening there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	client, err := GetRedis(&config.Config{RedisHost: host, RedisPort: port})
	assert.Error(t, err)
	assert.Nil(t, client)
	assert.NoError(t, CloseRedis())
}
