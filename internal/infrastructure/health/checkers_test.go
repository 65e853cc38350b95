package health

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestDBHealthChecker(t *testing.T) {
	down := errors.New("connection refused")
	var err error
	c := NewDBHealthChecker(pingerFunc(func(context.Context) error { return err }))

	require.Equal(t, "database", c.Name())
	require.NoError(t, c.Check(context.Background()))
	err = down
	require.ErrorIs(t, c.Check(context.Background()), down)
}

func TestRedisHealthChecker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisHealthChecker(client)
	require.Equal(t, "redis", c.Name())
	require.NoError(t, c.Check(context.Background()))

	mr.SetError("ERR server unavailable")
	require.Error(t, c.Check(context.Background()))
}
