package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_SelectsDatabase(t *testing.T) {
	s := miniredis.RunT(t)
	ctx := context.Background()

	client, err := NewClient(ctx, "redis://"+s.Addr()+"/3", time.Second)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(ctx, "chart:v1", "[]", 0).Err())

	s.Select(3)
	got, err := s.Get("chart:v1")
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestNewClient_Errors(t *testing.T) {
	_, err := NewClient(context.Background(), "://bad-url", 0)
	assert.ErrorContains(t, err, "parse redis url")

	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	_, err = NewClient(context.Background(), "redis://"+addr, time.Second)
	assert.ErrorContains(t, err, "ping redis at "+addr)
}
