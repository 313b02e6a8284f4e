package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-corpus/internal/domain"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

var errRedis = errors.New("connection refused")

func TestRedisCacheAdapter_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCacheAdapter(db)
	ctx := context.Background()
	key := "quizcorpus:search:results:abc:g1"

	tests := []struct {
		name    string
		setup   func()
		want    string
		wantErr error
	}{
		{"hit", func() { mock.ExpectGet(key).SetVal(`[{"id":"q1"}]`) }, `[{"id":"q1"}]`, nil},
		{"miss", func() { mock.ExpectGet(key).SetErr(redis.Nil) }, "", domain.ErrCacheMiss},
		{"redis down", func() { mock.ExpectGet(key).SetErr(errRedis) }, "", errRedis},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			val, err := cache.Get(ctx, key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, val)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRedisCacheAdapter_SetAndDelete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCacheAdapter(db)
	ctx := context.Background()

	mock.ExpectSet("k", "v", 10*time.Minute).SetVal("OK")
	assert.NoError(t, cache.Set(ctx, "k", "v", 10*time.Minute))

	mock.ExpectSet("k", "v", time.Minute).SetErr(errRedis)
	assert.ErrorIs(t, cache.Set(ctx, "k", "v", time.Minute), errRedis)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheAdapter_Incr(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCacheAdapter(db)
	ctx := context.Background()

	mock.ExpectIncr("gen").SetVal(3)
	n, err := cache.Incr(ctx, "gen")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)

	mock.ExpectIncr("gen").SetErr(errRedis)
	_, err = cache.Incr(ctx, "gen")
	assert.ErrorIs(t, err, errRedis)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheAdapter_Ping(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCacheAdapter(db)

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, cache.Ping(context.Background()))

	mock.ExpectPing().SetErr(errRedis)
	assert.ErrorIs(t, cache.Ping(context.Background()), errRedis)

	assert.NoError(t, mock.ExpectationsWereMet())
}
