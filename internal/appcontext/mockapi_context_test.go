package appcontext

import (
	"context"
	"testing"

	"github.com/RoyceAzure/lab/empanada/internal/config"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/ratelimit"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/upload"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockApiContextDefaults(t *testing.T) {
	ctx := context.Background()
	mock, err := NewMockApiContext(ctx, testConfig(""), nop())
	require.NoError(t, err)
	defer mock.Shutdown(ctx)

	products, err := mock.Store.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 5)
	assert.Equal(t, ratelimit.LimiterConfig{Prefix: "login", Capacity: 100, Window: testConfig("").LoginRateWindow}, mock.LoginLimiter.Config())
	assert.IsType(t, &upload.MemoryImageStore{}, mock.Images)
	assert.Nil(t, mock.Redis)
	require.NotNil(t, mock.Server)
}

func TestMockApiContextRedisBucket(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cf := testConfig("")
	cf.RateLimitDriver = config.RateLimitRedisBucket
	cf.RedisAddr = mr.Addr()
	cf.LoginRateLimit = 2
	cf.MockApiUploadDir = t.TempDir()

	mock, err := NewMockApiContext(ctx, cf, nop())
	require.NoError(t, err)
	defer mock.Shutdown(ctx)

	require.NotNil(t, mock.Redis)
	assert.IsType(t, &upload.DirImageStore{}, mock.Images)

	for i := 0; i < 2; i++ {
		ok, err := mock.LoginLimiter.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := mock.LoginLimiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMockApiContextBadSeedFile(t *testing.T) {
	cf := testConfig("")
	cf.MockApiSeedFile = "/no/such/seed.yaml"
	_, err := NewMockApiContext(context.Background(), cf, nop())
	require.Error(t, err)
}
