package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type record struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// StoreTestSuite 所有實作共用同一組行為測試
type StoreTestSuite struct {
	suite.Suite
	newStore func(t *testing.T) (IStateStore, func(key string, raw []byte))
	store    IStateStore
	corrupt  func(key string, raw []byte)
}

func (s *StoreTestSuite) SetupTest() {
	s.store, s.corrupt = s.newStore(s.T())
}

func (s *StoreTestSuite) TearDownTest() {
	s.store.Close()
}

func (s *StoreTestSuite) TestMissingKey() {
	var got []record
	found, err := s.store.Load(context.Background(), "dw_cart", &got)
	require.NoError(s.T(), err)
	s.False(found)
	s.Nil(got)
}

func (s *StoreTestSuite) TestSaveLoadRoundTrip() {
	ctx := context.Background()
	want := []record{{ID: 1, Name: "Empanada de Pino", Quantity: 2}, {ID: 5, Name: "Bebida 500ml", Quantity: 1}}
	require.NoError(s.T(), s.store.Save(ctx, "dw_cart", want))

	var got []record
	found, err := s.store.Load(ctx, "dw_cart", &got)
	require.NoError(s.T(), err)
	s.True(found)
	s.Equal(want, got)
}

func (s *StoreTestSuite) TestOverwriteAndDelete() {
	ctx := context.Background()
	require.NoError(s.T(), s.store.Save(ctx, "dw_sess", record{ID: 1}))
	require.NoError(s.T(), s.store.Save(ctx, "dw_sess", record{ID: 2}))

	var got record
	_, err := s.store.Load(ctx, "dw_sess", &got)
	require.NoError(s.T(), err)
	s.Equal(2, got.ID)

	require.NoError(s.T(), s.store.Delete(ctx, "dw_sess"))
	require.NoError(s.T(), s.store.Delete(ctx, "dw_sess"))
	found, err := s.store.Load(ctx, "dw_sess", &got)
	require.NoError(s.T(), err)
	s.False(found)
}

func (s *StoreTestSuite) TestCorruptedRecord() {
	s.corrupt("dw_sess", []byte("{not json"))
	var got record
	found, err := s.store.Load(context.Background(), "dw_sess", &got)
	s.True(found)
	s.ErrorIs(err, ErrCorruptedRecord)
}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func(t *testing.T) (IStateStore, func(string, []byte)) {
		s := NewMemoryStore()
		return s, s.Raw
	}})
}

func TestFileStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func(t *testing.T) (IStateStore, func(string, []byte)) {
		s, err := NewFileStore(t.TempDir(), "test")
		require.NoError(t, err)
		return s, func(key string, raw []byte) {
			require.NoError(t, os.WriteFile(filepath.Join(s.dir, key+".json"), raw, 0o600))
		}
	}})
}

func TestRedisStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func(t *testing.T) (IStateStore, func(string, []byte)) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		return NewRedisStore(client, "test"), func(key string, raw []byte) {
			require.NoError(t, mr.Set(generateStateKey("test", key), string(raw)))
		}
	}})
}

func TestRedisStoreProfilesAreIsolated(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	a := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "a")
	b := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "b")
	defer a.Close()
	defer b.Close()

	require.NoError(t, a.Save(ctx, "dw_cart", []record{{ID: 1}}))
	var got []record
	found, err := b.Load(ctx, "dw_cart", &got)
	require.NoError(t, err)
	require.False(t, found)
	require.True(t, mr.Exists("shop:a:dw_cart"))
}
