package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/MetaNet/pkg/errors"
	networktypes "github.com/turtacn/MetaNet/pkg/types/network"
)

type CacheSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *Client
	cache  Cache
	ctx    context.Context
}

func (s *CacheSuite) SetupTest() {
	s.client, s.mr = newTestClient(s.T())
	s.cache = NewCache(s.client, nil, WithPrefix("test:"), WithDefaultTTL(time.Minute), WithTTLJitter(0))
	s.ctx = context.Background()
}

type entry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (s *CacheSuite) TestSetAndGet() {
	s.Require().NoError(s.cache.Set(s.ctx, "e", entry{"water", 3}, 0))
	s.True(s.mr.Exists("test:e"))
	s.Equal(time.Minute, s.mr.TTL("test:e"))

	var got entry
	s.Require().NoError(s.cache.Get(s.ctx, "e", &got))
	s.Equal(entry{"water", 3}, got)
}

func (s *CacheSuite) TestGetMiss() {
	var got entry
	err := s.cache.Get(s.ctx, "absent", &got)
	s.Equal(ErrCacheMiss, err)
	s.True(errors.IsNotFound(err))
}

func (s *CacheSuite) TestGetCorrupt() {
	s.Require().NoError(s.mr.Set("test:bad", "{not json"))
	var got entry
	err := s.cache.Get(s.ctx, "bad", &got)
	s.True(errors.IsCode(err, errors.ErrCodeSerialization))
}

func (s *CacheSuite) TestExpiry() {
	s.Require().NoError(s.cache.Set(s.ctx, "e", entry{}, 5*time.Second))
	s.mr.FastForward(6 * time.Second)
	s.Equal(ErrCacheMiss, s.cache.Get(s.ctx, "e", &entry{}))
}

func (s *CacheSuite) TestDelete() {
	s.Require().NoError(s.cache.Set(s.ctx, "a", 1, 0))
	s.Require().NoError(s.cache.Set(s.ctx, "b", 2, 0))
	s.Require().NoError(s.cache.Delete(s.ctx, "a", "b"))
	s.False(s.mr.Exists("test:a"))
	s.NoError(s.cache.Delete(s.ctx))
}

func (s *CacheSuite) TestGetOrSet() {
	var calls int32
	loader := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return entry{"glucose", 6}, nil
	}

	var got entry
	hit, err := s.cache.GetOrSet(s.ctx, "g", &got, 0, loader)
	s.Require().NoError(err)
	s.False(hit)
	s.Equal(entry{"glucose", 6}, got)

	got = entry{}
	hit, err = s.cache.GetOrSet(s.ctx, "g", &got, 0, loader)
	s.Require().NoError(err)
	s.True(hit)
	s.Equal(entry{"glucose", 6}, got)
	s.EqualValues(1, atomic.LoadInt32(&calls))
}

func (s *CacheSuite) TestGetOrSetLoaderError() {
	boom := errors.New(errors.ErrCodeDanglingReference, "component is not registered")
	_, err := s.cache.GetOrSet(s.ctx, "x", &entry{}, 0, func(context.Context) (interface{}, error) {
		return nil, boom
	})
	s.Equal(boom, err)
	s.False(s.mr.Exists("test:x"), "failures are not cached")
}

func (s *CacheSuite) TestGetOrSetDegradesWhenRedisIsDown() {
	s.mr.Close()
	var got entry
	hit, err := s.cache.GetOrSet(s.ctx, "g", &got, 0, func(context.Context) (interface{}, error) {
		return entry{"pyruvate", 3}, nil
	})
	s.Require().NoError(err)
	s.False(hit)
	s.Equal("pyruvate", got.Name)
}

func (s *CacheSuite) TestDeleteByPrefix() {
	for _, k := range []string{"closure:1:a", "closure:1:b", "closure:10:a", "other"} {
		s.Require().NoError(s.cache.Set(s.ctx, k, 1, 0))
	}
	n, err := s.cache.DeleteByPrefix(s.ctx, "closure:1:")
	s.Require().NoError(err)
	s.EqualValues(2, n)
	s.True(s.mr.Exists("test:closure:10:a"))
	s.True(s.mr.Exists("test:other"))
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheSuite))
}

func TestCache_TTLJitterStaysInBounds(t *testing.T) {
	c := &redisCache{defaultTTL: 100 * time.Second, jitter: 0.1}
	for i := 0; i < 100; i++ {
		ttl := c.ttl(0)
		assert.GreaterOrEqual(t, ttl, 90*time.Second)
		assert.LessOrEqual(t, ttl, 110*time.Second)
	}
}

func TestClosureCache(t *testing.T) {
	client, mr := newTestClient(t)
	cc := NewClosureCache(NewCache(client, nil, WithTTLJitter(0)), 30*time.Second)
	ctx := context.Background()

	key := ClosureKey(100, "abc")
	assert.Equal(t, "closure:100:abc", key)

	var calls int32
	compute := func(context.Context) (networktypes.ClosureResponse, error) {
		atomic.AddInt32(&calls, 1)
		return networktypes.ClosureResponse{Compartment: 100, Seed: []int{1, 2}, Substances: []int{1, 2, 3}, Passes: 2}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := cc.GetOrCompute(ctx, key, compute)
			assert.NoError(t, err)
			assert.Equal(t, []int{1, 2, 3}, res.Substances)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(4))

	res, err := cc.GetOrCompute(ctx, key, compute)
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, 30*time.Second, mr.TTL("metanet:"+key))

	require.NoError(t, cc.Ping(ctx))
	n, err := cc.InvalidateCompartment(ctx, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	res, err = cc.GetOrCompute(ctx, key, compute)
	require.NoError(t, err)
	assert.False(t, res.Cached)

	n, err = cc.InvalidateAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
