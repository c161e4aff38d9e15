package cache_test

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/gourab8389/e-commerce-order-server/internal/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"
)

type CacheSuite struct {
	suite.Suite

	container *tcredis.RedisContainer
	client    *redis.Client
	gateway   *cache.Cache
	ctx       context.Context
}

func (s *CacheSuite) SetupSuite() {
	s.ctx = context.Background()

	var err error
	s.container, err = tcredis.Run(s.ctx, "redis:7-alpine")
	s.Require().NoError(err)

	connStr, err := s.container.ConnectionString(s.ctx)
	s.Require().NoError(err)

	opts, err := redis.ParseURL(connStr)
	s.Require().NoError(err)

	s.client = redis.NewClient(opts)
	s.gateway = cache.New(s.client, zap.NewNop())
}

func (s *CacheSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		if err := s.container.Terminate(s.ctx); err != nil {
			log.Printf("Failed to terminate redis container: %v", err)
		}
	}
}

func (s *CacheSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(s.ctx).Err())
}

type cachedValue struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

func (s *CacheSuite) TestSetGetRoundTrip() {
	stored := cachedValue{Name: "Bakery", Count: 3}
	s.Require().True(s.gateway.Set(s.ctx, "categories:S1:1:10::", stored, time.Minute))

	var loaded cachedValue
	s.Require().True(s.gateway.Get(s.ctx, "categories:S1:1:10::", &loaded))
	s.Require().Equal(stored, loaded)
}

func (s *CacheSuite) TestGetMissingReportsAbsent() {
	var loaded cachedValue
	s.Require().False(s.gateway.Get(s.ctx, "categories:S1:9:10::", &loaded))
}

func (s *CacheSuite) TestGetExpiredReportsAbsent() {
	s.Require().True(s.gateway.Set(s.ctx, "categories:S1:1:10::", cachedValue{}, 50*time.Millisecond))

	s.Require().Eventually(func() bool {
		var loaded cachedValue
		return !s.gateway.Get(s.ctx, "categories:S1:1:10::", &loaded)
	}, 2*time.Second, 50*time.Millisecond)
}

func (s *CacheSuite) TestDelete() {
	s.Require().True(s.gateway.Set(s.ctx, "categories:S1:1:10::", cachedValue{}, time.Minute))
	s.Require().True(s.gateway.Delete(s.ctx, "categories:S1:1:10::"))

	var loaded cachedValue
	s.Require().False(s.gateway.Get(s.ctx, "categories:S1:1:10::", &loaded))
}

func (s *CacheSuite) TestFlushPatternRemovesOnlyMatchingKeys() {
	keys := []string{
		"categories:S1:1:10::",
		"categories:S1:2:10:milk:",
		"categories:S2:1:10::",
		"all-categories::",
	}
	for _, key := range keys {
		s.Require().True(s.gateway.Set(s.ctx, key, cachedValue{Name: key}, time.Minute))
	}

	s.Require().True(s.gateway.FlushPattern(s.ctx, "categories:S1:*"))

	var loaded cachedValue
	s.Require().False(s.gateway.Get(s.ctx, "categories:S1:1:10::", &loaded))
	s.Require().False(s.gateway.Get(s.ctx, "categories:S1:2:10:milk:", &loaded))
	s.Require().True(s.gateway.Get(s.ctx, "categories:S2:1:10::", &loaded))
	s.Require().True(s.gateway.Get(s.ctx, "all-categories::", &loaded))
}

func (s *CacheSuite) TestFlushPatternWithNoMatches() {
	s.Require().True(s.gateway.FlushPattern(s.ctx, "categories:ghost:*"))
}

func (s *CacheSuite) TestUnreachableStoreDegradesSilently() {
	dead := cache.New(redis.NewClient(&redis.Options{Addr: "localhost:1"}), zap.NewNop())

	var loaded cachedValue
	s.Require().False(dead.Get(s.ctx, "categories:S1:1:10::", &loaded))
	s.Require().False(dead.Set(s.ctx, "categories:S1:1:10::", cachedValue{}, time.Minute))
	s.Require().False(dead.FlushPattern(s.ctx, "categories:S1:*"))
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheSuite))
}
