package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/sanitrack/sanitrack/pkg/model"
)

// CachedStore layers a read-through cache over another Store. Lookups by id
// check an in-process LRU first, then Redis, then the backing store. Every
// write invalidates both layers for the touched key, so a stale entry lives
// at most one TTL.
//
// Listings are never cached: they are filter-dependent and the pagination
// totals must reflect the store.
type CachedStore struct {
	inner Store
	redis *redis.Client
	l1    *expirable.LRU[string, []byte]
	ttl   time.Duration
}

// NewCachedStore wraps inner with an LRU and an optional Redis layer.
// Pass a nil client to run with the in-process cache only.
func NewCachedStore(inner Store, client *redis.Client, cfg Config) *CachedStore {
	size := cfg.L1CacheSize
	if size <= 0 {
		size = 1024
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedStore{
		inner: inner,
		redis: client,
		l1:    expirable.NewLRU[string, []byte](size, nil, ttl),
		ttl:   ttl,
	}
}

// NewRedisClient connects to Redis using the storage config and verifies the
// connection with a ping.
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	if cfg.RedisDB > 0 {
		opts.DB = cfg.RedisDB
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (s *CachedStore) Users() UserStore             { return &cachedUsers{s} }
func (s *CachedStore) Villages() VillageStore       { return &cachedVillages{s} }
func (s *CachedStore) Facilities() FacilityStore    { return &cachedFacilities{s} }
func (s *CachedStore) Inspections() InspectionStore { return s.inner.Inspections() }
func (s *CachedStore) Issues() IssueStore           { return s.inner.Issues() }
func (s *CachedStore) Reports() ReportStore         { return s.inner.Reports() }

func (s *CachedStore) HealthCheck(ctx context.Context) error {
	if err := s.inner.HealthCheck(ctx); err != nil {
		return err
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (s *CachedStore) Close() error {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			return err
		}
	}
	return s.inner.Close()
}

func (s *CachedStore) lookup(ctx context.Context, key string) []byte {
	if data, ok := s.l1.Get(key); ok {
		return data
	}
	if s.redis == nil {
		return nil
	}
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	s.l1.Add(key, data)
	return data
}

func (s *CachedStore) fill(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.l1.Add(key, data)
	if s.redis != nil {
		s.redis.Set(ctx, key, data, s.ttl)
	}
}

func (s *CachedStore) invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		s.l1.Remove(key)
	}
	if s.redis != nil {
		s.redis.Del(ctx, keys...)
	}
}

func getCached[T any](ctx context.Context, s *CachedStore, key string, load func() (*T, error)) (*T, error) {
	if data := s.lookup(ctx, key); data != nil {
		var value T
		if err := json.Unmarshal(data, &value); err == nil {
			return &value, nil
		}
		// Corrupt entry; drop it and fall through to the store.
		s.invalidate(ctx, key)
	}
	value, err := load()
	if err != nil {
		return nil, err
	}
	s.fill(ctx, key, value)
	return value, nil
}

func userKey(id string) string     { return "user:" + id }
func emailKey(email string) string { return "user:email:" + email }
func villageKey(id string) string  { return "village:" + id }
func facilityKey(id string) string { return "facility:" + id }

// ---- users ----

type cachedUsers struct{ s *CachedStore }

func (c *cachedUsers) Create(ctx context.Context, user *model.User) error {
	return c.s.inner.Users().Create(ctx, user)
}

func (c *cachedUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	return getCached(ctx, c.s, userKey(id), func() (*model.User, error) {
		return c.s.inner.Users().GetByID(ctx, id)
	})
}

func (c *cachedUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return getCached(ctx, c.s, emailKey(email), func() (*model.User, error) {
		return c.s.inner.Users().GetByEmail(ctx, email)
	})
}

func (c *cachedUsers) List(ctx context.Context, filter UserFilter, page Page) ([]*model.User, int64, error) {
	return c.s.inner.Users().List(ctx, filter, page)
}

func (c *cachedUsers) Update(ctx context.Context, user *model.User) error {
	keys := []string{userKey(user.ID), emailKey(user.Email)}
	// The previous address must drop too, or a changed email keeps
	// resolving through GetByEmail until the TTL runs out.
	if prev, err := c.s.inner.Users().GetByID(ctx, user.ID); err == nil && prev.Email != user.Email {
		keys = append(keys, emailKey(prev.Email))
	}
	if err := c.s.inner.Users().Update(ctx, user); err != nil {
		return err
	}
	c.s.invalidate(ctx, keys...)
	return nil
}

func (c *cachedUsers) Delete(ctx context.Context, id string) error {
	if user, err := c.s.inner.Users().GetByID(ctx, id); err == nil {
		c.s.invalidate(ctx, emailKey(user.Email))
	}
	if err := c.s.inner.Users().Delete(ctx, id); err != nil {
		return err
	}
	c.s.invalidate(ctx, userKey(id))
	return nil
}

// ---- villages ----

type cachedVillages struct{ s *CachedStore }

func (c *cachedVillages) Create(ctx context.Context, village *model.Village) error {
	return c.s.inner.Villages().Create(ctx, village)
}

func (c *cachedVillages) GetByID(ctx context.Context, id string) (*model.Village, error) {
	return getCached(ctx, c.s, villageKey(id), func() (*model.Village, error) {
		return c.s.inner.Villages().GetByID(ctx, id)
	})
}

func (c *cachedVillages) List(ctx context.Context, filter VillageFilter, page Page) ([]*model.Village, int64, error) {
	return c.s.inner.Villages().List(ctx, filter, page)
}

func (c *cachedVillages) Count(ctx context.Context, filter VillageFilter) (int64, error) {
	return c.s.inner.Villages().Count(ctx, filter)
}

func (c *cachedVillages) Update(ctx context.Context, village *model.Village) error {
	if err := c.s.inner.Villages().Update(ctx, village); err != nil {
		return err
	}
	c.s.invalidate(ctx, villageKey(village.ID))
	return nil
}

func (c *cachedVillages) Delete(ctx context.Context, id string) error {
	if err := c.s.inner.Villages().Delete(ctx, id); err != nil {
		return err
	}
	c.s.invalidate(ctx, villageKey(id))
	return nil
}

// ---- facilities ----

type cachedFacilities struct{ s *CachedStore }

func (c *cachedFacilities) Create(ctx context.Context, facility *model.Facility) error {
	return c.s.inner.Facilities().Create(ctx, facility)
}

func (c *cachedFacilities) GetByID(ctx context.Context, id string) (*model.Facility, error) {
	return getCached(ctx, c.s, facilityKey(id), func() (*model.Facility, error) {
		return c.s.inner.Facilities().GetByID(ctx, id)
	})
}

func (c *cachedFacilities) List(ctx context.Context, filter FacilityFilter, page Page) ([]*model.Facility, int64, error) {
	return c.s.inner.Facilities().List(ctx, filter, page)
}

func (c *cachedFacilities) Count(ctx context.Context, filter FacilityFilter) (int64, error) {
	return c.s.inner.Facilities().Count(ctx, filter)
}

func (c *cachedFacilities) Update(ctx context.Context, facility *model.Facility) error {
	if err := c.s.inner.Facilities().Update(ctx, facility); err != nil {
		return err
	}
	c.s.invalidate(ctx, facilityKey(facility.ID))
	return nil
}

func (c *cachedFacilities) Delete(ctx context.Context, id string) error {
	if err := c.s.inner.Facilities().Delete(ctx, id); err != nil {
		return err
	}
	c.s.invalidate(ctx, facilityKey(id))
	return nil
}
