package cache

import (
	"context"
	"errors"
	"time"

	pkgcache "ARSPull/pkg/cache"
)

// ServiceCache adapts the shared cache service (memory, Redis, or layered)
// to the BytesCache API used by the HTTP handlers.
type ServiceCache struct {
	svc pkgcache.Service
}

func NewServiceCache(svc pkgcache.Service) *ServiceCache {
	return &ServiceCache{svc: svc}
}

func (c *ServiceCache) GetBytes(key string) ([]byte, bool, error) {
	var s string
	if err := c.svc.Get(context.Background(), key, &s); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(s), true, nil
}

func (c *ServiceCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	return c.svc.Set(context.Background(), key, string(value), ttl)
}
