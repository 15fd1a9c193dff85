package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BioWatch/internal/domain/models"
	"BioWatch/pkg/cache"
)

// StatusCache implements the status snapshot store on top of a cache.Service.
// Backed by Redis in deployments; the in-memory cache serves single-process
// runs without a Redis instance.
type StatusCache struct {
	c   cache.Service
	ttl time.Duration
}

func NewStatusCache(c cache.Service, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &StatusCache{c: c, ttl: ttl}
}

func (s *StatusCache) SetStatus(ctx context.Context, st *models.DetectorStatus) error {
	return s.c.Set(ctx, statusKey(st.Stream), st, s.ttl)
}

func (s *StatusCache) GetStatus(ctx context.Context, stream string) (*models.DetectorStatus, error) {
	var st models.DetectorStatus
	if err := s.c.Get(ctx, statusKey(stream), &st); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

func (s *StatusCache) Close() error {
	return s.c.Close()
}

func statusKey(stream string) string {
	return fmt.Sprintf("status:%s", stream)
}
