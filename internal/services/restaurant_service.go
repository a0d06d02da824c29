package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"qrdine_backend/internal/cache"
	"qrdine_backend/internal/models"
	"qrdine_backend/internal/repositories"
	"qrdine_backend/pkg/utils"
)

const (
	lookupRetries    = 3
	lookupRetryDelay = 200 * time.Millisecond
)

func restaurantCacheKey(id int64) string     { return fmt.Sprintf("restaurant_public_%d", id) }
func restaurantSlugCacheKey(s string) string { return "restaurant_public_slug_" + s }

// RestaurantService serves the public restaurant projection that QR landing
// pages hit on every scan.
type RestaurantService interface {
	GetPublicInfo(ctx context.Context, restaurantID int64) (*models.RestaurantPublicInfo, error)
	GetPublicInfoBySlug(ctx context.Context, slug string) (*models.RestaurantPublicInfo, error)
}

type restaurantService struct {
	ds       repositories.Datastore
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewRestaurantService creates a RestaurantService with a TTL cache in front
// of the store. cache may be nil to disable caching.
func NewRestaurantService(ds repositories.Datastore, c cache.Cache, ttl time.Duration) RestaurantService {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &restaurantService{ds: ds, cache: c, cacheTTL: ttl}
}

func (s *restaurantService) GetPublicInfo(ctx context.Context, restaurantID int64) (*models.RestaurantPublicInfo, error) {
	return s.getPublicInfo(ctx, restaurantCacheKey(restaurantID), func() (*models.Restaurant, error) {
		return s.ds.Restaurants().GetByID(restaurantID)
	})
}

func (s *restaurantService) GetPublicInfoBySlug(ctx context.Context, slug string) (*models.RestaurantPublicInfo, error) {
	return s.getPublicInfo(ctx, restaurantSlugCacheKey(slug), func() (*models.Restaurant, error) {
		return s.ds.Restaurants().GetBySlug(slug)
	})
}

func (s *restaurantService) getPublicInfo(ctx context.Context, key string, lookup func() (*models.Restaurant, error)) (*models.RestaurantPublicInfo, error) {
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, key); ok {
			info := &models.RestaurantPublicInfo{}
			if err := json.Unmarshal(raw, info); err == nil {
				return info, nil
			}
			s.cache.Delete(ctx, key)
		}
	}

	restaurant, err := s.lookupWithRetry(lookup)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}

	info := &models.RestaurantPublicInfo{
		ID:            restaurant.ID,
		Name:          restaurant.Name,
		Slug:          restaurant.Slug,
		IsActive:      restaurant.IsActive,
		TaxPercentage: restaurant.TaxPercentage,
	}
	if s.cache != nil {
		if raw, err := json.Marshal(info); err == nil {
			s.cache.Set(ctx, key, raw, s.cacheTTL)
		}
	}
	return info, nil
}

// lookupWithRetry retries transient store errors a fixed number of times with
// a fixed delay. Not-found is final and never retried.
func (s *restaurantService) lookupWithRetry(lookup func() (*models.Restaurant, error)) (*models.Restaurant, error) {
	var lastErr error
	for attempt := 1; attempt <= lookupRetries; attempt++ {
		restaurant, err := lookup()
		if err == nil {
			return restaurant, nil
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		lastErr = err
		utils.LogWarn("restaurant lookup failed, retrying", map[string]interface{}{
			"attempt": attempt, "error": err.Error(),
		})
		if attempt < lookupRetries {
			time.Sleep(lookupRetryDelay)
		}
	}
	return nil, lastErr
}
