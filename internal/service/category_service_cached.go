package service

import (
	"context"
	"time"

	"github.com/gourab8389/e-commerce-order-server/internal/cache"
	"github.com/gourab8389/e-commerce-order-server/internal/domain"
)

// CacheGateway is the slice of the cache façade the decorator needs.
type CacheGateway interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool
	FlushPattern(ctx context.Context, pattern string) bool
}

type cachedCategoryService struct {
	next  CategoryService
	cache CacheGateway
}

// NewCachedCategoryService wraps next with read-through caching for the
// listing paths and pattern invalidation on every mutation.
func NewCachedCategoryService(next CategoryService, gateway CacheGateway) CategoryService {
	return &cachedCategoryService{
		next:  next,
		cache: gateway,
	}
}

func (s *cachedCategoryService) Create(ctx context.Context, input *domain.CreateCategoryInput) (*domain.Category, error) {
	category, err := s.next.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.flush(ctx, input.SellerID)
	return category, nil
}

func (s *cachedCategoryService) Get(ctx context.Context, id, sellerID string) (*domain.Category, error) {
	return s.next.Get(ctx, id, sellerID)
}

func (s *cachedCategoryService) List(ctx context.Context, sellerID string, query domain.CategoryQuery) (*domain.CategoryPage, error) {
	query = query.Normalized()
	key := cache.SellerListKey(sellerID, query.Page, query.Limit, query.Search, query.IsActive)

	var page domain.CategoryPage
	if s.cache.Get(ctx, key, &page) {
		return &page, nil
	}

	result, err := s.next.List(ctx, sellerID, query)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, result, cache.ListTTL)
	return result, nil
}

func (s *cachedCategoryService) Update(ctx context.Context, id, sellerID string, input *domain.UpdateCategoryInput) (*domain.Category, error) {
	category, err := s.next.Update(ctx, id, sellerID, input)
	if err != nil {
		return nil, err
	}

	s.flush(ctx, sellerID)
	return category, nil
}

func (s *cachedCategoryService) Delete(ctx context.Context, id, sellerID string) error {
	if err := s.next.Delete(ctx, id, sellerID); err != nil {
		return err
	}

	s.flush(ctx, sellerID)
	return nil
}

func (s *cachedCategoryService) ListPublic(ctx context.Context, search, sellerID string) (*domain.PublicCategoryListing, error) {
	key := cache.PublicListKey(search, sellerID)

	var listing domain.PublicCategoryListing
	if s.cache.Get(ctx, key, &listing) {
		return &listing, nil
	}

	result, err := s.next.ListPublic(ctx, search, sellerID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, result, cache.PublicTTL)
	return result, nil
}

func (s *cachedCategoryService) ListWithProducts(ctx context.Context, sellerID string, limit int64) ([]domain.CategoryWithProducts, error) {
	if limit < 1 {
		limit = 5
	}
	key := cache.WithProductsKey(sellerID, limit)

	var categories []domain.CategoryWithProducts
	if s.cache.Get(ctx, key, &categories) {
		return categories, nil
	}

	result, err := s.next.ListWithProducts(ctx, sellerID, limit)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, result, cache.PublicTTL)
	return result, nil
}

// flush invalidates the mutating seller's namespace and every
// cross-seller namespace. The exact key set touched by a mutation is
// unknowable once pagination, search, and filter combinations are in
// play, so everything that may embed the seller's rows goes.
func (s *cachedCategoryService) flush(ctx context.Context, sellerID string) {
	s.cache.FlushPattern(ctx, cache.SellerFlushPattern(sellerID))
	s.cache.FlushPattern(ctx, cache.AllFlushPattern)
	s.cache.FlushPattern(ctx, cache.PublicFlushPattern)
	s.cache.FlushPattern(ctx, cache.WithProductsFlushPattern)
}
