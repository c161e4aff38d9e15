package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gourab8389/e-commerce-order-server/internal/domain"
	"github.com/gourab8389/e-commerce-order-server/internal/images"
	"github.com/gourab8389/e-commerce-order-server/internal/repository"
	"github.com/gourab8389/e-commerce-order-server/pkg/applog"
	"github.com/gourab8389/e-commerce-order-server/pkg/utils"
	"go.uber.org/zap"
)

type CategoryService interface {
	Create(ctx context.Context, input *domain.CreateCategoryInput) (*domain.Category, error)
	Get(ctx context.Context, id, sellerID string) (*domain.Category, error)
	List(ctx context.Context, sellerID string, query domain.CategoryQuery) (*domain.CategoryPage, error)
	Update(ctx context.Context, id, sellerID string, input *domain.UpdateCategoryInput) (*domain.Category, error)
	Delete(ctx context.Context, id, sellerID string) error
	ListPublic(ctx context.Context, search, sellerID string) (*domain.PublicCategoryListing, error)
	ListWithProducts(ctx context.Context, sellerID string, limit int64) ([]domain.CategoryWithProducts, error)
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	images       images.Processor
	validate     *validator.Validate
	logger       *zap.Logger
}

func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	imageProcessor images.Processor,
	logger *zap.Logger,
) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		images:       imageProcessor,
		validate:     validator.New(),
		logger:       logger,
	}
}

func (s *categoryService) Create(ctx context.Context, input *domain.CreateCategoryInput) (*domain.Category, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, &ValidationError{Fields: utils.FormatValidationError(err)}
	}

	// Friendly pre-check; the partial unique index on the store is the
	// backstop for the race between two concurrent creates.
	taken, err := s.categoryRepo.ExistsActiveName(ctx, input.SellerID, input.Name, "")
	if err != nil {
		applog.Error(ctx, s.logger, "Error checking category name", zap.Error(err))
		return nil, err
	}
	if taken {
		applog.Warn(ctx, s.logger, "Category name already taken",
			zap.String("seller_id", input.SellerID),
			zap.String("name", input.Name),
		)
		return nil, repository.ErrCategoryNameTaken
	}

	category := &domain.Category{
		Name:        input.Name,
		Description: input.Description,
		Image:       input.Image,
		SellerID:    input.SellerID,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryNameTaken) {
			return nil, err
		}

		applog.Error(ctx, s.logger, "Error creating category", zap.Error(err))
		return nil, fmt.Errorf("error creating category: %w", err)
	}

	applog.Info(ctx, s.logger, "Category created",
		zap.String("id", category.ID),
		zap.String("seller_id", category.SellerID),
	)

	return category, nil
}

func (s *categoryService) Get(ctx context.Context, id, sellerID string) (*domain.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id, sellerID)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			applog.Warn(ctx, s.logger, "Category not found", zap.String("id", id))
			return nil, err
		}

		applog.Error(ctx, s.logger, "Error getting category", zap.Error(err))
		return nil, fmt.Errorf("error getting category by id: %w", err)
	}

	return category, nil
}

func (s *categoryService) List(ctx context.Context, sellerID string, query domain.CategoryQuery) (*domain.CategoryPage, error) {
	query = query.Normalized()

	categories, total, err := s.categoryRepo.List(ctx, sellerID, query)
	if err != nil {
		applog.Error(ctx, s.logger, "Error listing categories", zap.Error(err))
		return nil, fmt.Errorf("error listing categories: %w", err)
	}

	if categories == nil {
		categories = []domain.Category{}
	}

	pages := total / query.Limit
	if total%query.Limit != 0 {
		pages++
	}

	return &domain.CategoryPage{
		Categories: categories,
		Pagination: domain.Pagination{
			Total: total,
			Page:  query.Page,
			Limit: query.Limit,
			Pages: pages,
		},
	}, nil
}

func (s *categoryService) Update(ctx context.Context, id, sellerID string, input *domain.UpdateCategoryInput) (*domain.Category, error) {
	current, err := s.categoryRepo.GetByID(ctx, id, sellerID)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, err
		}

		applog.Error(ctx, s.logger, "Error loading category for update", zap.Error(err))
		return nil, err
	}

	if input.Name != nil && *input.Name != current.Name {
		taken, err := s.categoryRepo.ExistsActiveName(ctx, sellerID, *input.Name, id)
		if err != nil {
			applog.Error(ctx, s.logger, "Error checking category name", zap.Error(err))
			return nil, err
		}
		if taken {
			return nil, repository.ErrCategoryNameTaken
		}
	}

	updated, err := s.categoryRepo.Update(ctx, id, sellerID, input)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) || errors.Is(err, repository.ErrCategoryNameTaken) {
			return nil, err
		}

		applog.Error(ctx, s.logger, "Error updating category", zap.Error(err))
		return nil, fmt.Errorf("error updating category: %w", err)
	}

	// A replaced image leaves an orphan file behind; removing it is
	// best-effort and never fails the update.
	if s.images != nil && input.Image != nil &&
		current.Image != "" && current.Image != *input.Image {
		if err := s.images.Remove(ctx, current.Image); err != nil {
			applog.Warn(ctx, s.logger, "Failed to remove replaced image",
				zap.String("image", current.Image),
				zap.Error(err),
			)
		}
	}

	applog.Info(ctx, s.logger, "Category updated",
		zap.String("id", id),
		zap.String("seller_id", sellerID),
	)

	return updated, nil
}

func (s *categoryService) Delete(ctx context.Context, id, sellerID string) error {
	if _, err := s.categoryRepo.GetByID(ctx, id, sellerID); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			applog.Warn(ctx, s.logger, "Category not found", zap.String("id", id))
			return err
		}

		applog.Error(ctx, s.logger, "Error loading category for delete", zap.Error(err))
		return err
	}

	count, err := s.categoryRepo.CountActiveProducts(ctx, id)
	if err != nil {
		applog.Error(ctx, s.logger, "Error counting active products", zap.Error(err))
		return err
	}
	if count > 0 {
		applog.Warn(ctx, s.logger, "Category still has active products",
			zap.String("id", id),
			zap.Int64("products", count),
		)
		return ErrCategoryHasProducts
	}

	if err := s.categoryRepo.Deactivate(ctx, id, sellerID); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return err
		}

		applog.Error(ctx, s.logger, "Error deactivating category", zap.Error(err))
		return fmt.Errorf("error deleting category: %w", err)
	}

	applog.Info(ctx, s.logger, "Category deactivated",
		zap.String("id", id),
		zap.String("seller_id", sellerID),
	)

	return nil
}

func (s *categoryService) ListPublic(ctx context.Context, search, sellerID string) (*domain.PublicCategoryListing, error) {
	categories, err := s.categoryRepo.ListPublic(ctx, search, sellerID)
	if err != nil {
		applog.Error(ctx, s.logger, "Error listing public categories", zap.Error(err))
		return nil, fmt.Errorf("error listing public categories: %w", err)
	}

	if categories == nil {
		categories = []domain.Category{}
	}

	listing := &domain.PublicCategoryListing{
		Total:      int64(len(categories)),
		Categories: categories,
	}

	// The grouped shape only makes sense for the unfiltered listing.
	if sellerID == "" {
		grouped := make(map[string][]domain.Category)
		for _, category := range categories {
			grouped[category.SellerID] = append(grouped[category.SellerID], category)
		}
		listing.GroupedBySeller = grouped
	}

	return listing, nil
}

func (s *categoryService) ListWithProducts(ctx context.Context, sellerID string, limit int64) ([]domain.CategoryWithProducts, error) {
	if limit < 1 {
		limit = 5
	}

	categories, err := s.categoryRepo.ListWithProducts(ctx, sellerID, limit)
	if err != nil {
		applog.Error(ctx, s.logger, "Error listing categories with products", zap.Error(err))
		return nil, fmt.Errorf("error listing categories with products: %w", err)
	}

	return categories, nil
}
