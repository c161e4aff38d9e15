package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gourab8389/e-commerce-order-server/internal/domain"
	"github.com/gourab8389/e-commerce-order-server/pkg/applog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const uniqueViolationCode = "23505"

// categoryColumns is the shared SELECT list; product_count is the number
// of active products in the category.
const categoryColumns = `
	c.id, c.name, c.description, c.image, c.seller_id, c.is_active,
	c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM products p WHERE p.category_id = c.id AND p.is_active) AS product_count`

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id, sellerID string) (*domain.Category, error)
	ExistsActiveName(ctx context.Context, sellerID, name, excludeID string) (bool, error)
	List(ctx context.Context, sellerID string, query domain.CategoryQuery) ([]domain.Category, int64, error)
	Update(ctx context.Context, id, sellerID string, input *domain.UpdateCategoryInput) (*domain.Category, error)
	Deactivate(ctx context.Context, id, sellerID string) error
	CountActiveProducts(ctx context.Context, categoryID string) (int64, error)
	ListPublic(ctx context.Context, search, sellerID string) ([]domain.Category, error)
	ListWithProducts(ctx context.Context, sellerID string, limit int64) ([]domain.CategoryWithProducts, error)
}

type categoryRepo struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *zap.Logger
}

func NewCategoryRepository(pool *pgxpool.Pool, logger *zap.Logger) CategoryRepository {
	return &categoryRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("catalog/category_repo"),
	}
}

func (r *categoryRepo) Create(ctx context.Context, category *domain.Category) error {
	ctx, span := r.tracer.Start(ctx, "CategoryRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("name", category.Name),
		attribute.String("seller_id", category.SellerID),
	)

	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	category.IsActive = true

	query := `
		INSERT INTO categories (id, name, description, image, seller_id, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING created_at, updated_at;
	`

	err := r.pool.QueryRow(
		ctx,
		query,
		category.ID,
		category.Name,
		category.Description,
		category.Image,
		category.SellerID,
	).Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCategoryNameTaken
		}

		span.RecordError(err)

		applog.Error(
			ctx,
			r.logger,
			"Error creating category",
			zap.Error(err),
		)

		return fmt.Errorf("error creating category: %w", err)
	}

	return nil
}

func (r *categoryRepo) GetByID(ctx context.Context, id, sellerID string) (*domain.Category, error) {
	ctx, span := r.tracer.Start(ctx, "CategoryRepository.GetByID")
	defer span.End()

	span.SetAttributes(
		attribute.String("id", id),
		attribute.String("seller_id", sellerID),
	)

	query := `
		SELECT` + categoryColumns + `
		FROM categories c
		WHERE c.id = $1 AND c.seller_id = $2;
	`

	var res domain.Category
	if err := r.pool.QueryRow(ctx, query, id, sellerID).
		Scan(&res.ID, &res.Name, &res.Description, &res.Image,
			&res.SellerID, &res.IsActive, &res.CreatedAt, &res.UpdatedAt,
			&res.ProductCount,
		); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}

		span.RecordError(err)

		applog.Error(
			ctx,
			r.logger,
			"Error get by id",
			zap.String("id", id),
			zap.Error(err),
		)

		return nil, fmt.Errorf("error getting category: %w", err)
	}

	return &res, nil
}

// ExistsActiveName reports whether the seller already has an active
// category with the given name, compared case-insensitively. excludeID
// is skipped so an update does not conflict with the row it modifies.
func (r *categoryRepo) ExistsActiveName(ctx context.Context, sellerID, name, excludeID string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "CategoryRepository.ExistsActiveName")
	defer span.End()

	span.SetAttributes(
		attribute.String("seller_id", sellerID),
		attribute.String("name", name),
	)

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM categories
			WHERE seller_id = $1
				AND lower(name) = lower($2)
				AND is_active
				AND ($3::uuid IS NULL OR id <> $3::uuid)
		);
	`

	var exclude any
	if excludeID != "" {
		exclude = excludeID
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, query, sellerID, name, exclude).Scan(&exists); err != nil {
		span.RecordError(err)

		applog.Error(
			ctx,
			r.logger,
			"Error checking category name",
			zap.String("seller_id", sellerID),
			zap.Error(err),
		)

		return false, fmt.Errorf("error checking category name: %w", err)
	}

	return exists, nil
}

func (r *categoryRepo) List(ctx context.Context, sellerID string, query domain.CategoryQuery) ([]domain.Category, int64, error) {
	ctx, span := r.tracer.Start(ctx, "CategoryRepository.List")
	defer span.End()

	span.SetAttributes(
		attribute.String("seller_id", sellerID),
		attribute.Int64("page", query.Page),
		attribute.Int64("limit", query.Limit),
		attribute.String("search", query.Search),
	)

	baseQuery := `SELECT` + categoryColumns + `
		FROM categories c
		WHERE c.seller_id = $1`
	countQuery := `SELECT COUNT(*) FROM categories c WHERE c.seller_id = $1`

	args := []interface{}{sellerID}
	argId := 2

	// Default to active rows unless the caller filters explicitly.
	if query.IsActive != nil {
		filter := fmt.Sprintf(" AND c.is_active = $%d", argId)
		baseQuery += filter
		countQuery += filter
		args = append(args, *query.IsActive)
		argId++
	} else {
		baseQuery += " AND c.is_active"
		countQuery += " AND c.is_active"
	}

	if query.Search != "" {
		filter := fmt.Sprintf(" AND c.name ILIKE $%d", argId)
		baseQuery += filter
		countQuery += filter
		args = append(args, "%"+query.Search+"%")
		argId++
	}

	countArgs := make([]interface{}, len(args))
	copy(countArgs, args)

	baseQuery += fmt.Sprintf(" ORDER BY c.created_at DESC, c.name ASC LIMIT $%d OFFSET $%d", argId, argId+1)
	args = append(args, query.Limit, (query.Page-1)*query.Limit)

	rows, err := r.pool.Query(ctx, baseQuery, args...)
	if err != nil {
		span.RecordError(err)

		applog.Error(
			ctx,
			r.logger,
			"Error listing categories",
			zap.String("seller_id", sellerID),
			zap.Error(err),
		)

		return nil, 0, fmt.Errorf("error selecting categories: %w", err)
	}
	defer rows.Close()

	categories, err := scanCategories(rows)
	if err != nil {
		span.RecordError(err)

		applog.Error(ctx, r.logger, "Failed to scan category rows", zap.Error(err))
		return nil, 0, err
	}

	var totalCount int64
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&totalCount); err != nil {
		span.RecordError(err)

		applog.Error(ctx, r.logger, "Failed to count categories", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count categories: %w", err)
	}

	return categories, totalCount, nil
}

func (r *categoryRepo) Update(ctx context.Context, id, sellerID string, input *domain.UpdateCategoryInput) (*domain.Category, error) {
	ctx, span := r.tracer.Start(ctx, "CategoryRepository.Update")
	defer span.End()

	span.SetAttributes(
		attribute.String("id", id),
		attribute.String("seller_id", sellerID),
	)

	var updates []string
	var args []interface{}
	argId := 1

	if input.Name != nil {
		updates = append(updates, fmt.Sprintf("name = $%d", argId))
		args = append(args, *input.Name)
		argId++
	}

	if input.Description != nil {
		updates = append(updates, fmt.Sprintf("description = $%d", argId))
		args = append(args, *input.Description)
		argId++
	}

	if input.Image != nil {
		updates = append(updates, fmt.Sprintf("image = $%d", argId))
		args = append(args, *input.Image)
		argId++
	}

	if input.IsActive != nil {
		updates = append(updates, fmt.Sprintf("is_active = $%d", argId))
		args = append(args, *input.IsActive)
		argId++
	}

	if len(updates) == 0 {
		return r.GetByID(ctx, id, sellerID)
	}

	updates = append(updates, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE categories c
		SET %s
		WHERE c.id = $%d AND c.seller_id = $%d
		RETURNING`+categoryColumns+`;`,
		strings.Join(updates, ", "), argId, argId+1)
	args = append(args, id, sellerID)

	var res domain.Category
	if err := r.pool.QueryRow(ctx, query, args...).
		Scan(&res.ID, &res.Name, &res.Description, &res.Image,
			&res.SellerID, &res.IsActive, &res.CreatedAt, &res.UpdatedAt,
			&res.ProductCount,
		); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrCategoryNameTaken
		}

		span.RecordError(err)

		applog.Error(
			ctx,
			r.logger,
			"Failed to update category",
			zap.String("id", id),
			zap.Error(err),
		)

		return nil, fmt.Errorf("error updating category: %w", err)
	}

	return &res, nil
}

// Deactivate soft-deletes the category. The row is kept for history;
// inactive rows drop out of default listings and free the name for
// reuse.
func (r *categoryRepo) Deactivate(ctx context.Context, id, sellerID string) error {
	ctx, span := r.tracer.Start(ctx, "CategoryRepository.Deactivate")
	defer span.End()

	span.SetAttributes(
		attribute.String("id", id),
		attribute.String("seller_id", sellerID),
	)

	query := `
		UPDATE categories
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND seller_id = $2;
	`

	commandTag, err := r.pool.Exec(ctx, query, id, sellerID)
	if err != nil {
		span.RecordError(err)

		applog.Error(
			ctx,
			r.logger,
			"Error deactivating category",
			zap.String("id", id),
			zap.Error(err),
		)

		return fmt.Errorf("error deactivating category: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

func (r *categoryRepo) CountActiveProducts(ctx context.Context, categoryID string) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "CategoryRepository.CountActiveProducts")
	defer span.End()

	span.SetAttributes(
		attribute.String("category_id", categoryID),
	)

	query := `
		SELECT COUNT(*)
		FROM products
		WHERE category_id = $1 AND is_active;
	`

	var count int64
	if err := r.pool.QueryRow(ctx, query, categoryID).Scan(&count); err != nil {
		span.RecordError(err)

		applog.Error(
			ctx,
			r.logger,
			"Error counting active products",
			zap.String("category_id", categoryID),
			zap.Error(err),
		)

		return 0, fmt.Errorf("error counting active products: %w", err)
	}

	return count, nil
}

func (r *categoryRepo) ListPublic(ctx context.Context, search, sellerID string) ([]domain.Category, error) {
	ctx, span := r.tracer.Start(ctx, "CategoryRepository.ListPublic")
	defer span.End()

	span.SetAttributes(
		attribute.String("search", search),
		attribute.String("seller_id", sellerID),
	)

	query := `SELECT` + categoryColumns + `
		FROM categories c
		WHERE c.is_active`

	var args []interface{}
	argId := 1

	if search != "" {
		query += fmt.Sprintf(" AND c.name ILIKE $%d", argId)
		args = append(args, "%"+search+"%")
		argId++
	}

	if sellerID != "" {
		query += fmt.Sprintf(" AND c.seller_id = $%d", argId)
		args = append(args, sellerID)
		argId++
	}

	query += " ORDER BY c.name ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)

		applog.Error(ctx, r.logger, "Error listing public categories", zap.Error(err))
		return nil, fmt.Errorf("error selecting public categories: %w", err)
	}
	defer rows.Close()

	categories, err := scanCategories(rows)
	if err != nil {
		span.RecordError(err)

		applog.Error(ctx, r.logger, "Failed to scan public category rows", zap.Error(err))
		return nil, err
	}

	return categories, nil
}

// ListWithProducts returns active categories that hold at least one
// active product, each with up to limit featured products, best sellers
// first. This feeds the merchandising view.
func (r *categoryRepo) ListWithProducts(ctx context.Context, sellerID string, limit int64) ([]domain.CategoryWithProducts, error) {
	ctx, span := r.tracer.Start(ctx, "CategoryRepository.ListWithProducts")
	defer span.End()

	span.SetAttributes(
		attribute.String("seller_id", sellerID),
		attribute.Int64("limit", limit),
	)

	query := `SELECT` + categoryColumns + `
		FROM categories c
		WHERE c.is_active
			AND EXISTS (
				SELECT 1 FROM products p
				WHERE p.category_id = c.id AND p.is_active
			)`

	var args []interface{}
	if sellerID != "" {
		query += " AND c.seller_id = $1"
		args = append(args, sellerID)
	}

	query += " ORDER BY c.name ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)

		applog.Error(ctx, r.logger, "Error listing categories with products", zap.Error(err))
		return nil, fmt.Errorf("error selecting categories with products: %w", err)
	}

	categories, err := scanCategories(rows)
	rows.Close()
	if err != nil {
		span.RecordError(err)

		applog.Error(ctx, r.logger, "Failed to scan category rows", zap.Error(err))
		return nil, err
	}

	productsQuery := `
		SELECT id, name, image, price, original_price, discount, avg_rating, total_sold
		FROM products
		WHERE category_id = $1 AND is_active AND is_featured
		ORDER BY total_sold DESC
		LIMIT $2;
	`

	result := make([]domain.CategoryWithProducts, 0, len(categories))
	for _, category := range categories {
		productRows, err := r.pool.Query(ctx, productsQuery, category.ID, limit)
		if err != nil {
			span.RecordError(err)

			applog.Error(
				ctx,
				r.logger,
				"Error selecting featured products",
				zap.String("category_id", category.ID),
				zap.Error(err),
			)

			return nil, fmt.Errorf("error selecting featured products: %w", err)
		}

		var products []domain.ProductSummary
		for productRows.Next() {
			var p domain.ProductSummary
			if err := productRows.Scan(
				&p.ID,
				&p.Name,
				&p.Image,
				&p.Price,
				&p.OriginalPrice,
				&p.Discount,
				&p.AvgRating,
				&p.TotalSold,
			); err != nil {
				productRows.Close()
				span.RecordError(err)

				return nil, fmt.Errorf("error scanning product rows: %w", err)
			}
			products = append(products, p)
		}
		err = productRows.Err()
		productRows.Close()
		if err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("product rows iteration error: %w", err)
		}

		result = append(result, domain.CategoryWithProducts{
			Category: category,
			Products: products,
		})
	}

	return result, nil
}

func scanCategories(rows pgx.Rows) ([]domain.Category, error) {
	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Description,
			&c.Image,
			&c.SellerID,
			&c.IsActive,
			&c.CreatedAt,
			&c.UpdatedAt,
			&c.ProductCount,
		); err != nil {
			return nil, fmt.Errorf("error scanning category rows: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("category rows iteration error: %w", err)
	}

	return categories, nil
}

func isUniqueViolation(err error) bool {
	var pgError *pgconn.PgError
	return errors.As(err, &pgError) && pgError.Code == uniqueViolationCode
}
