package repository_test

import (
	"context"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/gourab8389/e-commerce-order-server/internal/domain"
	"github.com/gourab8389/e-commerce-order-server/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type CategoryRepoSuite struct {
	suite.Suite

	pgContainer *postgres.PostgresContainer
	pool        *pgxpool.Pool
	repo        repository.CategoryRepository
	ctx         context.Context
}

func (s *CategoryRepoSuite) SetupSuite() {
	s.ctx = context.Background()

	var err error
	s.pgContainer, err = postgres.Run(
		s.ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	s.Require().NoError(err)

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	absPath, err := filepath.Abs("../../migrations")
	s.Require().NoError(err)

	m, err := migrate.New("file://"+absPath, connStr)
	s.Require().NoError(err)
	s.Require().NoError(m.Up())

	s.pool, err = pgxpool.New(s.ctx, connStr)
	s.Require().NoError(err)

	s.repo = repository.NewCategoryRepository(s.pool, zap.NewNop())
}

func (s *CategoryRepoSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			log.Printf("Failed to terminate postgres container: %v", err)
		}
	}
}

func (s *CategoryRepoSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, "TRUNCATE categories CASCADE")
	s.Require().NoError(err)
}

// insertCategory writes a row directly, with an explicit created_at so
// listing order is deterministic.
func (s *CategoryRepoSuite) insertCategory(name, sellerID string, isActive bool, createdAt time.Time) string {
	id := uuid.NewString()
	_, err := s.pool.Exec(s.ctx, `
		INSERT INTO categories (id, name, seller_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)`,
		id, name, sellerID, isActive, createdAt,
	)
	s.Require().NoError(err)

	return id
}

func (s *CategoryRepoSuite) insertProduct(categoryID, name string, totalSold int64, isFeatured, isActive bool) string {
	id := uuid.NewString()
	_, err := s.pool.Exec(s.ctx, `
		INSERT INTO products (id, category_id, seller_id, name, price, total_sold, is_featured, is_active)
		VALUES ($1, $2, 'S1', $3, 1000, $4, $5, $6)`,
		id, categoryID, name, totalSold, isFeatured, isActive,
	)
	s.Require().NoError(err)

	return id
}

func (s *CategoryRepoSuite) TestCreateAndGetByID() {
	category := &domain.Category{
		Name:        "Dairy",
		Description: "Milk and cheese",
		Image:       "dairy.webp",
		SellerID:    "S1",
	}
	s.Require().NoError(s.repo.Create(s.ctx, category))
	s.Require().NotEmpty(category.ID)
	s.Require().False(category.CreatedAt.IsZero())
	s.Require().False(category.UpdatedAt.IsZero())

	got, err := s.repo.GetByID(s.ctx, category.ID, "S1")
	s.Require().NoError(err)
	s.Require().Equal("Dairy", got.Name)
	s.Require().Equal("Milk and cheese", got.Description)
	s.Require().Equal("dairy.webp", got.Image)
	s.Require().True(got.IsActive)
	s.Require().Zero(got.ProductCount)
}

func (s *CategoryRepoSuite) TestGetByIDWrongSeller() {
	category := &domain.Category{Name: "Dairy", SellerID: "S1"}
	s.Require().NoError(s.repo.Create(s.ctx, category))

	_, err := s.repo.GetByID(s.ctx, category.ID, "S2")
	s.Require().ErrorIs(err, repository.ErrCategoryNotFound)
}

func (s *CategoryRepoSuite) TestCreateDuplicateNameIsCaseInsensitive() {
	s.Require().NoError(s.repo.Create(s.ctx, &domain.Category{Name: "Dairy", SellerID: "S1"}))

	err := s.repo.Create(s.ctx, &domain.Category{Name: "dairy", SellerID: "S1"})
	s.Require().ErrorIs(err, repository.ErrCategoryNameTaken)
}

func (s *CategoryRepoSuite) TestCreateSameNameDifferentSellers() {
	s.Require().NoError(s.repo.Create(s.ctx, &domain.Category{Name: "Dairy", SellerID: "S1"}))
	s.Require().NoError(s.repo.Create(s.ctx, &domain.Category{Name: "Dairy", SellerID: "S2"}))
}

func (s *CategoryRepoSuite) TestNameReusableAfterDeactivate() {
	category := &domain.Category{Name: "Dairy", SellerID: "S1"}
	s.Require().NoError(s.repo.Create(s.ctx, category))
	s.Require().NoError(s.repo.Deactivate(s.ctx, category.ID, "S1"))

	s.Require().NoError(s.repo.Create(s.ctx, &domain.Category{Name: "Dairy", SellerID: "S1"}))
}

func (s *CategoryRepoSuite) TestExistsActiveName() {
	category := &domain.Category{Name: "Dairy", SellerID: "S1"}
	s.Require().NoError(s.repo.Create(s.ctx, category))

	exists, err := s.repo.ExistsActiveName(s.ctx, "S1", "DAIRY", "")
	s.Require().NoError(err)
	s.Require().True(exists)

	exists, err = s.repo.ExistsActiveName(s.ctx, "S2", "Dairy", "")
	s.Require().NoError(err)
	s.Require().False(exists)

	// A row never conflicts with itself.
	exists, err = s.repo.ExistsActiveName(s.ctx, "S1", "Dairy", category.ID)
	s.Require().NoError(err)
	s.Require().False(exists)
}

func (s *CategoryRepoSuite) TestListDefaultsToActive() {
	base := time.Now().UTC().Add(-time.Hour)
	s.insertCategory("Dairy", "S1", true, base)
	s.insertCategory("Bakery", "S1", false, base.Add(time.Minute))

	categories, total, err := s.repo.List(s.ctx, "S1", domain.CategoryQuery{Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Require().EqualValues(1, total)
	s.Require().Len(categories, 1)
	s.Require().Equal("Dairy", categories[0].Name)

	inactive := false
	categories, total, err = s.repo.List(s.ctx, "S1", domain.CategoryQuery{Page: 1, Limit: 10, IsActive: &inactive})
	s.Require().NoError(err)
	s.Require().EqualValues(1, total)
	s.Require().Len(categories, 1)
	s.Require().Equal("Bakery", categories[0].Name)
}

func (s *CategoryRepoSuite) TestListSearchAndPagination() {
	base := time.Now().UTC().Add(-time.Hour)
	s.insertCategory("Dairy", "S1", true, base)
	s.insertCategory("Non-Dairy", "S1", true, base.Add(time.Minute))
	s.insertCategory("Bakery", "S1", true, base.Add(2*time.Minute))
	s.insertCategory("Dairy", "S2", true, base)

	categories, total, err := s.repo.List(s.ctx, "S1", domain.CategoryQuery{Page: 1, Limit: 10, Search: "dai"})
	s.Require().NoError(err)
	s.Require().EqualValues(2, total)
	s.Require().Len(categories, 2)
	// Newest first.
	s.Require().Equal("Non-Dairy", categories[0].Name)
	s.Require().Equal("Dairy", categories[1].Name)

	categories, total, err = s.repo.List(s.ctx, "S1", domain.CategoryQuery{Page: 2, Limit: 2})
	s.Require().NoError(err)
	s.Require().EqualValues(3, total)
	s.Require().Len(categories, 1)
	s.Require().Equal("Dairy", categories[0].Name)
}

func (s *CategoryRepoSuite) TestUpdatePartial() {
	category := &domain.Category{Name: "Dairy", Description: "Old", Image: "old.webp", SellerID: "S1"}
	s.Require().NoError(s.repo.Create(s.ctx, category))

	newName := "Dairy & Eggs"
	updated, err := s.repo.Update(s.ctx, category.ID, "S1", &domain.UpdateCategoryInput{Name: &newName})
	s.Require().NoError(err)
	s.Require().Equal("Dairy & Eggs", updated.Name)
	s.Require().Equal("Old", updated.Description)
	s.Require().Equal("old.webp", updated.Image)
}

func (s *CategoryRepoSuite) TestUpdateEmptyInputReturnsCurrent() {
	category := &domain.Category{Name: "Dairy", SellerID: "S1"}
	s.Require().NoError(s.repo.Create(s.ctx, category))

	updated, err := s.repo.Update(s.ctx, category.ID, "S1", &domain.UpdateCategoryInput{})
	s.Require().NoError(err)
	s.Require().Equal("Dairy", updated.Name)
}

func (s *CategoryRepoSuite) TestUpdateNotFound() {
	name := "Dairy"
	_, err := s.repo.Update(s.ctx, uuid.NewString(), "S1", &domain.UpdateCategoryInput{Name: &name})
	s.Require().ErrorIs(err, repository.ErrCategoryNotFound)
}

func (s *CategoryRepoSuite) TestUpdateToTakenNameConflicts() {
	s.Require().NoError(s.repo.Create(s.ctx, &domain.Category{Name: "Dairy", SellerID: "S1"}))
	category := &domain.Category{Name: "Bakery", SellerID: "S1"}
	s.Require().NoError(s.repo.Create(s.ctx, category))

	name := "DAIRY"
	_, err := s.repo.Update(s.ctx, category.ID, "S1", &domain.UpdateCategoryInput{Name: &name})
	s.Require().ErrorIs(err, repository.ErrCategoryNameTaken)
}

func (s *CategoryRepoSuite) TestDeactivate() {
	category := &domain.Category{Name: "Dairy", SellerID: "S1"}
	s.Require().NoError(s.repo.Create(s.ctx, category))

	s.Require().NoError(s.repo.Deactivate(s.ctx, category.ID, "S1"))

	got, err := s.repo.GetByID(s.ctx, category.ID, "S1")
	s.Require().NoError(err)
	s.Require().False(got.IsActive)
}

func (s *CategoryRepoSuite) TestDeactivateNotFound() {
	err := s.repo.Deactivate(s.ctx, uuid.NewString(), "S1")
	s.Require().ErrorIs(err, repository.ErrCategoryNotFound)
}

func (s *CategoryRepoSuite) TestCountActiveProducts() {
	categoryID := s.insertCategory("Dairy", "S1", true, time.Now().UTC())
	s.insertProduct(categoryID, "Milk", 10, false, true)
	s.insertProduct(categoryID, "Cheese", 5, false, true)
	s.insertProduct(categoryID, "Retired butter", 0, false, false)

	count, err := s.repo.CountActiveProducts(s.ctx, categoryID)
	s.Require().NoError(err)
	s.Require().EqualValues(2, count)

	got, err := s.repo.GetByID(s.ctx, categoryID, "S1")
	s.Require().NoError(err)
	s.Require().EqualValues(2, got.ProductCount)
}

func (s *CategoryRepoSuite) TestListPublic() {
	now := time.Now().UTC()
	s.insertCategory("Dairy", "S1", true, now)
	s.insertCategory("Bakery", "S2", true, now)
	s.insertCategory("Hidden", "S2", false, now)

	categories, err := s.repo.ListPublic(s.ctx, "", "")
	s.Require().NoError(err)
	s.Require().Len(categories, 2)
	// Name ascending.
	s.Require().Equal("Bakery", categories[0].Name)
	s.Require().Equal("Dairy", categories[1].Name)

	categories, err = s.repo.ListPublic(s.ctx, "dai", "")
	s.Require().NoError(err)
	s.Require().Len(categories, 1)
	s.Require().Equal("Dairy", categories[0].Name)

	categories, err = s.repo.ListPublic(s.ctx, "", "S2")
	s.Require().NoError(err)
	s.Require().Len(categories, 1)
	s.Require().Equal("Bakery", categories[0].Name)
}

func (s *CategoryRepoSuite) TestListWithProducts() {
	now := time.Now().UTC()
	dairyID := s.insertCategory("Dairy", "S1", true, now)
	emptyID := s.insertCategory("Bakery", "S1", true, now)

	s.insertProduct(dairyID, "Milk", 50, true, true)
	s.insertProduct(dairyID, "Cheese", 90, true, true)
	s.insertProduct(dairyID, "Butter", 70, true, true)
	s.insertProduct(dairyID, "Yogurt", 999, false, true)

	result, err := s.repo.ListWithProducts(s.ctx, "S1", 2)
	s.Require().NoError(err)
	s.Require().Len(result, 1, "category %s has no active products and must be skipped", emptyID)
	s.Require().Equal("Dairy", result[0].Name)

	// Featured only, best sellers first, capped at limit.
	s.Require().Len(result[0].Products, 2)
	s.Require().Equal("Cheese", result[0].Products[0].Name)
	s.Require().Equal("Butter", result[0].Products[1].Name)
}

func (s *CategoryRepoSuite) TestListWithProductsSellerScope() {
	now := time.Now().UTC()
	dairyID := s.insertCategory("Dairy", "S1", true, now)
	s.insertProduct(dairyID, "Milk", 10, true, true)

	result, err := s.repo.ListWithProducts(s.ctx, "S2", 5)
	s.Require().NoError(err)
	s.Require().Empty(result)

	result, err = s.repo.ListWithProducts(s.ctx, "", 5)
	s.Require().NoError(err)
	s.Require().Len(result, 1)
}

func TestCategoryRepoSuite(t *testing.T) {
	suite.Run(t, new(CategoryRepoSuite))
}
