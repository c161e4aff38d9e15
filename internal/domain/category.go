package domain

import "time"

type Category struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description" db:"description"`
	Image        string    `json:"image" db:"image"`
	SellerID     string    `json:"sellerId" db:"seller_id"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
	ProductCount int64     `json:"productCount" db:"product_count"`
}

type CreateCategoryInput struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"max=500"`
	Image       string `json:"image"`
	SellerID    string `json:"sellerId" validate:"required"`
}

// UpdateCategoryInput carries partial update semantics: nil fields are
// left untouched, not nulled.
type UpdateCategoryInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	IsActive    *bool   `json:"isActive"`
}

// CategoryQuery describes a seller-scoped listing request. IsActive is
// tri-state: nil means "active only", the store default.
type CategoryQuery struct {
	Page     int64
	Limit    int64
	Search   string
	IsActive *bool
}

// Normalized applies the listing defaults. Both the service and the
// caching layer must see the same effective parameters, otherwise the
// cache key and the store query would disagree.
func (q CategoryQuery) Normalized() CategoryQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	return q
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
	Pages int64 `json:"pages"`
}

type CategoryPage struct {
	Categories []Category `json:"categories"`
	Pagination Pagination `json:"pagination"`
}

// PublicCategoryListing is the cross-seller view: the flat list plus a
// per-seller grouping for UIs that need both shapes. GroupedBySeller is
// nil when the listing was already filtered to a single seller.
type PublicCategoryListing struct {
	Total           int64                 `json:"total"`
	Categories      []Category            `json:"categories"`
	GroupedBySeller map[string][]Category `json:"groupedBySeller,omitempty"`
}

type ProductSummary struct {
	ID            string  `json:"id" db:"id"`
	Name          string  `json:"name" db:"name"`
	Image         string  `json:"image" db:"image"`
	Price         int64   `json:"price" db:"price"`
	OriginalPrice int64   `json:"originalPrice" db:"original_price"`
	Discount      int64   `json:"discount" db:"discount"`
	AvgRating     float64 `json:"avgRating" db:"avg_rating"`
	TotalSold     int64   `json:"totalSold" db:"total_sold"`
}

// CategoryWithProducts is the merchandising view: an active category with
// its top featured products.
type CategoryWithProducts struct {
	Category
	Products []ProductSummary `json:"products"`
}
