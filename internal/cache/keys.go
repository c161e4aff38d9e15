package cache

import (
	"fmt"
	"strconv"
	"time"
)

// TTL policy: seller-scoped listings are short-lived, cross-seller public
// views a bit longer.
const (
	ListTTL   = 5 * time.Minute
	PublicTTL = 10 * time.Minute
)

// Flush patterns. Every mutation to a seller's categories flushes that
// seller's namespace plus all cross-seller namespaces, since cached
// parameter combinations are not tracked individually.
const (
	AllFlushPattern          = "categories:all:*"
	PublicFlushPattern       = "all-categories:*"
	WithProductsFlushPattern = "categories-with-products:*"
)

func SellerFlushPattern(sellerID string) string {
	return "categories:" + sellerID + ":*"
}

// SellerListKey builds the per-seller listing key. The format is kept
// bit-exact with the previously deployed service so existing cache
// entries stay addressable during migration.
func SellerListKey(sellerID string, page, limit int64, search string, isActive *bool) string {
	active := ""
	if isActive != nil {
		active = strconv.FormatBool(*isActive)
	}
	return fmt.Sprintf("categories:%s:%d:%d:%s:%s", sellerID, page, limit, search, active)
}

func PublicListKey(search, sellerID string) string {
	return fmt.Sprintf("all-categories:%s:%s", search, sellerID)
}

func WithProductsKey(sellerID string, limit int64) string {
	if sellerID == "" {
		sellerID = "all"
	}
	return fmt.Sprintf("categories-with-products:%s:%d", sellerID, limit)
}
