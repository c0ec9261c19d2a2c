package domain

import "errors"

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrDuplicateProductID = errors.New("duplicate product id")
	ErrCategoryNotFound   = errors.New("category not found")
)

// Product prices are in minor currency units (paise).
type (
	Product struct {
		ID            int64
		Name          string
		Brand         string
		Price         int64
		OriginalPrice int64
		Discount      int
		Rating        float64
		Reviews       int
		Stock         int
		Category      string
		Badge         string
		Image         string
		Featured      bool
	}

	Category struct {
		ID    int
		Name  string
		Icon  string
		Count int
	}
)

// ProductAvailability switches a product in or out of the catalog.
type ProductAvailability struct {
	ProductID int64
	Active    bool
}

// SortField names a product field the catalog can be ordered by.
type SortField string

const (
	SortByPrice    SortField = "price"
	SortByRating   SortField = "rating"
	SortByDiscount SortField = "discount"
)

// SortOption is a sort-dropdown value.
type SortOption string

const (
	SortPriceAsc  SortOption = "price_asc"
	SortPriceDesc SortOption = "price_desc"
	SortRating    SortOption = "rating"
	SortDiscount  SortOption = "discount"
)

// Order resolves the option to a field and direction. ok is false for
// unknown options.
func (o SortOption) Order() (field SortField, ascending bool, ok bool) {
	switch o {
	case SortPriceAsc:
		return SortByPrice, true, true
	case SortPriceDesc:
		return SortByPrice, false, true
	case SortRating:
		return SortByRating, false, true
	case SortDiscount:
		return SortByDiscount, false, true
	}
	return "", false, false
}

var DefaultCategories = []Category{
	{ID: 1, Name: "Electronics", Icon: "📱", Count: 124},
	{ID: 2, Name: "Fashion", Icon: "👗", Count: 89},
	{ID: 3, Name: "Home & Kitchen", Icon: "🏠", Count: 67},
	{ID: 4, Name: "Sports", Icon: "⚽", Count: 45},
	{ID: 5, Name: "Beauty", Icon: "💄", Count: 38},
	{ID: 6, Name: "Books", Icon: "📚", Count: 230},
	{ID: 7, Name: "Toys", Icon: "🧸", Count: 56},
	{ID: 8, Name: "Automotive", Icon: "🚗", Count: 29},
}

// CategoryByID looks up id in cs.
func CategoryByID(cs []Category, id int) (Category, error) {
	for _, c := range cs {
		if c.ID == id {
			return c, nil
		}
	}
	return Category{}, ErrCategoryNotFound
}
