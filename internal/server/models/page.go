package models

// Page is one page of an offset-paginated listing.
type Page[T any] struct {
	Items     []T
	Page      int
	PageSize  int
	Total     int
	PageCount int
}
