package dto

import "github.com/noah-isme/edutrack-api/internal/utils"

// ListResponse wraps a paged collection with its pagination metadata.
type ListResponse[T any] struct {
	Items      []T              `json:"items"`
	Pagination utils.Pagination `json:"pagination"`
}

// NewListResponse builds the paged envelope from items and a total count.
func NewListResponse[T any](items []T, page, limit int, total int64) ListResponse[T] {
	if items == nil {
		items = []T{}
	}

	return ListResponse[T]{
		Items:      items,
		Pagination: utils.NewPagination(page, limit, total),
	}
}
