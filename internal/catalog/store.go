package catalog

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by a Store when a row does not exist.
	ErrNotFound = errors.New("catalog: not found")
	// ErrDuplicate is returned when a category name clashes within its parent.
	ErrDuplicate = errors.New("catalog: duplicate")
	// ErrReferenced is returned when a foreign key blocks the write.
	ErrReferenced = errors.New("catalog: referenced row missing or in use")
)

// Store persists categories and items.
type Store interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id string) (Category, error)
	CreateCategory(ctx context.Context, c Category) (Category, error)
	UpdateCategory(ctx context.Context, c Category) (Category, error)
	DeleteCategory(ctx context.Context, id string) error
	CountCategoryDependents(ctx context.Context, id string) (children, items int, err error)

	ListItems(ctx context.Context, f ItemFilter) ([]Item, int, error)
	GetItem(ctx context.Context, id string) (Item, error)
	CreateItem(ctx context.Context, it Item) (Item, error)
	UpdateItem(ctx context.Context, it Item) (Item, error)
	DeleteItem(ctx context.Context, id string) (Item, error)
}
