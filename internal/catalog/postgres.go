package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/backend-perhiasan/internal/pricing"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore implements Store over the categories and jewelry_items tables.
type PostgresStore struct {
	db querier
}

// NewPostgresStore wraps a pgx pool or connection.
func NewPostgresStore(db querier) *PostgresStore {
	return &PostgresStore{db: db}
}

const categoryColumns = `id::text, name, description, image_url, parent_id::text, created_at, updated_at`

const itemColumns = `id::text, name, description, category_id::text, images, gold_weight, gold_quality,
	diamonds, making_charges_per_gram, base_price, created_at, updated_at`

func (s *PostgresStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	out := []Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetCategory(ctx context.Context, id string) (Category, error) {
	c, err := scanCategory(s.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1::uuid`, id))
	if err != nil {
		return Category{}, mapErr("get category", err)
	}
	return c, nil
}

func (s *PostgresStore) CreateCategory(ctx context.Context, c Category) (Category, error) {
	row := s.db.QueryRow(ctx, `
INSERT INTO categories (name, description, image_url, parent_id)
VALUES ($1, $2, $3, $4::uuid)
RETURNING `+categoryColumns, c.Name, c.Description, c.ImageURL, c.ParentID)
	created, err := scanCategory(row)
	if err != nil {
		return Category{}, mapErr("create category", err)
	}
	return created, nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, c Category) (Category, error) {
	row := s.db.QueryRow(ctx, `
UPDATE categories SET name = $2, description = $3, image_url = $4, parent_id = $5::uuid, updated_at = now()
WHERE id = $1::uuid
RETURNING `+categoryColumns, c.ID, c.Name, c.Description, c.ImageURL, c.ParentID)
	updated, err := scanCategory(row)
	if err != nil {
		return Category{}, mapErr("update category", err)
	}
	return updated, nil
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM categories WHERE id = $1::uuid`, id)
	if err != nil {
		return mapErr("delete category", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CountCategoryDependents(ctx context.Context, id string) (int, int, error) {
	var children, items int
	err := s.db.QueryRow(ctx, `
SELECT (SELECT count(*) FROM categories WHERE parent_id = $1::uuid),
       (SELECT count(*) FROM jewelry_items WHERE category_id = $1::uuid)`, id).Scan(&children, &items)
	if err != nil {
		return 0, 0, mapErr("count category dependents", err)
	}
	return children, items, nil
}

func (s *PostgresStore) ListItems(ctx context.Context, f ItemFilter) ([]Item, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if len(f.CategoryIDs) > 0 {
		args = append(args, f.CategoryIDs)
		where = append(where, fmt.Sprintf("category_id = ANY($%d::uuid[])", len(args)))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM jewelry_items WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, f.Offset)
	rows, err := s.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM jewelry_items WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		itemColumns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	out := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

func (s *PostgresStore) GetItem(ctx context.Context, id string) (Item, error) {
	it, err := scanItem(s.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM jewelry_items WHERE id = $1::uuid`, id))
	if err != nil {
		return Item{}, mapErr("get item", err)
	}
	return it, nil
}

func (s *PostgresStore) CreateItem(ctx context.Context, it Item) (Item, error) {
	diamonds, err := json.Marshal(it.Diamonds)
	if err != nil {
		return Item{}, fmt.Errorf("encode diamonds: %w", err)
	}
	row := s.db.QueryRow(ctx, `
INSERT INTO jewelry_items (name, description, category_id, images, gold_weight, gold_quality, diamonds, making_charges_per_gram, base_price)
VALUES ($1, $2, $3::uuid, $4, $5, $6, $7::jsonb, $8, $9)
RETURNING `+itemColumns,
		it.Name, it.Description, it.CategoryID, nonNil(it.Images), it.GoldWeight, string(it.GoldQuality), string(diamonds), it.MakingChargesPerGram, it.BasePrice)
	created, err := scanItem(row)
	if err != nil {
		return Item{}, mapErr("create item", err)
	}
	return created, nil
}

func (s *PostgresStore) UpdateItem(ctx context.Context, it Item) (Item, error) {
	diamonds, err := json.Marshal(it.Diamonds)
	if err != nil {
		return Item{}, fmt.Errorf("encode diamonds: %w", err)
	}
	row := s.db.QueryRow(ctx, `
UPDATE jewelry_items SET name = $2, description = $3, category_id = $4::uuid, images = $5, gold_weight = $6,
	gold_quality = $7, diamonds = $8::jsonb, making_charges_per_gram = $9, base_price = $10, updated_at = now()
WHERE id = $1::uuid
RETURNING `+itemColumns,
		it.ID, it.Name, it.Description, it.CategoryID, nonNil(it.Images), it.GoldWeight, string(it.GoldQuality), string(diamonds), it.MakingChargesPerGram, it.BasePrice)
	updated, err := scanItem(row)
	if err != nil {
		return Item{}, mapErr("update item", err)
	}
	return updated, nil
}

func (s *PostgresStore) DeleteItem(ctx context.Context, id string) (Item, error) {
	it, err := scanItem(s.db.QueryRow(ctx, `DELETE FROM jewelry_items WHERE id = $1::uuid RETURNING `+itemColumns, id))
	if err != nil {
		return Item{}, mapErr("delete item", err)
	}
	return it, nil
}

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL, &c.ParentID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanItem(row pgx.Row) (Item, error) {
	var (
		it       Item
		quality  string
		diamonds []byte
	)
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.CategoryID, &it.Images, &it.GoldWeight, &quality,
		&diamonds, &it.MakingChargesPerGram, &it.BasePrice, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return Item{}, err
	}
	it.GoldQuality = pricing.GoldQuality(quality)
	if len(diamonds) > 0 {
		if err := json.Unmarshal(diamonds, &it.Diamonds); err != nil {
			return Item{}, fmt.Errorf("decode diamonds for item %s: %w", it.ID, err)
		}
	}
	if it.Images == nil {
		it.Images = []string{}
	}
	return it, nil
}

func mapErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", op, ErrDuplicate)
		case "23503", "23514":
			return fmt.Errorf("%s: %w", op, ErrReferenced)
		case "22P02":
			return ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
