package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"blognest/api/internal/models"
)

type CategoryRepository struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func (r *CategoryRepository) Create(ctx context.Context, category models.PostCategory) error {
	const query = `
		INSERT INTO post_categories (id, category, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query, category.ID, category.Category)
	if isUniqueViolation(err) {
		return ErrCategoryExists
	}
	return err
}

func (r *CategoryRepository) FindByName(ctx context.Context, name string) (models.PostCategory, bool, error) {
	const query = `
		SELECT id, category, created_at, updated_at
		FROM post_categories
		WHERE category = $1
	`

	var category models.PostCategory
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&category.ID,
		&category.Category,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.PostCategory{}, false, nil
	}
	if err != nil {
		return models.PostCategory{}, false, err
	}
	return category, true, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]models.PostCategory, error) {
	const query = `
		SELECT id, category, created_at, updated_at
		FROM post_categories
		ORDER BY category
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.PostCategory
	for rows.Next() {
		var category models.PostCategory
		if err := rows.Scan(
			&category.ID,
			&category.Category,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}
