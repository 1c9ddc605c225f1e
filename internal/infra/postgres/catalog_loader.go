package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"reading-portal/internal/domain"
)

// CatalogLoader loads lesson JSONB rows from Postgres in catalog order.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadCatalog(ctx context.Context) ([]domain.Lesson, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM lessons ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	var lessons []domain.Lesson
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		var lesson domain.Lesson
		if err := json.Unmarshal(raw, &lesson); err != nil {
			return nil, fmt.Errorf("unmarshal lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return lessons, nil
}
