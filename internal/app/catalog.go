package app

import (
	"context"

	"reading-portal/internal/domain"
)

// Catalog is read-only access to the ordered lesson catalog. Dashboards and
// lesson detail views share one catalog and never write to it.
type Catalog interface {
	ListLessons(ctx context.Context) ([]domain.Lesson, error)
	FindLesson(ctx context.Context, lessonID string) (domain.Lesson, error)
}
