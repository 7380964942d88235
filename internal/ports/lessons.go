// Package ports defines the interfaces the application layer depends on.
// Adapters implement them; methods take a context first and speak domain
// types and domain errors only.
package ports

import (
	"context"

	"github.com/mentormind/mentormind-backend/internal/domain"
)

// LessonRepository persists lessons. Implementations run on the connection
// bound to ctx.
type LessonRepository interface {
	// List returns up to limit lessons with an ID greater than afterID,
	// ordered by ID.
	List(ctx context.Context, afterID int64, limit int) ([]domain.Lesson, error)

	// GetByID returns domain.ErrNotFound if no lesson has the id.
	GetByID(ctx context.Context, id int64) (*domain.Lesson, error)

	// Create stores lesson, filling in its ID and CreatedAt.
	Create(ctx context.Context, lesson *domain.Lesson) error

	// Count returns the number of stored lessons.
	Count(ctx context.Context) (int64, error)

	// Latest returns the most recently created lesson, or domain.ErrNotFound
	// when there are none.
	Latest(ctx context.Context) (*domain.Lesson, error)
}
