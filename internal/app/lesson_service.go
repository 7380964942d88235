// Package app contains the application services. They orchestrate use cases
// over the ports and leave HTTP and SQL to the adapters.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mentormind/mentormind-backend/internal/domain"
	"github.com/mentormind/mentormind-backend/internal/platform/logging"
	"github.com/mentormind/mentormind-backend/internal/ports"
)

// Page size bounds for lesson listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// LessonService orchestrates lesson use cases.
type LessonService struct {
	repo   ports.LessonRepository
	scope  Scope
	logger *slog.Logger
}

// LessonServiceConfig contains the dependencies of a LessonService.
type LessonServiceConfig struct {
	Repository ports.LessonRepository

	// Scope gives each concurrent read of Overview a connection of its own.
	// Without one, Overview reads one after the other on the caller's
	// connection, which cannot serve two queries at once.
	Scope Scope

	Logger *slog.Logger
}

// NewLessonService creates a lesson service. It panics without a repository.
func NewLessonService(cfg LessonServiceConfig) *LessonService {
	if cfg.Repository == nil {
		panic("app: LessonService requires a Repository")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &LessonService{
		repo:   cfg.Repository,
		scope:  cfg.Scope,
		logger: logger.With(slog.String("component", "app.LessonService")),
	}
}

// List returns up to limit lessons after the afterID cursor. A limit outside
// 1..MaxPageSize is replaced by DefaultPageSize.
func (s *LessonService) List(ctx context.Context, afterID int64, limit int) (*domain.LessonPage, error) {
	if afterID < 0 {
		return nil, domain.NewValidationErrorWithValue("cursor", "must not be negative", afterID)
	}

	if limit < 1 || limit > MaxPageSize {
		limit = DefaultPageSize
	}

	// One extra row tells whether another page follows.
	lessons, err := s.repo.List(ctx, afterID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("listing lessons: %w", err)
	}

	page := &domain.LessonPage{Lessons: lessons}

	if len(lessons) > limit {
		page.Lessons = lessons[:limit]
		page.NextAfterID = page.Lessons[limit-1].ID
	}

	return page, nil
}

// Get returns the lesson with id.
func (s *LessonService) Get(ctx context.Context, id int64) (*domain.Lesson, error) {
	if id <= 0 {
		return nil, domain.NewNotFoundError("lesson", strconv.FormatInt(id, 10))
	}

	lesson, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting lesson: %w", err)
	}

	return lesson, nil
}

// Create validates and stores a new lesson.
func (s *LessonService) Create(ctx context.Context, lesson domain.Lesson) (*domain.Lesson, error) {
	logger := logging.FromContext(ctx).With(slog.String("method", "Create"))

	lesson.Normalize()

	if err := lesson.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &lesson); err != nil {
		return nil, fmt.Errorf("creating lesson: %w", err)
	}

	logger.InfoContext(ctx, "lesson created",
		slog.Int64("lesson_id", lesson.ID),
		slog.Int("grade", lesson.Grade),
		slog.String("subject", lesson.Subject),
	)

	return &lesson, nil
}

// Overview counts the lessons and fetches the latest one, concurrently when
// the service has a Scope.
func (s *LessonService) Overview(ctx context.Context) (*domain.LessonOverview, error) {
	var (
		total  int64
		latest *domain.Lesson
		err    error
	)

	if s.scope != nil {
		total, latest, err = Parallel2(ctx, s.scope, s.repo.Count, s.latest)
	} else if total, err = s.repo.Count(ctx); err == nil {
		latest, err = s.latest(ctx)
	}

	if err != nil {
		s.logger.ErrorContext(ctx, "lesson overview failed", slog.Any("error", err))
		return nil, fmt.Errorf("building lesson overview: %w", err)
	}

	return &domain.LessonOverview{Total: total, Latest: latest}, nil
}

// latest is Latest with an empty catalogue reported as nil.
func (s *LessonService) latest(ctx context.Context) (*domain.Lesson, error) {
	lesson, err := s.repo.Latest(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}

	return lesson, err
}
