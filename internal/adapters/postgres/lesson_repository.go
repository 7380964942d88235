// Package postgres implements the repository ports on PostgreSQL. Every
// query runs on the connection the database handle holds for the caller's
// context, inside the innermost open transaction if there is one.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mentormind/mentormind-backend/internal/domain"
	"github.com/mentormind/mentormind-backend/internal/platform/database"
	"github.com/mentormind/mentormind-backend/internal/ports"
)

// SQLSTATE codes mapped to domain errors.
const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

const lessonColumns = "id, title, grade, subject, source, created_at"

const (
	listLessonsSQL = `SELECT ` + lessonColumns + ` FROM lessons WHERE id > $1 ORDER BY id LIMIT $2`

	getLessonSQL = `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`

	latestLessonSQL = `SELECT ` + lessonColumns + ` FROM lessons ORDER BY created_at DESC, id DESC LIMIT 1`

	countLessonsSQL = `SELECT count(*) FROM lessons`

	insertLessonSQL = `INSERT INTO lessons (title, grade, subject, source, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`
)

// lessonRow mirrors a row of the lessons table.
type lessonRow struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Grade     int32     `db:"grade"`
	Subject   string    `db:"subject"`
	Source    *string   `db:"source"`
	CreatedAt time.Time `db:"created_at"`
}

func (r lessonRow) toDomain() domain.Lesson {
	lesson := domain.Lesson{
		ID:        r.ID,
		Title:     r.Title,
		Grade:     int(r.Grade),
		Subject:   r.Subject,
		CreatedAt: r.CreatedAt,
	}

	if r.Source != nil {
		lesson.Source = *r.Source
	}

	return lesson
}

// LessonRepository implements ports.LessonRepository.
type LessonRepository struct {
	db  *database.Database
	now func() time.Time
}

var _ ports.LessonRepository = (*LessonRepository)(nil)

// NewLessonRepository creates a repository on db.
func NewLessonRepository(db *database.Database) *LessonRepository {
	return &LessonRepository{db: db, now: time.Now}
}

// List implements ports.LessonRepository.
func (r *LessonRepository) List(ctx context.Context, afterID int64, limit int) ([]domain.Lesson, error) {
	q, err := r.db.Querier(ctx)
	if err != nil {
		return nil, mapError(err, "")
	}

	rows, err := q.Query(ctx, listLessonsSQL, afterID, limit)
	if err != nil {
		return nil, mapError(err, "")
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[lessonRow])
	if err != nil {
		return nil, mapError(err, "")
	}

	lessons := make([]domain.Lesson, len(records))
	for i, rec := range records {
		lessons[i] = rec.toDomain()
	}

	return lessons, nil
}

// GetByID implements ports.LessonRepository.
func (r *LessonRepository) GetByID(ctx context.Context, id int64) (*domain.Lesson, error) {
	return r.one(ctx, strconv.FormatInt(id, 10), getLessonSQL, id)
}

// Latest implements ports.LessonRepository.
func (r *LessonRepository) Latest(ctx context.Context) (*domain.Lesson, error) {
	return r.one(ctx, "", latestLessonSQL)
}

func (r *LessonRepository) one(ctx context.Context, id, sql string, args ...any) (*domain.Lesson, error) {
	q, err := r.db.Querier(ctx)
	if err != nil {
		return nil, mapError(err, id)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, id)
	}

	rec, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[lessonRow])
	if err != nil {
		return nil, mapError(err, id)
	}

	lesson := rec.toDomain()

	return &lesson, nil
}

// Count implements ports.LessonRepository.
func (r *LessonRepository) Count(ctx context.Context) (int64, error) {
	q, err := r.db.Querier(ctx)
	if err != nil {
		return 0, mapError(err, "")
	}

	var n int64

	if err := q.QueryRow(ctx, countLessonsSQL).Scan(&n); err != nil {
		return 0, mapError(err, "")
	}

	return n, nil
}

// Create implements ports.LessonRepository. The insert runs in its own
// transaction, or in a savepoint when the caller already opened one.
func (r *LessonRepository) Create(ctx context.Context, lesson *domain.Lesson) error {
	var source *string
	if lesson.Source != "" {
		source = &lesson.Source
	}

	err := r.db.Atomic(ctx, func(ctx context.Context) error {
		q, err := r.db.Querier(ctx)
		if err != nil {
			return err
		}

		return q.QueryRow(ctx, insertLessonSQL,
			lesson.Title, lesson.Grade, lesson.Subject, source, r.now().UTC(),
		).Scan(&lesson.ID, &lesson.CreatedAt)
	})
	if err != nil {
		return mapError(err, "")
	}

	return nil
}

// mapError translates driver and connection errors into domain errors.
func mapError(err error, id string) error {
	var pgErr *pgconn.PgError

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.NewNotFoundError("lesson", id)
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return domain.NewConflictErrorWithDetails("lesson", "already exists", pgErr.ConstraintName)
	case errors.As(err, &pgErr) && pgErr.Code == checkViolation:
		return domain.NewValidationError(pgErr.ColumnName, pgErr.Message)
	case errors.Is(err, database.ErrConnectionClosed),
		errors.Is(err, database.ErrAcquire),
		errors.Is(err, database.ErrUnboundContext),
		pgconn.Timeout(err),
		errors.Is(err, context.DeadlineExceeded):
		return domain.WrapUnavailable(database.HealthCheckName, err)
	default:
		return fmt.Errorf("lesson query: %w", err)
	}
}
