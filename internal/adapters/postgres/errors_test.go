package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentormind/mentormind-backend/internal/domain"
	"github.com/mentormind/mentormind-backend/internal/platform/database"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"no rows", pgx.ErrNoRows, domain.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), domain.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: uniqueViolation, ConstraintName: "lessons_title_key"}, domain.ErrConflict},
		{"check violation", &pgconn.PgError{Code: checkViolation, ColumnName: "grade", Message: "grade out of range"}, domain.ErrValidation},
		{"connection closed", database.ErrConnectionClosed, domain.ErrUnavailable},
		{"unbound context", database.ErrUnboundContext, domain.ErrUnavailable},
		{"pool exhausted", fmt.Errorf("%w: %w", database.ErrAcquire, errors.New("too many clients")), domain.ErrUnavailable},
		{"deadline", context.DeadlineExceeded, domain.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError(tt.err, "9")
			require.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestMapError_NotFoundCarriesID(t *testing.T) {
	var notFound *domain.NotFoundError
	require.ErrorAs(t, mapError(pgx.ErrNoRows, "9"), &notFound)
	assert.Equal(t, "lesson", notFound.Entity)
	assert.Equal(t, "9", notFound.ID)
}

func TestMapError_ConflictCarriesConstraint(t *testing.T) {
	var conflict *domain.ConflictError
	require.ErrorAs(t, mapError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "lessons_pkey"}, ""), &conflict)
	assert.Equal(t, "lessons_pkey", conflict.Details)
}

func TestMapError_UnavailableKeepsCause(t *testing.T) {
	err := mapError(database.ErrConnectionClosed, "")
	require.ErrorIs(t, err, database.ErrConnectionClosed)
}

func TestMapError_OtherErrorsAreWrapped(t *testing.T) {
	boom := errors.New("syntax error")

	err := mapError(boom, "")
	require.ErrorIs(t, err, boom)
	assert.False(t, domain.IsNotFound(err))
	assert.False(t, domain.IsUnavailable(err))
}

func TestLessonRow_ToDomain(t *testing.T) {
	source := "chapter1.pdf"

	lesson := lessonRow{ID: 1, Title: "Cells", Grade: 7, Subject: "Biology", Source: &source}.toDomain()
	assert.Equal(t, "chapter1.pdf", lesson.Source)
	assert.Equal(t, 7, lesson.Grade)

	lesson = lessonRow{ID: 2, Title: "Atoms", Grade: 9, Subject: "Chemistry"}.toDomain()
	assert.Empty(t, lesson.Source)
}
