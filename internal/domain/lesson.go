package domain

import (
	"strings"
	"time"
)

// Grade bounds of the school years lessons are written for.
const (
	MinGrade = 1
	MaxGrade = 12
)

// MaxLessonTextLength is the longest title, subject or source accepted.
const MaxLessonTextLength = 255

// Lesson is a unit of teaching material for one grade and subject.
type Lesson struct {
	ID      int64
	Title   string
	Grade   int
	Subject string

	// Source is the file name or URL the lesson was ingested from. Empty when
	// the lesson was written by hand.
	Source string

	CreatedAt time.Time
}

// Normalize trims surrounding whitespace from the text fields.
func (l *Lesson) Normalize() {
	l.Title = strings.TrimSpace(l.Title)
	l.Subject = strings.TrimSpace(l.Subject)
	l.Source = strings.TrimSpace(l.Source)
}

// Validate checks the business rules a lesson must satisfy before it is
// stored. It returns the first *ValidationError found.
func (l *Lesson) Validate() error {
	switch {
	case l.Title == "":
		return NewValidationError("title", "is required")
	case len(l.Title) > MaxLessonTextLength:
		return NewValidationError("title", "must be at most 255 characters")
	case l.Grade < MinGrade || l.Grade > MaxGrade:
		return NewValidationErrorWithValue("grade", "must be between 1 and 12", l.Grade)
	case l.Subject == "":
		return NewValidationError("subject", "is required")
	case len(l.Subject) > MaxLessonTextLength:
		return NewValidationError("subject", "must be at most 255 characters")
	case len(l.Source) > MaxLessonTextLength:
		return NewValidationError("source", "must be at most 255 characters")
	}

	return nil
}

// LessonPage is one page of a lesson listing ordered by ID.
type LessonPage struct {
	Lessons []Lesson

	// NextAfterID is the cursor for the following page, zero on the last.
	NextAfterID int64
}

// LessonOverview summarizes the catalogue.
type LessonOverview struct {
	Total  int64
	Latest *Lesson
}
