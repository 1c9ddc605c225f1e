package app

import (
	"context"

	"reading-portal/internal/domain"
)

// Dashboard slice boundaries. The in-progress and completed ranges are fixed
// catalog index ranges, not per-student records; in-progress may overlap
// recent. That derivation is intentional and kept as-is.
const (
	recentCount     = 3
	inProgressStart = 1
	inProgressEnd   = 3
	completedStart  = 3
	completedEnd    = 5

	summaryLimit = 60
)

// BadgeColor styles the difficulty badge on a lesson card.
type BadgeColor string

const (
	BadgeGreen  BadgeColor = "green"
	BadgeYellow BadgeColor = "yellow"
	BadgeRed    BadgeColor = "red"
	BadgeGray   BadgeColor = "gray"
)

// BadgeFor maps a difficulty onto a badge color. Unrecognized values get the
// neutral badge rather than an error.
func BadgeFor(difficulty domain.Difficulty) BadgeColor {
	switch difficulty {
	case domain.DifficultyEasy:
		return BadgeGreen
	case domain.DifficultyMedium:
		return BadgeYellow
	case domain.DifficultyHard:
		return BadgeRed
	}
	return BadgeGray
}

// LessonCard is the dashboard projection of one lesson.
type LessonCard struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Summary    string            `json:"summary"`
	Difficulty domain.Difficulty `json:"difficulty"`
	Badge      BadgeColor        `json:"badge"`
	UploadedBy string            `json:"uploadedBy"`
}

// Dashboard is the derived progress view over the catalog.
type Dashboard struct {
	Recent         []LessonCard `json:"recent"`
	InProgress     []LessonCard `json:"inProgress"`
	Completed      []LessonCard `json:"completed"`
	TotalAvailable int          `json:"totalAvailable"`
}

// ProgressService projects the catalog into dashboard slices. It is a pure
// read over the catalog; nothing here mutates lesson state.
type ProgressService struct {
	catalog Catalog
}

func NewProgressService(catalog Catalog) *ProgressService {
	return &ProgressService{catalog: catalog}
}

// Overview derives the recent, in-progress, and completed slices from catalog
// order. Slice boundaries clamp to the catalog size; a short or empty catalog
// yields shorter (possibly empty) slices.
func (s *ProgressService) Overview(ctx context.Context) (Dashboard, error) {
	lessons, err := s.catalog.ListLessons(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		Recent:         cards(clampRange(lessons, 0, recentCount)),
		InProgress:     cards(clampRange(lessons, inProgressStart, inProgressEnd)),
		Completed:      cards(clampRange(lessons, completedStart, completedEnd)),
		TotalAvailable: len(lessons),
	}, nil
}

func clampRange(lessons []domain.Lesson, from, to int) []domain.Lesson {
	if from > len(lessons) {
		from = len(lessons)
	}
	if to > len(lessons) {
		to = len(lessons)
	}
	return lessons[from:to]
}

func cards(lessons []domain.Lesson) []LessonCard {
	out := make([]LessonCard, 0, len(lessons))
	for _, lesson := range lessons {
		out = append(out, LessonCard{
			ID:         lesson.ID,
			Title:      lesson.Title,
			Summary:    Truncate(lesson.Description, summaryLimit),
			Difficulty: lesson.Difficulty,
			Badge:      BadgeFor(lesson.Difficulty),
			UploadedBy: lesson.UploadedBy,
		})
	}
	return out
}

// Truncate cuts a description to the first limit characters, appending an
// ellipsis only when something was actually cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
