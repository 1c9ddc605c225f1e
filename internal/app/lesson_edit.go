package app

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"reading-portal/internal/domain"
)

// LessonForm carries the editable fields of a lesson. Title and description
// are required; everything else is optional.
type LessonForm struct {
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description" validate:"required"`
	Content     string            `json:"content"`
	Difficulty  domain.Difficulty `json:"difficulty"`
	FilePath    string            `json:"filePath"`
}

// FieldError is one inline, field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors blocks submission; the simulated remote call must not run
// while any of these are present.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Message)
	}
	return strings.Join(msgs, "; ")
}

// RemoteCall stands in for the backend round trip of a create/update/delete.
// There is no real backend; the default implementation just sleeps for a
// bounded delay, but a failing implementation surfaces as an inline error.
type RemoteCall func(ctx context.Context) error

// SimulatedRemote waits out the given delay unless ctx is cancelled first.
func SimulatedRemote(delay time.Duration) RemoteCall {
	return func(ctx context.Context) error {
		if delay <= 0 {
			return ctx.Err()
		}
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
}

// LessonEditor is the create/edit/delete workflow over single lesson records.
// The catalog itself is never written; every mutation is a simulated call
// followed by a redirect back to the teacher lesson list.
type LessonEditor struct {
	catalog  Catalog
	validate *validator.Validate
	remote   RemoteCall
}

func NewLessonEditor(catalog Catalog, remote RemoteCall) *LessonEditor {
	if remote == nil {
		remote = SimulatedRemote(0)
	}
	v := validator.New()
	// Report errors under json field names, not Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &LessonEditor{catalog: catalog, validate: v, remote: remote}
}

// NewForm returns the initial empty create form.
func (e *LessonEditor) NewForm() LessonForm {
	return LessonForm{Difficulty: domain.DifficultyEasy}
}

// Prefill loads an existing lesson into a form. A missing id comes back as
// domain.ErrLessonNotFound for inline display, never a crash.
func (e *LessonEditor) Prefill(ctx context.Context, lessonID string) (LessonForm, error) {
	lesson, err := e.catalog.FindLesson(ctx, lessonID)
	if err != nil {
		return LessonForm{}, err
	}
	return LessonForm{
		Title:       lesson.Title,
		Description: lesson.Description,
		Content:     lesson.Content,
		Difficulty:  lesson.Difficulty,
		FilePath:    lesson.FilePath,
	}, nil
}

// Submit validates the form and, only when valid, runs the simulated remote
// call. Success redirects to the teacher lesson list.
func (e *LessonEditor) Submit(ctx context.Context, form LessonForm) (string, error) {
	if errs := e.validateForm(form); len(errs) > 0 {
		return "", errs
	}
	if err := e.remote(ctx); err != nil {
		return "", err
	}
	return domain.LessonListPath(domain.RoleTeacher), nil
}

// Delete removes a lesson after an explicit confirmation step. Without
// confirmation nothing runs, not even the simulated call.
func (e *LessonEditor) Delete(ctx context.Context, lessonID string, confirmed bool) (string, error) {
	if !confirmed {
		return "", domain.ErrDeleteNotConfirmed
	}
	if _, err := e.catalog.FindLesson(ctx, lessonID); err != nil {
		return "", err
	}
	if err := e.remote(ctx); err != nil {
		return "", err
	}
	return domain.LessonListPath(domain.RoleTeacher), nil
}

func (e *LessonEditor) validateForm(form LessonForm) ValidationErrors {
	// Whitespace-only input does not satisfy a required field.
	form.Title = strings.TrimSpace(form.Title)
	form.Description = strings.TrimSpace(form.Description)

	err := e.validate.Struct(form)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "form", Message: err.Error()}}
	}
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Message: fe.Field() + " is required",
		})
	}
	return out
}
