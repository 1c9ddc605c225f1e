package domain

import "errors"

var (
	// ErrLessonNotFound is returned when a lesson id is absent from the catalog.
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrLessonNotReady is returned for interactions issued before the lesson
	// detail view finished loading, or after it resolved to not-found.
	ErrLessonNotReady = errors.New("lesson not ready")
	// ErrViewClosed is returned when acting on a lesson view that was closed.
	ErrViewClosed = errors.New("lesson view closed")
	// ErrDeleteNotConfirmed is returned when a delete is attempted without the
	// explicit confirmation step.
	ErrDeleteNotConfirmed = errors.New("delete not confirmed")
)
