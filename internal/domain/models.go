package domain

import "time"

// Role is the account kind attached to a signed-in identity. It decides which
// route subtree a session may enter and where that session lands by default.
type Role string

const (
	RoleStudent  Role = "student"
	RoleTeacher  Role = "teacher"
	RoleGuardian Role = "guardian"
)

// PublicEntryPath is where unauthenticated (or unmappable) sessions are sent.
const PublicEntryPath = "/"

// ParseRole maps a raw string onto the role enumeration. Unknown values come
// back with ok=false so callers can treat them as "no access".
func ParseRole(raw string) (Role, bool) {
	role := Role(raw)
	return role, role.Valid()
}

// Valid reports whether the role is one of the known account kinds.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleGuardian:
		return true
	}
	return false
}

// LandingPath is the default destination for a role. Total over the
// enumeration; anything unrecognized falls back to the public entry point.
func (r Role) LandingPath() string {
	switch r {
	case RoleStudent:
		return "/student/lessons"
	case RoleTeacher:
		return "/teacher/lessons"
	case RoleGuardian:
		return "/guardian"
	}
	return PublicEntryPath
}

// LessonListPath is the role-scoped lesson list route.
func LessonListPath(role Role) string {
	return "/" + string(role) + "/lessons"
}

// LessonPath is the role-scoped lesson detail route.
func LessonPath(role Role, lessonID string) string {
	return LessonListPath(role) + "/" + lessonID
}

// LessonEditPath is the teacher-only edit route for an existing lesson.
func LessonEditPath(lessonID string) string {
	return LessonPath(RoleTeacher, lessonID) + "/edit"
}

// LessonCreatePath is the teacher-only create route.
const LessonCreatePath = "/teacher/lessons/create"

// Identity is the current signed-in user as seen by the session context.
type Identity struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Difficulty grades a lesson for display purposes.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Lesson is one entry of the reading catalog. Catalog entries are immutable
// for the lifetime of a session; edits are simulated remote calls.
type Lesson struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Content     string     `json:"content"`
	FilePath    string     `json:"filePath,omitempty"`
	Difficulty  Difficulty `json:"difficulty"`
	UploadedBy  string     `json:"uploadedBy"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// CheckQuestion is one comprehension-check question shown under a lesson.
// The answer key is fixed at design time, not derived from the lesson record.
type CheckQuestion struct {
	Key     string   `json:"key"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  string   `json:"-"`
}
