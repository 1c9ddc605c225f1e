package app

import (
	"context"
	"sync"
	"time"

	"reading-portal/internal/domain"
)

// understandingCheck is the fixed comprehension check rendered under every
// lesson. Exactly one designated correct option per question key.
var understandingCheck = []domain.CheckQuestion{
	{
		Key:     "bSound",
		Prompt:  `Which word has a "b" sound?`,
		Options: []string{"bat", "dog", "pen", "top"},
		Answer:  "bat",
	},
	{
		Key:     "dotCharacter",
		Prompt:  "What is Dot?",
		Options: []string{"A cat", "A dog", "A boy", "A ball"},
		Answer:  "A dog",
	},
}

// UnderstandingCheck returns the check questions in display order.
func UnderstandingCheck() []domain.CheckQuestion {
	out := make([]domain.CheckQuestion, len(understandingCheck))
	copy(out, understandingCheck)
	return out
}

func answerFor(questionKey string) (string, bool) {
	for _, q := range understandingCheck {
		if q.Key == questionKey {
			return q.Answer, true
		}
	}
	return "", false
}

// ViewState is the lifecycle state of one lesson detail view instance.
type ViewState string

const (
	ViewLoading   ViewState = "loading"
	ViewNotFound  ViewState = "notFound"
	ViewReady     ViewState = "ready"
	ViewCompleted ViewState = "completed"
)

// AnswerProgress summarizes how much of the check has been answered.
type AnswerProgress string

const (
	Unanswered        AnswerProgress = "unanswered"
	PartiallyAnswered AnswerProgress = "partiallyAnswered"
	FullyAnswered     AnswerProgress = "fullyAnswered"
)

// Feedback is the three-way styling signal for one option of one question.
type Feedback string

const (
	FeedbackNeutral   Feedback = "neutral"
	FeedbackCorrect   Feedback = "correct"
	FeedbackIncorrect Feedback = "incorrect"
)

// Completion is what the confirmation affordance shows after marking a lesson
// complete. Navigation to ContinuePath happens only on explicit confirmation.
type Completion struct {
	LessonTitle  string `json:"lessonTitle"`
	ContinuePath string `json:"continuePath"`
}

// LessonViews opens lesson detail views against the catalog. The configured
// delay simulates fetch latency; it is cosmetic and may be zero.
type LessonViews struct {
	catalog Catalog
	delay   time.Duration
}

func NewLessonViews(catalog Catalog, delay time.Duration) *LessonViews {
	return &LessonViews{catalog: catalog, delay: delay}
}

// Open starts a view for one lesson in the Loading state. The catalog lookup
// runs as a deferred continuation owned by the view: closing the view (or
// cancelling ctx) discards the result instead of mutating a dead view.
func (f *LessonViews) Open(ctx context.Context, viewer domain.Identity, lessonID string) *LessonView {
	viewCtx, cancel := context.WithCancel(ctx)
	v := &LessonView{
		lessonID: lessonID,
		viewer:   viewer,
		state:    ViewLoading,
		answers:  make(map[string]string),
		ready:    make(chan struct{}),
		cancel:   cancel,
	}
	go v.load(viewCtx, f.catalog, f.delay)
	return v
}

// LessonView is one mounted lesson detail instance. It owns its answer map
// and completion flag; both die with the view.
type LessonView struct {
	lessonID string
	viewer   domain.Identity

	mu        sync.Mutex
	state     ViewState
	lesson    domain.Lesson
	answers   map[string]string
	completed bool
	closed    bool

	ready  chan struct{}
	cancel context.CancelFunc
}

func (v *LessonView) load(ctx context.Context, catalog Catalog, delay time.Duration) {
	defer close(v.ready)

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}

	lesson, err := catalog.FindLesson(ctx, v.lessonID)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || ctx.Err() != nil {
		// The view went away while the fetch was in flight.
		return
	}
	if err != nil {
		v.state = ViewNotFound
		return
	}
	v.lesson = lesson
	v.state = ViewReady
}

// Ready is closed once the deferred load has settled (found, not found, or
// discarded because the view closed first).
func (v *LessonView) Ready() <-chan struct{} {
	return v.ready
}

func (v *LessonView) LessonID() string {
	return v.lessonID
}

func (v *LessonView) Viewer() domain.Identity {
	return v.viewer
}

// Capabilities resolves the viewer's affordances: teachers get the edit entry
// point, students get the check block, everyone else is view-only.
func (v *LessonView) Capabilities() Capabilities {
	return CapabilitiesFor(v.viewer.Role)
}

// State reports the current lifecycle state. Completed is terminal and masks
// Ready once reached.
func (v *LessonView) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.completed {
		return ViewCompleted
	}
	return v.state
}

// Lesson returns the loaded record once the view is past Loading.
func (v *LessonView) Lesson() (domain.Lesson, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != ViewReady {
		return domain.Lesson{}, false
	}
	return v.lesson, true
}

// SelectAnswer records the viewer's pick for a question, unconditionally
// overwriting any earlier pick for the same key.
func (v *LessonView) SelectAnswer(questionKey, option string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return domain.ErrViewClosed
	}
	if v.state != ViewReady {
		return domain.ErrLessonNotReady
	}
	v.answers[questionKey] = option
	return nil
}

// Answers returns a copy of the current answer map.
func (v *LessonView) Answers() map[string]string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]string, len(v.answers))
	for k, val := range v.answers {
		out[k] = val
	}
	return out
}

// FeedbackFor styles one option of one question: correct when it is both the
// selected option and the designated answer, incorrect when selected but
// wrong, neutral otherwise. Feedback never gates progression.
func (v *LessonView) FeedbackFor(questionKey, option string) Feedback {
	v.mu.Lock()
	selected, picked := v.answers[questionKey]
	v.mu.Unlock()

	if !picked || selected != option {
		return FeedbackNeutral
	}
	if answer, ok := answerFor(questionKey); ok && answer == option {
		return FeedbackCorrect
	}
	return FeedbackIncorrect
}

// AnswerProgress derives how much of the check has been answered.
func (v *LessonView) AnswerProgress() AnswerProgress {
	v.mu.Lock()
	defer v.mu.Unlock()

	answered := 0
	for _, q := range understandingCheck {
		if _, ok := v.answers[q.Key]; ok {
			answered++
		}
	}
	switch {
	case answered == 0:
		return Unanswered
	case answered < len(understandingCheck):
		return PartiallyAnswered
	}
	return FullyAnswered
}

// MarkComplete moves the view to its terminal state regardless of answer
// correctness; the check is feedback-only. Calling it again on a completed
// view has no further effect.
func (v *LessonView) MarkComplete() (Completion, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return Completion{}, domain.ErrViewClosed
	}
	if v.state != ViewReady {
		return Completion{}, domain.ErrLessonNotReady
	}
	v.completed = true
	return Completion{
		LessonTitle:  v.lesson.Title,
		ContinuePath: v.viewer.Role.LandingPath(),
	}, nil
}

// Close discards the view. A pending deferred load becomes a no-op.
func (v *LessonView) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	v.cancel()
}
