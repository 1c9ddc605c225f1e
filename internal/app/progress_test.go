package app_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"reading-portal/internal/app"
	"reading-portal/internal/domain"
	"reading-portal/internal/infra/memory"
)

func newTestCatalog(lessons ...domain.Lesson) app.Catalog {
	return memory.NewCatalog(memory.NewStaticCatalogLoader(lessons), 5*time.Minute)
}

func makeLessons(n int) []domain.Lesson {
	lessons := make([]domain.Lesson, 0, n)
	for i := 1; i <= n; i++ {
		lessons = append(lessons, domain.Lesson{
			ID:          fmt.Sprintf("lesson-%d", i),
			Title:       fmt.Sprintf("Lesson %d", i),
			Description: fmt.Sprintf("Description %d", i),
			Difficulty:  domain.DifficultyEasy,
			UploadedBy:  "Ms. Johnson",
		})
	}
	return lessons
}

func cardIDs(cards []app.LessonCard) []string {
	ids := make([]string, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestOverviewEmptyCatalog(t *testing.T) {
	service := app.NewProgressService(newTestCatalog())

	overview, err := service.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(overview.Recent) != 0 || len(overview.InProgress) != 0 || len(overview.Completed) != 0 {
		t.Fatalf("expected empty slices, got %+v", overview)
	}
	if overview.TotalAvailable != 0 {
		t.Fatalf("expected total 0, got %d", overview.TotalAvailable)
	}
}

func TestOverviewFiveLessons(t *testing.T) {
	service := app.NewProgressService(newTestCatalog(makeLessons(5)...))

	overview, err := service.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}

	checks := []struct {
		name string
		got  []string
		want []string
	}{
		{"recent", cardIDs(overview.Recent), []string{"lesson-1", "lesson-2", "lesson-3"}},
		{"inProgress", cardIDs(overview.InProgress), []string{"lesson-2", "lesson-3"}},
		{"completed", cardIDs(overview.Completed), []string{"lesson-4", "lesson-5"}},
	}
	for _, check := range checks {
		if len(check.got) != len(check.want) {
			t.Fatalf("%s: expected %v, got %v", check.name, check.want, check.got)
		}
		for i := range check.want {
			if check.got[i] != check.want[i] {
				t.Fatalf("%s: expected %v, got %v", check.name, check.want, check.got)
			}
		}
	}
	if overview.TotalAvailable != 5 {
		t.Fatalf("expected total 5, got %d", overview.TotalAvailable)
	}
}

func TestOverviewClampsShortCatalog(t *testing.T) {
	service := app.NewProgressService(newTestCatalog(makeLessons(2)...))

	overview, err := service.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(overview.Recent) != 2 {
		t.Fatalf("expected 2 recent, got %d", len(overview.Recent))
	}
	if len(overview.InProgress) != 1 || overview.InProgress[0].ID != "lesson-2" {
		t.Fatalf("expected in-progress [lesson-2], got %v", cardIDs(overview.InProgress))
	}
	if len(overview.Completed) != 0 {
		t.Fatalf("expected no completed, got %v", cardIDs(overview.Completed))
	}
	if overview.TotalAvailable != 2 {
		t.Fatalf("expected total 2, got %d", overview.TotalAvailable)
	}
}

func TestTruncateBoundary(t *testing.T) {
	exact := strings.Repeat("a", 60)
	if got := app.Truncate(exact, 60); got != exact {
		t.Fatalf("expected 60-char description untouched, got %q", got)
	}

	long := strings.Repeat("a", 61)
	want := strings.Repeat("a", 60) + "..."
	if got := app.Truncate(long, 60); got != want {
		t.Fatalf("expected truncation with ellipsis, got %q", got)
	}

	if got := app.Truncate("short", 60); got != "short" {
		t.Fatalf("expected short description untouched, got %q", got)
	}
}

func TestBadgeMapping(t *testing.T) {
	cases := []struct {
		difficulty domain.Difficulty
		want       app.BadgeColor
	}{
		{domain.DifficultyEasy, app.BadgeGreen},
		{domain.DifficultyMedium, app.BadgeYellow},
		{domain.DifficultyHard, app.BadgeRed},
		{"impossible", app.BadgeGray},
		{"", app.BadgeGray},
	}
	for _, c := range cases {
		if got := app.BadgeFor(c.difficulty); got != c.want {
			t.Fatalf("difficulty %q: expected %s, got %s", c.difficulty, c.want, got)
		}
	}
}
