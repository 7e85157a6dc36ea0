package taskfilter

import (
	"strings"
	"time"

	"github.com/Raus17/task-buddy/internal/models"
)

type DueBucket string

const (
	DueAny     DueBucket = ""
	DueOverdue DueBucket = "overdue"
	DueToday   DueBucket = "today"
	DueWeek    DueBucket = "week"
	DueMonth   DueBucket = "month"
)

// ValidBucket reports whether s names a due-date bucket. The empty
// string is valid and means no due-date filtering.
func ValidBucket(s string) bool {
	switch DueBucket(s) {
	case DueAny, DueOverdue, DueToday, DueWeek, DueMonth:
		return true
	}
	return false
}

// Filter is a pure predicate over a task set. All three parts are
// ANDed; a zero Filter matches everything.
type Filter struct {
	// Search matches case-insensitively against title or description.
	Search string
	// Category requires an exact category match when set.
	Category string
	// Due restricts by due date relative to "today".
	Due DueBucket
}

// Apply returns the tasks matching the filter, evaluated against now.
func (f Filter) Apply(tasks []models.Task, now time.Time) []models.Task {
	matched := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if f.Matches(task, now) {
			matched = append(matched, task)
		}
	}
	return matched
}

func (f Filter) Matches(task models.Task, now time.Time) bool {
	return f.matchesSearch(task) &&
		f.matchesCategory(task) &&
		f.matchesDue(task, now)
}

func (f Filter) matchesSearch(task models.Task) bool {
	if f.Search == "" {
		return true
	}
	search := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(task.Title), search) ||
		strings.Contains(strings.ToLower(task.Description), search)
}

func (f Filter) matchesCategory(task models.Task) bool {
	return f.Category == "" || task.Category == f.Category
}

func (f Filter) matchesDue(task models.Task, now time.Time) bool {
	if f.Due == DueAny {
		return true
	}
	// A task with no due date never matches a selected bucket.
	if task.DueDate.IsZero() {
		return false
	}

	// Compare calendar days in the caller's location so a due date
	// stored in UTC still counts as "today" locally.
	today := midnight(now, now.Location())
	due := midnight(task.DueDate, now.Location())

	switch f.Due {
	case DueOverdue:
		return due.Before(today)
	case DueToday:
		return due.Equal(today)
	case DueWeek:
		return !due.Before(today) && !due.After(today.AddDate(0, 0, 7))
	case DueMonth:
		// Through the last day of the current calendar month, not a
		// fixed 30-day window.
		monthEnd := time.Date(today.Year(), today.Month()+1, 0, 0, 0, 0, 0, today.Location())
		return !due.Before(today) && !due.After(monthEnd)
	}
	return false
}

// Lanes partitions tasks into the three status lanes. Every task
// carries exactly one of the three statuses, so the partition is
// complete.
func Lanes(tasks []models.Task) map[string][]models.Task {
	lanes := map[string][]models.Task{
		models.StatusToDo:       {},
		models.StatusInProgress: {},
		models.StatusCompleted:  {},
	}
	for _, task := range tasks {
		lanes[task.Status] = append(lanes[task.Status], task)
	}
	return lanes
}

func midnight(t time.Time, loc *time.Location) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}
