package taskfilter

import (
	"reflect"
	"testing"
	"time"

	"github.com/Raus17/task-buddy/internal/models"
)

func date(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func ids(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.ID
	}
	return out
}

func TestFilter_OverdueMatchesPastDueDate(t *testing.T) {
	tasks := []models.Task{
		{ID: "1", Status: models.StatusToDo, DueDate: date("2024-01-01")},
	}
	now := date("2024-06-01")

	got := Filter{Due: DueOverdue}.Apply(tasks, now)
	if !reflect.DeepEqual(ids(got), []string{"1"}) {
		t.Fatalf("Apply() = %v, want [1]", ids(got))
	}
}

func TestFilter_OverdueExcludesToday(t *testing.T) {
	tasks := []models.Task{{ID: "1", DueDate: date("2024-06-01")}}

	got := Filter{Due: DueOverdue}.Apply(tasks, date("2024-06-01"))
	if len(got) != 0 {
		t.Fatalf("Apply() = %v, want empty", ids(got))
	}
}

func TestFilter_TodayMatchesSameCalendarDay(t *testing.T) {
	tasks := []models.Task{
		{ID: "1", DueDate: date("2024-06-01")},
		{ID: "2", DueDate: date("2024-06-02")},
	}

	got := Filter{Due: DueToday}.Apply(tasks, date("2024-06-01"))
	if !reflect.DeepEqual(ids(got), []string{"1"}) {
		t.Fatalf("Apply() = %v, want [1]", ids(got))
	}
}

func TestFilter_WeekWindow(t *testing.T) {
	tasks := []models.Task{
		{ID: "past", DueDate: date("2024-06-14")},
		{ID: "today", DueDate: date("2024-06-15")},
		{ID: "edge", DueDate: date("2024-06-22")},
		{ID: "late", DueDate: date("2024-06-23")},
	}

	got := Filter{Due: DueWeek}.Apply(tasks, date("2024-06-15"))
	if !reflect.DeepEqual(ids(got), []string{"today", "edge"}) {
		t.Fatalf("Apply() = %v, want [today edge]", ids(got))
	}
}

func TestFilter_MonthRunsToCalendarMonthEnd(t *testing.T) {
	tasks := []models.Task{
		{ID: "today", DueDate: date("2024-06-15")},
		{ID: "end", DueDate: date("2024-06-30")},
		{ID: "next", DueDate: date("2024-07-01")},
	}

	got := Filter{Due: DueMonth}.Apply(tasks, date("2024-06-15"))
	if !reflect.DeepEqual(ids(got), []string{"today", "end"}) {
		t.Fatalf("Apply() = %v, want [today end]", ids(got))
	}
}

func TestFilter_NoDueDateNeverMatchesBucket(t *testing.T) {
	tasks := []models.Task{{ID: "1"}}
	now := date("2024-06-01")

	for _, bucket := range []DueBucket{DueOverdue, DueToday, DueWeek, DueMonth} {
		if got := (Filter{Due: bucket}).Apply(tasks, now); len(got) != 0 {
			t.Fatalf("Apply() bucket=%s matched a dateless task", bucket)
		}
	}
	if got := (Filter{}).Apply(tasks, now); len(got) != 1 {
		t.Fatal("Apply() without a bucket should match a dateless task")
	}
}

func TestFilter_SearchIsCaseInsensitive(t *testing.T) {
	tasks := []models.Task{
		{ID: "1", Title: "Buy Milk"},
		{ID: "2", Title: "other", Description: "pick up MILK too"},
		{ID: "3", Title: "unrelated"},
	}

	got := Filter{Search: "milk"}.Apply(tasks, time.Now())
	if !reflect.DeepEqual(ids(got), []string{"1", "2"}) {
		t.Fatalf("Apply() = %v, want [1 2]", ids(got))
	}
}

func TestFilter_CategoryExactMatch(t *testing.T) {
	tasks := []models.Task{
		{ID: "1", Category: models.CategoryWork},
		{ID: "2", Category: models.CategoryPersonal},
		{ID: "3"},
	}

	got := Filter{Category: models.CategoryWork}.Apply(tasks, time.Now())
	if !reflect.DeepEqual(ids(got), []string{"1"}) {
		t.Fatalf("Apply() = %v, want [1]", ids(got))
	}

	all := Filter{}.Apply(tasks, time.Now())
	if len(all) != 3 {
		t.Fatalf("Apply() without category = %v, want all three", ids(all))
	}
}

func TestFilter_PredicatesAreANDed(t *testing.T) {
	tasks := []models.Task{
		{ID: "1", Title: "report", Category: models.CategoryWork, DueDate: date("2024-06-01")},
		{ID: "2", Title: "report", Category: models.CategoryPersonal, DueDate: date("2024-06-01")},
		{ID: "3", Title: "groceries", Category: models.CategoryWork, DueDate: date("2024-06-01")},
	}

	f := Filter{Search: "report", Category: models.CategoryWork, Due: DueToday}
	got := f.Apply(tasks, date("2024-06-01"))
	if !reflect.DeepEqual(ids(got), []string{"1"}) {
		t.Fatalf("Apply() = %v, want [1]", ids(got))
	}
}

func TestFilter_Idempotent(t *testing.T) {
	tasks := []models.Task{
		{ID: "1", Title: "report", DueDate: date("2024-06-01")},
		{ID: "2", Title: "groceries", DueDate: date("2024-06-09")},
	}
	now := date("2024-06-01")
	f := Filter{Search: "r", Due: DueWeek}

	first := f.Apply(tasks, now)
	second := f.Apply(tasks, now)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Apply() not idempotent: %v then %v", ids(first), ids(second))
	}
}

func TestValidBucket(t *testing.T) {
	for _, valid := range []string{"", "overdue", "today", "week", "month"} {
		if !ValidBucket(valid) {
			t.Fatalf("ValidBucket(%q) = false, want true", valid)
		}
	}
	if ValidBucket("fortnight") {
		t.Fatal(`ValidBucket("fortnight") = true, want false`)
	}
}

func TestLanes_PartitionsByStatus(t *testing.T) {
	tasks := []models.Task{
		{ID: "1", Status: models.StatusToDo},
		{ID: "2", Status: models.StatusCompleted},
		{ID: "3", Status: models.StatusToDo},
	}

	lanes := Lanes(tasks)
	if len(lanes) != 3 {
		t.Fatalf("Lanes() produced %d lanes, want 3", len(lanes))
	}
	if !reflect.DeepEqual(ids(lanes[models.StatusToDo]), []string{"1", "3"}) {
		t.Fatalf("Lanes() To-Do = %v, want [1 3]", ids(lanes[models.StatusToDo]))
	}
	if !reflect.DeepEqual(ids(lanes[models.StatusCompleted]), []string{"2"}) {
		t.Fatalf("Lanes() Completed = %v, want [2]", ids(lanes[models.StatusCompleted]))
	}
	if got := lanes[models.StatusInProgress]; len(got) != 0 {
		t.Fatalf("Lanes() In-Progress = %v, want empty", ids(got))
	}
}
