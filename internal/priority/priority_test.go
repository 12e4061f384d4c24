package priority

import (
	"testing"
	"time"

	"crmserver/internal/model"
)

var now = time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func task(id string, mut ...func(*model.Task)) model.Task {
	t := model.Task{
		ID:         id,
		CustomerID: "c1",
		Title:      "task " + id,
		Priority:   model.PriorityMedium,
		Status:     model.StatusPending,
		Source:     model.TaskSourceManual,
		CreatedAt:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, f := range mut {
		f(&t)
	}
	return t
}

func TestIsOverdue(t *testing.T) {
	tests := []struct {
		name string
		task model.Task
		want bool
	}{
		{
			name: "due yesterday",
			task: task("a", func(t *model.Task) { t.DueDate = datePtr(2025, 1, 14) }),
			want: true,
		},
		{
			name: "due earlier today is not overdue",
			task: task("a", func(t *model.Task) {
				d := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
				t.DueDate = &d
			}),
			want: false,
		},
		{
			name: "due tomorrow",
			task: task("a", func(t *model.Task) { t.DueDate = datePtr(2025, 1, 16) }),
			want: false,
		},
		{
			name: "no due date",
			task: task("a"),
			want: false,
		},
		{
			name: "completed task never overdue",
			task: task("a", func(t *model.Task) {
				t.DueDate = datePtr(2025, 1, 1)
				t.Status = model.StatusCompleted
			}),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOverdue(&tt.task, now); got != tt.want {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func assertOrder(t *testing.T, got []model.Task, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d tasks, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			ids := make([]string, len(got))
			for j := range got {
				ids[j] = got[j].ID
			}
			t.Fatalf("order = %v, want %v", ids, want)
		}
	}
}

func TestSortTasksOverdueFirst(t *testing.T) {
	tasks := []model.Task{
		task("low-future", func(t *model.Task) {
			t.Priority = model.PriorityLow
			t.DueDate = datePtr(2025, 2, 1)
		}),
		task("high-future", func(t *model.Task) {
			t.Priority = model.PriorityHigh
			t.DueDate = datePtr(2025, 2, 1)
		}),
		task("low-overdue", func(t *model.Task) {
			t.Priority = model.PriorityLow
			t.DueDate = datePtr(2025, 1, 10)
		}),
	}

	// An overdue low-priority task outranks a high-priority one that is
	// not overdue.
	got := SortTasks(tasks, now)
	assertOrder(t, got, []string{"low-overdue", "high-future", "low-future"})
}

func TestSortTasksPriorityWithinGroup(t *testing.T) {
	tasks := []model.Task{
		task("a", func(t *model.Task) { t.Priority = model.PriorityLow }),
		task("b", func(t *model.Task) { t.Priority = model.PriorityHigh }),
		task("c", func(t *model.Task) { t.Priority = "" }),
		task("d", func(t *model.Task) { t.Priority = model.PriorityMedium }),
	}

	got := SortTasks(tasks, now)
	assertOrder(t, got, []string{"b", "d", "a", "c"})
}

func TestSortTasksDueDatePresenceBreaksTies(t *testing.T) {
	tasks := []model.Task{
		task("no-due"),
		task("due-late", func(t *model.Task) { t.DueDate = datePtr(2025, 3, 1) }),
		task("due-early", func(t *model.Task) { t.DueDate = datePtr(2025, 2, 1) }),
	}

	got := SortTasks(tasks, now)
	assertOrder(t, got, []string{"due-early", "due-late", "no-due"})
}

func TestSortTasksCreatedAtDescFinalTieBreak(t *testing.T) {
	tasks := []model.Task{
		task("old", func(t *model.Task) {
			t.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		}),
		task("new", func(t *model.Task) {
			t.CreatedAt = time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
		}),
	}

	got := SortTasks(tasks, now)
	assertOrder(t, got, []string{"new", "old"})
}

func TestSortTasksGroupsOverdueContiguously(t *testing.T) {
	tasks := []model.Task{
		task("a", func(t *model.Task) { t.DueDate = datePtr(2025, 1, 10) }),
		task("b", func(t *model.Task) { t.DueDate = datePtr(2025, 2, 10) }),
		task("c", func(t *model.Task) { t.DueDate = datePtr(2025, 1, 5); t.Priority = model.PriorityLow }),
		task("d"),
		task("e", func(t *model.Task) { t.DueDate = datePtr(2025, 1, 13); t.Priority = model.PriorityHigh }),
	}

	got := SortTasks(tasks, now)
	seenNonOverdue := false
	for i := range got {
		if IsOverdue(&got[i], now) {
			if seenNonOverdue {
				t.Fatalf("overdue task %s appears after a non-overdue task", got[i].ID)
			}
		} else {
			seenNonOverdue = true
		}
	}
}

func TestSortTasksEmptyAndStable(t *testing.T) {
	if got := SortTasks(nil, now); len(got) != 0 {
		t.Fatalf("expected empty ordering, got %d", len(got))
	}

	// Identical keys: input order must survive.
	same := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		task("first", func(t *model.Task) { t.CreatedAt = same }),
		task("second", func(t *model.Task) { t.CreatedAt = same }),
		task("third", func(t *model.Task) { t.CreatedAt = same }),
	}
	got := SortTasks(tasks, now)
	assertOrder(t, got, []string{"first", "second", "third"})
}

func TestSortTasksIdempotent(t *testing.T) {
	tasks := []model.Task{
		task("a", func(t *model.Task) { t.DueDate = datePtr(2025, 1, 10) }),
		task("b", func(t *model.Task) { t.Priority = model.PriorityHigh }),
		task("c"),
		task("d", func(t *model.Task) { t.DueDate = datePtr(2025, 4, 1) }),
	}

	first := SortTasks(tasks, now)
	second := SortTasks(tasks, now)
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("run 1 and run 2 disagree at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestRankCustomersScenario(t *testing.T) {
	customers := []model.Customer{
		{ID: "z", Name: "Zeta Corp"},
		{ID: "y", Name: "Yonder Ltd"},
		{ID: "x", Name: "Xavier Inc"},
	}
	tasks := []model.Task{
		task("x1", func(t *model.Task) { t.CustomerID = "x"; t.DueDate = datePtr(2025, 1, 10) }),
		task("x2", func(t *model.Task) { t.CustomerID = "x"; t.DueDate = datePtr(2025, 1, 12) }),
		task("y1", func(t *model.Task) { t.CustomerID = "y"; t.Priority = model.PriorityHigh }),
		task("z1", func(t *model.Task) { t.CustomerID = "z"; t.Priority = model.PriorityMedium }),
	}

	got := RankCustomers(customers, tasks, "", now)
	if len(got) != 3 {
		t.Fatalf("got %d customers, want 3", len(got))
	}
	for i, want := range []string{"x", "y", "z"} {
		if got[i].Customer.ID != want {
			t.Fatalf("rank %d = %s, want %s", i, got[i].Customer.ID, want)
		}
	}
	if got[0].OverdueCount != 2 {
		t.Errorf("x overdue count = %d, want 2", got[0].OverdueCount)
	}
}

func TestRankCustomersExcludesNoActiveTasks(t *testing.T) {
	customers := []model.Customer{
		{ID: "a", Name: "All Done LLC"},
		{ID: "b", Name: "Busy Inc"},
	}
	tasks := []model.Task{
		task("a1", func(t *model.Task) {
			t.CustomerID = "a"
			t.Status = model.StatusCompleted
		}),
		task("b1", func(t *model.Task) { t.CustomerID = "b" }),
	}

	got := RankCustomers(customers, tasks, "", now)
	if len(got) != 1 || got[0].Customer.ID != "b" {
		t.Fatalf("completed-only customer must be excluded, got %+v", got)
	}
}

func TestRankCustomersHighCountTieBreak(t *testing.T) {
	customers := []model.Customer{
		{ID: "one", Name: "One"},
		{ID: "two", Name: "Two"},
	}
	tasks := []model.Task{
		task("o1", func(t *model.Task) { t.CustomerID = "one"; t.Priority = model.PriorityHigh }),
		task("t1", func(t *model.Task) { t.CustomerID = "two"; t.Priority = model.PriorityHigh }),
		task("t2", func(t *model.Task) { t.CustomerID = "two"; t.Priority = model.PriorityHigh }),
	}

	got := RankCustomers(customers, tasks, "", now)
	if got[0].Customer.ID != "two" {
		t.Fatalf("customer with more high-priority tasks must rank first, got %s", got[0].Customer.ID)
	}
}

func TestRankCustomersQueryFilter(t *testing.T) {
	customers := []model.Customer{
		{ID: "acme", Name: "Acme Security"},
		{ID: "globex", Name: "Globex"},
	}
	tasks := []model.Task{
		task("a1", func(t *model.Task) { t.CustomerID = "acme" }),
		task("g1", func(t *model.Task) {
			t.CustomerID = "globex"
			t.Title = "Firewall audit"
			t.Description = "review PENTEST findings"
		}),
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty query keeps all", "", []string{"acme", "globex"}},
		{"customer name match", "acme", []string{"acme"}},
		{"case-insensitive name", "ACME", []string{"acme"}},
		{"task title match", "firewall", []string{"globex"}},
		{"task description match", "pentest", []string{"globex"}},
		{"no match", "nonexistent", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RankCustomers(customers, tasks, tt.query, now)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d rows, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].Customer.ID != id {
					t.Errorf("row %d = %s, want %s", i, got[i].Customer.ID, id)
				}
			}
		})
	}
}

func TestRenewalDueSoon(t *testing.T) {
	tests := []struct {
		name    string
		renewal *time.Time
		want    bool
	}{
		{"nil date", nil, false},
		{"today", datePtr(2025, 1, 15), true},
		{"exactly six months out", datePtr(2025, 7, 15), true},
		{"one day past the window", datePtr(2025, 7, 16), false},
		{"yesterday is past, not due soon", datePtr(2025, 1, 14), false},
		{"mid window", datePtr(2025, 4, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenewalDueSoon(tt.renewal, now); got != tt.want {
				t.Errorf("RenewalDueSoon() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenewalDueSoonClampsMonthOverflow(t *testing.T) {
	// Aug 31 + 6 months clamps to Feb 28; Mar 1 must be outside.
	aug := time.Date(2024, 8, 31, 9, 0, 0, 0, time.UTC)

	if !RenewalDueSoon(datePtr(2025, 2, 28), aug) {
		t.Error("Feb 28 should be inside the clamped window")
	}
	if RenewalDueSoon(datePtr(2025, 3, 1), aug) {
		t.Error("Mar 1 should be outside the clamped window")
	}
}

func TestRenewalExpired(t *testing.T) {
	lateYesterday := time.Date(2025, 1, 14, 23, 59, 0, 0, time.UTC)
	startOfToday := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		renewal *time.Time
		want    bool
	}{
		{"nil date", nil, false},
		{"late yesterday", &lateYesterday, true},
		{"midnight today", &startOfToday, false},
		{"future", datePtr(2025, 6, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenewalExpired(tt.renewal, now); got != tt.want {
				t.Errorf("RenewalExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenewalPredicatesMutuallyExclusive(t *testing.T) {
	dates := []*time.Time{
		datePtr(2024, 12, 1),
		datePtr(2025, 1, 14),
		datePtr(2025, 1, 15),
		datePtr(2025, 7, 15),
		datePtr(2025, 7, 16),
		datePtr(2026, 1, 1),
	}
	for _, d := range dates {
		if RenewalDueSoon(d, now) && RenewalExpired(d, now) {
			t.Errorf("date %v is both due-soon and expired", d)
		}
	}
}
