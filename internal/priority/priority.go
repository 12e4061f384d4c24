package priority

import (
	"sort"
	"strings"
	"time"

	"crmserver/internal/model"
)

// Rank maps a task priority to its numeric urgency.
// Unknown or missing priorities rank lowest. This is the single
// defaulting point; callers must not invent their own scale.
func Rank(priority string) int {
	switch priority {
	case model.PriorityHigh:
		return 3
	case model.PriorityMedium:
		return 2
	case model.PriorityLow:
		return 1
	default:
		return 0
	}
}

// dateOnly strips the time of day, keeping the calendar date of t
// as observed in t's own location.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsOverdue reports whether an active task's due date falls on a
// calendar day strictly before today. A task due later today is not
// overdue, regardless of the time of day. Completed tasks are never
// overdue.
func IsOverdue(t *model.Task, now time.Time) bool {
	if !t.Active() || t.DueDate == nil {
		return false
	}
	return dateOnly(*t.DueDate).Before(dateOnly(now))
}

// SortTasks returns a new slice ordered by urgency:
//
//  1. overdue tasks before everything else
//  2. priority high > medium > low > unknown
//  3. tasks with a due date before tasks without; earlier date first
//  4. newest created_at first
//
// The sort is stable: tasks comparing equal keep their input order.
func SortTasks(tasks []model.Task, now time.Time) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]

		ao, bo := IsOverdue(a, now), IsOverdue(b, now)
		if ao != bo {
			return ao
		}

		ap, bp := Rank(a.Priority), Rank(b.Priority)
		if ap != bp {
			return ap > bp
		}

		switch {
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && b.DueDate != nil:
			if !a.DueDate.Equal(*b.DueDate) {
				return a.DueDate.Before(*b.DueDate)
			}
		}

		return a.CreatedAt.After(b.CreatedAt)
	})

	return out
}

// RankedCustomer is one row of the urgency dashboard.
type RankedCustomer struct {
	Customer     model.Customer `json:"customer"`
	Tasks        []model.Task   `json:"tasks"`
	OverdueCount int            `json:"overdue_count"`
	TopPriority  int            `json:"top_priority"`
	HighCount    int            `json:"high_count"`
	ActiveCount  int            `json:"active_count"`
}

// RankCustomers filters to customers with at least one active task and
// ranks them by overdue count, then highest active priority, then
// high-priority count, then total active count, all descending.
//
// A non-empty query keeps only customers whose name, or one of whose
// active tasks' title or description, contains it case-insensitively.
// Filtering happens before ranking. Each row carries the customer's
// active tasks in urgency order.
func RankCustomers(customers []model.Customer, tasks []model.Task, query string, now time.Time) []RankedCustomer {
	active := make(map[string][]model.Task)
	for _, t := range tasks {
		if t.Active() {
			active[t.CustomerID] = append(active[t.CustomerID], t)
		}
	}

	query = strings.ToLower(strings.TrimSpace(query))

	ranked := make([]RankedCustomer, 0, len(customers))
	for _, c := range customers {
		ts := active[c.ID]
		if len(ts) == 0 {
			continue
		}
		if query != "" && !matchesQuery(c, ts, query) {
			continue
		}

		row := RankedCustomer{
			Customer:    c,
			Tasks:       SortTasks(ts, now),
			ActiveCount: len(ts),
		}
		for i := range ts {
			if IsOverdue(&ts[i], now) {
				row.OverdueCount++
			}
			if r := Rank(ts[i].Priority); r > row.TopPriority {
				row.TopPriority = r
			}
			if ts[i].Priority == model.PriorityHigh {
				row.HighCount++
			}
		}
		ranked = append(ranked, row)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := &ranked[i], &ranked[j]
		if a.OverdueCount != b.OverdueCount {
			return a.OverdueCount > b.OverdueCount
		}
		if a.TopPriority != b.TopPriority {
			return a.TopPriority > b.TopPriority
		}
		if a.HighCount != b.HighCount {
			return a.HighCount > b.HighCount
		}
		return a.ActiveCount > b.ActiveCount
	})

	return ranked
}

func matchesQuery(c model.Customer, tasks []model.Task, query string) bool {
	if strings.Contains(strings.ToLower(c.Name), query) {
		return true
	}
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), query) ||
			strings.Contains(strings.ToLower(t.Description), query) {
			return true
		}
	}
	return false
}

// addMonths advances the month field, clamping the day to the last
// valid day of the target month (Jan 31 + 6 months is Jul 31, but
// Aug 31 + 6 months is Feb 28/29). time.AddDate is avoided here
// because its overflow normalization would widen the window.
func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	m += time.Month(months)
	for m > 12 {
		m -= 12
		y++
	}
	if last := daysInMonth(y, m); d > last {
		d = last
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// RenewalDueSoon reports whether the renewal date falls inside the
// inclusive window from today through six calendar months out.
func RenewalDueSoon(renewal *time.Time, now time.Time) bool {
	if renewal == nil {
		return false
	}
	today := dateOnly(now)
	d := dateOnly(*renewal)
	if d.Before(today) {
		return false
	}
	return !d.After(addMonths(today, 6))
}

// RenewalExpired reports whether the renewal date's calendar day is
// strictly before today's. Mutually exclusive with RenewalDueSoon;
// callers rendering a badge let expired win.
func RenewalExpired(renewal *time.Time, now time.Time) bool {
	if renewal == nil {
		return false
	}
	return dateOnly(*renewal).Before(dateOnly(now))
}
