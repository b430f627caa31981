package todo

import (
	"cmp"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/Paul-frank/todo-tracker-api/internal/models"
)

// SortKey selects the order of a listing.
type SortKey string

const (
	SortManual       SortKey = "manual" // default
	SortCreatedDesc  SortKey = "created_desc"
	SortPriorityDesc SortKey = "priority_desc"
	SortDueAsc       SortKey = "due_asc"
)

func parseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortManual, nil
	}
	switch k := SortKey(s); k {
	case SortManual, SortCreatedDesc, SortPriorityDesc, SortDueAsc:
		return k, nil
	default:
		return "", invalid("sort", "Invalid sort option: %s", s)
	}
}

// DueRange is a named due-date bucket. Day boundaries are UTC midnight.
type DueRange string

const (
	DueAny      DueRange = "" // kein Filter
	DueOverdue  DueRange = "overdue"
	DueToday    DueRange = "today"
	DueThisWeek DueRange = "this_week"
	DueNone     DueRange = "no_due"
)

func parseDueRange(s string) (DueRange, error) {
	if s == "" {
		return DueAny, nil
	}
	mode := DueRange(strings.ToLower(strings.TrimSpace(s)))
	switch mode {
	case DueOverdue, DueToday, DueThisWeek, DueNone:
		return mode, nil
	default:
		return "", invalid("due", "Invalid due range filter: %s", mode)
	}
}

// Query is a parsed and validated list request. Nil sets mean "no filter".
type Query struct {
	Statuses   map[models.Status]bool
	Priorities map[models.Priority]bool
	Tag        string
	Keyword    string
	Due        DueRange
	Sort       SortKey
}

// ParseQuery validates the recognized parameters: status, priority, tag, q,
// due (or dueRange) and sort. Unknown keys are ignored.
func ParseQuery(params url.Values) (Query, error) {
	var q Query

	if raw := params.Get("status"); raw != "" {
		q.Statuses = map[models.Status]bool{}
		for _, token := range splitTokens(raw) {
			st := models.Status(token)
			if !st.IsValid() {
				return Query{}, invalid("status", "Invalid status filter: %s", token)
			}
			q.Statuses[st] = true
		}
	}

	if raw := params.Get("priority"); raw != "" {
		q.Priorities = map[models.Priority]bool{}
		for _, token := range splitTokens(raw) {
			p := models.Priority(token)
			if !p.IsValid() {
				return Query{}, invalid("priority", "Invalid priority filter: %s", token)
			}
			q.Priorities[p] = true
		}
	}

	q.Tag = strings.ToLower(strings.TrimSpace(params.Get("tag")))
	q.Keyword = strings.ToLower(strings.TrimSpace(params.Get("q")))

	due := params.Get("due")
	if due == "" {
		due = params.Get("dueRange")
	}
	var err error
	if q.Due, err = parseDueRange(due); err != nil {
		return Query{}, err
	}
	if q.Sort, err = parseSortKey(params.Get("sort")); err != nil {
		return Query{}, err
	}
	return q, nil
}

// Apply filters todos by every set criterion and returns them sorted.
// The input slice is not modified.
func (q Query) Apply(todos []models.Todo, now time.Time) []models.Todo {
	result := make([]models.Todo, 0, len(todos))
	for _, t := range todos {
		if q.matches(t, now) {
			result = append(result, t)
		}
	}
	slices.SortStableFunc(result, q.Sort.compare)
	return result
}

func (q Query) matches(t models.Todo, now time.Time) bool {
	if q.Statuses != nil && !q.Statuses[t.Status] {
		return false
	}
	if q.Priorities != nil && !q.Priorities[t.Priority] {
		return false
	}
	if q.Tag != "" && !hasTag(t, q.Tag) {
		return false
	}
	if q.Keyword != "" &&
		!strings.Contains(strings.ToLower(t.Title), q.Keyword) &&
		!strings.Contains(strings.ToLower(t.Note), q.Keyword) {
		return false
	}
	return q.Due.contains(t.DueAt, now)
}

func hasTag(t models.Todo, tag string) bool {
	for _, candidate := range t.Tags {
		if strings.ToLower(candidate) == tag {
			return true
		}
	}
	return false
}

func (d DueRange) contains(dueAt *time.Time, now time.Time) bool {
	if d == DueAny {
		return true
	}
	if d == DueNone {
		return dueAt == nil
	}
	if dueAt == nil {
		return false
	}

	now = now.UTC()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch d {
	case DueOverdue:
		return dueAt.Before(startOfToday)
	case DueToday:
		return !dueAt.Before(startOfToday) && dueAt.Before(startOfToday.AddDate(0, 0, 1))
	case DueThisWeek:
		return !dueAt.Before(startOfToday) && dueAt.Before(startOfToday.AddDate(0, 0, 7))
	}
	return false
}

func (k SortKey) compare(a, b models.Todo) int {
	switch k {
	case SortCreatedDesc:
		return b.CreatedAt.Compare(a.CreatedAt)
	case SortPriorityDesc:
		if c := cmp.Compare(b.Priority.Weight(), a.Priority.Weight()); c != 0 {
			return c
		}
		return cmp.Compare(b.Order, a.Order)
	case SortDueAsc:
		switch {
		case a.DueAt == nil && b.DueAt == nil:
			return cmp.Compare(a.Order, b.Order)
		case a.DueAt == nil:
			return 1
		case b.DueAt == nil:
			return -1
		}
		if c := a.DueAt.Compare(*b.DueAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Order, b.Order)
	default:
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	}
}

func splitTokens(raw string) []string {
	var tokens []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}
