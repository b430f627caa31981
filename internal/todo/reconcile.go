package todo

import (
	"fmt"
	"time"

	"github.com/Paul-frank/todo-tracker-api/internal/models"
)

// UntitledTitle replaces a title missing from a stored record.
const UntitledTitle = "Untitled task"

// Reconcile turns a stored or merged record into a fully valid todo:
// timestamps are inferred, status is derived from the legacy completed flag
// when needed, completedAt agrees with status, and every other field passes
// through its normalizer with itself as the fallback.
func Reconcile(raw models.RawRecord, now time.Time) (models.Todo, error) {
	now = models.Millis(now)

	id := stringField(raw, "id")
	if id == "" {
		id = NewID(now)
	}
	idTime := InferTimestamp(id, now)

	// Zeitstempel ermitteln
	createdAt, ok := timeField(raw, "createdAt")
	if !ok {
		createdAt = models.Millis(idTime)
	}
	updatedAt, ok := timeField(raw, "updatedAt")
	if !ok || updatedAt.Before(createdAt) {
		updatedAt = createdAt
	}

	// Status ermitteln -> nur exakte Werte, sonst aus dem alten completed-Flag
	status := models.Status(stringField(raw, "status"))
	if !status.IsValid() {
		status = models.StatusTodo
		if legacy, _ := raw["completed"].(bool); legacy {
			status = models.StatusDone
		}
	}

	// completedAt passend zum Status setzen
	var completedAt *time.Time
	if status == models.StatusDone {
		if t, ok := timeField(raw, "completedAt"); ok {
			completedAt = &t
		} else {
			t := updatedAt
			completedAt = &t
		}
	}

	title, err := ParseTitle(raw.Field("title"), UntitledTitle)
	if err != nil {
		return models.Todo{}, err
	}
	note, err := ParseNote(raw.Field("note"), "")
	if err != nil {
		return models.Todo{}, err
	}
	tags, err := ParseTags(raw.Field("tags"), []string{})
	if err != nil {
		return models.Todo{}, err
	}
	priority, err := ParsePriority(raw.Field("priority"), models.PriorityMedium)
	if err != nil {
		return models.Todo{}, err
	}
	dueAt, err := ParseDueAt(raw.Field("dueAt"), nil)
	if err != nil {
		return models.Todo{}, err
	}
	estimatedMin, err := ParseNonNegative(raw.Field("estimatedMin"), 0, "estimatedMin")
	if err != nil {
		return models.Todo{}, err
	}
	order, err := ParseNonNegative(raw.Field("order"), idTime.UnixMilli(), "order")
	if err != nil {
		return models.Todo{}, err
	}

	return models.Todo{
		Owner:        stringField(raw, "user"),
		ID:           id,
		Title:        title,
		Note:         note,
		Tags:         tags,
		Priority:     priority,
		Status:       status,
		DueAt:        dueAt,
		EstimatedMin: estimatedMin,
		Order:        order,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
		CompletedAt:  completedAt,
	}, nil
}

// ReconcileTodo re-validates an already typed record.
func ReconcileTodo(t models.Todo, now time.Time) (models.Todo, error) {
	return Reconcile(t.Raw(), now)
}

// stringField reads an identifier-like field. Numbers are accepted because
// old records stored ids as numbers.
func stringField(raw models.RawRecord, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}

func timeField(raw models.RawRecord, key string) (time.Time, bool) {
	s, ok := raw[key].(string)
	if !ok {
		return time.Time{}, false
	}
	return models.ParseTime(s)
}
