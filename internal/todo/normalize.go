package todo

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Paul-frank/todo-tracker-api/internal/models"
)

const (
	MaxTitleLength = 120
	MaxNoteLength  = 2000
	MaxTags        = 10
	MaxTagLength   = 20
)

// Die Parser nehmen den Rohwert eines Feldes und einen Fallback, der gilt,
// wenn das Feld fehlt (Update: "aktuellen Wert behalten").

// ParseTitle trims the title and rejects empty or overlong values. An empty
// fallback means the title is required.
func ParseTitle(f models.Field, fallback string) (string, error) {
	if !f.Present {
		if fallback != "" {
			return fallback, nil
		}
		return "", invalid("title", "title is required")
	}

	s, ok := f.Value.(string)
	if !ok {
		return "", invalid("title", "title must be a string")
	}

	title := strings.TrimSpace(s)
	if title == "" {
		return "", invalid("title", "title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", invalid("title", "title must be %d characters or less", MaxTitleLength)
	}
	return title, nil
}

// ParseNote truncates silently; null clears the note.
func ParseNote(f models.Field, fallback string) (string, error) {
	if !f.Present {
		return fallback, nil
	}
	if f.Value == nil {
		return "", nil
	}
	s, ok := f.Value.(string)
	if !ok {
		return "", invalid("note", "note must be a string")
	}
	return truncate(s, MaxNoteLength), nil
}

// ParseTags keeps string entries in input order, trimmed and non-empty,
// at most MaxTags of them, each cut to MaxTagLength.
func ParseTags(f models.Field, fallback []string) ([]string, error) {
	if !f.Present {
		return fallback, nil
	}
	if f.Value == nil {
		return []string{}, nil
	}

	var entries []any
	switch v := f.Value.(type) {
	case []any:
		entries = v
	case []string:
		for _, s := range v {
			entries = append(entries, s)
		}
	default:
		return nil, invalid("tags", "tags must be an array")
	}

	tags := []string{}
	for _, entry := range entries {
		s, ok := entry.(string) // Nicht-Strings werden verworfen
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		tags = append(tags, truncate(s, MaxTagLength))
		if len(tags) == MaxTags {
			break
		}
	}
	return tags, nil
}

func ParsePriority(f models.Field, fallback models.Priority) (models.Priority, error) {
	if !f.Present {
		return fallback, nil
	}
	s, ok := f.Value.(string)
	if !ok {
		return "", invalid("priority", "priority must be a string")
	}
	p, ok := models.ParsePriority(s)
	if !ok {
		return "", invalid("priority", "priority must be one of: %s", joinPriorities())
	}
	return p, nil
}

func ParseStatus(f models.Field, fallback models.Status) (models.Status, error) {
	if !f.Present {
		return fallback, nil
	}
	s, ok := f.Value.(string)
	if !ok {
		return "", invalid("status", "status must be a string")
	}
	st, ok := models.ParseStatus(s)
	if !ok {
		return "", invalid("status", "status must be one of: %s", joinStatuses())
	}
	return st, nil
}

// ParseDueAt returns nil for null or "", which clears the due date.
func ParseDueAt(f models.Field, fallback *time.Time) (*time.Time, error) {
	if !f.Present {
		return fallback, nil
	}
	if f.Value == nil {
		return nil, nil
	}
	s, ok := f.Value.(string)
	if !ok {
		return nil, invalid("dueAt", "dueAt must be ISO-8601 datetime or null")
	}
	if s == "" {
		return nil, nil
	}
	t, ok := models.ParseTime(s)
	if !ok {
		return nil, invalid("dueAt", "dueAt must be ISO-8601 datetime or null")
	}
	return &t, nil
}

// ParseNonNegative reads estimatedMin and order. Numbers and numeric strings
// are accepted; the result is floored.
func ParseNonNegative(f models.Field, fallback int64, field string) (int64, error) {
	if !f.Present || f.Value == nil {
		return fallback, nil
	}

	var n float64
	switch v := f.Value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case int32:
		n = float64(v)
	case json.Number:
		parsed, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return 0, invalid(field, "%s must be a non-negative number", field)
		}
		n = parsed
	case string:
		if v == "" {
			return fallback, nil
		}
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			n = 0 // Leerzeichen zählen als 0
			break
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, invalid(field, "%s must be a non-negative number", field)
		}
		n = parsed
	default:
		return 0, invalid(field, "%s must be a non-negative number", field)
	}

	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 || n >= math.MaxInt64 {
		return 0, invalid(field, "%s must be a non-negative number", field)
	}
	// int64 values above 2^53 lose precision in the float detour
	if i, ok := f.Value.(int64); ok {
		return i, nil
	}
	return int64(math.Floor(n)), nil
}

// ParseCompleted reads the legacy completed flag. supplied is false when the
// field is absent.
func ParseCompleted(f models.Field) (completed, supplied bool, err error) {
	if !f.Present {
		return false, false, nil
	}
	b, ok := f.Value.(bool)
	if !ok {
		return false, false, invalid("completed", "completed must be boolean when provided")
	}
	return b, true, nil
}

// resolveStatus applies the precedence rule: a supplied completed flag wins
// over the status field.
func resolveStatus(body models.RawRecord, fallback models.Status) (models.Status, error) {
	status, err := ParseStatus(body.Field("status"), fallback)
	if err != nil {
		return "", err
	}
	completed, supplied, err := ParseCompleted(body.Field("completed"))
	if err != nil {
		return "", err
	}
	if !supplied {
		return status, nil
	}
	if completed {
		return models.StatusDone, nil
	}
	return models.StatusTodo, nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func joinPriorities() string {
	names := make([]string, 0, 4)
	for _, p := range models.ValidPriorities() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

func joinStatuses() string {
	names := make([]string, 0, 3)
	for _, s := range models.ValidStatuses() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
