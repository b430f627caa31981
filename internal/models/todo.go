package models

import (
	"encoding/json"
	"time"
)

type Todo struct {
	Owner        string     `json:"user"`         // Besitzer der ToDo (aus dem Token, nie vom Client)
	ID           string     `json:"id"`           // ID der ToDo -> Millisekunden-Zeitstempel + Zufallssuffix
	Title        string     `json:"title"`        // Titel der ToDo
	Note         string     `json:"note"`         // Notiz
	Tags         []string   `json:"tags"`         // Tags in Eingabereihenfolge
	Priority     Priority   `json:"priority"`     // Priorität
	Status       Status     `json:"status"`       // Status
	DueAt        *time.Time `json:"dueAt"`        // Fälligkeitsdatum, nil = keins
	EstimatedMin int64      `json:"estimatedMin"` // geschätzte Dauer in Minuten
	Order        int64      `json:"order"`        // Position für manuelle Sortierung
	CreatedAt    time.Time  `json:"createdAt"`    // Erstellungsdatum
	UpdatedAt    time.Time  `json:"updatedAt"`    // Datum der letzten Änderung
	CompletedAt  *time.Time `json:"completedAt"`  // Zeitpunkt der Erledigung, nur bei Status done
}

// Completed is the legacy boolean view of Status.
func (t Todo) Completed() bool {
	return t.Status == StatusDone
}

// wireTodo ist die JSON-Darstellung einer ToDo
type wireTodo struct {
	Owner        string   `json:"user"`
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Note         string   `json:"note"`
	Tags         []string `json:"tags"`
	Priority     Priority `json:"priority"`
	Status       Status   `json:"status"`
	DueAt        *string  `json:"dueAt"`
	EstimatedMin int64    `json:"estimatedMin"`
	Order        int64    `json:"order"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
	CompletedAt  *string  `json:"completedAt"`
	Completed    bool     `json:"completed"`
}

func (t Todo) MarshalJSON() ([]byte, error) {
	tags := t.Tags
	if tags == nil {
		tags = []string{} // -> nie null auf dem Draht
	}
	return json.Marshal(wireTodo{
		Owner:        t.Owner,
		ID:           t.ID,
		Title:        t.Title,
		Note:         t.Note,
		Tags:         tags,
		Priority:     t.Priority,
		Status:       t.Status,
		DueAt:        formatOptional(t.DueAt),
		EstimatedMin: t.EstimatedMin,
		Order:        t.Order,
		CreatedAt:    FormatTime(t.CreatedAt),
		UpdatedAt:    FormatTime(t.UpdatedAt),
		CompletedAt:  formatOptional(t.CompletedAt),
		Completed:    t.Completed(),
	})
}

// Raw returns the untyped form of the record, as it would be read back from
// storage. Feeding it to the reconciler yields the same record again.
func (t Todo) Raw() RawRecord {
	tags := make([]any, 0, len(t.Tags))
	for _, tag := range t.Tags {
		tags = append(tags, tag)
	}

	raw := RawRecord{
		"user":         t.Owner,
		"id":           t.ID,
		"title":        t.Title,
		"note":         t.Note,
		"tags":         tags,
		"priority":     string(t.Priority),
		"status":       string(t.Status),
		"dueAt":        nil,
		"estimatedMin": t.EstimatedMin,
		"order":        t.Order,
		"createdAt":    FormatTime(t.CreatedAt),
		"updatedAt":    FormatTime(t.UpdatedAt),
		"completedAt":  nil,
		"completed":    t.Completed(),
	}
	if t.DueAt != nil {
		raw["dueAt"] = FormatTime(*t.DueAt)
	}
	if t.CompletedAt != nil {
		raw["completedAt"] = FormatTime(*t.CompletedAt)
	}
	return raw
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTime(*t)
	return &s
}
