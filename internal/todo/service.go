package todo

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Paul-frank/todo-tracker-api/internal/models"
)

// Store is the persistence the operations run against. Records are keyed by
// (owner, id); PutWhole replaces the record and DeleteByKey succeeds for
// missing keys.
type Store interface {
	GetAllByOwner(ctx context.Context, owner string) ([]models.RawRecord, error)
	GetByKey(ctx context.Context, owner, id string) (models.RawRecord, bool, error)
	PutWhole(ctx context.Context, t models.Todo) error
	DeleteByKey(ctx context.Context, owner, id string) error
}

// Service implements the list, create, update and delete operations. It holds
// no state between calls.
type Service struct {
	store  Store
	now    func() time.Time
	tracer trace.Tracer
}

type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTracer replaces the tracer taken from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) { s.tracer = tracer }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		now:    time.Now,
		tracer: otel.Tracer("github.com/Paul-frank/todo-tracker-api/internal/todo"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return models.Millis(s.now())
}

// List returns the owner's todos filtered and sorted by params.
func (s *Service) List(ctx context.Context, owner string, params url.Values) (_ []models.Todo, err error) {
	ctx, span := s.start(ctx, "todo.List", owner)
	defer func() { finish(span, err) }()

	// Filter zuerst prüfen -> keine Teilergebnisse
	query, err := ParseQuery(params)
	if err != nil {
		return nil, err
	}

	records, err := s.store.GetAllByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}

	now := s.clock()
	todos := make([]models.Todo, 0, len(records))
	for _, raw := range records {
		t, err := Reconcile(raw, now)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}

	result := query.Apply(todos, now)
	span.SetAttributes(attribute.Int("todo.count", len(result)))
	return result, nil
}

// Create validates body and stores a new todo for owner. Only title is
// required; id, owner and timestamps are always assigned here.
func (s *Service) Create(ctx context.Context, owner string, body models.RawRecord) (_ models.Todo, err error) {
	ctx, span := s.start(ctx, "todo.Create", owner)
	defer func() { finish(span, err) }()

	now := s.clock()

	title, err := ParseTitle(body.Field("title"), "")
	if err != nil {
		return models.Todo{}, err
	}
	status, err := resolveStatus(body, models.StatusTodo)
	if err != nil {
		return models.Todo{}, err
	}
	note, err := ParseNote(body.Field("note"), "")
	if err != nil {
		return models.Todo{}, err
	}
	tags, err := ParseTags(body.Field("tags"), []string{})
	if err != nil {
		return models.Todo{}, err
	}
	priority, err := ParsePriority(body.Field("priority"), models.PriorityMedium)
	if err != nil {
		return models.Todo{}, err
	}
	dueAt, err := ParseDueAt(body.Field("dueAt"), nil)
	if err != nil {
		return models.Todo{}, err
	}
	estimatedMin, err := ParseNonNegative(body.Field("estimatedMin"), 0, "estimatedMin")
	if err != nil {
		return models.Todo{}, err
	}
	order, err := ParseNonNegative(body.Field("order"), now.UnixMilli(), "order")
	if err != nil {
		return models.Todo{}, err
	}

	t := models.Todo{
		Owner:        owner,
		ID:           NewID(now),
		Title:        title,
		Note:         note,
		Tags:         tags,
		Priority:     priority,
		Status:       status,
		DueAt:        dueAt,
		EstimatedMin: estimatedMin,
		Order:        order,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if status == models.StatusDone {
		t.CompletedAt = &now
	}

	t, err = ReconcileTodo(t, now)
	if err != nil {
		return models.Todo{}, err
	}

	if err := s.store.PutWhole(ctx, t); err != nil {
		return models.Todo{}, fmt.Errorf("create todo: %w", err)
	}
	return t, nil
}

// Update applies patch to the stored todo field by field. Fields missing from
// patch keep their current value; updatedAt is always refreshed.
func (s *Service) Update(ctx context.Context, owner, id string, patch models.RawRecord) (_ models.Todo, err error) {
	ctx, span := s.start(ctx, "todo.Update", owner)
	span.SetAttributes(attribute.String("todo.id", id))
	defer func() { finish(span, err) }()

	raw, found, err := s.store.GetByKey(ctx, owner, id)
	if err != nil {
		return models.Todo{}, fmt.Errorf("get todo %s: %w", id, err)
	}
	if !found {
		return models.Todo{}, ErrNotFound
	}

	// Schlüssel kommt vom Aufrufer, nie aus dem gespeicherten Dokument
	raw = maps.Clone(raw)
	if raw == nil {
		raw = models.RawRecord{}
	}
	raw["user"] = owner
	raw["id"] = id

	now := s.clock()
	base, err := Reconcile(raw, now)
	if err != nil {
		return models.Todo{}, err
	}

	next, err := ApplyPatch(base, patch, now)
	if err != nil {
		return models.Todo{}, err
	}

	next, err = ReconcileTodo(next, now)
	if err != nil {
		return models.Todo{}, err
	}

	if err := s.store.PutWhole(ctx, next); err != nil {
		return models.Todo{}, fmt.Errorf("update todo %s: %w", id, err)
	}
	return next, nil
}

// ApplyPatch merges patch into base using each field's normalizer with the
// base value as fallback. base is not modified.
func ApplyPatch(base models.Todo, patch models.RawRecord, now time.Time) (models.Todo, error) {
	next := base
	var err error

	if next.Title, err = ParseTitle(patch.Field("title"), base.Title); err != nil {
		return models.Todo{}, err
	}
	if next.Note, err = ParseNote(patch.Field("note"), base.Note); err != nil {
		return models.Todo{}, err
	}
	if next.Tags, err = ParseTags(patch.Field("tags"), base.Tags); err != nil {
		return models.Todo{}, err
	}
	if next.Priority, err = ParsePriority(patch.Field("priority"), base.Priority); err != nil {
		return models.Todo{}, err
	}
	if next.DueAt, err = ParseDueAt(patch.Field("dueAt"), base.DueAt); err != nil {
		return models.Todo{}, err
	}
	if next.EstimatedMin, err = ParseNonNegative(patch.Field("estimatedMin"), base.EstimatedMin, "estimatedMin"); err != nil {
		return models.Todo{}, err
	}
	if next.Order, err = ParseNonNegative(patch.Field("order"), base.Order, "order"); err != nil {
		return models.Todo{}, err
	}
	if next.Status, err = resolveStatus(patch, base.Status); err != nil {
		return models.Todo{}, err
	}
	next.UpdatedAt = now

	// completedAt: bleibt bei bereits erledigten ToDos, sonst jetzt bzw. leer
	switch {
	case next.Status != models.StatusDone:
		next.CompletedAt = nil
	case base.Status == models.StatusDone && base.CompletedAt != nil:
		completedAt := *base.CompletedAt
		next.CompletedAt = &completedAt
	default:
		next.CompletedAt = &now
	}
	return next, nil
}

// Delete removes the todo without checking that it exists.
func (s *Service) Delete(ctx context.Context, owner, id string) (_ string, err error) {
	ctx, span := s.start(ctx, "todo.Delete", owner)
	span.SetAttributes(attribute.String("todo.id", id))
	defer func() { finish(span, err) }()

	if err := s.store.DeleteByKey(ctx, owner, id); err != nil {
		return "", fmt.Errorf("delete todo %s: %w", id, err)
	}
	return id, nil
}

func (s *Service) start(ctx context.Context, name, owner string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("todo.owner", owner)))
}

// finish records err on span. Validation and not-found outcomes are client
// errors and leave the span status unset.
func finish(span trace.Span, err error) {
	if err != nil && !IsValidation(err) && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
