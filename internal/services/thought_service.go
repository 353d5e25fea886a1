// Package services – ThoughtService
//
// ThoughtService owns thoughts and their embedded reactions. Creation goes
// through Relations so the author's thought list is maintained; everything
// else touches only the thought itself.
package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// ThoughtService provides thought CRUD and reaction management.
type ThoughtService struct {
	Store     ThoughtStore
	Relations *Relations
}

// NewThoughtService wires a ThoughtService.
func NewThoughtService(st ThoughtStore, rel *Relations) *ThoughtService {
	return &ThoughtService{Store: st, Relations: rel}
}

// List returns every thought with its reactions.
func (s *ThoughtService) List(ctx context.Context) ([]domain.Thought, error) {
	ctx, span := otel.Tracer("services/ThoughtService").Start(ctx, "List")
	defer span.End()

	ts, err := s.Store.ListThoughts(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if ts == nil {
		ts = []domain.Thought{}
	}
	return ts, nil
}

// Get returns one thought.
func (s *ThoughtService) Get(ctx context.Context, id string) (*domain.Thought, error) {
	id = domain.CanonicalID(id)
	ctx, span := otel.Tracer("services/ThoughtService").Start(ctx, "Get",
		trace.WithAttributes(attribute.String("thought.id", id)),
	)
	defer span.End()

	t, err := s.Store.GetThought(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrThoughtNotFound)
	}
	return t, nil
}

// Create stores a thought and links it to its author. See
// Relations.CreateThought for the partial-failure contract.
func (s *ThoughtService) Create(ctx context.Context, in domain.CreateThoughtInput) (*domain.Thought, error) {
	return s.Relations.CreateThought(ctx, in)
}

// Update applies the present fields of p and returns the stored thought.
func (s *ThoughtService) Update(ctx context.Context, id string, p domain.ThoughtPatch) (*domain.Thought, error) {
	id = domain.CanonicalID(id)
	ctx, span := otel.Tracer("services/ThoughtService").Start(ctx, "Update",
		trace.WithAttributes(attribute.String("thought.id", id)),
	)
	defer span.End()

	if err := p.Normalize(); err != nil {
		return nil, err
	}
	t, err := s.Store.UpdateThought(ctx, id, p)
	if err != nil {
		return nil, notFound(err, ErrThoughtNotFound)
	}
	return t, nil
}

// Delete removes the thought and returns it. The id stays in its author's
// thought list.
func (s *ThoughtService) Delete(ctx context.Context, id string) (*domain.Thought, error) {
	id = domain.CanonicalID(id)
	ctx, span := otel.Tracer("services/ThoughtService").Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("thought.id", id)),
	)
	defer span.End()

	t, err := s.Store.DeleteThought(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrThoughtNotFound)
	}
	return t, nil
}

// AddReaction validates in and appends it to the thought, returning the
// whole updated thought.
func (s *ThoughtService) AddReaction(ctx context.Context, thoughtID string, in domain.ReactionInput) (*domain.Thought, error) {
	thoughtID = domain.CanonicalID(thoughtID)
	ctx, span := otel.Tracer("services/ThoughtService").Start(ctx, "AddReaction",
		trace.WithAttributes(attribute.String("thought.id", thoughtID)),
	)
	defer span.End()

	if err := in.Normalize(); err != nil {
		return nil, err
	}
	t, err := s.Store.AddReaction(ctx, thoughtID, in.NewReaction())
	if err != nil {
		return nil, notFound(err, ErrThoughtNotFound)
	}
	return t, nil
}

// RemoveReaction pulls every reaction with reactionID from the thought.
// An unknown reactionID is not an error.
func (s *ThoughtService) RemoveReaction(ctx context.Context, thoughtID, reactionID string) (*domain.Thought, error) {
	thoughtID, reactionID = domain.CanonicalID(thoughtID), domain.CanonicalID(reactionID)
	ctx, span := otel.Tracer("services/ThoughtService").Start(ctx, "RemoveReaction",
		trace.WithAttributes(
			attribute.String("thought.id", thoughtID),
			attribute.String("reaction.id", reactionID),
		),
	)
	defer span.End()

	t, err := s.Store.RemoveReaction(ctx, thoughtID, reactionID)
	if err != nil {
		return nil, notFound(err, ErrThoughtNotFound)
	}
	return t, nil
}
