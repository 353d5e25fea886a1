// Package handlers exposes the REST endpoints for users, thoughts,
// reactions and friends. Handlers are transport-thin: they bind JSON, call
// a service and translate the result, including errors, into a response.
package handlers

import (
	"context"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// UserService defines the user operations consumed by the handlers.
type UserService interface {
	List(ctx context.Context) ([]domain.PopulatedUser, error)
	Get(ctx context.Context, id string) (*domain.PopulatedUser, error)
	Create(ctx context.Context, in domain.CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, id string, p domain.UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id string) (*domain.User, error)
	AddFriend(ctx context.Context, id, friendID string) (*domain.PopulatedUser, error)
	RemoveFriend(ctx context.Context, id, friendID string) (*domain.PopulatedUser, error)
}

// ThoughtService defines the thought and reaction operations consumed by
// the handlers.
type ThoughtService interface {
	List(ctx context.Context) ([]domain.Thought, error)
	Get(ctx context.Context, id string) (*domain.Thought, error)
	Create(ctx context.Context, in domain.CreateThoughtInput) (*domain.Thought, error)
	Update(ctx context.Context, id string, p domain.ThoughtPatch) (*domain.Thought, error)
	Delete(ctx context.Context, id string) (*domain.Thought, error)
	AddReaction(ctx context.Context, thoughtID string, in domain.ReactionInput) (*domain.Thought, error)
	RemoveReaction(ctx context.Context, thoughtID, reactionID string) (*domain.Thought, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups the HTTP endpoints. It depends on service interfaces only.
type Handlers struct {
	users    UserService
	thoughts ThoughtService
	store    Pinger
}

// New constructs a Handlers bound to the given services.
func New(users UserService, thoughts ThoughtService, store Pinger) *Handlers {
	return &Handlers{users: users, thoughts: thoughts, store: store}
}
