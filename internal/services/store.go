package services

import (
	"context"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// UserStore is the persistence contract required by UserService.
type UserStore interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	FindUsers(ctx context.Context, ids []string) ([]domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, id string, p domain.UserPatch) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) (*domain.User, error)
	FindThoughts(ctx context.Context, ids []string) ([]domain.Thought, error)
}

// ThoughtStore is the persistence contract required by ThoughtService.
type ThoughtStore interface {
	ListThoughts(ctx context.Context) ([]domain.Thought, error)
	GetThought(ctx context.Context, id string) (*domain.Thought, error)
	UpdateThought(ctx context.Context, id string, p domain.ThoughtPatch) (*domain.Thought, error)
	DeleteThought(ctx context.Context, id string) (*domain.Thought, error)
	AddReaction(ctx context.Context, thoughtID string, r domain.Reaction) (*domain.Thought, error)
	RemoveReaction(ctx context.Context, thoughtID, reactionID string) (*domain.Thought, error)
}

// RelationStore is the persistence contract required by Relations: every
// write that touches more than one document goes through it.
type RelationStore interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	CreateThought(ctx context.Context, t *domain.Thought) error
	LinkThought(ctx context.Context, userID, thoughtID string) error
	AddFriend(ctx context.Context, userID, friendID string) (*domain.User, error)
	RemoveFriend(ctx context.Context, userID, friendID string) (*domain.User, error)
}
