// Package services – UserService
//
// UserService owns the user lifecycle. Reads return populated users: the
// thought and friend id lists are resolved into entities, skipping ids that
// no longer resolve. Friend mutations are delegated to Relations.
package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// UserService provides user CRUD and friend management.
type UserService struct {
	Store     UserStore
	Relations *Relations
}

// NewUserService wires a UserService.
func NewUserService(st UserStore, rel *Relations) *UserService {
	return &UserService{Store: st, Relations: rel}
}

// List returns every user, populated.
func (s *UserService) List(ctx context.Context) ([]domain.PopulatedUser, error) {
	ctx, span := otel.Tracer("services/UserService").Start(ctx, "List")
	defer span.End()

	users, err := s.Store.ListUsers(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	out, err := populate(ctx, s.Store, users)
	span.SetAttributes(attribute.Int("users.count", len(out)))
	return out, err
}

// Get returns one populated user.
func (s *UserService) Get(ctx context.Context, id string) (*domain.PopulatedUser, error) {
	id = domain.CanonicalID(id)
	ctx, span := otel.Tracer("services/UserService").Start(ctx, "Get",
		trace.WithAttributes(attribute.String("user.id", id)),
	)
	defer span.End()

	u, err := s.Store.GetUser(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return s.populateOne(ctx, u)
}

// Create validates in and stores a new user. Taken usernames or emails come
// back as a ValidationError on that field.
func (s *UserService) Create(ctx context.Context, in domain.CreateUserInput) (*domain.User, error) {
	ctx, span := otel.Tracer("services/UserService").Start(ctx, "Create")
	defer span.End()

	if err := in.Normalize(); err != nil {
		return nil, err
	}
	u := in.NewUser()
	if err := s.Store.CreateUser(ctx, u); err != nil {
		return nil, uniqueViolation(err)
	}
	return u, nil
}

// Update applies the present fields of p and returns the stored user.
func (s *UserService) Update(ctx context.Context, id string, p domain.UserPatch) (*domain.User, error) {
	id = domain.CanonicalID(id)
	ctx, span := otel.Tracer("services/UserService").Start(ctx, "Update",
		trace.WithAttributes(attribute.String("user.id", id)),
	)
	defer span.End()

	if err := p.Normalize(); err != nil {
		return nil, err
	}
	u, err := s.Store.UpdateUser(ctx, id, p)
	if err != nil {
		return nil, uniqueViolation(notFound(err, ErrUserNotFound))
	}
	return u, nil
}

// Delete removes the user and returns it. Thoughts the user authored and
// ids held in other users' friend lists are left in place.
func (s *UserService) Delete(ctx context.Context, id string) (*domain.User, error) {
	id = domain.CanonicalID(id)
	ctx, span := otel.Tracer("services/UserService").Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("user.id", id)),
	)
	defer span.End()

	u, err := s.Store.DeleteUser(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

// AddFriend befriends friendID and returns the populated user.
func (s *UserService) AddFriend(ctx context.Context, id, friendID string) (*domain.PopulatedUser, error) {
	u, err := s.Relations.AddFriend(ctx, id, friendID)
	if err != nil {
		return nil, err
	}
	return s.populateOne(ctx, u)
}

// RemoveFriend unfriends friendID and returns the populated user.
func (s *UserService) RemoveFriend(ctx context.Context, id, friendID string) (*domain.PopulatedUser, error) {
	u, err := s.Relations.RemoveFriend(ctx, id, friendID)
	if err != nil {
		return nil, err
	}
	return s.populateOne(ctx, u)
}

func (s *UserService) populateOne(ctx context.Context, u *domain.User) (*domain.PopulatedUser, error) {
	out, err := populate(ctx, s.Store, []domain.User{*u})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}
