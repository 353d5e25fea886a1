// Package services – Relations
//
// Relations is the only code path that writes across documents: creating a
// thought and linking it to its author, and maintaining friend lists. The
// stores offer no cross-document transactions, so a thought create is two
// steps with no rollback. When linking fails the created thought is still
// returned, paired with a *PartialFailureError, logged and counted.
package services

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-social-backend/internal/domain"
)

var relationPartialFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "social_relation_partial_failures_total",
		Help: "Multi-step writes whose first step committed and a later step failed.",
	},
	[]string{"op"},
)

func init() {
	prometheus.MustRegister(relationPartialFailures)
}

// Relations maintains references between users and thoughts.
type Relations struct {
	Store RelationStore
}

// NewRelations constructs the relationship-maintenance module.
func NewRelations(st RelationStore) *Relations {
	return &Relations{Store: st}
}

// CreateThought validates in, persists the thought, then appends its id to
// the author's thought list. A missing author surfaces as a partial failure.
func (r *Relations) CreateThought(ctx context.Context, in domain.CreateThoughtInput) (*domain.Thought, error) {
	ctx, span := otel.Tracer("services/Relations").Start(ctx, "CreateThought",
		trace.WithAttributes(attribute.String("user.id", in.UserID)),
	)
	defer span.End()

	if err := in.Normalize(); err != nil {
		return nil, err
	}
	t := in.NewThought()
	if err := r.Store.CreateThought(ctx, t); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("thought.id", t.ID))

	if err := r.Store.LinkThought(ctx, in.UserID, t.ID); err != nil {
		pf := &PartialFailureError{
			Op:        OpCreateThought,
			Step:      StepLinkUser,
			ThoughtID: t.ID,
			UserID:    in.UserID,
			Err:       err,
		}
		relationPartialFailures.WithLabelValues(OpCreateThought).Inc()
		span.RecordError(pf)
		span.SetStatus(codes.Error, "partial failure")
		logger(ctx).Warn().Err(err).
			Str("thought_id", t.ID).
			Str("user_id", in.UserID).
			Msg("thought created but not linked to user")
		return t, pf
	}
	return t, nil
}

// AddFriend appends friendID to userID's friend list. The relation is
// one-directional and deduplicated.
func (r *Relations) AddFriend(ctx context.Context, userID, friendID string) (*domain.User, error) {
	userID, friendID = domain.CanonicalID(userID), domain.CanonicalID(friendID)
	ctx, span := otel.Tracer("services/Relations").Start(ctx, "AddFriend",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("friend.id", friendID),
		),
	)
	defer span.End()

	if userID == friendID {
		return nil, domain.Invalid("friendId", "self", "a user cannot befriend themselves")
	}
	if _, err := r.Store.GetUser(ctx, userID); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	if _, err := r.Store.GetUser(ctx, friendID); err != nil {
		return nil, notFound(err, ErrFriendNotFound)
	}
	u, err := r.Store.AddFriend(ctx, userID, friendID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

// RemoveFriend drops friendID from userID's friend list. Removing an id that
// is not present succeeds.
func (r *Relations) RemoveFriend(ctx context.Context, userID, friendID string) (*domain.User, error) {
	userID, friendID = domain.CanonicalID(userID), domain.CanonicalID(friendID)
	ctx, span := otel.Tracer("services/Relations").Start(ctx, "RemoveFriend",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("friend.id", friendID),
		),
	)
	defer span.End()

	u, err := r.Store.RemoveFriend(ctx, userID, friendID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

// logger returns the request-scoped logger when one is attached to ctx,
// otherwise the global logger.
func logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
