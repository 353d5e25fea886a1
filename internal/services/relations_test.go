package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// failingLinkStore lets the thought insert succeed and fails the link step.
type failingLinkStore struct {
	*repo.SQLStore
	err error
}

func (s failingLinkStore) LinkThought(context.Context, string, string) error { return s.err }

func TestRelations_CreateThought_LinksAuthor(t *testing.T) {
	st := newStore(t)
	rel := NewRelations(st)
	ctx := context.Background()

	u := &domain.User{Username: "ann", Email: "ann@example.com"}
	require.NoError(t, st.CreateUser(ctx, u))

	th, err := rel.CreateThought(ctx, domain.CreateThoughtInput{ThoughtText: "hello", Username: "ann", UserID: u.ID})
	require.NoError(t, err)

	got, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{th.ID}, got.ThoughtIDs)
}

func TestRelations_CreateThought_UppercaseUserID(t *testing.T) {
	st := newStore(t)
	rel := NewRelations(st)
	ctx := context.Background()

	u := &domain.User{Username: "ann", Email: "ann@example.com"}
	require.NoError(t, st.CreateUser(ctx, u))

	th, err := rel.CreateThought(ctx, domain.CreateThoughtInput{ThoughtText: "hello", Username: "ann", UserID: strings.ToUpper(u.ID)})
	require.NoError(t, err)

	got, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{th.ID}, got.ThoughtIDs)
}

func TestRelations_CreateThought_MissingAuthorIsPartialFailure(t *testing.T) {
	st := newStore(t)
	rel := NewRelations(st)
	before := testutil.ToFloat64(relationPartialFailures.WithLabelValues(OpCreateThought))

	missing := domain.NewID()
	th, err := rel.CreateThought(context.Background(), domain.CreateThoughtInput{ThoughtText: "orphan", Username: "nobody", UserID: missing})

	var pf *PartialFailureError
	require.ErrorAs(t, err, &pf)
	require.NotNil(t, th)
	assert.Equal(t, StepLinkUser, pf.Step)
	assert.Equal(t, th.ID, pf.ThoughtID)
	assert.Equal(t, missing, pf.UserID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.Equal(t, before+1, testutil.ToFloat64(relationPartialFailures.WithLabelValues(OpCreateThought)))

	// The thought from step one stays persisted.
	_, err = st.GetThought(context.Background(), th.ID)
	require.NoError(t, err)
}

func TestRelations_CreateThought_LinkErrorIsPartialFailure(t *testing.T) {
	st := newStore(t)
	boom := errors.New("link down")
	rel := NewRelations(failingLinkStore{SQLStore: st, err: boom})

	th, err := rel.CreateThought(context.Background(), domain.CreateThoughtInput{ThoughtText: "hi", Username: "ann", UserID: domain.NewID()})
	require.NotNil(t, th)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "link-user")
}

func TestRelations_CreateThought_InvalidInputWritesNothing(t *testing.T) {
	st := newStore(t)
	rel := NewRelations(st)

	th, err := rel.CreateThought(context.Background(), domain.CreateThoughtInput{ThoughtText: "", Username: "ann", UserID: domain.NewID()})
	assert.Nil(t, th)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)

	all, err := st.ListThoughts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestNotFoundAndUniqueViolation(t *testing.T) {
	assert.Equal(t, ErrUserNotFound, notFound(repo.ErrNotFound, ErrUserNotFound))
	other := errors.New("x")
	assert.Equal(t, other, notFound(other, ErrUserNotFound))

	err := uniqueViolation(&repo.DuplicateError{})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "unique", ve.Fields[0].Rule)
	assert.Equal(t, other, uniqueViolation(other))
}
