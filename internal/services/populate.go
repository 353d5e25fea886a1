package services

import (
	"context"

	"github.com/tbourn/go-social-backend/internal/domain"
)

type populateStore interface {
	FindUsers(ctx context.Context, ids []string) ([]domain.User, error)
	FindThoughts(ctx context.Context, ids []string) ([]domain.Thought, error)
}

// populate resolves the thought and friend ids of users with one lookup per
// collection. Resolved lists follow id-list order; dangling ids are skipped.
func populate(ctx context.Context, st populateStore, users []domain.User) ([]domain.PopulatedUser, error) {
	var thoughtIDs, friendIDs []string
	for _, u := range users {
		thoughtIDs = append(thoughtIDs, u.ThoughtIDs...)
		friendIDs = append(friendIDs, u.FriendIDs...)
	}

	thoughts, err := st.FindThoughts(ctx, dedup(thoughtIDs))
	if err != nil {
		return nil, err
	}
	friends, err := st.FindUsers(ctx, dedup(friendIDs))
	if err != nil {
		return nil, err
	}

	thoughtByID := make(map[string]domain.Thought, len(thoughts))
	for _, t := range thoughts {
		thoughtByID[t.ID] = t
	}
	friendByID := make(map[string]domain.User, len(friends))
	for _, f := range friends {
		friendByID[f.ID] = f
	}

	out := make([]domain.PopulatedUser, len(users))
	for i, u := range users {
		p := domain.PopulatedUser{
			User:     u,
			Thoughts: make([]domain.Thought, 0, len(u.ThoughtIDs)),
			Friends:  make([]domain.User, 0, len(u.FriendIDs)),
		}
		for _, id := range u.ThoughtIDs {
			if t, ok := thoughtByID[id]; ok {
				p.Thoughts = append(p.Thoughts, t)
			}
		}
		for _, id := range u.FriendIDs {
			if f, ok := friendByID[id]; ok {
				p.Friends = append(p.Friends, f)
			}
		}
		out[i] = p
	}
	return out, nil
}

func dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
