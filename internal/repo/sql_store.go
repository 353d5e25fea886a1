// This file implements Store on top of GORM. The user's ordered id lists
// live in link tables keyed by an auto-increment sequence; deleting a user
// or thought only removes rows the deleted record owns, so ids held by
// other users are left dangling exactly as in the document store.
package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// userThought is one entry of a user's thought list.
type userThought struct {
	Seq       uint64 `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"type:char(24);not null;uniqueIndex:ux_user_thought,priority:1"`
	ThoughtID string `gorm:"type:char(24);not null;uniqueIndex:ux_user_thought,priority:2"`
}

func (userThought) TableName() string { return "user_thoughts" }

// userFriend is one entry of a user's friend list.
type userFriend struct {
	Seq      uint64 `gorm:"primaryKey;autoIncrement"`
	UserID   string `gorm:"type:char(24);not null;uniqueIndex:ux_user_friend,priority:1"`
	FriendID string `gorm:"type:char(24);not null;uniqueIndex:ux_user_friend,priority:2"`
}

func (userFriend) TableName() string { return "user_friends" }

// SQLStore is the relational Store.
type SQLStore struct {
	DB *gorm.DB
}

// NewSQLStore wraps an open, migrated GORM handle.
func NewSQLStore(db *gorm.DB) *SQLStore { return &SQLStore{DB: db} }

var _ Store = (*SQLStore)(nil)

// ---- users ----

// ListUsers returns every user with its id lists, ordered by id (creation order).
func (s *SQLStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	db := s.DB.WithContext(ctx)
	var users []domain.User
	if err := db.Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, attachLists(db, users)
}

// GetUser fetches one user or ErrNotFound.
func (s *SQLStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return loadUser(s.DB.WithContext(ctx), id)
}

// FindUsers returns the users whose ids are listed; unknown ids are skipped.
func (s *SQLStore) FindUsers(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	db := s.DB.WithContext(ctx)
	var users []domain.User
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, attachLists(db, users)
}

// CreateUser inserts u, assigning its id.
func (s *SQLStore) CreateUser(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = domain.NewID()
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		return mapWriteErr(err)
	}
	u.ThoughtIDs, u.FriendIDs = []string{}, []string{}
	return nil
}

// UpdateUser applies the non-nil patch fields and returns the stored result.
func (s *SQLStore) UpdateUser(ctx context.Context, id string, p domain.UserPatch) (*domain.User, error) {
	var out *domain.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadUser(tx, id); err != nil {
			return err
		}
		updates := map[string]any{}
		if p.Username != nil {
			updates["username"] = *p.Username
		}
		if p.Email != nil {
			updates["email"] = *p.Email
		}
		if len(updates) > 0 {
			if err := tx.Model(&domain.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return mapWriteErr(err)
			}
		}
		u, err := loadUser(tx, id)
		out = u
		return err
	})
	return out, err
}

// DeleteUser removes the user and its own lists, returning what was removed.
func (s *SQLStore) DeleteUser(ctx context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := loadUser(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&userThought{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&userFriend{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.User{}, "id = ?", id).Error; err != nil {
			return err
		}
		out = u
		return nil
	})
	return out, err
}

// AddFriend appends friendID to the user's friend list unless present.
func (s *SQLStore) AddFriend(ctx context.Context, userID, friendID string) (*domain.User, error) {
	var out *domain.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadUser(tx, userID); err != nil {
			return err
		}
		link := &userFriend{UserID: userID, FriendID: friendID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(link).Error; err != nil {
			return err
		}
		u, err := loadUser(tx, userID)
		out = u
		return err
	})
	return out, err
}

// RemoveFriend drops friendID from the user's friend list if present.
func (s *SQLStore) RemoveFriend(ctx context.Context, userID, friendID string) (*domain.User, error) {
	var out *domain.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadUser(tx, userID); err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND friend_id = ?", userID, friendID).Delete(&userFriend{}).Error; err != nil {
			return err
		}
		u, err := loadUser(tx, userID)
		out = u
		return err
	})
	return out, err
}

// LinkThought appends thoughtID to the user's thought list. Linking the
// same pair twice is a no-op. Returns ErrNotFound if the user is missing.
func (s *SQLStore) LinkThought(ctx context.Context, userID, thoughtID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		link := &userThought{UserID: userID, ThoughtID: thoughtID}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(link).Error
	})
}

func loadUser(db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	one := []domain.User{u}
	if err := attachLists(db, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// attachLists fills ThoughtIDs and FriendIDs for users in two queries.
func attachLists(db *gorm.DB, users []domain.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]string, len(users))
	pos := make(map[string]int, len(users))
	for i := range users {
		ids[i] = users[i].ID
		pos[users[i].ID] = i
		users[i].ThoughtIDs = []string{}
		users[i].FriendIDs = []string{}
	}

	var thoughts []userThought
	if err := db.Where("user_id IN ?", ids).Order("seq").Find(&thoughts).Error; err != nil {
		return err
	}
	for _, l := range thoughts {
		i := pos[l.UserID]
		users[i].ThoughtIDs = append(users[i].ThoughtIDs, l.ThoughtID)
	}

	var friends []userFriend
	if err := db.Where("user_id IN ?", ids).Order("seq").Find(&friends).Error; err != nil {
		return err
	}
	for _, l := range friends {
		i := pos[l.UserID]
		users[i].FriendIDs = append(users[i].FriendIDs, l.FriendID)
	}
	return nil
}

// ---- thoughts ----

func withReactions(db *gorm.DB) *gorm.DB {
	return db.Preload("Reactions", func(tx *gorm.DB) *gorm.DB { return tx.Order("seq ASC") })
}

// ListThoughts returns all thoughts with their reactions.
func (s *SQLStore) ListThoughts(ctx context.Context) ([]domain.Thought, error) {
	var out []domain.Thought
	err := withReactions(s.DB.WithContext(ctx)).Order("id").Find(&out).Error
	return out, err
}

// GetThought fetches one thought or ErrNotFound.
func (s *SQLStore) GetThought(ctx context.Context, id string) (*domain.Thought, error) {
	return loadThought(s.DB.WithContext(ctx), id)
}

// FindThoughts returns the thoughts whose ids are listed; unknown ids are skipped.
func (s *SQLStore) FindThoughts(ctx context.Context, ids []string) ([]domain.Thought, error) {
	if len(ids) == 0 {
		return []domain.Thought{}, nil
	}
	var out []domain.Thought
	err := withReactions(s.DB.WithContext(ctx)).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

// CreateThought inserts t (and any reactions it carries), assigning its id.
func (s *SQLStore) CreateThought(ctx context.Context, t *domain.Thought) error {
	if t.ID == "" {
		t.ID = domain.NewID()
	}
	for i := range t.Reactions {
		t.Reactions[i].ThoughtID = t.ID
	}
	return mapWriteErr(s.DB.WithContext(ctx).Create(t).Error)
}

// UpdateThought applies the non-nil patch fields and returns the stored result.
func (s *SQLStore) UpdateThought(ctx context.Context, id string, p domain.ThoughtPatch) (*domain.Thought, error) {
	var out *domain.Thought
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := thoughtExists(tx, id); err != nil {
			return err
		}
		updates := map[string]any{}
		if p.ThoughtText != nil {
			updates["thought_text"] = *p.ThoughtText
		}
		if p.Username != nil {
			updates["username"] = *p.Username
		}
		if len(updates) > 0 {
			if err := tx.Model(&domain.Thought{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		t, err := loadThought(tx, id)
		out = t
		return err
	})
	return out, err
}

// DeleteThought removes the thought and its reactions. Ids in user thought
// lists are not touched.
func (s *SQLStore) DeleteThought(ctx context.Context, id string) (*domain.Thought, error) {
	var out *domain.Thought
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := loadThought(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("thought_id = ?", id).Delete(&domain.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.Thought{}, "id = ?", id).Error; err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

// AddReaction appends r to the thought and returns the updated thought.
func (s *SQLStore) AddReaction(ctx context.Context, thoughtID string, r domain.Reaction) (*domain.Thought, error) {
	var out *domain.Thought
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := thoughtExists(tx, thoughtID); err != nil {
			return err
		}
		r.Seq = 0
		r.ThoughtID = thoughtID
		if err := tx.Create(&r).Error; err != nil {
			return err
		}
		t, err := loadThought(tx, thoughtID)
		out = t
		return err
	})
	return out, err
}

// RemoveReaction deletes reactions with the given reactionId from the
// thought. Nothing matching is not an error.
func (s *SQLStore) RemoveReaction(ctx context.Context, thoughtID, reactionID string) (*domain.Thought, error) {
	var out *domain.Thought
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := thoughtExists(tx, thoughtID); err != nil {
			return err
		}
		err := tx.Where("thought_id = ? AND reaction_id = ?", thoughtID, reactionID).
			Delete(&domain.Reaction{}).Error
		if err != nil {
			return err
		}
		t, err := loadThought(tx, thoughtID)
		out = t
		return err
	})
	return out, err
}

func loadThought(db *gorm.DB, id string) (*domain.Thought, error) {
	var t domain.Thought
	if err := withReactions(db).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func thoughtExists(db *gorm.DB, id string) error {
	var n int64
	if err := db.Model(&domain.Thought{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- lifecycle ----

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *SQLStore) Close(context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// mapWriteErr turns unique violations into *DuplicateError. glebarez/sqlite
// and pgx report them as plain-text errors, so the message is inspected.
func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	low := strings.ToLower(err.Error())
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(low, "unique constraint") ||
		strings.Contains(low, "duplicate key") {
		return &DuplicateError{Field: duplicateField(err.Error()), Err: err}
	}
	return err
}
