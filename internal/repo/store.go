// Package repo implements the persistence layer for users and thoughts.
//
// Two backends satisfy the same Store contract:
//
//   - MongoStore keeps users and thoughts as documents, with reactions
//     embedded in the thought and id lists embedded in the user.
//   - SQLStore keeps the same shapes in relational tables through GORM
//     (SQLite or Postgres), with ordered link tables for the id lists.
//
// Error semantics (both backends):
//   - ErrNotFound when a referenced id does not exist or is malformed.
//   - *DuplicateError (matching ErrDuplicate) on unique-key violations.
//   - raw driver errors for everything else.
//
// Stores are plain CRUD: they do not validate input and never maintain
// references across documents on their own. That belongs to the services.
package repo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/config"
	"github.com/tbourn/go-social-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound so GORM errors need no translation.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique-key violation.
var ErrDuplicate = errors.New("duplicate")

// DuplicateError names the unique field that was violated, when known.
type DuplicateError struct {
	Field string
	Err   error
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return "duplicate key"
	}
	return fmt.Sprintf("duplicate %s", e.Field)
}

// Is lets errors.Is(err, ErrDuplicate) match.
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

func (e *DuplicateError) Unwrap() error { return e.Err }

// Store is the process-wide persistence client. Implementations are safe
// for concurrent use.
type Store interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	FindUsers(ctx context.Context, ids []string) ([]domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, id string, p domain.UserPatch) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) (*domain.User, error)
	AddFriend(ctx context.Context, userID, friendID string) (*domain.User, error)
	RemoveFriend(ctx context.Context, userID, friendID string) (*domain.User, error)
	LinkThought(ctx context.Context, userID, thoughtID string) error

	ListThoughts(ctx context.Context) ([]domain.Thought, error)
	GetThought(ctx context.Context, id string) (*domain.Thought, error)
	FindThoughts(ctx context.Context, ids []string) ([]domain.Thought, error)
	CreateThought(ctx context.Context, t *domain.Thought) error
	UpdateThought(ctx context.Context, id string, p domain.ThoughtPatch) (*domain.Thought, error)
	DeleteThought(ctx context.Context, id string) (*domain.Thought, error)
	AddReaction(ctx context.Context, thoughtID string, r domain.Reaction) (*domain.Thought, error)
	RemoveReaction(ctx context.Context, thoughtID, reactionID string) (*domain.Thought, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open builds the Store selected by cfg.Driver. The caller owns the result
// and must Close it at shutdown.
func Open(ctx context.Context, cfg config.DBConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverMongo, "":
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.ConnectTimeout)
	case config.DriverSQLite:
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return newSQLStore(db, cfg.Trace)
	case config.DriverPostgres:
		db, err := OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return newSQLStore(db, cfg.Trace)
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
}

func newSQLStore(db *gorm.DB, trace bool) (*SQLStore, error) {
	if trace {
		if err := EnableTracing(db); err != nil {
			return nil, err
		}
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return NewSQLStore(db), nil
}

// uniqueIndex matches the index or column a driver names in a unique-key
// error: Mongo "index: email_1", SQLite "users.email", Postgres
// "idx_users_email" or "users_email_key".
var uniqueIndex = regexp.MustCompile(`(?i)(?:index:\s*|users[._])(username|email)`)

// duplicateField guesses which unique field a driver error refers to from
// its message. The index or column name wins over any other mention, since
// Mongo echoes the duplicate value back in the message.
func duplicateField(msg string) string {
	if m := uniqueIndex.FindStringSubmatch(msg); m != nil {
		return strings.ToLower(m[1])
	}
	low := strings.ToLower(msg)
	switch {
	case strings.Contains(low, "username"):
		return "username"
	case strings.Contains(low, "email"):
		return "email"
	default:
		return ""
	}
}
