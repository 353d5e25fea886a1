package domain

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:domain_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	if (User{}).TableName() != "users" {
		t.Fatalf("User.TableName() = %q", (User{}).TableName())
	}
	if (Thought{}).TableName() != "thoughts" {
		t.Fatalf("Thought.TableName() = %q", (Thought{}).TableName())
	}
	if (Reaction{}).TableName() != "reactions" {
		t.Fatalf("Reaction.TableName() = %q", (Reaction{}).TableName())
	}
}

func TestMigrations_UniqueIndexes_AndReactionOrder(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&User{}, &Thought{}, &Reaction{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	for _, idx := range []string{"idx_users_username", "idx_users_email"} {
		if !m.HasIndex(&User{}, idx) {
			t.Fatalf("expected index %s on users", idx)
		}
	}

	if err := db.Create(&User{ID: NewID(), Username: "ann", Email: "ann@x.io"}).Error; err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if err := db.Create(&User{ID: NewID(), Username: "ann", Email: "other@x.io"}).Error; err == nil {
		t.Fatalf("expected unique violation on username")
	}

	th := &Thought{
		ID: NewID(), ThoughtText: "hi", Username: "ann", CreatedAt: Now(),
		Reactions: []Reaction{
			{ReactionID: NewID(), ReactionBody: "first", Username: "bob", CreatedAt: Now()},
			{ReactionID: NewID(), ReactionBody: "second", Username: "cat", CreatedAt: Now()},
		},
	}
	if err := db.Create(th).Error; err != nil {
		t.Fatalf("insert thought: %v", err)
	}

	var got Thought
	err := db.Preload("Reactions", func(tx *gorm.DB) *gorm.DB { return tx.Order("seq ASC") }).
		First(&got, "id = ?", th.ID).Error
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.ReactionCount() != 2 || got.Reactions[0].ReactionBody != "first" || got.Reactions[1].ReactionBody != "second" {
		t.Fatalf("unexpected reactions: %+v", got.Reactions)
	}
}

func TestUser_JSON_ComputedFriendCount(t *testing.T) {
	u := User{ID: "u1", Username: "ann", Email: "ann@x.io", FriendIDs: []string{"a", "b"}}
	raw, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["friendCount"].(float64) != 2 {
		t.Fatalf("friendCount = %v", m["friendCount"])
	}
	if ids, ok := m["thoughtIds"].([]any); !ok || len(ids) != 0 {
		t.Fatalf("nil thoughtIds should render as [], got %v", m["thoughtIds"])
	}
	if m["id"] != "u1" || m["username"] != "ann" || m["email"] != "ann@x.io" {
		t.Fatalf("unexpected fields: %v", m)
	}
}

func TestPopulatedUser_JSON_KeepsResolvedLists(t *testing.T) {
	p := PopulatedUser{
		User:     User{ID: "u1", Username: "ann", Email: "ann@x.io", ThoughtIDs: []string{"t1", "gone"}, FriendIDs: []string{"u2"}},
		Thoughts: []Thought{{ID: "t1", ThoughtText: "hi", Username: "ann"}},
		Friends:  []User{{ID: "u2", Username: "bob", Email: "bob@x.io"}},
	}
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m struct {
		ThoughtIDs  []string         `json:"thoughtIds"`
		FriendCount int              `json:"friendCount"`
		Thoughts    []map[string]any `json:"thoughts"`
		Friends     []map[string]any `json:"friends"`
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(m.ThoughtIDs) != 2 || m.FriendCount != 1 {
		t.Fatalf("id lists wrong: %+v", m)
	}
	if len(m.Thoughts) != 1 || m.Thoughts[0]["id"] != "t1" || m.Thoughts[0]["reactionCount"].(float64) != 0 {
		t.Fatalf("thoughts wrong: %+v", m.Thoughts)
	}
	if len(m.Friends) != 1 || m.Friends[0]["username"] != "bob" {
		t.Fatalf("friends wrong: %+v", m.Friends)
	}
}

func TestThought_JSON_ReactionCount(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	th := Thought{
		ID: "t1", ThoughtText: "hi", Username: "ann", CreatedAt: created,
		Reactions: []Reaction{{Seq: 9, ThoughtID: "t1", ReactionID: "r1", ReactionBody: "lol", Username: "bob", CreatedAt: created}},
	}
	raw, err := json.Marshal(th)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["reactionCount"].(float64) != 1 || m["createdAt"] != "2024-01-02T03:04:05Z" {
		t.Fatalf("unexpected thought json: %s", raw)
	}
	r := m["reactions"].([]any)[0].(map[string]any)
	if _, leaked := r["Seq"]; leaked {
		t.Fatalf("storage fields leaked: %v", r)
	}
	if _, leaked := r["ThoughtID"]; leaked {
		t.Fatalf("storage fields leaked: %v", r)
	}
	if r["reactionId"] != "r1" || r["reactionBody"] != "lol" {
		t.Fatalf("unexpected reaction json: %v", r)
	}
}
