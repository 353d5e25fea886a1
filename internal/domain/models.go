// Package domain defines the entities of the social network API: users,
// thoughts and the reactions embedded in thoughts. The types carry GORM
// tags for the relational store; the document store maps them to its own
// BSON shapes. Counts such as FriendCount and ReactionCount are computed on
// read and never persisted.
package domain

import (
	"encoding/json"
	"time"
)

// User is a top-level account record.
//
// Fields:
//   - ID: 24-char hex ObjectID assigned by the store on create.
//   - Username: unique, whitespace-trimmed.
//   - Email: unique.
//   - ThoughtIDs: ids of thoughts authored by the user, in creation order.
//   - FriendIDs: ids of befriended users, in insertion order.
//
// The two id lists live in link tables (relational store) or in the user
// document itself (document store), hence gorm:"-".
type User struct {
	ID         string   `gorm:"type:char(24);primaryKey"`
	Username   string   `gorm:"type:varchar(255);not null;uniqueIndex"`
	Email      string   `gorm:"type:varchar(255);not null;uniqueIndex"`
	ThoughtIDs []string `gorm:"-"`
	FriendIDs  []string `gorm:"-"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// FriendCount is the number of entries in FriendIDs.
func (u User) FriendCount() int { return len(u.FriendIDs) }

type userJSON struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	ThoughtIDs  []string `json:"thoughtIds"`
	FriendIDs   []string `json:"friendIds"`
	FriendCount int      `json:"friendCount"`
}

func (u User) wire() userJSON {
	return userJSON{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		ThoughtIDs:  nonNil(u.ThoughtIDs),
		FriendIDs:   nonNil(u.FriendIDs),
		FriendCount: u.FriendCount(),
	}
}

// MarshalJSON renders the user with its computed friendCount.
func (u User) MarshalJSON() ([]byte, error) { return json.Marshal(u.wire()) }

// PopulatedUser is a User whose references have been resolved into the
// referenced entities. Ids that no longer resolve stay in the id lists but
// are absent from Thoughts/Friends.
type PopulatedUser struct {
	User
	Thoughts []Thought
	Friends  []User
}

// MarshalJSON renders the user fields plus the resolved "thoughts" and
// "friends" arrays. It must be declared here or User's promoted
// MarshalJSON would drop the resolved lists.
func (p PopulatedUser) MarshalJSON() ([]byte, error) {
	thoughts := p.Thoughts
	if thoughts == nil {
		thoughts = []Thought{}
	}
	friends := p.Friends
	if friends == nil {
		friends = []User{}
	}
	return json.Marshal(struct {
		userJSON
		Thoughts []Thought `json:"thoughts"`
		Friends  []User    `json:"friends"`
	}{p.User.wire(), thoughts, friends})
}

// Thought is a short text post. Reactions are owned by the thought and are
// appended in order; there is no way to address a reaction outside of it.
type Thought struct {
	ID          string     `gorm:"type:char(24);primaryKey"`
	ThoughtText string     `gorm:"type:text;not null"`
	Username    string     `gorm:"type:varchar(255);not null"`
	CreatedAt   time.Time  `gorm:"not null"`
	Reactions   []Reaction `gorm:"foreignKey:ThoughtID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Thought.
func (Thought) TableName() string { return "thoughts" }

// ReactionCount is the number of embedded reactions.
func (t Thought) ReactionCount() int { return len(t.Reactions) }

// MarshalJSON renders the thought with its computed reactionCount.
func (t Thought) MarshalJSON() ([]byte, error) {
	reactions := t.Reactions
	if reactions == nil {
		reactions = []Reaction{}
	}
	return json.Marshal(struct {
		ID            string     `json:"id"`
		ThoughtText   string     `json:"thoughtText"`
		Username      string     `json:"username"`
		CreatedAt     time.Time  `json:"createdAt"`
		Reactions     []Reaction `json:"reactions"`
		ReactionCount int        `json:"reactionCount"`
	}{t.ID, t.ThoughtText, t.Username, t.CreatedAt, reactions, t.ReactionCount()})
}

// Reaction is a reply embedded in a Thought.
//
// Seq and ThoughtID only exist for the relational store: Seq keeps append
// order, ThoughtID points at the owning row. Neither is part of the API.
type Reaction struct {
	Seq          uint64    `json:"-" gorm:"primaryKey;autoIncrement"`
	ThoughtID    string    `json:"-" gorm:"type:char(24);not null;index:idx_reaction_thought"`
	ReactionID   string    `json:"reactionId" gorm:"type:char(24);not null;index:idx_reaction_thought"`
	ReactionBody string    `json:"reactionBody" gorm:"type:varchar(280);not null"`
	Username     string    `json:"username" gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `json:"createdAt" gorm:"not null"`
}

// TableName returns the database table name for Reaction.
func (Reaction) TableName() string { return "reactions" }

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
