package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// Schema limits.
const (
	MaxThoughtText  = 280
	MaxReactionBody = 280
)

// CreateUserInput is the body of POST /users.
type CreateUserInput struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
}

// UserPatch is the body of PUT /users/:id. Nil fields are left untouched.
type UserPatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool { return p.Username == nil && p.Email == nil }

// CreateThoughtInput is the body of POST /thoughts. UserID names the author
// whose thought list receives the new id; it is not stored on the thought.
type CreateThoughtInput struct {
	ThoughtText string     `json:"thoughtText" validate:"required,min=1,max=280"`
	Username    string     `json:"username" validate:"required"`
	UserID      string     `json:"userId" validate:"required,mongodb"`
	CreatedAt   *time.Time `json:"createdAt"`
}

// ThoughtPatch is the body of PUT /thoughts/:id.
type ThoughtPatch struct {
	ThoughtText *string `json:"thoughtText"`
	Username    *string `json:"username"`
}

// Empty reports whether the patch changes nothing.
func (p ThoughtPatch) Empty() bool { return p.ThoughtText == nil && p.Username == nil }

// ReactionInput is the body of POST /thoughts/:id/reactions.
type ReactionInput struct {
	ReactionID   string     `json:"reactionId" validate:"omitempty,mongodb"`
	ReactionBody string     `json:"reactionBody" validate:"required,max=280"`
	Username     string     `json:"username" validate:"required"`
	CreatedAt    *time.Time `json:"createdAt"`
}

// FieldError describes one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError is returned when input breaks a schema rule, including
// uniqueness violations detected by the store.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Invalid builds a single-field ValidationError.
func Invalid(field, rule, msg string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Rule: rule, Message: msg}}}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// cleanUsername trims a user's username and normalizes it to NFC so that
// the unique index compares what a reader sees. No other field is trimmed.
func cleanUsername(s string) string { return norm.NFC.String(strings.TrimSpace(s)) }

// Normalize trims the username in place, then checks the schema rules.
func (in *CreateUserInput) Normalize() error {
	in.Username = cleanUsername(in.Username)
	return check(validate.Struct(in))
}

// Normalize validates only the fields present in the patch.
func (p *UserPatch) Normalize() error {
	var fields []FieldError
	if p.Username != nil {
		v := cleanUsername(*p.Username)
		p.Username = &v
		fields = appendVar(fields, "username", v, "required")
	}
	if p.Email != nil {
		fields = appendVar(fields, "email", *p.Email, "required")
	}
	return asError(fields)
}

// Normalize validates the thought schema. Text is stored as sent; only the
// author id is folded to its canonical form.
func (in *CreateThoughtInput) Normalize() error {
	in.UserID = CanonicalID(in.UserID)
	return check(validate.Struct(in))
}

// Normalize validates only the fields present in the patch.
func (p *ThoughtPatch) Normalize() error {
	var fields []FieldError
	if p.ThoughtText != nil {
		fields = appendVar(fields, "thoughtText", *p.ThoughtText, fmt.Sprintf("required,min=1,max=%d", MaxThoughtText))
	}
	if p.Username != nil {
		fields = appendVar(fields, "username", *p.Username, "required")
	}
	return asError(fields)
}

// Normalize validates the reaction schema.
func (in *ReactionInput) Normalize() error {
	in.ReactionID = CanonicalID(in.ReactionID)
	return check(validate.Struct(in))
}

// NewUser builds the entity to persist from a normalized input.
func (in CreateUserInput) NewUser() *User {
	return &User{Username: in.Username, Email: in.Email, ThoughtIDs: []string{}, FriendIDs: []string{}}
}

// NewThought builds the entity to persist, defaulting CreatedAt.
func (in CreateThoughtInput) NewThought() *Thought {
	created := Now()
	if in.CreatedAt != nil && !in.CreatedAt.IsZero() {
		created = in.CreatedAt.UTC().Truncate(time.Millisecond)
	}
	return &Thought{ThoughtText: in.ThoughtText, Username: in.Username, CreatedAt: created, Reactions: []Reaction{}}
}

// NewReaction builds the reaction to append, defaulting ReactionID and
// CreatedAt.
func (in ReactionInput) NewReaction() Reaction {
	r := Reaction{
		ReactionID:   in.ReactionID,
		ReactionBody: in.ReactionBody,
		Username:     in.Username,
		CreatedAt:    Now(),
	}
	if r.ReactionID == "" {
		r.ReactionID = NewID()
	}
	if in.CreatedAt != nil && !in.CreatedAt.IsZero() {
		r.CreatedAt = in.CreatedAt.UTC().Truncate(time.Millisecond)
	}
	return r
}

func appendVar(fields []FieldError, name, value, tag string) []FieldError {
	err := validate.Var(value, tag)
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		for _, fe := range ves {
			fields = append(fields, FieldError{Field: name, Rule: fe.Tag(), Message: message(name, fe)})
		}
	}
	return fields
}

func check(err error) error {
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	fields := make([]FieldError, 0, len(ves))
	for _, fe := range ves {
		fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag(), Message: message(fe.Field(), fe)})
	}
	return asError(fields)
}

func asError(fields []FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "mongodb":
		return field + " must be a valid id"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
