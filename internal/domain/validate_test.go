package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
	}
	out := map[string]string{}
	for _, f := range ve.Fields {
		out[f.Field] = f.Rule
	}
	return out
}

func TestCreateUserInput_TrimsAndRequires(t *testing.T) {
	in := CreateUserInput{Username: "  ann  ", Email: " ann@x.io "}
	if err := in.Normalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Username != "ann" || in.Email != " ann@x.io " {
		t.Fatalf("only the username is trimmed: %+v", in)
	}

	in = CreateUserInput{Username: "   "}
	got := fieldsOf(t, in.Normalize())
	if got["username"] != "required" || got["email"] != "required" {
		t.Fatalf("unexpected fields: %v", got)
	}
}

func TestUserPatch_ValidatesOnlyPresentFields(t *testing.T) {
	var p UserPatch
	if !p.Empty() || p.Normalize() != nil {
		t.Fatalf("empty patch must be valid")
	}
	blank := " "
	p = UserPatch{Username: &blank}
	got := fieldsOf(t, p.Normalize())
	if _, ok := got["email"]; ok || got["username"] != "required" {
		t.Fatalf("unexpected fields: %v", got)
	}
	name := " bob "
	p = UserPatch{Username: &name}
	if err := p.Normalize(); err != nil || *p.Username != "bob" {
		t.Fatalf("patch = %q err=%v", *p.Username, err)
	}
}

func TestCreateThoughtInput_Bounds(t *testing.T) {
	uid := NewID()
	ok := CreateThoughtInput{ThoughtText: strings.Repeat("é", MaxThoughtText), Username: "ann", UserID: uid}
	if err := ok.Normalize(); err != nil {
		t.Fatalf("280 runes must pass: %v", err)
	}

	long := CreateThoughtInput{ThoughtText: strings.Repeat("a", MaxThoughtText+1), Username: "ann", UserID: uid}
	if got := fieldsOf(t, long.Normalize()); got["thoughtText"] != "max" {
		t.Fatalf("unexpected fields: %v", got)
	}

	missing := CreateThoughtInput{ThoughtText: "", UserID: "nope"}
	got := fieldsOf(t, missing.Normalize())
	if got["thoughtText"] != "required" || got["username"] != "required" || got["userId"] != "mongodb" {
		t.Fatalf("unexpected fields: %v", got)
	}
}

func TestCreateThoughtInput_NewThought_DefaultsCreatedAt(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)
	th := CreateThoughtInput{ThoughtText: "hi", Username: "ann"}.NewThought()
	if th.CreatedAt.Before(before) || th.ReactionCount() != 0 || th.Reactions == nil {
		t.Fatalf("unexpected defaults: %+v", th)
	}

	at := time.Date(2020, 5, 6, 7, 8, 9, 123456789, time.FixedZone("x", 3600))
	th = CreateThoughtInput{ThoughtText: "hi", Username: "ann", CreatedAt: &at}.NewThought()
	want := time.Date(2020, 5, 6, 6, 8, 9, 123000000, time.UTC)
	if !th.CreatedAt.Equal(want) || th.CreatedAt.Location() != time.UTC {
		t.Fatalf("createdAt = %v, want %v", th.CreatedAt, want)
	}
}

func TestThoughtPatch_Bounds(t *testing.T) {
	empty := ""
	p := ThoughtPatch{ThoughtText: &empty}
	if got := fieldsOf(t, p.Normalize()); got["thoughtText"] != "required" {
		t.Fatalf("unexpected fields: %v", got)
	}
	long := strings.Repeat("x", MaxThoughtText+1)
	p = ThoughtPatch{ThoughtText: &long}
	if got := fieldsOf(t, p.Normalize()); got["thoughtText"] != "max" {
		t.Fatalf("unexpected fields: %v", got)
	}
}

func TestReactionInput_DefaultsAndRules(t *testing.T) {
	in := ReactionInput{ReactionBody: " lol ", Username: "bob"}
	if err := in.Normalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := in.NewReaction()
	if !IsID(r.ReactionID) || r.ReactionBody != " lol " || r.CreatedAt.IsZero() {
		t.Fatalf("unexpected reaction: %+v", r)
	}

	given := NewID()
	in = ReactionInput{ReactionID: given, ReactionBody: "x", Username: "bob"}
	if err := in.Normalize(); err != nil || in.NewReaction().ReactionID != given {
		t.Fatalf("supplied reactionId must be kept (err=%v)", err)
	}

	bad := ReactionInput{ReactionID: "zz", ReactionBody: strings.Repeat("b", MaxReactionBody+1)}
	got := fieldsOf(t, bad.Normalize())
	if got["reactionId"] != "mongodb" || got["reactionBody"] != "max" || got["username"] != "required" {
		t.Fatalf("unexpected fields: %v", got)
	}
}

func TestTextFields_ValidatedAsSent(t *testing.T) {
	padded := strings.Repeat("a", MaxThoughtText-1) + "  "
	uid := NewID()

	th := CreateThoughtInput{ThoughtText: padded, Username: "ann", UserID: uid}
	if got := fieldsOf(t, th.Normalize()); got["thoughtText"] != "max" {
		t.Fatalf("trailing spaces must count toward the limit: %v", got)
	}
	p := ThoughtPatch{ThoughtText: &padded}
	if got := fieldsOf(t, p.Normalize()); got["thoughtText"] != "max" {
		t.Fatalf("patch: trailing spaces must count toward the limit: %v", got)
	}
	rx := ReactionInput{ReactionBody: padded, Username: "bob"}
	if got := fieldsOf(t, rx.Normalize()); got["reactionBody"] != "max" {
		t.Fatalf("reaction: trailing spaces must count toward the limit: %v", got)
	}

	th = CreateThoughtInput{ThoughtText: "  hi ", Username: " ann ", UserID: uid}
	if err := th.Normalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if built := th.NewThought(); built.ThoughtText != "  hi " || built.Username != " ann " {
		t.Fatalf("thought text changed: %+v", built)
	}
	text, author := "  hi ", " ann "
	p = ThoughtPatch{ThoughtText: &text, Username: &author}
	if err := p.Normalize(); err != nil || *p.ThoughtText != "  hi " || *p.Username != " ann " {
		t.Fatalf("patch changed: %q %q err=%v", *p.ThoughtText, *p.Username, err)
	}
	rx = ReactionInput{ReactionBody: "  hi ", Username: " bob "}
	if err := rx.Normalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r := rx.NewReaction(); r.ReactionBody != "  hi " || r.Username != " bob " {
		t.Fatalf("reaction changed: %+v", r)
	}
}

func TestCreateThoughtInput_UppercaseUserID(t *testing.T) {
	uid := NewID()
	in := CreateThoughtInput{ThoughtText: "hi", Username: "ann", UserID: strings.ToUpper(uid)}
	if err := in.Normalize(); err != nil {
		t.Fatalf("uppercase id must be accepted: %v", err)
	}
	if in.UserID != uid {
		t.Fatalf("UserID = %q, want %q", in.UserID, uid)
	}

	rid := NewID()
	rx := ReactionInput{ReactionID: strings.ToUpper(rid), ReactionBody: "x", Username: "bob"}
	if err := rx.Normalize(); err != nil || rx.NewReaction().ReactionID != rid {
		t.Fatalf("reactionId = %q err=%v", rx.ReactionID, err)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := Invalid("email", "unique", "email already exists")
	if err.Error() != "validation failed: email already exists" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if (&ValidationError{}).Error() != "validation failed" {
		t.Fatalf("empty message wrong")
	}
}

func TestIDs(t *testing.T) {
	id := NewID()
	if len(id) != 24 || !IsID(id) {
		t.Fatalf("bad id %q", id)
	}
	if CanonicalID(strings.ToUpper(id)) != id {
		t.Fatalf("CanonicalID did not fold %q", id)
	}
	if IsID("not-an-id") || IsID("") {
		t.Fatalf("malformed ids must be rejected")
	}
	if n := Now(); n.Nanosecond()%int(time.Millisecond) != 0 {
		t.Fatalf("Now not truncated: %v", n)
	}
}
