package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewID returns a fresh ObjectID in its 24-char hex form. Every store uses
// it so ids look the same regardless of the backend.
func NewID() string { return primitive.NewObjectID().Hex() }

// IsID reports whether s is a well-formed ObjectID hex string.
func IsID(s string) bool {
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}

// CanonicalID folds an id to the lowercase hex form stores persist, so
// "ABC..." and "abc..." name the same entity on every backend.
func CanonicalID(s string) string { return strings.ToLower(s) }

// Now is the creation timestamp used for defaults: UTC, truncated to the
// millisecond precision BSON dates can hold.
func Now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }
