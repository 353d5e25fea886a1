// Package handlers defines the HTTP-layer error codes used across the API.
//
// Clients branch on the code; the message is for humans. Every error
// response carries an HTTP status plus one of these codes, and validation
// failures add per-field details:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "validation_error",
//	  "message": "validation failed: thoughtText is required",
//	  "details": [{"field": "thoughtText", "rule": "required", "message": "thoughtText is required"}]
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeValidation       = "validation_error"
	ErrCodeNotFound         = "not_found"
	ErrCodePayloadTooLarge  = "payload_too_large"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeUnavailable      = "service_unavailable"
	ErrCodeInternal         = "internal_error"
)

// Client-facing messages.
const (
	msgNoUser      = "No user with this ID"
	msgNoFriend    = "No friend with this ID"
	msgNoThought   = "No thought with this ID"
	msgInvalidJSON = "invalid JSON body"
	msgTooLarge    = "request body too large"
	msgInternal    = "Something went wrong"
)
