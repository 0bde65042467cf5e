// Package services holds the domain operations behind the HTTP handlers.
// Every operation performs at most one write statement; uniqueness and
// referential rules are enforced by the statement itself, never by a
// separate existence check followed by a write.
package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a slug, username or post id does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied is returned when the actor may not modify the target.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrSelfFollow is returned when a user tries to follow themselves.
	ErrSelfFollow = errors.New("cannot follow yourself")
	// ErrGroupInUse is returned when deleting a group that posts still reference.
	ErrGroupInUse = errors.New("group is referenced by posts")
	// ErrUsernameTaken is returned on signup with an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// FieldErrors maps a form field name to a human readable message.
type FieldErrors map[string]string

// Add records msg for field unless the field already has an error.
func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// Merge copies the errors of other that f does not have yet.
func (f FieldErrors) Merge(other FieldErrors) {
	for k, v := range other {
		f.Add(k, v)
	}
}

// Err returns a *ValidationError when f is non-empty, nil otherwise.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// ValidationError rejects a submission; no mutation has been applied.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidation unwraps err into its field errors.
func AsValidation(err error) (FieldErrors, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}
