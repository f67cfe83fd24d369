package ctxutil

import (
	"context"
)

type ctxKey string

const (
	subjectKey   ctxKey = "subject"
	roleKey      ctxKey = "role"
	requestIDKey ctxKey = "request_id"
)

const roleAdmin = "admin"

// WithSubject stores the authenticated caller and its role in the context.
func WithSubject(ctx context.Context, subject, role string) context.Context {
	ctx = context.WithValue(ctx, subjectKey, subject)
	return context.WithValue(ctx, roleKey, role)
}

// SubjectFromCtx extracts the authenticated caller from the context.
// Returns "" and false if the value is missing, empty, or of the wrong type.
func SubjectFromCtx(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey).(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// RoleFromCtx returns the caller's role, or "" for anonymous requests.
func RoleFromCtx(ctx context.Context) string {
	r, _ := ctx.Value(roleKey).(string)
	return r
}

// IsAdminCtx reports whether the authenticated caller has the admin role.
func IsAdminCtx(ctx context.Context) bool {
	_, ok := SubjectFromCtx(ctx)
	return ok && RoleFromCtx(ctx) == roleAdmin
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
