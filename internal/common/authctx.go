package common

import "context"

type ctxKey string

const adminKey ctxKey = "auth/admin"

// WithAdmin marks the context as belonging to an authenticated admin.
func WithAdmin(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, adminKey, email)
}

// Admin returns the authenticated admin email, if any.
func Admin(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(adminKey).(string)
	return email, ok && email != ""
}
