package blog

import "context"

// AnonymousUser is the login used when a request carries none.
const AnonymousUser = "anonymous"

type userKey struct{}

// WithUser returns a context carrying the current user login.
func WithUser(ctx context.Context, login string) context.Context {
	return context.WithValue(ctx, userKey{}, login)
}

// CurrentUser returns the login stored by WithUser, or AnonymousUser.
func CurrentUser(ctx context.Context) string {
	if v, ok := ctx.Value(userKey{}).(string); ok && v != "" {
		return v
	}
	return AnonymousUser
}
