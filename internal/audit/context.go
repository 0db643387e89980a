package audit

import "context"

// RequestContext identifies who is acting and from where. Both parts are
// optional: background jobs and anonymous requests carry neither.
type RequestContext struct {
	UserID   *string
	Username *string
	IP       *string
}

type contextKey struct{}

// WithRequestContext returns a child context carrying rc.
func WithRequestContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// FromContext returns the RequestContext stored in ctx, or the zero value.
func FromContext(ctx context.Context) RequestContext {
	rc, _ := ctx.Value(contextKey{}).(RequestContext)
	return rc
}

// Actor returns the username for log lines, or "anonymous".
func (rc RequestContext) Actor() string {
	if rc.Username != nil && *rc.Username != "" {
		return *rc.Username
	}
	return "anonymous"
}
