package reqctx

import "context"

type ctxKey string

const (
	keyRID   ctxKey = "rid"
	keyActor ctxKey = "actor_uid"
)

// WithRID stores the correlation id of the inbound call.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RID returns correlation id if present.
func RID(ctx context.Context) string {
	v, _ := ctx.Value(keyRID).(string)
	return v
}

// WithActor stores the authenticated user id.
func WithActor(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, keyActor, uid)
}

// Actor returns the authenticated user id if present.
func Actor(ctx context.Context) string {
	v, _ := ctx.Value(keyActor).(string)
	return v
}
