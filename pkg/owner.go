package pkg

import "context"

type ownerIDCtxKey struct{}

// ContextWithOwnerID stores the owner all operations of a request are scoped to.
func ContextWithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDCtxKey{}, ownerID)
}

func OwnerIDFromContext(ctx context.Context) (string, bool) {
	ownerID, ok := ctx.Value(ownerIDCtxKey{}).(string)
	return ownerID, ok && ownerID != ""
}
