package httpx

import "context"

type principalKey struct{}

// ContextWithPrincipal records the authenticated caller id. Only authentication middleware
// should call it; rate limiting trusts whatever it finds here.
func ContextWithPrincipal(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, principalKey{}, id)
}

func PrincipalFromContext(ctx context.Context) string {
	id, _ := ctx.Value(principalKey{}).(string)
	return id
}
