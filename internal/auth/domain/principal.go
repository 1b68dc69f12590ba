package domain

import "context"

type principalKey struct{}

// ContextWithPrincipal 将已认证用户写入 context
func ContextWithPrincipal(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, principalKey{}, user)
}

// PrincipalFromContext 读取当前请求的已认证用户
func PrincipalFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(principalKey{}).(*User)
	return user, ok && user != nil
}
