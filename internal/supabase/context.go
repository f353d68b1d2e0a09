package supabase

import "context"

type contextKey string

const accessTokenKey contextKey = "supabase_access_token"

// WithAccessToken returns a context carrying a request-scoped access token.
// Table and storage calls made with this context authenticate as that user
// instead of with the anon key.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey, token)
}

// AccessTokenFrom extracts the request-scoped access token, if any.
func AccessTokenFrom(ctx context.Context) string {
	if tok, ok := ctx.Value(accessTokenKey).(string); ok {
		return tok
	}
	return ""
}
