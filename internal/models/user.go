package models

// User is the resolved identity for an authenticated session. It is created
// and owned by the remote auth provider; read-only here.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// TokenPair is the opaque access/refresh token pair issued by the remote auth
// provider. It lives only in the session cookie and in per-request clients.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Valid reports whether both tokens are present.
func (p TokenPair) Valid() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}
