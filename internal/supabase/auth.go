package supabase

import (
	"context"
	"net/http"
	"net/url"

	"quill/internal/models"
)

const authPath = "/auth/v1/"

// authUser is the wire shape of an auth-provider user record.
type authUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		DisplayName string `json:"display_name"`
	} `json:"user_metadata"`
}

func (u authUser) toModel() *models.User {
	displayName := u.UserMetadata.DisplayName
	if displayName == "" {
		displayName = u.Email
	}
	return &models.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: displayName,
	}
}

// tokenResponse is the wire shape of a token grant response.
type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         authUser `json:"user"`
}

// SignUp registers a new account with the auth provider. The display name is
// stored as user metadata. The provider sends a confirmation email; no
// session is created here.
func (c *Client) SignUp(ctx context.Context, email, password, displayName string) error {
	payload := map[string]any{
		"email":    email,
		"password": password,
		"data": map[string]any{
			"display_name": displayName,
		},
	}

	status, body, _, err := c.doJSON(ctx, request{
		method:  http.MethodPost,
		path:    authPath + "signup",
		service: "auth",
	}, payload, nil)
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return models.NewValidationError(decodeAPIError(status, body).Error())
	}
	return nil
}

// SignInWithPassword exchanges credentials for a token pair.
// Invalid credentials map to Unauthenticated.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (models.TokenPair, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}

	var resp tokenResponse
	status, body, _, err := c.doJSON(ctx, request{
		method:  http.MethodPost,
		path:    authPath + "token",
		query:   url.Values{"grant_type": {"password"}},
		service: "auth",
	}, payload, &resp)
	if err != nil {
		return models.TokenPair{}, err
	}
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return models.TokenPair{}, models.NewUnauthenticatedError("Invalid login credentials")
	}
	if status >= http.StatusBadRequest {
		return models.TokenPair{}, models.NewBackendError(decodeAPIError(status, body))
	}

	return models.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// RefreshSession exchanges a refresh token for a fresh token pair.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	payload := map[string]string{"refresh_token": refreshToken}

	var resp tokenResponse
	status, body, _, err := c.doJSON(ctx, request{
		method:  http.MethodPost,
		path:    authPath + "token",
		query:   url.Values{"grant_type": {"refresh_token"}},
		service: "auth",
	}, payload, &resp)
	if err != nil {
		return models.TokenPair{}, err
	}
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return models.TokenPair{}, models.NewUnauthenticatedError("Refresh token rejected")
	}
	if status >= http.StatusBadRequest {
		return models.TokenPair{}, models.NewBackendError(decodeAPIError(status, body))
	}

	return models.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// GetUser fetches the identity behind the given access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*models.User, error) {
	var user authUser
	status, body, _, err := c.doJSON(ctx, request{
		method:  http.MethodGet,
		path:    authPath + "user",
		headers: map[string]string{"Authorization": "Bearer " + accessToken},
		service: "auth",
	}, nil, &user)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, models.NewUnauthenticatedError("Access token rejected")
	}
	if status >= http.StatusBadRequest {
		return nil, models.NewBackendError(decodeAPIError(status, body))
	}
	if user.ID == "" {
		return nil, models.NewUnauthenticatedError("No user behind token")
	}

	return user.toModel(), nil
}

// SignOut revokes the session behind the given access token. Best effort;
// callers clear the local session regardless.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	status, body, _, err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    authPath + "logout",
		headers: map[string]string{"Authorization": "Bearer " + accessToken},
		service: "auth",
	})
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return models.NewBackendError(decodeAPIError(status, body))
	}
	return nil
}

// Health probes the auth service's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	status, body, _, err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    authPath + "health",
		service: "auth",
	})
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return models.NewBackendError(decodeAPIError(status, body))
	}
	return nil
}

// ResolveIdentity resolves the user behind a session token pair. When the
// access token has expired it redeems the refresh token once and retries;
// the refreshed pair is returned so the caller can re-issue the session
// cookie. A nil refreshed pair means the original pair is still good.
func (c *Client) ResolveIdentity(ctx context.Context, pair models.TokenPair) (*models.User, *models.TokenPair, error) {
	if !pair.Valid() {
		return nil, nil, models.NewUnauthenticatedError("No session tokens")
	}

	user, err := c.GetUser(ctx, pair.AccessToken)
	if err == nil {
		return user, nil, nil
	}
	if models.ErrorCode(err) != models.CodeUnauthenticated {
		return nil, nil, err
	}

	refreshed, err := c.RefreshSession(ctx, pair.RefreshToken)
	if err != nil {
		return nil, nil, err
	}
	user, err = c.GetUser(ctx, refreshed.AccessToken)
	if err != nil {
		return nil, nil, err
	}
	return user, &refreshed, nil
}
