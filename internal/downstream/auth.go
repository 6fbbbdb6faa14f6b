package downstream

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/industrieimport/storefront/internal/domain"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address,omitempty"`
}

// LoginResult is what every login and register endpoint answers with.
// Admin accounts awaiting approval come back with PendingApproval and
// possibly no token.
type LoginResult struct {
	Token           string       `json:"token"`
	User            *domain.User `json:"user"`
	PendingApproval bool         `json:"pendingApproval"`
	Message         string       `json:"message,omitempty"`
}

type AuthAPI struct {
	c *Client
}

func (a *AuthAPI) Login(ctx context.Context, cred Credentials) (LoginResult, error) {
	return sendJSON[LoginResult](ctx, a.c, http.MethodPost, "/auth/login", cred)
}

func (a *AuthAPI) AdminLogin(ctx context.Context, cred Credentials) (LoginResult, error) {
	return sendJSON[LoginResult](ctx, a.c, http.MethodPost, "/auth/admin/login", cred)
}

func (a *AuthAPI) Register(ctx context.Context, reg Registration) (LoginResult, error) {
	return sendJSON[LoginResult](ctx, a.c, http.MethodPost, "/auth/register", reg)
}

func (a *AuthAPI) AdminRegister(ctx context.Context, reg Registration) (LoginResult, error) {
	return sendJSON[LoginResult](ctx, a.c, http.MethodPost, "/auth/admin/register", reg)
}

// Me resolves the user behind the token carried by ctx.
func (a *AuthAPI) Me(ctx context.Context) (domain.User, error) {
	me, err := getJSON[meResponse](ctx, a.c, "/auth/me")
	return me.User, err
}

// meResponse accepts both {"user": {...}} and a bare user object.
type meResponse struct {
	User domain.User
}

func (m *meResponse) UnmarshalJSON(b []byte) error {
	var wrapped struct {
		User *domain.User `json:"user"`
	}
	if err := json.Unmarshal(b, &wrapped); err == nil && wrapped.User != nil {
		m.User = *wrapped.User
		return nil
	}
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	return json.Unmarshal(b, &m.User)
}
