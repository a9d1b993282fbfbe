package backend

import (
	"context"
	"net/http"

	"github.com/flashmarket/storefront/internal/catalog"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
)

func (c *Client) Signup(ctx context.Context, req catalog.SignupRequest) (string, error) {
	var msg string
	err := c.do(ctx, call{
		service: serviceUser,
		method:  http.MethodPost,
		path:    "/user/signup",
		body:    req,
		text:    &msg,
	})
	return msg, err
}

func (c *Client) Login(ctx context.Context, creds catalog.Credentials) (catalog.TokenPair, error) {
	var pair catalog.TokenPair
	if err := c.do(ctx, call{
		service: serviceUser,
		method:  http.MethodPost,
		path:    "/user/login",
		body:    creds,
		out:     &pair,
	}); err != nil {
		return catalog.TokenPair{}, err
	}
	if pair.AccessToken == "" {
		return catalog.TokenPair{}, pkgerrors.New(pkgerrors.CodeDependency, "user-service returned no access token")
	}
	return pair, nil
}

// Logout revokes the refresh token; the user service expects it as the
// bearer credential.
func (c *Client) Logout(ctx context.Context, caller catalog.Caller, refreshToken string) error {
	return c.do(ctx, call{
		service: serviceUser,
		method:  http.MethodPost,
		path:    "/user/logout",
		caller:  &caller,
		bearer:  refreshToken,
	})
}

func (c *Client) UserInfo(ctx context.Context, caller catalog.Caller) (catalog.User, error) {
	var user catalog.User
	err := c.do(ctx, call{
		service: serviceUser,
		method:  http.MethodGet,
		path:    "/user/info",
		caller:  &caller,
		out:     &user,
	})
	if err == nil && user.ID == "" {
		user.ID = caller.UserID
	}
	return user, err
}

func (c *Client) SendVerificationEmail(ctx context.Context, email string) (string, error) {
	var msg string
	err := c.do(ctx, call{
		service: serviceUser,
		method:  http.MethodPost,
		path:    "/api/v1/send-verification-email",
		body:    map[string]string{"email": email},
		text:    &msg,
	})
	return msg, err
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (string, error) {
	var msg string
	err := c.do(ctx, call{
		service: serviceUser,
		method:  http.MethodPost,
		path:    "/api/v1/verify-email",
		body:    map[string]string{"token": token},
		text:    &msg,
	})
	return msg, err
}
