package controllers

import (
	"context"
	"net/http"

	"github.com/flashmarket/storefront/api/middleware"
	"github.com/flashmarket/storefront/api/responses"
	"github.com/flashmarket/storefront/api/validators"
	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/internal/session"
	"github.com/flashmarket/storefront/pkg/logger"
)

type sendEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func AuthSignup(svc session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload catalog.SignupRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		msg, err := svc.Signup(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, messageResponse{Message: msg})
	}
}

// AuthLogin exchanges credentials for tokens bound to the browser session and
// returns the signed-in user.
func AuthLogin(svc session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload catalog.Credentials
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.Login(r.Context(), middleware.SessionIDFromContext(r.Context()), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session.Session{User: &user})
	}
}

// AuthLogout always clears the session; a user service failure is logged by
// the session service and never reaches the client.
func AuthLogout(svc session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithoutCancel(r.Context())
		if err := svc.Logout(ctx, middleware.SessionIDFromContext(ctx)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// AuthMe restores the signed-in user for the session, or an anonymous session.
func AuthMe(svc session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restored, err := svc.Restore(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, restored)
	}
}

func AuthSendVerificationEmail(svc session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload sendEmailRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		msg, err := svc.SendVerificationEmail(r.Context(), payload.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, messageResponse{Message: msg})
	}
}

func AuthVerifyEmail(svc session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload verifyEmailRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		msg, err := svc.VerifyEmail(r.Context(), payload.Token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, messageResponse{Message: msg})
	}
}
