package controllers

import (
	"net/http"

	"github.com/flashmarket/storefront/api/middleware"
	"github.com/flashmarket/storefront/api/responses"
	"github.com/flashmarket/storefront/api/validators"
	"github.com/flashmarket/storefront/internal/checkout"
	"github.com/flashmarket/storefront/pkg/logger"
)

func CheckoutDraft(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draft, err := svc.Draft(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, draft)
	}
}

// CheckoutSubmit places the order for the session cart and returns the
// receipt shown on the order-success page.
func CheckoutSubmit(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkout.SubmitInput
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		identity := middleware.IdentityFromContext(r.Context())
		receipt, err := svc.Submit(r.Context(), identity.SessionID, identity.Caller(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	}
}

func Pay(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkout.PayInput
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Pay(r.Context(), middleware.IdentityFromContext(r.Context()).Caller(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
