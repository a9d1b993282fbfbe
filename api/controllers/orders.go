package controllers

import (
	"context"
	"net/http"

	"github.com/flashmarket/storefront/api/middleware"
	"github.com/flashmarket/storefront/api/responses"
	"github.com/flashmarket/storefront/api/validators"
	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/internal/checkout"
	"github.com/flashmarket/storefront/internal/orders"
	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/types"
)

const maxReceiptList = 50

type orderListResponse struct {
	Orders   []orders.OrderView `json:"orders"`
	Receipts []checkout.Receipt `json:"receipts"`
}

// ListOrders returns the upstream order history alongside the receipts the
// storefront recorded for this user.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "receipts", 10, 0, maxReceiptList)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		caller := middleware.IdentityFromContext(r.Context()).Caller()
		list, err := svc.List(r.Context(), caller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := orderListResponse{Orders: list, Receipts: []checkout.Receipt{}}
		if limit > 0 {
			receipts, err := svc.Receipts(r.Context(), caller, limit)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			resp.Receipts = receipts
		}
		responses.WriteSuccess(w, resp)
	}
}

func GetReceipt(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "receiptId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		receipt, err := svc.Receipt(r.Context(), middleware.IdentityFromContext(r.Context()).Caller(), id.String())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, receipt)
	}
}

func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransition(svc.Cancel, logg)
}

func ReturnOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransition(svc.Return, logg)
}

type transitionFunc func(ctx context.Context, caller catalog.Caller, orderID types.ID) (orders.OrderView, error)

func orderTransition(fn transitionFunc, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := fn(r.Context(), middleware.IdentityFromContext(r.Context()).Caller(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
