package controllers

import (
	"net/http"

	"github.com/flashmarket/storefront/api/responses"
	"github.com/flashmarket/storefront/api/validators"
	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/internal/storefront"
	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/pagination"
)

const (
	maxPage         = 10_000
	maxSearchLen    = 100
	maxCategoryLen  = 50
	maxFlashSaleCap = 50
)

func Home(svc storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		home, err := svc.Home(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, home)
	}
}

// ListProducts serves one page of the catalog. page is zero-based.
func ListProducts(svc storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParseQueryInt(r, "page", 0, 0, maxPage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		size, err := validators.ParseQueryInt(r, "size", pagination.DefaultSize, 1, pagination.MaxSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := catalog.Query{
			Page:     page,
			Size:     size,
			Search:   validators.SanitizeString(r.URL.Query().Get("search"), maxSearchLen),
			Category: validators.SanitizeString(r.URL.Query().Get("category"), maxCategoryLen),
		}
		result, err := svc.Products(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetProduct(svc storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Product(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func ListCategories(svc storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

// FlashSale lists flash-sale cards; limit=0 uses the configured section size.
func FlashSale(svc storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxFlashSaleCap)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cards, err := svc.FlashSale(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cards)
	}
}
