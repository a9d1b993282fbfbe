package middleware

import (
	"fmt"
	"net/http"

	"github.com/flashmarket/storefront/api/responses"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/metrics"
)

// Recoverer turns a handler panic into an INTERNAL_ERROR envelope. It must
// run after RequestID so the panic log and the body share the request id.
// http.ErrAbortHandler is re-raised for net/http to handle.
func Recoverer(logg *logger.Logger, m *metrics.Storefront) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				route := matchedRoute(r)
				m.IncPanic(route)

				err := fmt.Errorf("handler panic on %s %s: %v", r.Method, route, rec)
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "handler panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
