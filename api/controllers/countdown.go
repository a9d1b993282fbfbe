package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/flashmarket/storefront/api/responses"
	"github.com/flashmarket/storefront/api/validators"
	"github.com/flashmarket/storefront/internal/countdown"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/metrics"
)

// CountdownSnapshot reports the time left until ?until= once.
func CountdownSnapshot(now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		until, err := validators.ParseQueryTime(r, "until")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, countdown.Snapshot(until, now()))
	}
}

// CountdownStream streams the countdown to ?until= as server-sent events:
// one "tick" per second and a single final "expired". The clock stops when
// the client goes away.
func CountdownStream(m *metrics.Storefront, logg *logger.Logger, opts ...countdown.Option) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		until, err := validators.ParseQueryTime(r, "until")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		clock := countdown.New(until, opts...)
		defer clock.Stop()

		for ev := range clock.Start(r.Context()) {
			name := "tick"
			if ev.Expired {
				name = "expired"
				m.IncCountdownExpired()
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				if logg != nil {
					logg.Error(r.Context(), "countdown.encode_failed", err)
				}
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
