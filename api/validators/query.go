package validators

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/types"
)

const maxIDParamLen = 64

func fieldError(field, message string, extra ...any) error {
	details := map[string]any{"field": field}
	for i := 0; i+1 < len(extra); i += 2 {
		if k, ok := extra[i].(string); ok {
			details[k] = extra[i+1]
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(details)
}

// ParseQueryInt reads an optional integer in [min, max]; absent means def.
func ParseQueryInt(r *http.Request, key string, def, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fieldError(key, key+" must be a whole number")
	}
	if n < min || n > max {
		return 0, fieldError(key, key+" is out of range", "min", min, "max", max)
	}
	return n, nil
}

// ParseQueryTime reads a required RFC 3339 timestamp.
func ParseQueryTime(r *http.Request, key string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return time.Time{}, fieldError(key, key+" is required")
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fieldError(key, key+" must be an RFC 3339 time", "example", "2026-03-01T09:00:00Z")
	}
	return t, nil
}

// ParseIDParam reads a route id, trimmed and capped.
func ParseIDParam(r *http.Request, key string) (types.ID, error) {
	id := SanitizeString(chi.URLParam(r, key), maxIDParamLen)
	if id == "" {
		return "", fieldError(key, key+" is required")
	}
	return types.ID(id), nil
}
