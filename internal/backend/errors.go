package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
)

// StatusError is a non-2xx answer from an upstream service.
type StatusError struct {
	Service string
	Method  string
	Path    string
	Status  int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s%s: status %d", e.Method, e.Service, e.Path, e.Status)
}

// StatusCode exposes the upstream status to error dumps.
func (e *StatusError) StatusCode() int {
	return e.Status
}

// upstreamMessage extracts a shopper-readable message from an error body.
func (e *StatusError) upstreamMessage() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return ""
	}
	if strings.HasPrefix(body, "{") {
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal([]byte(body), &payload); err == nil {
			if payload.Message != "" {
				return payload.Message
			}
			return payload.Error
		}
		return ""
	}
	if strings.HasPrefix(body, "<") || len(body) > 200 {
		return ""
	}
	return body
}

func mapStatus(e *StatusError) error {
	var (
		code     pkgerrors.Code
		fallback string
	)
	switch e.Status {
	case http.StatusNotFound:
		code, fallback = pkgerrors.CodeNotFound, "resource not found"
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		code, fallback = pkgerrors.CodeValidation, "request rejected by "+e.Service
	case http.StatusUnauthorized, http.StatusForbidden:
		code, fallback = pkgerrors.CodeUnauthorized, "authentication required"
	default:
		code, fallback = pkgerrors.CodeDependency, e.Service+" unavailable"
	}
	msg := e.upstreamMessage()
	if msg == "" || code == pkgerrors.CodeDependency {
		msg = fallback
	}
	return pkgerrors.Wrap(code, e, msg)
}
