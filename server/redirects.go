package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	apperrors "github.com/jrsteele09/go-pod-app/internal/errors"
	"github.com/jrsteele09/go-pod-app/sessions"
)

// navigate follows a terminal navigation produced by a view.
func navigate(w http.ResponseWriter, r *http.Request, nav sessions.Navigation) {
	redirectSuccess(w, r, nav.Location)
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	fullPath := path + "?error=" + url.QueryEscape(errorMsg)

	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", fullPath)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, fullPath, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// statusFor maps a client error to the status this server answers with.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrAuthenticationRequired):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrNoSession):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrNoStorageSpace):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case apperrors.StatusCode(err) != 0, errors.Is(err, apperrors.ErrParse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
