package config

import "strings"

const (
	backendURLVar     = "BACKEND_URL"
	amaURLVar         = "AMA_URL"
	amaConsentPathVar = "AMA_CONSENT_PATH"
	sessionCookieVar  = "BACKEND_SESSION_COOKIE"
	accessTokenVar    = "BACKEND_ACCESS_TOKEN"
)

type Backend struct{}

var _ BackendConfig = Backend{}

// GetBackendURL returns the base URL of the session backend (e.g., "https://backend.example.com")
func (Backend) GetBackendURL() string {
	return GetEnv(backendURLVar, "")
}

// GetConsentURL joins the access management app URL and its consent path.
func (Backend) GetConsentURL() string {
	base := GetEnv(amaURLVar, "")
	path := GetEnv(amaConsentPathVar, "")
	if base == "" || path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// GetSessionCookie returns a "name=value" backend session cookie to seed the
// cookie jar with, for running outside a browser.
func (Backend) GetSessionCookie() string {
	return GetEnv(sessionCookieVar, "")
}

func (Backend) GetAccessToken() string {
	return GetEnv(accessTokenVar, "")
}
