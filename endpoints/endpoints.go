// Package endpoints builds the URLs of the session backend and the consent
// authority from three base URLs fixed at startup.
package endpoints

import (
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/go-pod-app/internal/errors"
)

// Backend paths
const (
	PathLogin              = "login"
	PathLogout             = "logout"
	PathSessionInformation = "session-information"
	PathPodAccessGrant     = "pod-access-grant"
	PathRead               = "read"
	PathWrite              = "write"
	PathAccessRequest      = "access-request"
	PathAccessGrant        = "access-grant"
)

// Query parameters
const (
	ParamSwitchIdentity = "switchIdentity"
	ParamSaveTokens     = "saveTokens"
	ParamResourceURL    = "resourceUrl"
	ParamRequestVcURL   = "requestVcUrl"
	ParamRedirectURL    = "redirectUrl"
)

// Builder is immutable after New; every method returns a fresh URL.
type Builder struct {
	frontend *url.URL
	backend  *url.URL
	consent  *url.URL
}

// New validates the three base URLs. A malformed base is a startup error.
func New(frontendURL, backendURL, consentURL string) (*Builder, error) {
	frontend, err := parseBase("frontend", frontendURL)
	if err != nil {
		return nil, err
	}
	backend, err := parseBase("backend", backendURL)
	if err != nil {
		return nil, err
	}
	consent, err := parseBase("consent", consentURL)
	if err != nil {
		return nil, err
	}
	return &Builder{frontend: frontend, backend: backend, consent: consent}, nil
}

func parseBase(name, raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("[endpoints New] %w: %s URL is empty", apperrors.ErrConfiguration, name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("[endpoints New] %w: %s URL %q: %v", apperrors.ErrConfiguration, name, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("[endpoints New] %w: %s URL %q must be http or https", apperrors.ErrConfiguration, name, raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("[endpoints New] %w: %s URL %q has no host", apperrors.ErrConfiguration, name, raw)
	}
	return u, nil
}

func (b *Builder) Frontend() *url.URL {
	u := *b.frontend
	return &u
}

func (b *Builder) Backend() *url.URL {
	u := *b.backend
	return &u
}

func (b *Builder) backendPath(path string) *url.URL {
	u := b.backend.JoinPath(path)
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
		u.RawPath = ""
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u
}

// Login is the browser redirect target that starts authentication.
func (b *Builder) Login(switchIdentity bool) *url.URL {
	u := b.backendPath(PathLogin)
	if switchIdentity {
		u.RawQuery = url.Values{ParamSwitchIdentity: {"true"}}.Encode()
	}
	return u
}

// SaveTokens asks the backend to persist the tokens of the current login.
func (b *Builder) SaveTokens() *url.URL {
	u := b.backendPath(PathLogin)
	u.RawQuery = url.Values{ParamSaveTokens: {"true"}}.Encode()
	return u
}

func (b *Builder) Logout() *url.URL {
	return b.backendPath(PathLogout)
}

func (b *Builder) SessionInformation() *url.URL {
	return b.backendPath(PathSessionInformation)
}

func (b *Builder) PodAccessGrant() *url.URL {
	return b.backendPath(PathPodAccessGrant)
}

func (b *Builder) Read(resource *url.URL) *url.URL {
	return b.resourceEndpoint(PathRead, resource)
}

func (b *Builder) Write(resource *url.URL) *url.URL {
	return b.resourceEndpoint(PathWrite, resource)
}

func (b *Builder) resourceEndpoint(path string, resource *url.URL) *url.URL {
	u := b.backendPath(path)
	u.RawQuery = url.Values{ParamResourceURL: {resource.String()}}.Encode()
	return u
}

func (b *Builder) AccessRequest() *url.URL {
	return b.backendPath(PathAccessRequest)
}

func (b *Builder) AccessGrant() *url.URL {
	return b.backendPath(PathAccessGrant)
}

// Consent is the consent authority page where the resource owner approves
// the access request; it redirects back to redirect with an access-grant-id.
func (b *Builder) Consent(accessRequestID string, redirect *url.URL) *url.URL {
	u := *b.consent
	q := u.Query()
	q.Set(ParamRequestVcURL, accessRequestID)
	q.Set(ParamRedirectURL, redirect.String())
	u.RawQuery = q.Encode()
	return &u
}

// ConsentForFrontend redirects back to this application's frontend.
func (b *Builder) ConsentForFrontend(accessRequestID string) *url.URL {
	return b.Consent(accessRequestID, b.frontend)
}
