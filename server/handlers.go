package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jrsteele09/go-pod-app/identity"
	apperrors "github.com/jrsteele09/go-pod-app/internal/errors"
	"github.com/jrsteele09/go-pod-app/sessions"
	"github.com/jrsteele09/go-pod-app/view"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

// IndexPageData contains data for rendering the main page
type IndexPageData struct {
	AppName  string
	Error    string // From a failed action's redirect
	Snapshot view.Snapshot
}

// IndexHandler renders the main page (GET /). A request carrying an
// access-grant-id applies the grant and then redirects to the bare page.
func (s *Server) IndexHandler() (http.HandlerFunc, error) {
	tmpl, err := ParseTemplate("index.html")
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		err := s.main.Load(r.Context(), query)
		if err == nil && query.Get(view.AccessGrantParam) != "" {
			redirectSuccess(w, r, "/")
			return
		}

		data := IndexPageData{
			AppName:  s.config.GetAppName(),
			Error:    query.Get("error"),
			Snapshot: s.main.Snapshot(),
		}
		w.Header().Set("Content-Type", contentTypeHTML)
		if err := tmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render index template")
			http.Error(w, "Failed to render page", http.StatusInternalServerError)
		}
	}, nil
}

// LoginPageHandler waits for the session, then sends a logged in user home
// and everyone else to the backend login.
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nav, err := s.login.Resolve(r.Context())
		if err != nil {
			logError(r.Method, r.URL.Path, err)
			http.Error(w, "Session information unavailable", statusFor(err))
			return
		}
		navigate(w, r, nav)
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		navigate(w, r, s.main.Login())
	}
}

func (s *Server) SwitchIdentityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		navigate(w, r, s.main.SwitchIdentity())
	}
}

func (s *Server) SaveTokensHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		navigate(w, r, s.main.SaveTokens())
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		navigate(w, r, s.main.Logout())
	}
}

func (s *Server) WriteDatasetHandler() http.HandlerFunc {
	return s.actionHandler(s.main.WriteDataset)
}

func (s *Server) ReadDatasetHandler() http.HandlerFunc {
	return s.actionHandler(s.main.ReadDataset)
}

func (s *Server) AccessGrantsHandler() http.HandlerFunc {
	return s.actionHandler(s.main.RetrieveAccessGrants)
}

// actionHandler runs a main page action and returns to the page, which shows
// the outcome from the view's snapshot.
func (s *Server) actionHandler(action func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := action(r.Context()); err != nil {
			logError(r.Method, r.URL.Path, err)
			redirectWithError(w, r, "/", userMessage(err))
			return
		}
		redirectSuccess(w, r, "/")
	}
}

// AccessRequestHandler issues an access request and leaves for the consent page.
func (s *Server) AccessRequestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nav, err := s.main.IssueAccessRequest(r.Context())
		if err != nil {
			logError(r.Method, r.URL.Path, err)
			redirectWithError(w, r, "/", userMessage(err))
			return
		}
		navigate(w, r, nav)
	}
}

// SessionResponse is the JSON view of the session at GET /session.
type SessionResponse struct {
	State    string           `json:"state"`
	Session  *sessions.Info   `json:"session"`
	Identity *identity.Claims `json:"identity,omitempty"`
}

func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := s.main.Session()
		if info == nil {
			writeJSONError(w, "session_unavailable", apperrors.ErrNoSession.Error(), http.StatusServiceUnavailable)
			return
		}

		claims, err := s.main.Identity(r.Context())
		// Raw tokens never leave the process; Identity carries the decoded claims.
		info.Tokens = nil
		resp := SessionResponse{State: s.main.State().String(), Session: info}
		switch {
		case err == nil:
			resp.Identity = claims
		case errors.Is(err, apperrors.ErrNoSession):
		default:
			log.Err(err).Msg("Session identity could not be resolved")
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}

// userMessage is the short text shown on the page for a failed action.
func userMessage(err error) string {
	switch statusFor(err) {
	case http.StatusUnauthorized:
		return "Please log in first"
	case http.StatusConflict:
		return "No pod is available for this session"
	case http.StatusGatewayTimeout:
		return "The backend did not answer in time"
	case http.StatusBadGateway:
		return "The backend rejected the request"
	default:
		return "Something went wrong"
	}
}
