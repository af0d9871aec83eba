package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-pod-app/accessgrants"
	"github.com/jrsteele09/go-pod-app/endpoints"
	"github.com/jrsteele09/go-pod-app/internal/backend"
	"github.com/jrsteele09/go-pod-app/internal/config"
	"github.com/jrsteele09/go-pod-app/internal/metrics"
	"github.com/jrsteele09/go-pod-app/pod"
	"github.com/jrsteele09/go-pod-app/server"
	"github.com/jrsteele09/go-pod-app/sessions"
	"github.com/jrsteele09/go-pod-app/view"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
)

const (
	frontendURL = "http://localhost:4200"
	consentURL  = "https://ama.example/accessRequest/"
	testWebID   = "https://id.example/alice/profile/card#me"
	testPod     = "https://pod.example/alice/"
)

// fakeBackend stands in for the session backend.
type fakeBackend struct {
	mu        sync.Mutex
	calls     []string
	loggedIn  bool
	idToken   string
	resources map[string]string
	grantIDs  []string

	sessionFailures int // session-information answers 502 this many times
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) Resource(resource string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resources[resource]
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	switch r.Method + " " + r.URL.Path {
	case "GET /session-information":
		if f.sessionFailures > 0 {
			f.sessionFailures--
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
			return
		}
		info := sessions.Info{IsLoggedIn: f.loggedIn}
		if f.idToken != "" {
			info.Tokens = &sessions.Tokens{AccessToken: "access-secret", IDToken: f.idToken}
		}
		if f.loggedIn {
			webID := testWebID
			info.WebID = &webID
			info.StorageSpaces = []string{testPod}
			if n := len(f.grantIDs); n > 0 {
				grant := f.grantIDs[n-1]
				info.AccessGrantID = &grant
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(info)
	case "POST /access-grant":
		var body struct {
			AccessGrantID string `json:"accessGrantId"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.grantIDs = append(f.grantIDs, body.AccessGrantID)
		_, _ = io.WriteString(w, "grant stored")
	case "GET /access-grant":
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":"https://vc.example/grant-1","type":["VerifiableCredential","SolidAccessGrant"]}]`)
	case "POST /access-request":
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"https://vc.example/request-1","type":["VerifiableCredential","SolidAccessRequest"]}`)
	case "POST /write":
		body, _ := io.ReadAll(r.Body)
		f.resources[r.URL.Query().Get(endpoints.ParamResourceURL)] = string(body)
		_, _ = io.WriteString(w, "written")
	case "GET /read":
		turtle, ok := f.resources[r.URL.Query().Get(endpoints.ParamResourceURL)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/turtle")
		_, _ = io.WriteString(w, turtle)
	default:
		http.NotFound(w, r)
	}
}

type testFixture struct {
	backend    *fakeBackend
	backendURL string
	store      *sessions.Store
	server     *server.Server
}

func setupTestFixture(t *testing.T, loggedIn bool) *testFixture {
	t.Helper()
	f := newTestFixture(t, &fakeBackend{loggedIn: loggedIn, resources: map[string]string{}})
	_, err := f.store.WaitLoaded(context.Background())
	require.NoError(t, err)
	return f
}

// newTestFixture wires the server against fb without waiting for the first
// session value.
func newTestFixture(t *testing.T, fb *fakeBackend) *testFixture {
	t.Helper()
	t.Setenv("APP_NAME", "Pod Test")
	t.Setenv("ENV", "TEST")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example")

	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)

	eps, err := endpoints.New(frontendURL, srv.URL, consentURL)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	client, err := backend.New(backend.Options{Timeout: 2 * time.Second, Metrics: m})
	require.NoError(t, err)

	store, err := sessions.NewStore(context.Background(), client, eps, sessions.WithMetrics(m))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	podClient, err := pod.NewClient(client, eps, store)
	require.NoError(t, err)
	grants, err := accessgrants.NewClient(client, eps, store, podClient, accessgrants.WithMetrics(m))
	require.NoError(t, err)

	main, err := view.NewMain(store, podClient, grants, eps)
	require.NoError(t, err)
	t.Cleanup(main.Close)
	login, err := view.NewLoginPage(store, eps)
	require.NoError(t, err)

	s, err := server.New(config.New(), main, login, server.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	require.NoError(t, err)

	return &testFixture{backend: fb, backendURL: srv.URL, store: store, server: s}
}

func (f *testFixture) do(t *testing.T, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	t.Run("logged in", func(t *testing.T) {
		f := setupTestFixture(t, true)
		rec := f.do(t, http.MethodGet, "/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		require.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
		require.Contains(t, rec.Body.String(), "Pod Test")
		require.Contains(t, rec.Body.String(), testWebID)
		require.Contains(t, rec.Body.String(), testPod)
	})

	t.Run("logged out", func(t *testing.T) {
		f := setupTestFixture(t, false)
		rec := f.do(t, http.MethodGet, "/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "Not logged in.")
		require.NotContains(t, rec.Body.String(), "/dataset/write")
	})

	t.Run("error message from query", func(t *testing.T) {
		f := setupTestFixture(t, true)
		rec := f.do(t, http.MethodGet, "/?error="+url.QueryEscape("Please log in first"), nil)
		require.Contains(t, rec.Body.String(), "Please log in first")
	})

	t.Run("unknown path", func(t *testing.T) {
		f := setupTestFixture(t, true)
		rec := f.do(t, http.MethodGet, "/nope", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestIndexAppliesAccessGrant(t *testing.T) {
	f := setupTestFixture(t, true)

	rec := f.do(t, http.MethodGet, "/?"+view.AccessGrantParam+"=XYZ", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	require.Equal(t, []string{
		"GET /session-information",
		"POST /access-grant",
		"GET /session-information",
	}, f.backend.Calls())

	info := f.store.Current()
	require.NotNil(t, info.AccessGrantID)
	require.Equal(t, "XYZ", *info.AccessGrantID)
}

func TestIndexRecoversFromFailedInitialLoad(t *testing.T) {
	f := newTestFixture(t, &fakeBackend{loggedIn: true, resources: map[string]string{}, sessionFailures: 1})
	f.store.Close()
	require.Nil(t, f.store.Current())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), testWebID)
	require.Equal(t, []string{
		"GET /session-information",
		"GET /session-information",
	}, f.backend.Calls())

	t.Run("login page", func(t *testing.T) {
		f := newTestFixture(t, &fakeBackend{loggedIn: true, resources: map[string]string{}, sessionFailures: 1})
		f.store.Close()

		rec := f.do(t, http.MethodGet, server.RouteLogin, nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, frontendURL, rec.Header().Get("Location"))
	})
}

func TestLoginPage(t *testing.T) {
	t.Run("logged in goes home", func(t *testing.T) {
		f := setupTestFixture(t, true)
		rec := f.do(t, http.MethodGet, server.RouteLogin, nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, frontendURL, rec.Header().Get("Location"))
	})

	t.Run("logged out goes to backend login", func(t *testing.T) {
		f := setupTestFixture(t, false)
		rec := f.do(t, http.MethodGet, server.RouteLogin, nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, f.backendURL+"/login", rec.Header().Get("Location"))
	})
}

func TestNavigationRoutes(t *testing.T) {
	f := setupTestFixture(t, true)

	tests := []struct {
		route    string
		location string
	}{
		{server.RouteAuthLogin, f.backendURL + "/login"},
		{server.RouteAuthSwitchIdentity, f.backendURL + "/login?switchIdentity=true"},
		{server.RouteAuthSaveTokens, f.backendURL + "/login?saveTokens=true"},
		{server.RouteAuthLogout, f.backendURL + "/logout"},
	}
	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.route, nil)
			require.Equal(t, http.StatusSeeOther, rec.Code)
			require.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}

	t.Run("htmx", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, server.RouteAuthLogout, http.Header{"Hx-Request": {"true"}})
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, f.backendURL+"/logout", rec.Header().Get("HX-Redirect"))
	})
}

func TestDatasetRoutes(t *testing.T) {
	f := setupTestFixture(t, true)

	rec := f.do(t, http.MethodPost, server.RouteDatasetWrite, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Contains(t, f.backend.Resource(testPod+view.BookIndexPath), "ZYX987 of Example Poetry")

	rec = f.do(t, http.MethodPost, server.RouteDatasetRead, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = f.do(t, http.MethodGet, "/", nil)
	require.Contains(t, rec.Body.String(), "ZYX987 of Example Poetry")
}

func TestDatasetRouteWithoutPod(t *testing.T) {
	f := setupTestFixture(t, false)

	rec := f.do(t, http.MethodPost, server.RouteDatasetRead, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/", location.Path)
	require.Equal(t, "No pod is available for this session", location.Query().Get("error"))
}

func TestAccessRequestRoute(t *testing.T) {
	t.Run("navigates to consent", func(t *testing.T) {
		f := setupTestFixture(t, true)
		rec := f.do(t, http.MethodPost, server.RouteAccessRequest, nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)

		location, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		require.Equal(t, "ama.example", location.Host)
		require.Equal(t, "https://vc.example/request-1", location.Query().Get(endpoints.ParamRequestVcURL))
		require.Equal(t, frontendURL, location.Query().Get(endpoints.ParamRedirectURL))
	})

	t.Run("logged out", func(t *testing.T) {
		f := setupTestFixture(t, false)
		rec := f.do(t, http.MethodPost, server.RouteAccessRequest, nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Contains(t, rec.Header().Get("Location"), "error=")
		require.NotContains(t, f.backend.Calls(), "POST /access-request")
	})
}

func TestAccessGrantsRoute(t *testing.T) {
	f := setupTestFixture(t, true)
	rec := f.do(t, http.MethodPost, server.RouteAccessGrants, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = f.do(t, http.MethodGet, "/", nil)
	require.Contains(t, rec.Body.String(), "https://vc.example/grant-1")
}

func TestSessionRoute(t *testing.T) {
	f := setupTestFixture(t, true)

	rec := f.do(t, http.MethodGet, server.RouteSession, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))

	var resp server.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Session)
	require.True(t, resp.Session.IsLoggedIn)
	require.Equal(t, testWebID, *resp.Session.WebID)
	require.Nil(t, resp.Identity)

	t.Run("tokens are not exposed", func(t *testing.T) {
		f := newTestFixture(t, &fakeBackend{loggedIn: true, idToken: "not-a-jwt", resources: map[string]string{}})
		_, err := f.store.WaitLoaded(context.Background())
		require.NoError(t, err)
		require.NotNil(t, f.store.Current().Tokens)

		rec := f.do(t, http.MethodGet, server.RouteSession, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotContains(t, rec.Body.String(), "access-secret")
		require.NotContains(t, rec.Body.String(), "not-a-jwt")

		var resp server.SessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Nil(t, resp.Session.Tokens)
		require.NotNil(t, f.store.Current().Tokens, "the store keeps its own copy")
	})

	t.Run("cors preflight", func(t *testing.T) {
		rec := f.do(t, http.MethodOptions, server.RouteSession, http.Header{"Origin": {"https://app.example"}})
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, server.RouteSession, http.Header{"Origin": {"https://evil.example"}})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestMetricsRoute(t *testing.T) {
	f := setupTestFixture(t, true)
	f.do(t, http.MethodGet, "/", nil)

	rec := f.do(t, http.MethodGet, server.RouteMetrics, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "podapp_backend_requests_total")
	require.Contains(t, rec.Body.String(), "podapp_session_refreshes_total")
}

func TestRecoverMiddleware(t *testing.T) {
	f := setupTestFixture(t, true)
	h := server.ChainMiddleware(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}, f.server.HTMLMiddleWare()...)

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNewRequiresViews(t *testing.T) {
	_, err := server.New(config.New(), nil, nil)
	require.Error(t, err)
}
