package server

// Route path constants
const (
	RouteIndex = "/{$}"
	RouteLogin = "/login"

	// Auth Routes - navigation to the session backend
	RouteAuthLogin          = "/auth/login"
	RouteAuthSwitchIdentity = "/auth/switch-identity"
	RouteAuthSaveTokens     = "/auth/save-tokens"
	RouteAuthLogout         = "/auth/logout"

	// Pod Routes
	RouteDatasetWrite = "/dataset/write"
	RouteDatasetRead  = "/dataset/read"

	// Access Grant Routes
	RouteAccessRequest = "/access-request"
	RouteAccessGrants  = "/access-grants"

	// API Routes
	RouteSession = "/session"
	RouteMetrics = "/metrics"
)
