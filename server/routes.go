package server

import (
	"fmt"
)

func (s *Server) initRoutes() error {
	index, err := s.IndexHandler()
	if err != nil {
		return fmt.Errorf("[initRoutes] %w", err)
	}
	s.RegisterRouteHandler("GET "+RouteIndex, ChainMiddleware(index, s.HTMLMiddleWare(s.NoStoreMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.HTMLMiddleWare()...))

	// Navigation to the backend
	s.RegisterRouteHandler("GET "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAuthSwitchIdentity, ChainMiddleware(s.SwitchIdentityHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAuthSaveTokens, ChainMiddleware(s.SaveTokensHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// Actions
	s.RegisterRouteHandler("POST "+RouteDatasetWrite, ChainMiddleware(s.WriteDatasetHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteDatasetRead, ChainMiddleware(s.ReadDatasetHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAccessRequest, ChainMiddleware(s.AccessRequestHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAccessGrants, ChainMiddleware(s.AccessGrantsHandler(), s.HTMLMiddleWare()...))

	// API
	s.RegisterRouteHandler("GET "+RouteSession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteSession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))
	if s.metrics != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics)
	}
	return nil
}
