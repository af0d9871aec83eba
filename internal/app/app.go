// Package app wires the clients, session store and views from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-pod-app/accessgrants"
	"github.com/jrsteele09/go-pod-app/endpoints"
	"github.com/jrsteele09/go-pod-app/identity"
	"github.com/jrsteele09/go-pod-app/internal/backend"
	"github.com/jrsteele09/go-pod-app/internal/config"
	"github.com/jrsteele09/go-pod-app/internal/metrics"
	"github.com/jrsteele09/go-pod-app/pod"
	"github.com/jrsteele09/go-pod-app/sessions"
	"github.com/jrsteele09/go-pod-app/view"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type App struct {
	Config    config.Config
	Endpoints *endpoints.Builder
	Backend   *backend.Client
	Store     *sessions.Store
	Pod       *pod.Client
	Grants    *accessgrants.Client
	Verifier  *identity.Verifier // nil when OIDC_ISSUER is unset
	Main      *view.Main
	Login     *view.LoginPage

	registry *prometheus.Registry
}

// New builds the application. The session store starts loading the session
// information in the background straight away.
func New(ctx context.Context, c config.Config) (*App, error) {
	eps, err := endpoints.New(c.GetFrontendURL(), c.GetBackendURL(), c.GetConsentURL())
	if err != nil {
		return nil, fmt.Errorf("[app New] %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	client, err := backend.New(backend.Options{
		Timeout:       c.GetRequestTimeout(),
		SessionCookie: c.GetSessionCookie(),
		CookieURL:     eps.Backend(),
		AccessToken:   c.GetAccessToken(),
		Metrics:       m,
	})
	if err != nil {
		return nil, fmt.Errorf("[app New] %w", err)
	}

	a := &App{
		Config:    c,
		Endpoints: eps,
		Backend:   client,
		registry:  registry,
	}

	if issuer := c.GetOIDCIssuer(); issuer != "" {
		verifier, err := identity.NewVerifier(ctx, issuer, c.GetOIDCClientID())
		if err != nil {
			// Claims are still shown, unverified
			log.Warn().Err(err).Str("issuer", issuer).Msg("ID token verification disabled")
		} else {
			a.Verifier = verifier
		}
	}

	if a.Store, err = sessions.NewStore(ctx, client, eps, sessions.WithMetrics(m)); err != nil {
		return nil, fmt.Errorf("[app New] %w", err)
	}
	if a.Pod, err = pod.NewClient(client, eps, a.Store); err != nil {
		return nil, fmt.Errorf("[app New] %w", err)
	}
	if a.Grants, err = accessgrants.NewClient(client, eps, a.Store, a.Pod, accessgrants.WithMetrics(m)); err != nil {
		return nil, fmt.Errorf("[app New] %w", err)
	}
	if a.Main, err = view.NewMain(a.Store, a.Pod, a.Grants, eps, view.WithVerifier(a.Verifier)); err != nil {
		return nil, fmt.Errorf("[app New] %w", err)
	}
	if a.Login, err = view.NewLoginPage(a.Store, eps); err != nil {
		return nil, fmt.Errorf("[app New] %w", err)
	}
	return a, nil
}

func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
}

// Close releases the views and waits for the session store's initial load.
func (a *App) Close() {
	a.Main.Close()
	a.Store.Close()
}
