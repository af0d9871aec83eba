package view

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jrsteele09/go-pod-app/endpoints"
	"github.com/jrsteele09/go-pod-app/sessions"
)

// LoginPage sends a logged in user home and everyone else to the backend login.
type LoginPage struct {
	store     SessionStore
	endpoints *endpoints.Builder
}

func NewLoginPage(store SessionStore, eps *endpoints.Builder) (*LoginPage, error) {
	if store == nil || eps == nil {
		return nil, errors.New("[view NewLoginPage] session store and endpoints are required")
	}
	return &LoginPage{store: store, endpoints: eps}, nil
}

// Resolve waits for the session and decides where to navigate.
func (l *LoginPage) Resolve(ctx context.Context) (sessions.Navigation, error) {
	info, err := l.store.WaitLoaded(ctx)
	if err != nil {
		return sessions.Navigation{}, fmt.Errorf("[LoginPage Resolve] %w", err)
	}
	if info != nil && info.IsLoggedIn {
		frontend := l.endpoints.Frontend()
		origin := url.URL{Scheme: frontend.Scheme, Host: frontend.Host}
		return sessions.Navigation{Location: origin.String()}, nil
	}
	return l.store.Login(false), nil
}
