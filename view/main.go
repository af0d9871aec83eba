package view

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/jrsteele09/go-pod-app/endpoints"
	"github.com/jrsteele09/go-pod-app/identity"
	"github.com/jrsteele09/go-pod-app/pod"
	"github.com/jrsteele09/go-pod-app/sessions"
	"github.com/jrsteele09/go-pod-app/vc"
	"github.com/rs/zerolog/log"
)

const (
	// AccessGrantParam is the query parameter the consent authority redirects back with.
	AccessGrantParam = "access-grant-id"

	// BookIndexPath is where the demo dataset lives, relative to the pod root.
	BookIndexPath = "book_index"
)

// SessionStore is the part of sessions.Store the views depend on.
type SessionStore interface {
	Subscribe(fn sessions.Listener) (unsubscribe func())
	Current() *sessions.Info
	WaitLoaded(ctx context.Context) (*sessions.Info, error)
	Refresh(ctx context.Context) (*sessions.Info, error)
	Login(switchIdentity bool) sessions.Navigation
	SwitchIdentity() sessions.Navigation
	SaveTokens() sessions.Navigation
	Logout() sessions.Navigation
}

// ResourceClient reads and writes pod datasets.
type ResourceClient interface {
	ResourceURL(relativePath string) (*url.URL, error)
	Read(ctx context.Context, relativePath string) (*pod.Dataset, error)
	Write(ctx context.Context, relativePath string, ds *pod.Dataset) (string, error)
}

// ConsentClient issues access requests and installs grants.
type ConsentClient interface {
	IssueAccessRequest(ctx context.Context) (*vc.AccessRequest, error)
	SubmitAccessGrant(ctx context.Context, accessGrantID string) error
	ListAccessGrants(ctx context.Context) ([]vc.AccessGrant, error)
}

// Main drives the main page: it tracks the session, applies an access grant
// handed back by the consent authority and runs the user's actions.
type Main struct {
	store     SessionStore
	pod       ResourceClient
	grants    ConsentClient
	endpoints *endpoints.Builder
	verifier  *identity.Verifier

	mu            sync.Mutex
	state         State
	session       *sessions.Info
	unsubscribe   func()
	writtenTurtle string
	readTurtle    string
	accessGrants  []vc.AccessGrant
	lastErr       error
}

// MainOption defines a function type to modify the Main instance.
type MainOption func(*Main)

// WithVerifier verifies the session's ID token before showing identity claims.
func WithVerifier(v *identity.Verifier) MainOption {
	return func(m *Main) {
		m.verifier = v
	}
}

func NewMain(store SessionStore, resources ResourceClient, grants ConsentClient, eps *endpoints.Builder, options ...MainOption) (*Main, error) {
	if store == nil {
		return nil, errors.New("[view NewMain] session store is required")
	}
	if resources == nil {
		return nil, errors.New("[view NewMain] resource client is required")
	}
	if grants == nil {
		return nil, errors.New("[view NewMain] consent client is required")
	}
	if eps == nil {
		return nil, errors.New("[view NewMain] endpoints are required")
	}
	m := &Main{
		store:     store,
		pod:       resources,
		grants:    grants,
		endpoints: eps,
		state:     Uninitialized,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Load subscribes to the session and waits for its first value. When query
// carries an access grant id the grant is submitted only after that first
// value arrived, followed by one refresh: two session fetches in flight at
// once can invalidate each other's single-use refresh token.
func (m *Main) Load(ctx context.Context, query url.Values) error {
	grantID := strings.TrimSpace(query.Get(AccessGrantParam))

	m.mu.Lock()
	subscribed := m.unsubscribe != nil
	m.state = AwaitingSession
	m.mu.Unlock()

	if !subscribed {
		unsubscribe := m.store.Subscribe(m.onSession)
		m.mu.Lock()
		m.unsubscribe = unsubscribe
		m.mu.Unlock()
	}

	info, err := m.store.WaitLoaded(ctx)
	if err != nil {
		return m.fail(fmt.Errorf("[Main Load] %w", err))
	}

	m.mu.Lock()
	m.session = info
	if grantID == "" {
		m.state = SessionKnownNoRedirect
		m.mu.Unlock()
		return nil
	}
	m.state = SessionKnownWithPendingGrantRedirect
	m.mu.Unlock()

	return m.applyGrant(ctx, grantID)
}

func (m *Main) applyGrant(ctx context.Context, grantID string) error {
	if err := m.grants.SubmitAccessGrant(ctx, grantID); err != nil {
		return m.fail(fmt.Errorf("[Main applyGrant] %w", err))
	}
	if _, err := m.store.Refresh(ctx); err != nil {
		return m.fail(fmt.Errorf("[Main applyGrant] %w", err))
	}

	m.mu.Lock()
	m.state = GrantApplied
	m.lastErr = nil
	m.mu.Unlock()
	log.Info().Str("access_grant", grantID).Msg("Access grant applied")
	return nil
}

func (m *Main) onSession(info *sessions.Info) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if info != nil {
		m.session = info
	}
}

func (m *Main) fail(err error) error {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
	log.Err(err).Msg("Main view action failed")
	return err
}

// Close stops listening to the session store.
func (m *Main) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (m *Main) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Main) Login() sessions.Navigation {
	return m.store.Login(false)
}

func (m *Main) SwitchIdentity() sessions.Navigation {
	return m.store.SwitchIdentity()
}

func (m *Main) SaveTokens() sessions.Navigation {
	return m.store.SaveTokens()
}

func (m *Main) Logout() sessions.Navigation {
	return m.store.Logout()
}

// WriteDataset writes the example book dataset to the pod.
func (m *Main) WriteDataset(ctx context.Context) error {
	resource, err := m.pod.ResourceURL(BookIndexPath)
	if err != nil {
		return m.fail(fmt.Errorf("[Main WriteDataset] %w", err))
	}
	ds, err := pod.ExampleBook(resource.String())
	if err != nil {
		return m.fail(fmt.Errorf("[Main WriteDataset] %w", err))
	}
	if _, err := m.pod.Write(ctx, BookIndexPath, ds); err != nil {
		return m.fail(fmt.Errorf("[Main WriteDataset] %w", err))
	}
	turtle, err := ds.Turtle()
	if err != nil {
		return m.fail(fmt.Errorf("[Main WriteDataset] %w", err))
	}

	m.mu.Lock()
	m.writtenTurtle = turtle
	m.lastErr = nil
	m.mu.Unlock()
	return nil
}

// ReadDataset reads the example book dataset back from the pod.
func (m *Main) ReadDataset(ctx context.Context) error {
	ds, err := m.pod.Read(ctx, BookIndexPath)
	if err != nil {
		return m.fail(fmt.Errorf("[Main ReadDataset] %w", err))
	}
	turtle, err := ds.Turtle()
	if err != nil {
		return m.fail(fmt.Errorf("[Main ReadDataset] %w", err))
	}

	m.mu.Lock()
	m.readTurtle = turtle
	m.lastErr = nil
	m.mu.Unlock()
	return nil
}

// IssueAccessRequest creates an access request and returns the consent page
// to navigate to. On failure the session is refreshed before the error is
// returned.
func (m *Main) IssueAccessRequest(ctx context.Context) (sessions.Navigation, error) {
	request, err := m.grants.IssueAccessRequest(ctx)
	if err != nil {
		err = m.fail(fmt.Errorf("[Main IssueAccessRequest] %w", err))
		if _, refreshErr := m.store.Refresh(ctx); refreshErr != nil {
			log.Err(refreshErr).Msg("Session refresh after failed access request")
		}
		return sessions.Navigation{}, err
	}
	return sessions.Navigation{Location: m.endpoints.ConsentForFrontend(request.ID).String()}, nil
}

// RetrieveAccessGrants loads the grants held for the session.
func (m *Main) RetrieveAccessGrants(ctx context.Context) error {
	grants, err := m.grants.ListAccessGrants(ctx)
	if err != nil {
		return m.fail(fmt.Errorf("[Main RetrieveAccessGrants] %w", err))
	}
	m.mu.Lock()
	m.accessGrants = grants
	m.lastErr = nil
	m.mu.Unlock()
	return nil
}

// Identity returns the claims of the session's ID token.
func (m *Main) Identity(ctx context.Context) (*identity.Claims, error) {
	info := m.store.Current()
	if info == nil || info.Tokens == nil {
		return identity.Resolve(ctx, m.verifier, "")
	}
	return identity.Resolve(ctx, m.verifier, info.Tokens.IDToken)
}
