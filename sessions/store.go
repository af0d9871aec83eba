package sessions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/jrsteele09/go-pod-app/endpoints"
	"github.com/jrsteele09/go-pod-app/internal/backend"
	"github.com/jrsteele09/go-pod-app/internal/metrics"
	"github.com/jrsteele09/go-pod-app/vc"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "session-information"

// Listener receives every new session value. nil means "not loaded yet".
type Listener func(*Info)

// Store owns the single live session value. Refresh is the only path that
// replaces it; subscribers get the latest value on Subscribe and every
// replacement after that.
type Store struct {
	client    *backend.Client
	endpoints *endpoints.Builder
	metrics   *metrics.Metrics

	mu      sync.RWMutex
	current *Info

	// notifyMu orders value replacement and listener delivery so no
	// subscriber ever sees an older value after a newer one.
	notifyMu  sync.Mutex
	listeners map[int]Listener
	nextID    int

	loaded     chan struct{}
	loadedOnce sync.Once

	refreshes   singleflight.Group
	initialDone chan struct{}
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithMetrics records refresh outcomes.
func WithMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore creates the store and starts loading the session information in
// the background. Early subscribers observe nil, then the loaded value.
func NewStore(ctx context.Context, client *backend.Client, eps *endpoints.Builder, options ...StoreOption) (*Store, error) {
	if client == nil {
		return nil, errors.New("[NewStore] backend client is required")
	}
	if eps == nil {
		return nil, errors.New("[NewStore] endpoints are required")
	}

	s := &Store{
		client:      client,
		endpoints:   eps,
		listeners:   make(map[int]Listener),
		loaded:      make(chan struct{}),
		initialDone: make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}

	go func() {
		defer close(s.initialDone)
		if _, err := s.Refresh(ctx); err != nil {
			log.Err(err).Msg("Initial session information load failed")
		}
	}()

	return s, nil
}

// Close waits for the initial load to finish.
func (s *Store) Close() {
	<-s.initialDone
}

// Current returns a copy of the latest value, nil when nothing has been loaded.
func (s *Store) Current() *Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Subscribe registers fn and immediately replays the latest value to it.
// Listeners must not call Subscribe themselves.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.notifyMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	fn(s.Current())
	s.notifyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.notifyMu.Lock()
			delete(s.listeners, id)
			s.notifyMu.Unlock()
		})
	}
}

// WaitLoaded returns the session value once one has been loaded. It waits
// for the initial load; if that failed, it fetches again itself, so a single
// failed load at startup is retried by the next caller.
func (s *Store) WaitLoaded(ctx context.Context) (*Info, error) {
	select {
	case <-s.loaded:
		return s.Current(), nil
	case <-s.initialDone:
	case <-ctx.Done():
		return nil, fmt.Errorf("[Store WaitLoaded] %w", ctx.Err())
	}

	select {
	case <-s.loaded:
		return s.Current(), nil
	default:
	}
	if _, err := s.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("[Store WaitLoaded] %w", err)
	}
	return s.Current(), nil
}

// Refresh fetches the session information and replaces the stored value.
// On failure the stored value is left as it was. Calls made while a fetch
// is in flight share its result instead of issuing a second request: the
// backend may rotate a single-use refresh token on every fetch.
//
// The shared fetch is detached from the caller's cancellation and bounded by
// the backend client's timeout; ctx only limits how long this caller waits.
func (s *Store) Refresh(ctx context.Context) (*Info, error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.refreshes.DoChan(refreshKey, func() (interface{}, error) {
		var info Info
		err := s.client.GetJSON(fetchCtx, s.endpoints.SessionInformation(), &info)
		s.metrics.IncrementRefresh(err)
		if err != nil {
			return nil, err
		}
		s.set(&info)
		return &info, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("[Store Refresh] %w", res.Err)
		}
		return res.Val.(*Info).Clone(), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("[Store Refresh] %w", ctx.Err())
	}
}

func (s *Store) set(info *Info) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.current = info.Clone()
	s.mu.Unlock()

	for _, fn := range s.listeners {
		fn(info.Clone())
	}

	s.loadedOnce.Do(func() { close(s.loaded) })
}

// SetAccessGrant attaches grant to the backend session and then refreshes,
// so the new grant is only ever observed through a fetched value.
func (s *Store) SetAccessGrant(ctx context.Context, grant vc.AccessGrant) error {
	if err := s.client.SendJSON(ctx, http.MethodPut, s.endpoints.PodAccessGrant(), grant, nil); err != nil {
		return fmt.Errorf("[Store SetAccessGrant] %w", err)
	}
	if _, err := s.Refresh(ctx); err != nil {
		return fmt.Errorf("[Store SetAccessGrant] %w", err)
	}
	return nil
}

func (s *Store) Login(switchIdentity bool) Navigation {
	return Navigation{Location: s.endpoints.Login(switchIdentity).String()}
}

// SwitchIdentity logs in again under another identity, for users whose pod
// and WebID were removed by another client application.
func (s *Store) SwitchIdentity() Navigation {
	return s.Login(true)
}

// SaveTokens logs in again asking the backend to keep the identity provider
// tokens, which then appear in the session information.
func (s *Store) SaveTokens() Navigation {
	return Navigation{Location: s.endpoints.SaveTokens().String()}
}

func (s *Store) Logout() Navigation {
	return Navigation{Location: s.endpoints.Logout().String()}
}
