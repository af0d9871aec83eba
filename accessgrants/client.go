package accessgrants

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jrsteele09/go-pod-app/endpoints"
	"github.com/jrsteele09/go-pod-app/internal/backend"
	apperrors "github.com/jrsteele09/go-pod-app/internal/errors"
	"github.com/jrsteele09/go-pod-app/internal/metrics"
	"github.com/jrsteele09/go-pod-app/sessions"
	"github.com/jrsteele09/go-pod-app/vc"
	"github.com/rs/zerolog/log"
)

// RequestValidity is how long an issued access request stays valid.
const RequestValidity = 24 * time.Hour

// SessionSource exposes the latest session value.
type SessionSource interface {
	Current() *sessions.Info
}

// StorageResolver resolves the pod root the access request targets.
type StorageResolver interface {
	RootStorageURL() (*url.URL, error)
}

// Client issues access requests and installs access grants through the backend.
type Client struct {
	client    *backend.Client
	endpoints *endpoints.Builder
	session   SessionSource
	storage   StorageResolver
	metrics   *metrics.Metrics
	nowTime   func() time.Time
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// WithMetrics records grant submission outcomes.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

func NewClient(client *backend.Client, eps *endpoints.Builder, session SessionSource, storage StorageResolver, options ...ClientOption) (*Client, error) {
	if client == nil {
		return nil, errors.New("[accessgrants NewClient] backend client is required")
	}
	if eps == nil {
		return nil, errors.New("[accessgrants NewClient] endpoints are required")
	}
	if session == nil {
		return nil, errors.New("[accessgrants NewClient] session source is required")
	}
	if storage == nil {
		return nil, errors.New("[accessgrants NewClient] storage resolver is required")
	}

	c := &Client{
		client:    client,
		endpoints: eps,
		session:   session,
		storage:   storage,
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// IssueAccessRequest asks for read, write and append access to the root of
// the user's pod for one day. The returned request's ID is what the consent
// authority needs.
func (c *Client) IssueAccessRequest(ctx context.Context) (*vc.AccessRequest, error) {
	info := c.session.Current()
	if info == nil || !info.IsLoggedIn {
		return nil, fmt.Errorf("[IssueAccessRequest] %w", apperrors.ErrAuthenticationRequired)
	}

	root, err := c.storage.RootStorageURL()
	if err != nil {
		return nil, fmt.Errorf("[IssueAccessRequest] %w", err)
	}

	body := vc.AccessRequestBody{
		Data:           []string{root.String()},
		Purpose:        vc.ContainerSharingPurpose,
		ExpirationDate: c.nowTime().Add(RequestValidity).UTC(),
		Access:         vc.FullAccess,
	}
	if info.WebID != nil {
		body.WebID = *info.WebID
	}

	var request vc.AccessRequest
	if err := c.client.SendJSON(ctx, http.MethodPost, c.endpoints.AccessRequest(), body, &request); err != nil {
		return nil, fmt.Errorf("[IssueAccessRequest] %w", err)
	}
	if request.ID == "" {
		return nil, fmt.Errorf("[IssueAccessRequest] %w: access request has no id", apperrors.ErrParse)
	}
	log.Info().Str("access_request", request.ID).Str("target", root.String()).Msg("Access request issued")
	return &request, nil
}

// SubmitAccessGrant installs the grant the consent authority returned. The
// caller refreshes the session afterwards.
func (c *Client) SubmitAccessGrant(ctx context.Context, accessGrantID string) error {
	if accessGrantID == "" {
		return errors.New("[SubmitAccessGrant] access grant id is required")
	}
	var ack string
	err := c.client.SendJSON(ctx, http.MethodPost, c.endpoints.AccessGrant(), vc.SubmitGrantBody{AccessGrantID: accessGrantID}, &ack)
	c.metrics.IncrementGrantSubmission(err)
	if err != nil {
		return fmt.Errorf("[SubmitAccessGrant] %w", err)
	}
	log.Info().Str("access_grant", accessGrantID).Str("ack", ack).Msg("Access grant submitted")
	return nil
}

// ListAccessGrants returns the grants the backend holds for the session.
func (c *Client) ListAccessGrants(ctx context.Context) ([]vc.AccessGrant, error) {
	var grants []vc.AccessGrant
	if err := c.client.GetJSON(ctx, c.endpoints.AccessGrant(), &grants); err != nil {
		return nil, fmt.Errorf("[ListAccessGrants] %w", err)
	}
	return grants, nil
}
