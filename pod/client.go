package pod

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-pod-app/endpoints"
	"github.com/jrsteele09/go-pod-app/internal/backend"
	apperrors "github.com/jrsteele09/go-pod-app/internal/errors"
	"github.com/jrsteele09/go-pod-app/sessions"
	"github.com/rs/zerolog/log"
)

// SessionSource exposes the latest session value without allowing changes to it.
type SessionSource interface {
	Current() *sessions.Info
}

// Client reads and writes datasets in the logged in user's pod through the backend.
type Client struct {
	client    *backend.Client
	endpoints *endpoints.Builder
	session   SessionSource
}

func NewClient(client *backend.Client, eps *endpoints.Builder, session SessionSource) (*Client, error) {
	if client == nil {
		return nil, errors.New("[pod NewClient] backend client is required")
	}
	if eps == nil {
		return nil, errors.New("[pod NewClient] endpoints are required")
	}
	if session == nil {
		return nil, errors.New("[pod NewClient] session source is required")
	}
	return &Client{client: client, endpoints: eps, session: session}, nil
}

// RootStorageURL returns the first storage space of the current session.
func (c *Client) RootStorageURL() (*url.URL, error) {
	root, ok := c.session.Current().RootStorage()
	if !ok {
		return nil, fmt.Errorf("[pod RootStorageURL] %w", apperrors.ErrNoStorageSpace)
	}
	u, err := url.Parse(root)
	if err != nil {
		return nil, fmt.Errorf("[pod RootStorageURL] invalid storage space %q: %w", root, err)
	}
	return u, nil
}

// ResourceURL appends relativePath to the root storage URL with exactly one
// "/" between them, whether or not the root already ends with one.
func (c *Client) ResourceURL(relativePath string) (*url.URL, error) {
	root, err := c.RootStorageURL()
	if err != nil {
		return nil, err
	}
	return JoinResource(root, relativePath), nil
}

// JoinResource is the path arithmetic behind ResourceURL.
func JoinResource(root *url.URL, relativePath string) *url.URL {
	u := *root
	u.RawPath = ""
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.Path += strings.TrimLeft(relativePath, "/")
	return &u
}

// Read fetches the dataset stored at relativePath in the root storage.
func (c *Client) Read(ctx context.Context, relativePath string) (*Dataset, error) {
	resource, err := c.ResourceURL(relativePath)
	if err != nil {
		return nil, err
	}
	return c.ReadURL(ctx, resource)
}

// ReadURL fetches the dataset at an absolute resource URL.
func (c *Client) ReadURL(ctx context.Context, resource *url.URL) (*Dataset, error) {
	turtle, err := c.client.GetText(ctx, c.endpoints.Read(resource), backend.ContentTypeTurtle)
	if err != nil {
		return nil, fmt.Errorf("[pod ReadURL] %w", err)
	}
	ds, err := ParseTurtle(turtle)
	if err != nil {
		return nil, fmt.Errorf("[pod ReadURL] %s: %w", resource, err)
	}
	log.Debug().Str("resource", resource.String()).Int("triples", ds.Len()).Msg("Dataset read")
	return ds, nil
}

// Write stores ds at relativePath in the root storage and returns the backend's acknowledgment.
func (c *Client) Write(ctx context.Context, relativePath string, ds *Dataset) (string, error) {
	resource, err := c.ResourceURL(relativePath)
	if err != nil {
		return "", err
	}
	return c.WriteURL(ctx, resource, ds)
}

// WriteURL stores ds at an absolute resource URL.
func (c *Client) WriteURL(ctx context.Context, resource *url.URL, ds *Dataset) (string, error) {
	turtle, err := ds.Turtle()
	if err != nil {
		return "", fmt.Errorf("[pod WriteURL] %w", err)
	}
	ack, err := c.client.SendText(ctx, http.MethodPost, c.endpoints.Write(resource), backend.ContentTypeTurtle, turtle)
	if err != nil {
		return "", fmt.Errorf("[pod WriteURL] %w", err)
	}
	log.Debug().Str("resource", resource.String()).Int("triples", ds.Len()).Msg("Dataset written")
	return ack, nil
}
