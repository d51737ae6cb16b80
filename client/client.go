// Package client implements the cached fetch client. It wraps plain HTTP GETs
// with a consult-then-populate step against a transfer-state cache, so data
// fetched during the server render pass is not fetched again by the hydrating
// client.
package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	transferstate "github.com/transfer-state/transfer-state"
)

// Mode selects the environment the client runs in.
type Mode int

const (
	// ModeServer is the producing environment: live fetches populate the
	// transfer state, and an explicit per-request credential may be attached
	// to outgoing requests.
	ModeServer Mode = iota
	// ModeBrowser is the consuming environment: the transfer state is only
	// drained, never repopulated, and credentials travel via the cookie jar
	// instead of a manually set header.
	ModeBrowser
)

type Config struct {
	// Environment the client runs in.
	Mode Mode
	// Base URL of the API origin. Fetch paths are resolved against it.
	BaseURL url.URL
	// Transfer state consulted before, and (in server mode) populated after,
	// live fetches. May be nil, in which case every Get is a live fetch.
	State *transferstate.Cache
	// Credential source for outgoing requests. Server mode only; New rejects
	// a browser-mode config carrying one.
	Credentials CredentialSource
	// HTTP client to use. Defaults to a plain client in server mode and a
	// cookie-jar client in browser mode.
	HTTPClient *http.Client
	// Logger to use. The global zerolog logger is used if nil.
	Logger *zerolog.Logger
}

// Client is a cached fetch client bound to one transfer-state cache.
// A server-mode client lives for exactly one render pass.
type Client struct {
	mode  Mode
	base  url.URL
	state *transferstate.Cache
	creds CredentialSource
	http  *http.Client
	log   zerolog.Logger
}

// New creates a Client for the given config.
//
// In browser mode the manual credential header path must not be reachable:
// browsers forbid scripts from setting cookie headers, and this construct-time
// check keeps the relaxed server-only behavior out of the consuming
// environment. Browser-mode clients instead get automatic credential
// inclusion through a cookie jar.
func New(config Config) (*Client, error) {
	if config.Mode == ModeBrowser && config.Credentials != nil {
		return nil, ErrCredentialsInBrowser
	}

	logger := zerolog.New(zerolog.NewConsoleWriter())
	if config.Logger != nil {
		logger = *config.Logger
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if config.Mode == ModeBrowser && httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		httpClient.Jar = jar
	}

	return &Client{
		mode:  config.Mode,
		base:  config.BaseURL,
		state: config.State,
		creds: config.Credentials,
		http:  httpClient,
		log:   logger,
	}, nil
}

// Get returns the response body for the given path and query parameters.
//
// If the transfer state holds an entry for the canonical key, that value is
// returned and the entry removed, so a given key is served from the state at
// most once per document. Otherwise a live fetch is performed; in server mode
// a successful JSON response is added to the state before returning.
//
// Fetch failures propagate to the caller unchanged. There is no retry and no
// fallback value.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	key := transferstate.Key(path, params)

	if c.state != nil {
		if v, ok := c.state.Get(key); ok {
			// read-once: the next request for this key goes to the network
			c.state.Remove(key)
			c.log.Trace().Str("key", key).Msg("Serving from transfer state")
			return v, nil
		}
	}

	return c.fetch(ctx, key)
}

// GetJSON is like Get but decodes the response body into v.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, v any) error {
	body, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// Request identifies one fetch for GetAll.
type Request struct {
	Path   string
	Params url.Values
}

// GetAll performs the given fetches concurrently and returns the bodies in
// request order. It fails on the first error. Because GetAll only returns
// once every fetch has completed, a render pass that loads its data through
// it is guaranteed a complete state snapshot at finalization.
func (c *Client) GetAll(ctx context.Context, reqs []Request) ([]json.RawMessage, error) {
	results := make([]json.RawMessage, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			body, err := c.Get(ctx, req.Path, req.Params)
			if err != nil {
				return err
			}
			results[i] = body
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// fetch performs the live network request for the given canonical key.
// The key doubles as the request URI relative to the base URL.
func (c *Client) fetch(ctx context.Context, key string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+key, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	if c.mode == ModeServer && c.creds != nil {
		if cred, ok := c.creds.Credential(); ok {
			req.Header.Set("Cookie", cred)
		}
	}

	c.log.Trace().Str("key", key).Msg("Fetching from origin")
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{StatusCode: res.StatusCode, Key: key}
	}

	if c.mode == ModeServer && c.state != nil {
		if json.Valid(body) {
			c.state.Set(key, body)
		} else {
			// the embedded snapshot is JSON by format
			c.log.Trace().Str("key", key).Msg("Response is not JSON, not added to transfer state")
		}
	}

	return body, nil
}
