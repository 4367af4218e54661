package syrotech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	internalerrors "github.com/rcourtman/syroctl/internal/errors"
	"github.com/rcourtman/syroctl/internal/logging"
	"github.com/rcourtman/syroctl/internal/metrics"
	"github.com/rs/zerolog"
)

const (
	opResolveURL = "resolve_url"
	opGet        = "get"
	opPostForm   = "post_form"
)

// Session performs requests against one router origin. Cookies set by the
// router live in the client's jar for the lifetime of the session; login
// state is never read from them.
type Session struct {
	origin     *url.URL
	httpClient *http.Client
}

// ParseOrigin turns "192.168.1.1", "router.lan:8080" or "http://host" into a
// plaintext HTTP origin. Any other scheme, or a missing host, is rejected.
func ParseOrigin(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, internalerrors.WrapInvalidURLError(opResolveURL, "", fmt.Errorf("empty origin"))
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, internalerrors.WrapInvalidURLError(opResolveURL, raw, err)
	}
	if u.Scheme != "http" {
		return nil, internalerrors.WrapInvalidURLError(opResolveURL, raw,
			fmt.Errorf("scheme %q not supported, the router only speaks http", u.Scheme))
	}
	if u.Host == "" || u.Hostname() == "" {
		return nil, internalerrors.WrapInvalidURLError(opResolveURL, raw, fmt.Errorf("origin has no host"))
	}

	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}

// NewSession binds httpClient to the router at origin.
func NewSession(origin string, httpClient *http.Client) (*Session, error) {
	u, err := ParseOrigin(origin)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		return nil, fmt.Errorf("http client is required")
	}
	return &Session{origin: u, httpClient: httpClient}, nil
}

// Origin returns the router origin, e.g. "http://192.168.1.1".
func (s *Session) Origin() string {
	return s.origin.String()
}

// Resolve joins a path against the origin. Paths that would leave the origin
// (absolute URLs, scheme-relative "//host" references) are rejected.
func (s *Session) Resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, internalerrors.WrapInvalidURLError(opResolveURL, s.Origin(), fmt.Errorf("parse path %q: %w", path, err))
	}
	if ref.IsAbs() || ref.Host != "" {
		return nil, internalerrors.WrapInvalidURLError(opResolveURL, s.Origin(),
			fmt.Errorf("path %q is not relative to the origin", path))
	}
	return s.origin.ResolveReference(ref), nil
}

// Get fetches path, following redirects, and returns the path of the final
// URL together with the full body.
func (s *Session) Get(ctx context.Context, path string) (string, string, error) {
	resp, err := s.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", internalerrors.WrapNetworkError(opGet, s.Origin(), fmt.Errorf("read body of %s: %w", path, err))
	}

	return finalPath(resp), string(body), nil
}

// PostForm submits fields URL-encoded to path, following redirects, and
// returns the path of the final URL. The response body is drained.
func (s *Session) PostForm(ctx context.Context, path string, fields url.Values) (string, error) {
	resp, err := s.do(ctx, http.MethodPost, path, strings.NewReader(fields.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return "", internalerrors.WrapNetworkError(opPostForm, s.Origin(), fmt.Errorf("read body of %s: %w", path, err))
	}

	return finalPath(resp), nil
}

// Submit posts fields URL-encoded to path and returns as soon as the
// response headers arrive. The body is closed unread, so a connection the
// router drops mid-body is not an error.
func (s *Session) Submit(ctx context.Context, path string, fields url.Values) error {
	resp, err := s.do(ctx, http.MethodPost, path, strings.NewReader(fields.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (s *Session) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	op := opGet
	if method == http.MethodPost {
		op = opPostForm
	}

	u, err := s.Resolve(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, internalerrors.WrapInvalidURLError(op, s.Origin(), err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	elapsed := time.Since(start)
	metrics.ObserveRequest(method, elapsed, err)

	// Per-request logging builds a run-scoped logger; skip it unless debug is on.
	if logging.IsLevelEnabled(zerolog.DebugLevel) {
		logger := logging.FromContext(ctx)
		if err != nil {
			logger.Debug().
				Err(err).
				Str("method", method).
				Str("path", path).
				Dur("elapsed", elapsed).
				Msg("Router request failed")
		} else {
			logger.Debug().
				Str("method", method).
				Str("path", path).
				Str("final_path", finalPath(resp)).
				Int("status", resp.StatusCode).
				Dur("elapsed", elapsed).
				Msg("Router request completed")
		}
	}

	if err != nil {
		return nil, internalerrors.WrapNetworkError(op, s.Origin(), err)
	}
	return resp, nil
}

// finalPath is the path of the last URL reached after redirects.
func finalPath(resp *http.Response) string {
	if resp.Request == nil || resp.Request.URL == nil || resp.Request.URL.Path == "" {
		return "/"
	}
	return resp.Request.URL.Path
}
