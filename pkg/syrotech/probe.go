package syrotech

import (
	"context"
)

// SessionState is what a probe concluded about the router session.
type SessionState int

const (
	SessionUnknown SessionState = iota
	SessionAuthenticated
	SessionAtLoginPage
)

func (s SessionState) String() string {
	switch s {
	case SessionAuthenticated:
		return "authenticated"
	case SessionAtLoginPage:
		return "at_login_page"
	default:
		return "unknown"
	}
}

// Probe is the result of a session probe. Body holds the page the probe
// landed on so the login flow can scrape tokens from it without a second GET.
type Probe struct {
	State     SessionState
	FinalPath string
	Body      string
}

// SessionProber decides whether the session is already authenticated.
type SessionProber interface {
	Probe(ctx context.Context, session *Session) (Probe, error)
}

// PathProber fetches RootPath and treats a redirect to LoginPagePath as
// "not logged in". Anything else counts as authenticated.
type PathProber struct {
	RootPath      string
	LoginPagePath string
}

// NewPathProber builds the path prober for a firmware table.
func NewPathProber(fw Firmware) PathProber {
	return PathProber{RootPath: fw.RootPath, LoginPagePath: fw.LoginPagePath}
}

// Probe implements SessionProber.
func (p PathProber) Probe(ctx context.Context, session *Session) (Probe, error) {
	path, body, err := session.Get(ctx, p.RootPath)
	if err != nil {
		return Probe{State: SessionUnknown}, err
	}

	state := SessionAuthenticated
	if path == p.LoginPagePath {
		state = SessionAtLoginPage
	}
	return Probe{State: state, FinalPath: path, Body: body}, nil
}
