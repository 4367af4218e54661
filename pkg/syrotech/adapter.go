package syrotech

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	internalerrors "github.com/rcourtman/syroctl/internal/errors"
	"github.com/rcourtman/syroctl/internal/logging"
	"github.com/rcourtman/syroctl/internal/metrics"
	"github.com/rcourtman/syroctl/internal/transport"
)

// Steps named in errors returned by the adapter.
const (
	OpProbeRoot       = "probe_root"
	OpExtractCaptcha  = "extract_captcha"
	OpExtractCSRF     = "extract_csrf"
	OpSubmitLogin     = "submit_login"
	OpFetchRebootPage = "fetch_reboot_page"
	OpSubmitReboot    = "submit_reboot"
)

// Credentials for the router's web UI.
type Credentials struct {
	Username string
	Password string
}

// Config configures an Adapter.
type Config struct {
	Origin      string
	Credentials Credentials

	Firmware   *Firmware     // defaults to DefaultFirmware
	HTTPClient *http.Client  // defaults to transport.NewHTTPClient(Timeout, nil)
	Prober     SessionProber // defaults to NewPathProber(Firmware)
	Timeout    time.Duration // ignored when HTTPClient is set
}

// LoginOutcome tells whether Login had to submit the login form.
type LoginOutcome int

const (
	AlreadyLoggedIn LoginOutcome = iota
	LoggedIn
)

func (o LoginOutcome) String() string {
	if o == LoggedIn {
		return "logged_in"
	}
	return "already_logged_in"
}

// Performed reports whether a login form was submitted.
func (o LoginOutcome) Performed() bool {
	return o == LoggedIn
}

// RebootResult describes a reboot request that was accepted by the transport.
// The device restarts asynchronously; nothing waits for it.
type RebootResult struct {
	TriggeredAt    time.Time
	ExpectedWithin time.Duration
}

// Adapter drives the login and reboot forms of one router. It keeps no
// "logged in" flag: every flow probes the session again. Not safe for
// concurrent use.
type Adapter struct {
	session  *Session
	creds    Credentials
	firmware Firmware
	prober   SessionProber
	now      func() time.Time
}

// New validates cfg and builds an Adapter with its own cookie jar.
func New(cfg Config) (*Adapter, error) {
	fw := DefaultFirmware
	if cfg.Firmware != nil {
		fw = *cfg.Firmware
	}
	if err := fw.Validate(); err != nil {
		return nil, err
	}

	if cfg.Credentials.Username == "" {
		return nil, fmt.Errorf("username is required")
	}

	httpClient, err := sessionClient(cfg.HTTPClient, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	session, err := NewSession(cfg.Origin, httpClient)
	if err != nil {
		return nil, err
	}

	prober := cfg.Prober
	if prober == nil {
		prober = NewPathProber(fw)
	}

	return &Adapter{
		session:  session,
		creds:    cfg.Credentials,
		firmware: fw,
		prober:   prober,
		now:      time.Now,
	}, nil
}

// sessionClient returns a client that is guaranteed to carry a cookie jar.
// A supplied client without one is copied rather than modified.
func sessionClient(client *http.Client, timeout time.Duration) (*http.Client, error) {
	if client == nil {
		return transport.NewHTTPClient(timeout, nil)
	}
	if client.Jar != nil {
		return client, nil
	}

	jar, err := transport.NewCookieJar()
	if err != nil {
		return nil, err
	}
	withJar := *client
	withJar.Jar = jar
	return &withJar, nil
}

// Origin returns the router origin the adapter talks to.
func (a *Adapter) Origin() string {
	return a.session.Origin()
}

// Firmware returns the table the adapter was built with.
func (a *Adapter) Firmware() Firmware {
	return a.firmware
}

// Status probes the session without submitting anything. A prober that
// cannot tell whether the session is authenticated is an error.
func (a *Adapter) Status(ctx context.Context) (Probe, error) {
	probe, err := a.prober.Probe(ctx, a.session)
	if err != nil {
		return probe, internalerrors.Retag(err, OpProbeRoot, a.Origin())
	}
	if probe.State != SessionAuthenticated && probe.State != SessionAtLoginPage {
		return probe, internalerrors.WrapLoginError(OpProbeRoot, a.Origin(),
			fmt.Errorf("session state %s after landing on %s", probe.State, probe.FinalPath))
	}
	return probe, nil
}

// Login makes sure the session is authenticated. When the probe lands on the
// login page it scrapes the captcha and CSRF token from that page, submits
// them with the credentials and expects to be redirected to the dashboard.
func (a *Adapter) Login(ctx context.Context) (outcome LoginOutcome, err error) {
	defer func() {
		switch {
		case err != nil:
			metrics.ObserveLogin(metrics.LoginResultFailed)
		case outcome.Performed():
			metrics.ObserveLogin(metrics.LoginResultLoggedIn)
		default:
			metrics.ObserveLogin(metrics.LoginResultAlreadyLoggedIn)
		}
	}()

	logger := logging.FromContext(ctx).With().Str("origin", a.Origin()).Logger()

	probe, err := a.Status(ctx)
	if err != nil {
		return AlreadyLoggedIn, err
	}

	if probe.State == SessionAuthenticated {
		logger.Debug().
			Str("final_path", probe.FinalPath).
			Stringer("state", probe.State).
			Msg("Session already authenticated")
		return AlreadyLoggedIn, nil
	}

	captcha, err := a.firmware.Captcha.Find(probe.Body)
	if err != nil {
		return AlreadyLoggedIn, internalerrors.Retag(err, OpExtractCaptcha, a.Origin())
	}

	csrfToken, err := a.firmware.CSRF.Find(probe.Body)
	if err != nil {
		return AlreadyLoggedIn, internalerrors.Retag(err, OpExtractCSRF, a.Origin())
	}

	fields := url.Values{}
	fields.Set(a.firmware.UsernameField, a.creds.Username)
	fields.Set(a.firmware.PasswordField, a.creds.Password)
	fields.Set(a.firmware.CaptchaField, captcha)
	fields.Set(a.firmware.CSRFField, csrfToken)

	logger.Debug().Str("user", a.creds.Username).Msg("Submitting login form")

	landed, err := a.session.PostForm(ctx, a.firmware.LoginSubmitPath, fields)
	if err != nil {
		return AlreadyLoggedIn, internalerrors.Retag(err, OpSubmitLogin, a.Origin())
	}

	// Credentials, captcha and token rejections all look the same from here.
	if landed != a.firmware.DashboardPath {
		return AlreadyLoggedIn, internalerrors.WrapLoginError(OpSubmitLogin, a.Origin(),
			fmt.Errorf("expected redirect to %s, landed on %s", a.firmware.DashboardPath, landed))
	}

	logger.Info().Str("user", a.creds.Username).Msg("Logged in to router")
	return LoggedIn, nil
}

// Reboot logs in (always probing first), then submits the reboot form with
// the CSRF token from the reboot page. The reboot counts as triggered once
// the response headers arrive; the body is never read since the device may
// drop the connection while restarting.
func (a *Adapter) Reboot(ctx context.Context) (*RebootResult, error) {
	if _, err := a.Login(ctx); err != nil {
		return nil, err
	}

	_, body, err := a.session.Get(ctx, a.firmware.RebootPagePath)
	if err != nil {
		return nil, internalerrors.Retag(err, OpFetchRebootPage, a.Origin())
	}

	csrfToken, err := a.firmware.CSRF.Find(body)
	if err != nil {
		return nil, internalerrors.Retag(err, OpExtractCSRF, a.Origin())
	}

	fields := url.Values{}
	fields.Set(a.firmware.SubmitURLField, a.firmware.RebootPagePath)
	fields.Set(a.firmware.CSRFField, csrfToken)

	if err := a.session.Submit(ctx, a.firmware.RebootSubmitPath, fields); err != nil {
		return nil, internalerrors.Retag(err, OpSubmitReboot, a.Origin())
	}

	triggeredAt := a.now()
	metrics.ObserveReboot(triggeredAt)

	logger := logging.FromContext(ctx)
	logger.Info().
		Str("origin", a.Origin()).
		Dur("expected_within", a.firmware.RebootWindow).
		Msg("Reboot triggered")

	return &RebootResult{
		TriggeredAt:    triggeredAt,
		ExpectedWithin: a.firmware.RebootWindow,
	}, nil
}
