package syrotech

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

const (
	fakeSessionCookie = "SESSIONID"
	fakeSessionValue  = "s3cr3t"
)

const loginPageFixture = `<html><head><title>Login</title></head><body>
<form action="/boaform/admin/formLogin_en" method="post" name="cmlogin">
  <input type="text" name="username">
  <input type="password" name="psd">
  <input type="text" id="check_code" name="check_code" value="1234" readonly>
  <input type="text" name="verification_code">
  <input type="hidden" name="csrftoken" value="abcd">
</form></body></html>`

const rebootPageFixture = `<html><body>
<form action="/boaform/admin/formReboot" method="post">
  <input type="submit" value="Reboot">
  <input type="hidden" name="submit-url" value="/mgm_dev_reboot_en.asp">
  <input type="hidden" name="csrftoken" value="reboot-token-77">
</form></body></html>`

type recordedRequest struct {
	Method string
	Path   string
}

type postedForm struct {
	Raw    string
	Fields url.Values
}

// fakeRouter mimics the firmware's redirect behaviour: unauthenticated
// requests for protected pages bounce to the login page, and a login the
// router accepts sets a session cookie and redirects to "/".
type fakeRouter struct {
	t *testing.T

	mu sync.Mutex

	loginPage    string
	rebootPage   string
	acceptLogin  func(url.Values) bool
	dropOnReboot bool
	cutOnReboot  bool // send headers and part of the body, then drop
	authedAlways bool

	requests []recordedRequest
	logins   []postedForm
	reboots  []postedForm
}

func newFakeRouter(t *testing.T) (*fakeRouter, *httptest.Server) {
	t.Helper()

	fr := &fakeRouter{
		t:          t,
		loginPage:  loginPageFixture,
		rebootPage: rebootPageFixture,
		acceptLogin: func(v url.Values) bool {
			return v.Get("username") == "admin" &&
				v.Get("psd") == "admin@123" &&
				v.Get("verification_code") == "1234" &&
				v.Get("csrftoken") == "abcd"
		},
	}

	server := httptest.NewServer(http.HandlerFunc(fr.serveHTTP))
	t.Cleanup(server.Close)
	return fr, server
}

func (fr *fakeRouter) authed(r *http.Request) bool {
	if fr.authedAlways {
		return true
	}
	c, err := r.Cookie(fakeSessionCookie)
	return err == nil && c.Value == fakeSessionValue
}

func (fr *fakeRouter) serveHTTP(w http.ResponseWriter, r *http.Request) {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	fr.requests = append(fr.requests, recordedRequest{Method: r.Method, Path: r.URL.Path})

	switch r.URL.Path {
	case "/":
		if !fr.authed(r) {
			http.Redirect(w, r, "/admin/login_en.asp", http.StatusFound)
			return
		}
		fmt.Fprint(w, "<html><body>Device Status</body></html>")

	case "/admin/login_en.asp":
		fmt.Fprint(w, fr.loginPage)

	case "/boaform/admin/formLogin_en":
		form := fr.readForm(r)
		fr.logins = append(fr.logins, form)
		if !fr.acceptLogin(form.Fields) {
			http.Redirect(w, r, "/admin/login_en.asp", http.StatusFound)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: fakeSessionCookie, Value: fakeSessionValue, Path: "/"})
		http.Redirect(w, r, "/", http.StatusFound)

	case "/mgm_dev_reboot_en.asp":
		if !fr.authed(r) {
			http.Redirect(w, r, "/admin/login_en.asp", http.StatusFound)
			return
		}
		fmt.Fprint(w, fr.rebootPage)

	case "/boaform/admin/formReboot":
		fr.reboots = append(fr.reboots, fr.readForm(r))
		if fr.dropOnReboot || fr.cutOnReboot {
			hj, ok := w.(http.Hijacker)
			if !ok {
				fr.t.Errorf("response writer cannot hijack")
				return
			}
			conn, rw, err := hj.Hijack()
			if err != nil {
				fr.t.Errorf("hijack: %v", err)
				return
			}
			if fr.cutOnReboot {
				fmt.Fprint(rw, "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\nContent-Length: 500\r\n\r\n<html><body>The system is resta")
				_ = rw.Flush()
			}
			conn.Close()
			return
		}
		fmt.Fprint(w, "<html><body>The system is restarting ...</body></html>")

	default:
		http.NotFound(w, r)
	}
}

func (fr *fakeRouter) readForm(r *http.Request) postedForm {
	if r.Method != http.MethodPost {
		fr.t.Errorf("expected POST to %s, got %s", r.URL.Path, r.Method)
	}
	if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
		fr.t.Errorf("expected form content-type, got %q", ct)
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		fr.t.Errorf("read form body: %v", err)
	}
	fields, err := url.ParseQuery(string(raw))
	if err != nil {
		fr.t.Errorf("parse form body %q: %v", raw, err)
	}
	return postedForm{Raw: string(raw), Fields: fields}
}

func (fr *fakeRouter) snapshot() ([]recordedRequest, []postedForm, []postedForm) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return append([]recordedRequest(nil), fr.requests...),
		append([]postedForm(nil), fr.logins...),
		append([]postedForm(nil), fr.reboots...)
}

func (fr *fakeRouter) posts() []recordedRequest {
	requests, _, _ := fr.snapshot()
	var out []recordedRequest
	for _, req := range requests {
		if req.Method == http.MethodPost {
			out = append(out, req)
		}
	}
	return out
}
