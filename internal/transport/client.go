package transport

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
)

// DefaultTimeout bounds a single router request, redirects included.
const DefaultTimeout = 30 * time.Second

// NewCookieJar returns an empty jar backed by the public suffix list.
func NewCookieJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return jar, nil
}

// NewHTTPClient creates the client used for every request against one router.
// A nil jar gets a fresh one; the redirect policy is the standard library's.
func NewHTTPClient(timeout time.Duration, jar http.CookieJar) (*http.Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if jar == nil {
		var err error
		if jar, err = NewCookieJar(); err != nil {
			return nil, err
		}
	}

	// The router lives on the local network, so no proxy from the environment.
	transport := &http.Transport{
		MaxIdleConns:          4,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		DialContext:           DialContextWithCache,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   timeout,
	}, nil
}
