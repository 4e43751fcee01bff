package wailshost

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// CSPMiddleware sets the Content-Security-Policy header on every asset
// response. An empty policy leaves responses untouched.
func CSPMiddleware(policy string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if policy == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Security-Policy", policy)
			next.ServeHTTP(w, r)
		})
	}
}

// DevServerHandler proxies asset requests to a running frontend dev server.
func DevServerHandler(devURL string) (http.Handler, error) {
	target, err := url.Parse(devURL)
	if err != nil {
		return nil, fmt.Errorf("parse dev url: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("dev url %q must be absolute", devURL)
	}
	return httputil.NewSingleHostReverseProxy(target), nil
}
