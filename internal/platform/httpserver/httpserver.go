package httpserver

import (
	"net/http"
	"time"
)

// New builds the process HTTP server. Timeouts are generous because bulk
// imports and multipart document uploads legitimately take a while; the
// per-request budget is enforced by the router's timeout middleware.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
