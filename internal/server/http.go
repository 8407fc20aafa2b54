package server

import (
	"context"
	"net"
	"net/http"
	"time"
)

// NewHTTPServer builds the API server. Request contexts derive from a base
// context that is cancelled when Shutdown starts, so long-lived streams
// (SSE, referral websockets) end instead of holding shutdown open.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	base, cancel := context.WithCancel(context.Background())

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return base },
	}
	srv.RegisterOnShutdown(cancel)
	return srv
}
