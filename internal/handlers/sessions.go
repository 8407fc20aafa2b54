package handlers

import (
	"net/http"

	"github.com/localplate/waitlist/internal/leadctx"
	"github.com/localplate/waitlist/internal/middleware"
)

// SessionOpener returns the per-visitor store for a session id.
type SessionOpener func(sessionID string) leadctx.Store

func (open SessionOpener) forRequest(r *http.Request) leadctx.Store {
	return open(middleware.SessionID(r.Context()))
}
