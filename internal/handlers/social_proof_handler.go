package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/localplate/waitlist/internal/metrics"
	"github.com/localplate/waitlist/internal/socialproof"
	"go.uber.org/zap"
)

// ReducedMotionHeader is the client hint browsers send for
// prefers-reduced-motion once the server asks for it via Accept-CH.
const ReducedMotionHeader = "Sec-CH-Prefers-Reduced-Motion"

type SocialProofHandler struct {
	catalog  *socialproof.Catalog
	cfg      socialproof.Config
	sessions SessionOpener
	metrics  *metrics.Waitlist
	logger   *zap.Logger
}

func NewSocialProofHandler(catalog *socialproof.Catalog, cfg socialproof.Config, sessions SessionOpener, m *metrics.Waitlist, logger *zap.Logger) *SocialProofHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SocialProofHandler{
		catalog:  catalog,
		cfg:      cfg,
		sessions: sessions,
		metrics:  m,
		logger:   logger.Named("socialproof"),
	}
}

// sseSink writes each rendered message as a server-sent event. When limit is
// positive the stream is cancelled after that many events.
type sseSink struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	sent    int
	limit   int
	cancel  context.CancelFunc
}

func (s *sseSink) Show(_ context.Context, d socialproof.Display) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: social-proof\ndata: %s\n\n", s.sent+1, data); err != nil {
		return err
	}
	s.flusher.Flush()
	s.sent++
	if s.limit > 0 && s.sent >= s.limit {
		s.cancel()
	}
	return nil
}

func (s *sseSink) event(name, data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data)
	s.flusher.Flush()
}

// Stream godoc
// @Summary Social proof notifications
// @Description Server-sent events rotating social proof messages for the visitor.
// @Description Reduced motion (client hint or reduced_motion=1) sends one static message.
// @Tags Social Proof
// @Produce text/event-stream
// @Param tz query string false "IANA time zone used to pick time-of-day messages"
// @Param reduced_motion query bool false "Send a single static message"
// @Param limit query int false "Close the stream after this many messages"
// @Router /api/v1/social-proof/stream [get]
func (h *SocialProofHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	loc := time.Local
	if tz := strings.TrimSpace(r.URL.Query().Get("tz")); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			respondError(w, http.StatusBadRequest, "unknown time zone")
			return
		}
		loc = l
	}
	reduced := strings.EqualFold(strings.TrimSpace(r.Header.Get(ReducedMotionHeader)), "reduce") ||
		getQueryBool(r, "reduced_motion")

	// The server-wide write timeout would cut the stream off.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("stream write deadline not cleared", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	header.Set("Accept-CH", ReducedMotionHeader)
	header.Add("Vary", ReducedMotionHeader)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sink := &sseSink{w: w, flusher: flusher, limit: getQueryInt(r, "limit", 0), cancel: cancel}
	rotator := socialproof.NewRotator(ctx, h.catalog, h.sessions.forRequest(r), sink,
		socialproof.WithConfig(h.cfg),
		socialproof.WithClock(socialproof.SystemClock{Location: loc}),
		socialproof.WithLogger(h.logger),
		socialproof.WithObserver(h.metrics),
		socialproof.WithReducedMotion(reduced),
	)

	h.metrics.StreamOpened()
	defer h.metrics.StreamClosed()

	if err := rotator.Init(ctx); err != nil {
		if errors.Is(err, socialproof.ErrNoMessages) {
			sink.event("end", `{"reason":"no_messages"}`)
			return
		}
		h.logger.Warn("social proof stream failed to start", zap.Error(err))
		sink.event("end", `{"reason":"error"}`)
		return
	}
	if reduced {
		sink.event("end", `{"reason":"reduced_motion"}`)
		return
	}

	<-ctx.Done()
	rotator.Stop()
	if r.Context().Err() == nil {
		sink.event("end", `{"reason":"limit"}`)
	}
}
