package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/localplate/waitlist/internal/metrics"
	"github.com/localplate/waitlist/internal/models"
	"github.com/localplate/waitlist/internal/services"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Listener relays pub/sub payloads for one channel.
type Listener interface {
	Listen(ctx context.Context, channel string) (<-chan string, func() error, error)
}

// liveMessage is the envelope written to referral websocket clients.
type liveMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type referralProgress struct {
	models.ReferralUpdate
	Tier       *models.Tier `json:"tier,omitempty"`
	NextTier   *models.Tier `json:"next_tier,omitempty"`
	ToNextTier int          `json:"to_next_tier,omitempty"`
}

type ReferralHandler struct {
	service  *services.WaitlistService
	listener Listener
	metrics  *metrics.Waitlist
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewReferralHandler accepts websocket origins from allowedOrigins; "*"
// allows any origin. Requests without an Origin header are always allowed.
func NewReferralHandler(service *services.WaitlistService, listener Listener, m *metrics.Waitlist, allowedOrigins []string, logger *zap.Logger) *ReferralHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &ReferralHandler{
		service:  service,
		listener: listener,
		metrics:  m,
		logger:   logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				allowed = strings.TrimSpace(allowed)
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			logger.Warn("rejected websocket origin", zap.String("origin", origin))
			return false
		},
	}
	return h
}

// Stats godoc
// @Summary Referral progress
// @Description Referral count, reward tier and share links for a code
// @Tags Referrals
// @Produce json
// @Param code path string true "Referral code"
// @Success 200 {object} models.ReferralStats
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/referrals/{code} [get]
func (h *ReferralHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *ReferralHandler) lookup(w http.ResponseWriter, r *http.Request) (*models.ReferralStats, bool) {
	stats, err := h.service.ReferralStats(r.Context(), chi.URLParam(r, "code"))
	switch {
	case errors.Is(err, services.ErrInvalidReferralCode):
		respondError(w, http.StatusBadRequest, "invalid referral code")
		return nil, false
	case errors.Is(err, services.ErrReferralNotFound):
		respondError(w, http.StatusNotFound, "referral code not found")
		return nil, false
	case err != nil:
		h.logger.Error("referral stats failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load referral stats")
		return nil, false
	}
	return stats, true
}

// Live godoc
// @Summary Live referral updates
// @Description Websocket that sends a snapshot followed by an update each time
// @Description someone joins with the code
// @Tags Referrals
// @Param code path string true "Referral code"
// @Router /api/v1/referrals/{code}/live [get]
func (h *ReferralHandler) Live(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.lookup(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.WatcherOpened()
	defer h.metrics.WatcherClosed()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	log := h.logger.With(zap.String("referral_code", stats.ReferralCode))

	updates, closeSub, err := h.listener.Listen(ctx, services.ReferralChannel(stats.ReferralCode))
	if err != nil {
		log.Warn("referral subscription failed", zap.Error(err))
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "updates unavailable"),
			time.Now().Add(writeWait))
		return
	}
	defer closeSub()

	if err := h.write(conn, liveMessage{Type: "snapshot", Payload: stats}); err != nil {
		return
	}

	go h.readPump(conn, cancel)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case raw, ok := <-updates:
			if !ok {
				return
			}
			var update models.ReferralUpdate
			if err := json.Unmarshal([]byte(raw), &update); err != nil {
				log.Warn("malformed referral update", zap.Error(err))
				continue
			}
			if err := h.write(conn, liveMessage{Type: "update", Payload: progress(update)}); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so pongs and close frames are processed,
// and cancels the stream once the client goes away.
func (h *ReferralHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *ReferralHandler) write(conn *websocket.Conn, msg liveMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func progress(update models.ReferralUpdate) referralProgress {
	p := referralProgress{ReferralUpdate: update}
	p.Tier, p.NextTier = services.TierFor(update.Referrals)
	if p.NextTier != nil {
		p.ToNextTier = p.NextTier.Required - update.Referrals
	}
	return p
}
