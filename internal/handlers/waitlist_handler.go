package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/localplate/waitlist/internal/models"
	"github.com/localplate/waitlist/internal/services"
	"go.uber.org/zap"
)

// SuccessPath is where the capture form sends the visitor after joining.
const SuccessPath = "/success"

type WaitlistHandler struct {
	service  *services.WaitlistService
	sessions SessionOpener
	validate *validator.Validate
	logger   *zap.Logger
}

func NewWaitlistHandler(service *services.WaitlistService, sessions SessionOpener, logger *zap.Logger) *WaitlistHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WaitlistHandler{
		service:  service,
		sessions: sessions,
		validate: newValidator(),
		logger:   logger,
	}
}

// Landing godoc
// @Summary Capture landing context
// @Description Record UTMs, referrer and referral code for the visitor session
// @Tags Waitlist
// @Accept json
// @Produce json
// @Param request body models.LandingRequest true "Landing page visit"
// @Success 200 {object} leadctx.Context
// @Failure 400 {object} map[string]string
// @Router /api/v1/landing [post]
func (h *WaitlistHandler) Landing(w http.ResponseWriter, r *http.Request) {
	var req models.LandingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, formatValidationError(err))
		return
	}

	lead, err := h.service.CaptureLanding(r.Context(), h.sessions.forRequest(r), req.URL, req.Referrer)
	if err != nil {
		if errors.Is(err, services.ErrInvalidLandingURL) {
			respondError(w, http.StatusBadRequest, "url is invalid")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to capture landing context")
		return
	}

	respondJSON(w, http.StatusOK, lead)
}

// Join godoc
// @Summary Join the waitlist
// @Description Add an email to the waitlist and return its referral code
// @Tags Waitlist
// @Accept json
// @Produce json
// @Param request body models.JoinRequest true "Signup"
// @Success 201 {object} models.JoinResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/waitlist [post]
func (h *WaitlistHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req models.JoinRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, formatValidationError(err))
		return
	}

	res, err := h.service.Join(r.Context(), services.JoinInput{
		Email:      req.Email,
		ReferredBy: req.ReferredBy,
		UserAgent:  r.UserAgent(),
		Language:   primaryLanguage(r.Header.Get("Accept-Language")),
		Referrer:   r.Referer(),
		Session:    h.sessions.forRequest(r),
	})
	if err != nil {
		h.respondJoinError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, models.JoinResponse{
		ReferralCode: res.Signup.ReferralCode,
		ReferralLink: res.ReferralLink,
		Redirect:     SuccessPath,
	})
}

func (h *WaitlistHandler) respondJoinError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrInvalidEmail) {
		respondError(w, http.StatusBadRequest, "Please enter a valid email address")
		return
	}

	var joinErr *services.JoinError
	if !errors.As(err, &joinErr) {
		respondError(w, http.StatusInternalServerError, services.MsgGeneric)
		return
	}

	status := http.StatusInternalServerError
	switch joinErr.Message {
	case services.MsgDuplicate:
		status = http.StatusConflict
	case services.MsgTimeout:
		status = http.StatusGatewayTimeout
	case services.MsgNetwork:
		status = http.StatusServiceUnavailable
	}
	respondError(w, status, joinErr.Message)
}

// Status godoc
// @Summary Waitlist capacity
// @Tags Waitlist
// @Produce json
// @Success 200 {object} models.CapacityStatus
// @Router /api/v1/waitlist/status [get]
func (h *WaitlistHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		h.logger.Error("capacity status failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load waitlist status")
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// Stats godoc
// @Summary Community stats
// @Tags Waitlist
// @Produce json
// @Success 200 {object} models.CommunityStats
// @Router /api/v1/waitlist/stats [get]
func (h *WaitlistHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.CommunityStats(r.Context())
	if err != nil {
		h.logger.Error("community stats failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load community stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Success godoc
// @Summary Recent signup for this session
// @Description Only available for a short window after joining
// @Tags Waitlist
// @Produce json
// @Success 200 {object} models.SuccessSession
// @Failure 404 {object} map[string]string
// @Failure 410 {object} map[string]string
// @Router /api/v1/waitlist/success [get]
func (h *WaitlistHandler) Success(w http.ResponseWriter, r *http.Request) {
	success, err := h.service.SuccessSession(r.Context(), h.sessions.forRequest(r))
	switch {
	case errors.Is(err, services.ErrNoSuccessSession):
		respondError(w, http.StatusNotFound, "no recent signup")
	case errors.Is(err, services.ErrSuccessExpired):
		respondError(w, http.StatusGone, "signup confirmation expired")
	case err != nil:
		h.logger.Warn("success session read failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load signup")
	default:
		respondJSON(w, http.StatusOK, success)
	}
}
