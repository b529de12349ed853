package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nft-checkout/backend/internal/http/dto"
	"github.com/nft-checkout/backend/internal/services"
	"go.uber.org/zap"
)

type SessionHandler struct {
	sessionService *services.SessionService
	log            *zap.Logger
}

func NewSessionHandler(sessionService *services.SessionService, log *zap.Logger) *SessionHandler {
	return &SessionHandler{sessionService: sessionService, log: log}
}

// Poll advances the session one lifecycle step if payment arrived.
// GET /poll/:sessionId
func (h *SessionHandler) Poll(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return badRequest(c, "sessionId is required")
	}

	result, err := h.sessionService.Advance(c.Context(), sessionID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pollResponse(result))
}

// Get returns the stored record without touching the lifecycle.
// GET /sessions/:sessionId
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return badRequest(c, "sessionId is required")
	}

	session, err := h.sessionService.GetSession(c.Context(), sessionID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: session})
}

func pollResponse(r *services.AdvanceResult) dto.PollResponse {
	resp := dto.PollResponse{
		SessionID:      r.SessionID,
		Status:         r.Status,
		MintAddress:    r.MintAddress,
		MintSignature:  r.MintSignature,
		SweepSignature: r.SweepSignature,
		SweepPending:   r.SweepPending,
		InProgress:     r.InProgress,
	}
	if r.Insufficient {
		resp.Status = "insufficient balance"
		balance, required := r.BalanceUSDC, r.RequiredUSDC
		resp.Balance = &balance
		resp.Required = &required
	}
	return resp
}
