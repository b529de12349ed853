package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/nft-checkout/backend/internal/config"
	"github.com/nft-checkout/backend/internal/http/dto"
	"github.com/nft-checkout/backend/internal/repositories"
	"github.com/nft-checkout/backend/internal/services"
	"go.uber.org/zap"
)

// OpsHandler serves the authenticated recovery/diagnostic surface.
type OpsHandler struct {
	sessionService *services.SessionService
	ledgerRepo     *repositories.LedgerRepo
	cfg            *config.Config
	log            *zap.Logger
}

func NewOpsHandler(sessionService *services.SessionService, ledgerRepo *repositories.LedgerRepo, cfg *config.Config, log *zap.Logger) *OpsHandler {
	return &OpsHandler{sessionService: sessionService, ledgerRepo: ledgerRepo, cfg: cfg, log: log}
}

// Recover re-triggers one stuck session, or without a sessionId scans the
// recent derivation window for wallets holding unswept USDC (read-only).
// GET /recover?sessionId=
func (h *OpsHandler) Recover(c *fiber.Ctx) error {
	sessionID := c.Query("sessionId")

	if sessionID == "" {
		scanned, wallets, err := h.sessionService.ScanUnswept(c.Context(), h.cfg.ScanWindow)
		if err != nil {
			return respondError(c, err)
		}
		if wallets == nil {
			wallets = []services.ScanResult{}
		}
		return c.JSON(dto.RecoverScanResponse{Scanned: scanned, WalletsWithUSDC: wallets})
	}

	result, err := h.sessionService.Recover(c.Context(), sessionID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"session_id": result.SessionID,
		"status":     result.Status,
		"triggered":  result.Triggered,
		"diagnostic": result.Diagnostic,
		"result":     result.Advance,
	})
}

// MasterAddress reports the master wallet's fee-paying health.
// GET /master-address
func (h *OpsHandler) MasterAddress(c *fiber.Ctx) error {
	status, err := h.sessionService.MasterStatus(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

// Mints lists recent ledger rows (durable mint history).
// GET /mints?limit=
func (h *OpsHandler) Mints(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 50
	}

	records, err := h.ledgerRepo.ListRecent(c.Context(), limit)
	if err != nil {
		return respondError(c, &services.UpstreamError{Service: "ledger", Err: err})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: records})
}
