package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/nft-checkout/backend/internal/config"
	"github.com/nft-checkout/backend/internal/http/dto"
	"github.com/nft-checkout/backend/internal/models"
	"github.com/nft-checkout/backend/internal/pinning"
	"github.com/nft-checkout/backend/internal/services"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	sessionService *services.SessionService
	pinner         *pinning.Client
	cfg            *config.Config
	log            *zap.Logger
}

func NewCheckoutHandler(sessionService *services.SessionService, pinner *pinning.Client, cfg *config.Config, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{sessionService: sessionService, pinner: pinner, cfg: cfg, log: log}
}

// Upload buffers a multipart media file and pins it.
// POST /upload (multipart: file, output_type)
func (h *CheckoutHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file field is required")
	}
	if fileHeader.Size > int64(h.cfg.MaxUploadBytes) {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{
			Error: fmt.Sprintf("file exceeds %d bytes", h.cfg.MaxUploadBytes), Code: CodeBadRequest,
		})
	}

	outputType := c.FormValue("output_type")
	if !models.IsValidOutputType(outputType) {
		return badRequest(c, "output_type must be photo or video")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, "unreadable file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, int64(h.cfg.MaxUploadBytes)+1))
	if err != nil {
		return badRequest(c, "unreadable file")
	}
	if len(data) > h.cfg.MaxUploadBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{
			Error: fmt.Sprintf("file exceeds %d bytes", h.cfg.MaxUploadBytes), Code: CodeBadRequest,
		})
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	filename := uuid.New().String() + filepath.Ext(fileHeader.Filename)
	pinned, err := h.pinner.PinFile(c.Context(), filename, data)
	if err != nil {
		h.log.Error("upload pin failed", zap.Error(err))
		return respondError(c, &services.UpstreamError{Service: "pinning", Err: err})
	}

	return c.JSON(dto.UploadResponse{
		Success:    true,
		FileURI:    pinning.FileURI(pinned.CID),
		CID:        pinned.CID,
		MimeType:   mimeType,
		OutputType: outputType,
	})
}

// Checkout opens a payment session for pinned media.
// POST /checkout
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.FileURI == "" {
		return badRequest(c, "file_uri is required")
	}

	session, err := h.sessionService.CreateSession(c.Context(), services.CreateSessionInput{
		OutputType:  req.OutputType,
		BuyerWallet: req.BuyerWallet,
		Metadata: models.SessionMetadata{
			Mode:    req.Mode,
			Speed:   req.Speed,
			FileURI: req.FileURI,
			Answers: req.Answers,
		},
	})
	if err != nil {
		var upstreamErr *services.UpstreamError
		if errors.As(err, &upstreamErr) {
			return respondError(c, err)
		}
		return badRequest(c, err.Error())
	}

	return c.JSON(dto.CheckoutResponse{
		SessionID:      session.SessionID,
		PaymentAddress: session.PaymentAddress,
		RequiredUSDC:   session.RequiredUSDC,
		Status:         session.Status,
		ExpiresAt:      session.ExpiresAt,
	})
}

// TestMint creates a throwaway session and forces the mint path. Mounted
// only when ENABLE_TEST_ENDPOINTS is set; never deploy it.
// GET /test-mint
func (h *CheckoutHandler) TestMint(c *fiber.Ctx) error {
	session, err := h.sessionService.CreateSession(c.Context(), services.CreateSessionInput{
		OutputType: models.OutputTypePhoto,
		Metadata: models.SessionMetadata{
			Mode:    "test",
			FileURI: "ipfs://bafkreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy",
		},
	})
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.sessionService.ForceMint(c.Context(), session.SessionID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: result})
}
