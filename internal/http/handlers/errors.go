package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/nft-checkout/backend/internal/http/dto"
	"github.com/nft-checkout/backend/internal/middleware"
	"github.com/nft-checkout/backend/internal/services"
)

// Error codes callers can branch on (instead of matching message text).
const (
	CodeBadRequest      = "bad_request"
	CodeNotFound        = "not_found"
	CodeUpstreamFailure = "upstream_failure"
	CodeInternal        = "internal"
)

// respondError maps service errors onto the HTTP error taxonomy.
func respondError(c *fiber.Ctx, err error) error {
	reqID, _ := c.Locals(middleware.CtxRequestID).(string)

	if errors.Is(err, services.ErrSessionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "session not found", Code: CodeNotFound, RequestID: reqID,
		})
	}

	var upstreamErr *services.UpstreamError
	if errors.As(err, &upstreamErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: upstreamErr.Error(), Code: CodeUpstreamFailure, RequestID: reqID,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: err.Error(), Code: CodeInternal, RequestID: reqID,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	reqID, _ := c.Locals(middleware.CtxRequestID).(string)
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: msg, Code: CodeBadRequest, RequestID: reqID,
	})
}
