package errors

import (
	stderrors "errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StatusFor maps a taxonomy code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case CodeValidation, CodePathSecurity:
		return fiber.StatusBadRequest
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func HandleError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	if err == nil {
		return nil
	}

	var ve *VideoError
	if stderrors.As(err, &ve) {
		status := StatusFor(ve.Code)
		switch {
		case ve.Code == CodePathSecurity:
			logger.Warn("rejected path outside allowed roots",
				zap.String("route", c.Path()), zap.String("reason", ve.Message))
		case status >= fiber.StatusInternalServerError:
			logger.Error("request failed", zap.String("route", c.Path()), zap.String("code", ve.Code), zap.Error(ve.Err))
		case ve.Err != nil:
			logger.Debug("request rejected", zap.String("route", c.Path()), zap.String("code", ve.Code), zap.Error(ve.Err))
		}

		return c.Status(status).JSON(fiber.Map{
			"error": ve.Message,
			"code":  ve.Code,
		})
	}

	logger.Error("unexpected error", zap.String("route", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Unexpected server error.",
		"code":  CodeInternal,
	})
}
