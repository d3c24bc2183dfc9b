package trustlayer

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/trustlayer/trustlayer/issuance"
	"github.com/trustlayer/trustlayer/ledger"
	"github.com/trustlayer/trustlayer/storage/model"
)

// apiError is the JSON error document returned by all endpoints.
type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// handleError is the central fiber error handler. It maps the service's error
// taxonomy to stable error codes and status codes.
func handleError(ctx *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(
			apiError{
				Error:            "request_error",
				ErrorDescription: fiberErr.Message,
			},
		)
	}

	cause := errors.Cause(err)

	var partial *issuance.PartialIssuanceError
	if errors.As(err, &partial) {
		log.WithError(err).Error("partial issuance")
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			apiError{
				Error:            "partial_issuance",
				ErrorDescription: partial.Error(),
			},
		)
	}
	var dup *issuance.DuplicateContentError
	if errors.As(err, &dup) {
		return ctx.Status(fiber.StatusConflict).JSON(
			apiError{
				Error:            "duplicate_content",
				ErrorDescription: dup.Error(),
			},
		)
	}
	var collision *issuance.IdentifierCollisionError
	if errors.As(err, &collision) {
		log.WithError(err).Error("identifier collision")
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(
			apiError{
				Error:            "identifier_collision",
				ErrorDescription: collision.Error(),
			},
		)
	}

	switch cause.(type) {
	case model.NotFoundError, ledger.NotFoundError:
		return ctx.Status(fiber.StatusNotFound).JSON(
			apiError{
				Error:            "not_found",
				ErrorDescription: cause.Error(),
			},
		)
	case model.AlreadyExistsError:
		return ctx.Status(fiber.StatusConflict).JSON(
			apiError{
				Error:            "already_exists",
				ErrorDescription: cause.Error(),
			},
		)
	case issuance.NotAuthorizedError:
		return ctx.Status(fiber.StatusForbidden).JSON(
			apiError{
				Error:            "not_authorized",
				ErrorDescription: cause.Error(),
			},
		)
	case ledger.DuplicateIdentifierError:
		return ctx.Status(fiber.StatusConflict).JSON(
			apiError{
				Error:            "duplicate_identifier",
				ErrorDescription: cause.Error(),
			},
		)
	case ledger.RejectedError:
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(
			apiError{
				Error:            "ledger_rejected",
				ErrorDescription: cause.Error(),
			},
		)
	}

	if ledger.IsUnreachable(err) {
		log.WithError(err).Error("ledger unreachable")
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(
			apiError{
				Error:            "ledger_unreachable",
				ErrorDescription: "the ledger cannot be reached, try again later",
			},
		)
	}

	log.WithError(err).Error("internal server error")
	return ctx.Status(fiber.StatusInternalServerError).JSON(
		apiError{
			Error:            "server_error",
			ErrorDescription: err.Error(),
		},
	)
}
