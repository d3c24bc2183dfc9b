package certapi

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/trustlayer/trustlayer/fingerprint"
)

// registerVerify wires the authenticated verification handlers.
func registerVerify(r fiber.Router, deps Deps) {
	r.Post(
		"/verify", func(c *fiber.Ctx) error {
			return handleVerify(c, deps, requesterID(c))
		},
	)
	r.Get(
		"/certificates/:certID/verify", func(c *fiber.Ctx) error {
			verdict := deps.Engine.VerifyByCertID(c.Context(), c.Params("certID"), requesterID(c))
			return respondVerdict(c, verdict)
		},
	)
}

// handleVerify verifies either an uploaded file or a submitted fingerprint.
func handleVerify(c *fiber.Ctx, deps Deps, verifierID string) error {
	fp, err := requestFingerprint(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "error_description": err.Error()})
	}
	verdict := deps.Engine.Verify(c.Context(), fp, verifierID)
	return respondVerdict(c, verdict)
}

// requestFingerprint derives the fingerprint from an uploaded file, or takes
// it from a file_hash JSON/form field. Submitted hashes may carry the ledger's
// 0x prefix.
func requestFingerprint(c *fiber.Ctx) (string, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return "", err
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			return "", err
		}
		return fingerprint.Fingerprint(content), nil
	}

	var req struct {
		FileHash string `json:"file_hash" form:"file_hash"`
	}
	if err := c.BodyParser(&req); err != nil || req.FileHash == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "upload a file or provide file_hash")
	}
	fp := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(req.FileHash), "0x"))
	if !fingerprint.IsValid(fp) {
		return "", fiber.NewError(fiber.StatusBadRequest, "file_hash is not a valid fingerprint")
	}
	return fp, nil
}
