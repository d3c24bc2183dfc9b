// Package certapi implements the http API for certificate issuance,
// revocation and verification.
package certapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trustlayer/trustlayer/issuance"
	"github.com/trustlayer/trustlayer/storage/model"
	"github.com/trustlayer/trustlayer/verification"
)

// Deps bundles everything the handlers need.
type Deps struct {
	Engine        *verification.Engine
	Orchestrator  *issuance.Orchestrator
	Certificates  model.CertificateStore
	Verifications model.VerificationLogStore
	Users         model.UsersStore
	// ManageUsers mounts the user management endpoints
	ManageUsers bool
}

// Register mounts the issuer-facing API under the provided group. All routes
// are guarded by the basic-auth middleware; when no users are configured the
// API is open.
func Register(r fiber.Router, deps Deps) {
	r.Use(authMiddleware(deps.Users))

	registerCertificates(r, deps)
	registerVerify(r, deps)
	registerStats(r, deps)
	if deps.ManageUsers {
		registerUsers(r, deps.Users)
	}
}

// RegisterPublic mounts the unauthenticated verification endpoints, meant to
// be reached from a scanned QR code or an embedded verify widget.
func RegisterPublic(r fiber.Router, deps Deps) {
	r.Post(
		"/verify", func(c *fiber.Ctx) error {
			return handleVerify(c, deps, "")
		},
	)
	r.Get(
		"/certificates/:certID", func(c *fiber.Ctx) error {
			verdict := deps.Engine.VerifyByCertID(c.Context(), c.Params("certID"), "")
			return respondVerdict(c, verdict)
		},
	)
}

// respondVerdict writes the verdict document. Indeterminate verdicts answer
// 503 so that callers cannot mistake "unknown" for a definite statement.
func respondVerdict(c *fiber.Ctx, v verification.Verdict) error {
	if !v.Conclusive() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(v)
	}
	return c.JSON(v)
}
