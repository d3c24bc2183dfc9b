package certapi

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/trustlayer/trustlayer/issuance"
	"github.com/trustlayer/trustlayer/storage/model"
)

// registerCertificates wires issuance, revocation and listing handlers.
func registerCertificates(r fiber.Router, deps Deps) {
	r.Post(
		"/certificates", func(c *fiber.Ctx) error {
			content, err := requestContent(c)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "error_description": err.Error()})
			}
			meta, err := requestMeta(c)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "error_description": err.Error()})
			}
			cert, err := deps.Orchestrator.Issue(c.Context(), content, requesterID(c), meta)
			if err != nil {
				return err
			}
			return c.Status(fiber.StatusCreated).JSON(
				fiber.Map{
					"cert_id":      cert.CertID,
					"fingerprint":  cert.Fingerprint,
					"tx_ref":       cert.LedgerTxRef,
					"block_number": cert.BlockNumber,
				},
			)
		},
	)

	r.Post(
		"/certificates/bulk", func(c *fiber.Ctx) error {
			fh, err := c.FormFile("file")
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "error_description": "csv file upload required"})
			}
			f, err := fh.Open()
			if err != nil {
				return err
			}
			defer f.Close()
			rows, err := issuance.ParseRows(f)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "error_description": err.Error()})
			}
			report := deps.Orchestrator.BulkIssue(c.Context(), requesterID(c), rows)
			return c.JSON(report)
		},
	)

	r.Get(
		"/certificates", func(c *fiber.Ctx) error {
			var certs []model.Certificate
			var err error
			if isElevated(c) && c.QueryBool("all") {
				certs, err = deps.Certificates.All()
			} else {
				certs, err = deps.Certificates.ForIssuer(requesterID(c))
			}
			if err != nil {
				return err
			}
			return c.JSON(certs)
		},
	)

	r.Get(
		"/certificates/:certID", func(c *fiber.Ctx) error {
			cert, err := loadOwnedCert(c, deps)
			if err != nil {
				return err
			}
			return c.JSON(cert)
		},
	)

	r.Get(
		"/certificates/:certID/qr", func(c *fiber.Ctx) error {
			cert, err := loadOwnedCert(c, deps)
			if err != nil {
				return err
			}
			if len(cert.QRPayload) == 0 {
				return model.NotFoundErrorFmt("no qr code stored for %s", cert.CertID)
			}
			c.Set(fiber.HeaderContentType, "image/png")
			return c.Send(cert.QRPayload)
		},
	)

	r.Put(
		"/certificates/:certID/revoke", func(c *fiber.Ctx) error {
			certID := c.Params("certID")
			if err := deps.Orchestrator.Revoke(c.Context(), certID, requesterID(c), isElevated(c)); err != nil {
				return err
			}
			return c.JSON(fiber.Map{"cert_id": certID, "revoked": true})
		},
	)
}

// registerStats wires the aggregate issuance counters.
func registerStats(r fiber.Router, deps Deps) {
	r.Get(
		"/stats", func(c *fiber.Ctx) error {
			filter := model.CertificateFilter{}
			if !isElevated(c) {
				filter.IssuerID = requesterID(c)
			}
			total, err := deps.Certificates.Count(filter)
			if err != nil {
				return err
			}
			revoked := true
			revokedFilter := filter
			revokedFilter.Revoked = &revoked
			revokedCount, err := deps.Certificates.Count(revokedFilter)
			if err != nil {
				return err
			}
			now := time.Now()
			midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			todayFilter := filter
			todayFilter.CreatedAfter = &midnight
			today, err := deps.Certificates.Count(todayFilter)
			if err != nil {
				return err
			}
			return c.JSON(
				fiber.Map{
					"total":   total,
					"today":   today,
					"revoked": revokedCount,
				},
			)
		},
	)

	r.Get(
		"/verifications", func(c *fiber.Ctx) error {
			limit := c.QueryInt("limit", 50)
			events, err := deps.Verifications.Recent(limit)
			if err != nil {
				return err
			}
			return c.JSON(events)
		},
	)
}

// loadOwnedCert loads the certificate and enforces that the requester owns it
// or is elevated.
func loadOwnedCert(c *fiber.Ctx, deps Deps) (*model.Certificate, error) {
	certID := c.Params("certID")
	cert, err := deps.Certificates.ByCertID(certID)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, model.NotFoundErrorFmt("certificate not found: %s", certID)
	}
	if !isElevated(c) && cert.IssuerID != requesterID(c) {
		return nil, issuance.NotAuthorizedError("certificate belongs to a different issuer")
	}
	return cert, nil
}

// requestContent extracts the certificate content from a multipart upload or
// the raw request body.
func requestContent(c *fiber.Ctx) ([]byte, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	if body := c.Body(); len(body) > 0 {
		return body, nil
	}
	return nil, fiber.NewError(fiber.StatusBadRequest, "no content: upload a file or send it as the request body")
}

// requestMeta reads the certificate metadata form fields.
func requestMeta(c *fiber.Ctx) (issuance.Meta, error) {
	meta := issuance.Meta{
		SubjectName: c.FormValue("subject_name", c.Query("subject_name")),
		Course:      c.FormValue("course", c.Query("course")),
	}
	expiry := c.FormValue("expiry", c.Query("expiry"))
	if expiry != "" {
		t, err := time.Parse(issuance.ExpiryLayout, expiry)
		if err != nil {
			return meta, fiber.NewError(fiber.StatusBadRequest, "invalid expiry, expected "+issuance.ExpiryLayout)
		}
		meta.ExpiresAt = &t
	}
	return meta, nil
}
