// Package trustlayer implements a certificate issuance and verification
// service whose content fingerprints are anchored in an append-only external
// ledger. The local registry carries the mutable metadata; every
// verification reconciles both sides into a single verdict.
package trustlayer

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	log "github.com/sirupsen/logrus"

	"github.com/trustlayer/trustlayer/api/certapi"
	"github.com/trustlayer/trustlayer/internal/version"
	"github.com/trustlayer/trustlayer/issuance"
	"github.com/trustlayer/trustlayer/storage/model"
	"github.com/trustlayer/trustlayer/verification"
)

// FiberServerConfig is the fiber.Config that is used to init the http fiber.App
var FiberServerConfig = fiber.Config{
	ReadTimeout:    3 * time.Second,
	WriteTimeout:   20 * time.Second,
	IdleTimeout:    150 * time.Second,
	ReadBufferSize: 8192,
	ErrorHandler:   handleError,
	Network:        "tcp",
}

// TrustLayer bundles the verification engine, the issuance orchestrator and
// the http server serving them.
type TrustLayer struct {
	Engine       *verification.Engine
	Orchestrator *issuance.Orchestrator

	server     *fiber.App
	serverConf ServerConf
}

// Options controls optional features of the API registration.
type Options struct {
	// DisableUsersAPI leaves the user management endpoints unmounted.
	DisableUsersAPI bool
}

// NewTrustLayer creates a new TrustLayer and mounts the certificate API and
// the unauthenticated public verification endpoints. opts may be nil.
func NewTrustLayer(
	serverConf ServerConf,
	engine *verification.Engine,
	orchestrator *issuance.Orchestrator,
	storages model.Backends,
	opts *Options,
) (*TrustLayer, error) {
	if tps := serverConf.TrustedProxies; len(tps) > 0 {
		FiberServerConfig.TrustedProxies = serverConf.TrustedProxies
		FiberServerConfig.EnableTrustedProxyCheck = true
	}
	FiberServerConfig.ProxyHeader = serverConf.ForwardedIPHeader
	server := fiber.New(FiberServerConfig)
	server.Use(recover.New())
	server.Use(compress.New())
	server.Use(logger.New())
	server.Use(requestid.New())

	tl := &TrustLayer{
		Engine:       engine,
		Orchestrator: orchestrator,
		server:       server,
		serverConf:   serverConf,
	}

	server.Get(
		"/health", func(ctx *fiber.Ctx) error {
			return ctx.JSON(
				fiber.Map{
					"status":  "ok",
					"version": version.VERSION,
				},
			)
		},
	)

	certapi.Register(
		server.Group("/api/v1"), certapi.Deps{
			Engine:        engine,
			Orchestrator:  orchestrator,
			Certificates:  storages.Certificates,
			Verifications: storages.Verifications,
			Users:         storages.Users,
			ManageUsers:   opts == nil || !opts.DisableUsersAPI,
		},
	)
	certapi.RegisterPublic(
		server.Group("/public"), certapi.Deps{
			Engine:       engine,
			Certificates: storages.Certificates,
		},
	)
	return tl, nil
}

// HttpHandlerFunc returns an http.HandlerFunc for serving all the necessary endpoints
func (tl TrustLayer) HttpHandlerFunc() http.HandlerFunc {
	return adaptor.FiberApp(tl.server)
}

// Listen starts an http server at the specific address for serving all the
// necessary endpoints
func (tl TrustLayer) Listen(addr string) error {
	return tl.server.Listen(addr)
}

func (tl TrustLayer) Start() {
	conf := tl.serverConf
	if !conf.TLS.Enabled {
		log.WithField("port", conf.Port).Info("TLS is disabled starting http server")
		log.WithError(tl.server.Listen(fmt.Sprintf("%s:%d", conf.IPListen, conf.Port))).Fatal()
	}
	// TLS enabled
	if conf.TLS.RedirectHTTP {
		httpServer := fiber.New(FiberServerConfig)
		httpServer.All(
			"*", func(ctx *fiber.Ctx) error {
				//goland:noinspection HttpUrlsUsage
				return ctx.Redirect(
					strings.Replace(ctx.Request().URI().String(), "http://", "https://", 1),
					fiber.StatusPermanentRedirect,
				)
			},
		)
		log.Info("TLS and http redirect enabled, starting redirect server on port 80")
		go func() {
			log.WithError(httpServer.Listen(":80")).Fatal()
		}()
	}
	time.Sleep(time.Millisecond) // This is just for a more pretty output with the tls header printed after the http one
	log.Info("TLS enabled, starting https server on port 443")
	log.WithError(tl.server.ListenTLS(":443", conf.TLS.Cert, conf.TLS.Key)).Fatal()
}
