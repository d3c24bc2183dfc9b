package main

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/trustlayer/trustlayer"
	"github.com/trustlayer/trustlayer/cmd/trustlayer/config"
	"github.com/trustlayer/trustlayer/internal/logger"
	"github.com/trustlayer/trustlayer/internal/version"
	"github.com/trustlayer/trustlayer/issuance"
	"github.com/trustlayer/trustlayer/ledger"
	"github.com/trustlayer/trustlayer/verification"
)

func main() {
	var configFile string
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}
	config.Load(configFile)
	c := config.Get()
	logger.Init(c.Logging.Internal.Conf)
	log.Info("Loaded Config")
	if c.Logging.Banner.Version {
		fmt.Print(version.Banner(80))
	}

	var cache verification.VerdictCache
	if !c.Caching.Disabled {
		if redisAddr := c.Caching.RedisAddr; redisAddr != "" {
			redisCache, err := verification.NewRedisVerdictCache(
				&redis.Options{
					Addr:     redisAddr,
					Username: c.Caching.Username,
					Password: c.Caching.Password,
					DB:       c.Caching.RedisDB,
				},
			)
			if err != nil {
				log.WithError(err).Fatal("could not init redis cache")
			}
			cache = redisCache
			log.Info("Loaded Redis Cache")
		} else {
			cache = verification.NewMemoryVerdictCache()
		}
	}

	backs, err := config.LoadStorageBackends(c.Storage, c.API.Argon2idParams)
	if err != nil {
		log.Fatal(err)
	}
	if err = config.ApplyStoredSettings(backs.KV, &c); err != nil {
		log.Fatal(err)
	}

	ledgerClient := ledger.NewGatewayClient(
		ledger.GatewayConfig{
			URL:         c.Ledger.GatewayURL,
			BearerToken: c.Ledger.BearerToken,
			CallTimeout: c.Ledger.CallTimeout.Duration(),
		},
	)
	log.Info("Initialized ledger gateway client")

	engine := verification.NewEngine(
		ledgerClient, backs.Certificates, backs.Verifications,
		cache, c.Caching.VerdictTTL.Duration(),
	)
	orchestrator := issuance.NewOrchestrator(
		ledgerClient, backs.Certificates, backs.Debts,
		issuance.NewSubmitter(0), cache,
		c.Ledger.VerifyBaseURL,
	)

	tl, err := trustlayer.NewTrustLayer(
		c.Server, engine, orchestrator, backs,
		&trustlayer.Options{DisableUsersAPI: !c.API.UsersEnabled},
	)
	if err != nil {
		log.Fatal(err)
	}
	log.Info("Initialized service")

	tl.Start()
}
