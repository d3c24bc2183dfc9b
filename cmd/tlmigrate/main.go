package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/trustlayer/trustlayer/cmd/trustlayer/config"
	"github.com/trustlayer/trustlayer/storage/model"
)

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, "tlmigrate: migrate legacy data to new formats\n")
	_, _ = fmt.Fprintf(os.Stderr, "\n")
	_, _ = fmt.Fprintf(os.Stderr, "Subcommands:\n")
	_, _ = fmt.Fprintf(os.Stderr, "  db       Migrate a legacy badger certificate registry to the GORM-based database\n")
	_, _ = fmt.Fprintf(os.Stderr, "\n")
	_, _ = fmt.Fprintf(os.Stderr, "Use 'tlmigrate <subcommand> -h' for help on a subcommand.\n")
}

func dbCmd(args []string) int {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	var (
		src        = fs.String("src", "", "Path to legacy badger registry directory")
		configFile = fs.String("config", "config.yaml", "Config file naming the destination database")
		dryRun     = fs.Bool("dry-run", false, "Only report what would be migrated")
		v          = fs.Bool("v", false, "Verbose logging")
	)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage: tlmigrate db -src <legacy_dir> -config <config file>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *v {
		log.SetLevel(log.DebugLevel)
	}
	if *src == "" {
		_, _ = fmt.Fprintln(os.Stderr, "-src is required")
		fs.Usage()
		return 2
	}

	log.WithFields(
		log.Fields{
			"src":    *src,
			"config": *configFile,
		},
	).Info("migrating legacy certificate registry")

	legacy, err := NewBadgerStorage(*src)
	if err != nil {
		log.WithError(err).Error("failed to open legacy badger registry")
		return 1
	}
	defer legacy.Close()

	var certs []*legacyCertificate
	err = legacy.CertificateStorage().ReadIterator(
		func(k, v []byte) error {
			var cert legacyCertificate
			if err := msgpack.Unmarshal(v, &cert); err != nil {
				// early instances stored json
				if jsonErr := json.Unmarshal(v, &cert); jsonErr != nil {
					return err
				}
			}
			certs = append(certs, &cert)
			return nil
		},
	)
	if err != nil {
		log.WithError(err).Error("failed to read legacy certificates")
		return 1
	}
	log.WithField("count", len(certs)).Info("read legacy certificates")

	if *dryRun {
		for _, cert := range certs {
			fmt.Printf("%s %s\n", cert.CertID, cert.FileHash)
		}
		return 0
	}

	config.Load(*configFile)
	backs, err := config.LoadStorageBackends(config.Get().Storage, config.Get().API.Argon2idParams)
	if err != nil {
		log.WithError(err).Error("failed to open destination database")
		return 1
	}

	var migrated, skipped int
	for _, cert := range certs {
		if err := backs.Certificates.Create(cert.toModel()); err != nil {
			if _, ok := err.(model.AlreadyExistsError); ok {
				log.WithField("cert_id", cert.CertID).Debug("already migrated, skipping")
				skipped++
				continue
			}
			log.WithError(err).WithField("cert_id", cert.CertID).Error("migration failed")
			return 1
		}
		migrated++
	}
	log.WithFields(
		log.Fields{
			"migrated": migrated,
			"skipped":  skipped,
		},
	).Info("certificate migration completed")
	return 0
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "db":
		os.Exit(dbCmd(os.Args[2:]))
	case "-h", "--help", "help":
		usage()
		os.Exit(0)
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown subcommand %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}
