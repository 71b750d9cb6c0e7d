// cmd/migrate/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/ivr-backend/internal/config"
	"github.com/unclebandit/ivr-backend/internal/db"
	"github.com/unclebandit/ivr-backend/internal/logging"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate [-config path] up | down [steps] | version")
	os.Exit(2)
}

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("❌ Failed to load config")
	}
	log := logging.New(cfg.Log)

	database, err := db.Open(context.Background(), cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("❌ Failed to connect to database")
	}
	defer database.Close()

	switch flag.Arg(0) {
	case "up":
		err = db.MigrateUp(database.DB)
	case "down":
		steps := 1
		if flag.NArg() > 1 {
			if steps, err = strconv.Atoi(flag.Arg(1)); err != nil || steps < 1 {
				usage()
			}
		}
		err = db.MigrateDown(database.DB, steps)
	case "version":
		version, dirty, verr := db.Version(database.DB)
		if verr != nil {
			log.WithError(verr).Fatal("❌ Failed to read schema version")
		}
		fmt.Printf("version %d (dirty=%t)\n", version, dirty)
		return
	default:
		usage()
	}
	if err != nil {
		log.WithError(err).Fatal("❌ Migration failed")
	}
	log.WithField("direction", flag.Arg(0)).Info("✅ Migration complete")
}
