// cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/ivr-backend/internal/config"
	"github.com/unclebandit/ivr-backend/internal/db"
	"github.com/unclebandit/ivr-backend/internal/logging"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	dir := flag.String("dir", "seed", "directory holding *.sql seed files")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("❌ Failed to load config")
	}
	log := logging.New(cfg.Log)

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("❌ Failed to connect to database")
	}
	defer database.Close()

	if err := db.MigrateUp(database.DB); err != nil {
		log.WithError(err).Fatal("❌ Failed to apply migrations")
	}

	files, err := filepath.Glob(filepath.Join(*dir, "*.sql"))
	if err != nil {
		log.WithError(err).Fatal("❌ Bad seed directory")
	}
	sort.Strings(files)

	for _, file := range files {
		if err := seedFile(ctx, database, file); err != nil {
			log.WithError(err).WithField("file", file).Fatal("❌ Seeding failed")
		}
		log.WithField("file", file).Info("🌱 Seeded")
	}
	log.WithField("files", len(files)).Info("✅ Database seeding completed")
}

// seedFile runs one file in its own transaction.
func seedFile(ctx context.Context, database *sqlx.DB, file string) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	tx, err := database.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
