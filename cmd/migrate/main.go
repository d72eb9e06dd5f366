package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/fragranza-olio/ojt-backend/internal/config"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/migrate"
	"github.com/fragranza-olio/ojt-backend/migrations"
)

func main() {
	dsn := flag.String("dsn", "", "PostgreSQL connection string (defaults to the DB_* environment)")
	status := flag.Bool("status", false, "list applied versions and exit")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if *dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatal("Error loading config: ", err)
		}
		*dsn = cfg.DatabaseURL()
	}

	db, err := migrate.Open(*dsn)
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	ctx := context.Background()
	migrator := migrate.New(db, logger)

	if *status {
		applied, err := migrator.Applied(ctx)
		if err != nil {
			log.Fatal(err)
		}
		logger.Info("migration status", "applied", len(applied))
		return
	}

	all, err := migrate.Load(migrations.FS)
	if err != nil {
		log.Fatal("Error loading migrations: ", err)
	}

	done, err := migrator.Up(ctx, all)
	if err != nil {
		log.Fatal("Migration failed: ", err)
	}
	logger.Info("migrations complete", "applied", done, "total", len(all))
}
