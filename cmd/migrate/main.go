// Command migrate applies or rolls back the embedded schema migrations.
//
//	migrate up
//	migrate down
package main

import (
	"errors"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/theatre-booking/internal/config"
	"github.com/iliyamo/theatre-booking/internal/database"
	"github.com/iliyamo/theatre-booking/internal/logger"
)

func main() {
	_ = godotenv.Load()
	logger.Init(logger.Config{Format: "text"})

	if len(os.Args) != 2 || (os.Args[1] != "up" && os.Args[1] != "down") {
		log.Fatal().Msg("usage: migrate [up|down]")
	}

	dbc := config.LoadDB()
	db, err := database.Open(dbc.User, dbc.Pass, dbc.Host, dbc.Port, dbc.Name)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer db.Close()

	m, err := database.NewMigrator(db)
	if err != nil {
		log.Fatal().Err(err).Msg("migrator")
	}

	if os.Args[1] == "up" {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Str("direction", os.Args[1]).Msg("migration failed")
	}
	version, dirty, _ := m.Version()
	log.Info().Str("direction", os.Args[1]).Uint("version", version).Bool("dirty", dirty).Msg("migrations done")
}
