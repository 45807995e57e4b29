// Command createadmin creates an ADMIN account, or promotes an existing
// account and resets its password.
//
//	ADMIN_PASSWORD=... createadmin -email admin@example.com
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/theatre-booking/internal/config"
	"github.com/iliyamo/theatre-booking/internal/database"
	"github.com/iliyamo/theatre-booking/internal/logger"
	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/repository"
	"github.com/iliyamo/theatre-booking/internal/utils"
)

func main() {
	_ = godotenv.Load()
	logger.Init(logger.Config{Format: "text"})

	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password (prefer ADMIN_PASSWORD)")
	flag.Parse()

	if *email == "" || len(*password) < utils.MinPasswordLength {
		log.Fatal().Int("min_password", utils.MinPasswordLength).Msg("email and a password are required")
	}

	dbc := config.LoadDB()
	db, err := database.Open(dbc.User, dbc.Pass, dbc.Host, dbc.Port, dbc.Name)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer db.Close()

	hash, err := utils.HashPassword(*password, config.BcryptCost(bcrypt.DefaultCost))
	if err != nil {
		log.Fatal().Err(err).Msg("hash password")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users := repository.NewUserRepo(db)
	u, err := users.GetByEmail(ctx, *email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		u = &model.User{Email: *email, PasswordHash: hash, Role: model.RoleAdmin}
		if err := users.Create(ctx, u); err != nil {
			log.Fatal().Err(err).Msg("create admin")
		}
		log.Info().Uint64("id", u.ID).Str("email", u.Email).Msg("admin created")
	case err != nil:
		log.Fatal().Err(err).Msg("lookup user")
	default:
		if err := users.SetRole(ctx, u.ID, model.RoleAdmin); err != nil {
			log.Fatal().Err(err).Msg("promote user")
		}
		if err := users.SetPassword(ctx, u.ID, hash); err != nil {
			log.Fatal().Err(err).Msg("reset password")
		}
		log.Info().Uint64("id", u.ID).Str("email", u.Email).Msg("user promoted to admin")
	}
}
