package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/mapa-accesible/mapa-accesible-backend/config"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/auth"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/bootstrap"
	rolesrepo "github.com/mapa-accesible/mapa-accesible-backend/internal/roles/repository"
)

// setadmin grants the admin role to a user looked up by email. The role
// assignment endpoint requires an existing admin, so the very first admin
// has to be bootstrapped out of band with this tool.
//
// Usage: setadmin <email>
func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: setadmin <email>")
		os.Exit(1)
	}
	email := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clients, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Firebase")
	}
	defer clients.Firestore.Close()

	record, err := clients.Auth.GetUserByEmail(ctx, email)
	if err != nil {
		log.Fatal().Err(err).Str("email", email).Msg("user not found; they must sign in at least once first")
	}

	claims := map[string]interface{}{}
	for k, v := range record.CustomClaims {
		claims[k] = v
	}
	claims["role"] = string(auth.RoleAdmin)

	if err := clients.Auth.SetCustomUserClaims(ctx, record.UID, claims); err != nil {
		log.Fatal().Err(err).Msg("failed to set admin claim")
	}

	// Mirror the role when the database is reachable; the reconcile job
	// repairs the mirror later otherwise.
	if db, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.DSN()}); err != nil {
		log.Warn().Err(err).Msg("database unreachable, skipping profile mirror update")
	} else {
		defer db.Close()
		profiles := rolesrepo.NewProfileRepo(db)
		if err := profiles.EnsureSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to ensure schema")
		} else if err := profiles.UpsertRole(ctx, record.UID, auth.RoleAdmin); err != nil {
			log.Warn().Err(err).Msg("failed to mirror admin role")
		}
	}

	if err := clients.Auth.RevokeRefreshTokens(ctx, record.UID); err != nil {
		log.Fatal().Err(err).Msg("failed to revoke refresh tokens")
	}

	fmt.Printf("user %s (%s) is now an administrator\n", email, record.UID)
	fmt.Println("they must sign out and sign in again for the change to take effect")
}
