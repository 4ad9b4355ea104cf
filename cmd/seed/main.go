package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"datingapp/internal/config"
	"datingapp/internal/log"
	"datingapp/internal/repository"
	"datingapp/internal/security"
	"datingapp/internal/seed"
	"datingapp/internal/service"
)

func main() {
	usersPath := flag.String("users", "", "YAML file with users to create")
	withAdmin := flag.Bool("admin", true, "create the admin account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.LogLevel).With().Str("component", "seed").Logger()
	ctx := context.Background()

	stores, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer stores.Close()

	tokens := security.NewTokenIssuer(cfg.Security.TokenSecret, cfg.Security.TokenTTL)
	auth := service.NewAuthService(stores.Users, tokens, nil, logger)
	seeder := seed.New(stores.Users, auth, logger)

	if *usersPath != "" {
		f, err := os.Open(*usersPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *usersPath).Msg("open users file")
		}
		created, err := seeder.Users(ctx, f)
		f.Close()
		if err != nil {
			logger.Fatal().Err(err).Msg("seed users failed")
		}
		logger.Info().Int("created", created).Msg("users seeded")
	}

	if *withAdmin {
		password, err := adminPassword()
		if err != nil {
			logger.Fatal().Err(err).Msg("read admin password")
		}
		if err := seeder.Admin(ctx, password); err != nil {
			logger.Fatal().Err(err).Msg("seed admin failed")
		}
	}
}

// adminPassword prefers DATINGAPP_ADMIN_PASSWORD and otherwise prompts
// without echo on a terminal.
func adminPassword() (string, error) {
	if pw := os.Getenv("DATINGAPP_ADMIN_PASSWORD"); pw != "" {
		return pw, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "Admin password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
