package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"gearloan-backend/internal/app"
	"gearloan-backend/internal/config"
	"gearloan-backend/internal/logger"
	"gearloan-backend/internal/migrations"
	"gearloan-backend/internal/repository/postgres"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: migrate [flags] up | down N | version | seed-admin\n\n")
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	adminName := flag.String("admin-name", "Administrator", "Display name for seed-admin")
	adminEmail := flag.String("admin-email", os.Getenv("ADMIN_EMAIL"), "Email for seed-admin")
	adminPassword := flag.String("admin-password", os.Getenv("ADMIN_PASSWORD"), "Password for seed-admin (new accounts only)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	if cfg.Database.Driver != config.DriverPostgres {
		log.Fatalf("migrate needs the postgres driver, configuration uses %q", cfg.Database.Driver)
	}

	ctx := context.Background()
	db, err := app.OpenDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = migrations.Up(db)
	case "down":
		steps := 1
		if flag.NArg() > 1 {
			steps, err = strconv.Atoi(flag.Arg(1))
			if err != nil {
				log.Fatalf("Invalid step count %q", flag.Arg(1))
			}
		}
		err = migrations.Down(db, steps)
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = migrations.Version(db)
		if err == nil {
			fmt.Printf("version=%d dirty=%t\n", version, dirty)
		}
	case "seed-admin":
		_, err = app.EnsureAdmin(ctx, postgres.NewStore(db), *adminName, *adminEmail, *adminPassword)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("Migration command failed", "command", flag.Arg(0), "error", err)
		db.Close()
		os.Exit(1)
	}
}
