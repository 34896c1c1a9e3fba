// Command adminctl provisions admin accounts for the storefront console.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/go-storefront/internal/config"
	"github.com/flicky/go-storefront/internal/repository"
	"github.com/flicky/go-storefront/internal/service"
)

func main() {
	createCmd := flag.NewFlagSet("create-admin", flag.ExitOnError)
	username := createCmd.String("username", "", "username for the new admin")
	password := createCmd.String("password", "", "password for the new admin")

	if len(os.Args) < 2 || os.Args[1] != "create-admin" {
		fmt.Fprintln(os.Stderr, "expected 'create-admin' subcommand")
		os.Exit(2)
	}

	_ = createCmd.Parse(os.Args[2:])
	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "username and password are required")
		createCmd.PrintDefaults()
		os.Exit(2)
	}

	if err := createAdmin(context.Background(), *username, *password); err != nil {
		fmt.Fprintf(os.Stderr, "create admin: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("admin %q created\n", *username)
}

func createAdmin(ctx context.Context, username, password string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.Level}))

	pool, err := pgxpool.New(ctx, cfg.DB.DSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	// The CLI may run before the API has ever started.
	if err := repository.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	auth := service.NewAuthService(repository.NewStore(pool), log)
	_, err = auth.CreateAdmin(ctx, username, password)
	return err
}
