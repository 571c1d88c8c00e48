package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/Black-And-White-Club/grade-bot/config"
	"github.com/Black-And-White-Club/grade-bot/db/bundb"
	"github.com/urfave/cli/v2"
)

func main() {
	var (
		migrator *bundb.Migrator
		closeDB  func() error
	)

	cliApp := &cli.App{
		Name: "bun",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "config.yaml",
				Usage: "Path to the configuration file",
			},
		},
		Before: func(c *cli.Context) error {
			// Load configuration for database connection ONLY
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

			db, err := bundb.Open(c.Context, cfg.Postgres.DSN, logger)
			if err != nil {
				return err
			}
			closeDB = db.Close
			migrator = bundb.NewMigrator(db, cfg.Postgres.DSN, logger)
			return nil
		},
		After: func(*cli.Context) error {
			if closeDB != nil {
				return closeDB()
			}
			return nil
		},
		Commands: []*cli.Command{
			newDBCommand(func() *bundb.Migrator { return migrator }),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newDBCommand(migrator func() *bundb.Migrator) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: func(c *cli.Context) error {
					return migrator().Init(c.Context)
				},
			},
			{
				Name:  "migrate",
				Usage: "migrate database, River's queue schema included",
				Action: func(c *cli.Context) error {
					return migrator().Migrate(c.Context)
				},
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group",
				Action: func(c *cli.Context) error {
					return migrator().Rollback(c.Context)
				},
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: func(c *cli.Context) error {
					applied, unapplied, err := migrator().Status(c.Context)
					if err != nil {
						return err
					}
					fmt.Printf("Applied: %s\n", applied)
					fmt.Printf("Unapplied: %s\n", unapplied)
					return nil
				},
			},
		},
	}
}
