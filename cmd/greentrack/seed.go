package main

import (
	"context"
	"fmt"
	"greentrack/internal/db"
	"greentrack/internal/seed"
	"greentrack/internal/store"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Apply the schema and seed challenges, training modules and demo users",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "skip-users",
			Usage: "Only seed challenges and training modules",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c.String("env-prefix"))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		if err := db.Migrate(ctx, pool); err != nil {
			return err
		}

		logrus.Info("Seeding challenges...")
		if err := seed.SeedChallenges(ctx, store.NewChallengeRepository(pool), time.Now()); err != nil {
			return fmt.Errorf("failed to seed challenges: %w", err)
		}

		logrus.Info("Seeding training modules...")
		if err := seed.SeedTraining(ctx, store.NewTrainingRepository(pool)); err != nil {
			return fmt.Errorf("failed to seed training modules: %w", err)
		}

		if c.Bool("skip-users") {
			return nil
		}

		logrus.Info("Seeding demo users...")
		if err := seed.SeedDemoUsers(ctx, store.NewUserRepository(pool)); err != nil {
			return fmt.Errorf("failed to seed demo users: %w", err)
		}

		logrus.Info("Seed complete")

		return nil
	},
}
