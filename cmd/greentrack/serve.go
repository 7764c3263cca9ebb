package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"greentrack/internal/challenge"
	"greentrack/internal/classifier"
	"greentrack/internal/db"
	"greentrack/internal/keylock"
	"greentrack/internal/notify"
	"greentrack/internal/scan"
	"greentrack/internal/scoring"
	"greentrack/internal/server"
	"greentrack/internal/storage"
	"greentrack/internal/store"
	"greentrack/internal/training"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := loadConfig(cCtx.String("env-prefix"))
	if err != nil {
		return err
	}

	logger, err := newLogger(config.LogLevel)
	if err != nil {
		return err
	}

	// refuse to start with an incomplete disposal table
	if err := scoring.Validate(); err != nil {
		return err
	}

	awsConfig, err := loadAWSConfig(ctx)
	if err != nil {
		return err
	}

	cognitoClient := cognitoidentityprovider.NewFromConfig(awsConfig)
	s3Client := s3.NewFromConfig(awsConfig)

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}

	userRepo := store.NewUserRepository(pool)
	scanRepo := store.NewScanRepository(pool)
	challengeRepo := store.NewChallengeRepository(pool)

	strategy, err := classifier.New(config, logger)
	if err != nil {
		return err
	}
	if remote, ok := strategy.(*classifier.Remote); ok {
		if !remote.Healthy(ctx) {
			logger.WithField("url", config.MLServiceURL).Warn("ml service is not healthy, scans will fall back to the heuristic classifier")
		}
	}

	var notifier scan.Notifier = notify.Discard{}
	if config.RedisURL != "" {
		redisClient, err := notify.Connect(ctx, config.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		notifier = notify.NewRedisNotifier(redisClient)
	} else {
		logger.Info("REDIS_URL not set, scan notifications disabled")
	}

	images := storage.NewS3ImageStore(s3Client, config.ScanBucketName, awsConfig.Region)

	// users, challenges and training modules share one lock table so every
	// writer of an entity goes through the same key
	locks := keylock.New()

	challengeService := challenge.NewService(logger, challengeRepo, userRepo, locks, config.WeightPerScanKg)
	trainingService := training.NewService(logger, store.NewTrainingRepository(pool), locks)
	scanService := scan.NewService(logger, strategy, scanRepo, userRepo, images, challengeService, notifier, locks)

	jwkCache, err := jwk.NewCache(context.Background(), httprc.NewClient())
	if err != nil {
		return fmt.Errorf("failed to initialize jwk cache: %w", err)
	}

	jwksURL := fmt.Sprintf("%s/.well-known/jwks.json", config.CognitoIssuerURL)

	err = jwkCache.Register(context.Background(), jwksURL)
	if err != nil {
		return fmt.Errorf("failed to register cognito jwk with cache: %w", err)
	}

	srv, err := server.New(
		config,
		logger,
		cognitoClient,
		scanService,
		challengeService,
		trainingService,
		userRepo,
		server.NewJWKSVerifier(jwkCache, jwksURL),
	)
	if err != nil {
		return err
	}

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
