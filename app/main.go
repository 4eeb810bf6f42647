package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hikarune/postfeed/internal/blobservice"
	"github.com/hikarune/postfeed/internal/common"
	"github.com/hikarune/postfeed/internal/mailservice"
	"github.com/hikarune/postfeed/internal/notifyservice"
	"github.com/hikarune/postfeed/internal/postservice"
	"github.com/hikarune/postfeed/internal/userservice"
)

type application struct {
	config        *Config
	logger        *slog.Logger
	userService   *userservice.UserService
	postService   *postservice.PostService
	notifyService *notifyservice.NotifyService
	mailService   *mailservice.MailService
	blobs         blobservice.Store
	broker        *common.MessageBroker
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := loadConfig(".env")
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := common.NewDB(common.DSN(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName), 25, 25, 15*time.Minute)
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	URI := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.MQUser, cfg.MQPassword, cfg.MQHost, cfg.MQPort)
	broker, err := common.NewMessageBroker(URI)
	if err != nil {
		logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer broker.Close()

	err = common.SetupUserExchange(broker)
	if err != nil {
		logger.Error("failed to setup the user exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = common.SetupPostExchange(broker)
	if err != nil {
		logger.Error("failed to setup the post exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	blobs, err := newBlobStore(cfg)
	if err != nil {
		logger.Error("failed to setup the blob store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cache := common.NewCache(5*time.Minute, 10*time.Minute)
	auth := newAuthenticator(cfg, db)

	app := &application{
		config:        cfg,
		logger:        logger,
		userService:   userservice.NewUserService(db, broker, auth, cache, logger),
		postService:   postservice.NewPostService(db, blobs, broker, cache, logger),
		notifyService: notifyservice.NewNotifyService(broker, logger),
		mailService:   mailservice.NewMailService(broker, cfg.MailHost, cfg.MailUser, cfg.MailPassword, cfg.MailSender, cfg.MailPort, logger),
		blobs:         blobs,
		broker:        broker,
	}
	defer app.notifyService.Close()
	defer app.mailService.Close()

	go app.mailService.SendWelcomeEmail()
	go app.notifyService.Run()

	err = app.serve(cfg.Port)
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newBlobStore(cfg *Config) (blobservice.Store, error) {
	switch cfg.BlobBackend {
	case "s3":
		return blobservice.NewS3Store(context.Background(), blobservice.S3Config{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Endpoint:        cfg.S3Endpoint,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
	case "memory":
		return blobservice.NewMemoryStore(), nil
	default:
		return blobservice.NewFSStore(cfg.BlobDir)
	}
}

func newAuthenticator(cfg *Config, db *sql.DB) userservice.Authenticator {
	if cfg.AuthStrategy == "jwt" {
		return userservice.NewJWTAuthenticator(db, cfg.JWTSecret, userservice.AccessTokenTime)
	}

	return userservice.NewTokenAuthenticator(db)
}
