package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"animeHub/auth"
	"animeHub/config"
	"animeHub/crud"
	"animeHub/database"
	"animeHub/domain"
	"animeHub/http"
	"animeHub/storage"
)

// main is the app's entry point.
func main() {
	// In production a config.yml must be present, otherwise the defaults are used.
	productionBool := flag.Bool("prod", false, "Provide this flag in production to ensure that a config.yml file is provided before the application starts.")
	flag.Parse()

	if err := run(*productionBool); err != nil {
		logrus.WithError(err).Fatal("[main] exit")
	}
}

func run(isProd bool) error {
	cfg, err := config.LoadConfig(isProd)
	if err != nil {
		return err
	}
	if err := config.SetupLogging(cfg.Log); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open a database connection and execute migrations.
	db := database.NewDB(cfg.Database.ConnectionInfo())
	db.MaxOpenConns = cfg.Database.MaxOpenConns
	db.MaxIdleConns = cfg.Database.MaxIdleConns
	if err := database.Open(db, cfg.IsProd()); err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	store, err := avatarStore(ctx, cfg)
	if err != nil {
		return err
	}

	// Start the crud services.
	creds := auth.NewCredentials(cfg.Pepper, cfg.JWT.Secret, cfg.JWT.TTL)
	services, err := crud.NewServices(
		db.Gorm,
		crud.WithPaging(domain.PageLimits{Default: cfg.Pagination.DefaultSize, Max: cfg.Pagination.MaxSize}),
		crud.WithUser(creds),
		crud.WithPost(),
		crud.WithComment(),
		crud.WithLike(),
		crud.WithFavorite(),
		crud.WithFollow(),
		crud.WithAdmin(),
		crud.WithSite(),
		crud.WithAvatar(store, cfg.Upload.MaxBytes),
	)
	if err != nil {
		return err
	}

	uploadDir := ""
	if cfg.Upload.Backend != "s3" {
		uploadDir = cfg.Upload.Dir
	}
	server := http.NewServer(services, uploadDir, cfg.Upload.MaxBytes)
	return server.Run(ctx, cfg.Port)
}

// avatarStore returns the avatar backend selected by the upload config.
func avatarStore(ctx context.Context, cfg config.Config) (domain.AvatarStore, error) {
	switch cfg.Upload.Backend {
	case "", "local":
		return storage.NewLocalStore(cfg.Upload.Dir, "/uploads"), nil
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
			PublicURL: cfg.S3.PublicURL,
		})
	default:
		return nil, errors.Errorf("unknown upload backend %q", cfg.Upload.Backend)
	}
}
