package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/claimgraph/internal/config"
	"github.com/OFFIS-RIT/claimgraph/internal/queue"
	mid "github.com/OFFIS-RIT/claimgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/claimgraph/internal/storage"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New creates the echo instance serving app.
func New(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	RegisterRoutes(e)
	return e
}

// Init connects to object storage and the broker and serves the API until
// SIGINT or SIGTERM.
func Init(cfg *config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	que, err := queue.Init(cfg.RabbitMQ.URL())
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.GraphBuildQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	s3, err := storage.NewS3Client(ctx, storage.S3Params{
		Region:    cfg.AWS.Region,
		Endpoint:  cfg.AWS.Endpoint,
		AccessKey: cfg.AWS.AccessKey,
		SecretKey: cfg.AWS.SecretKey,
		Bucket:    cfg.AWS.Bucket,
	})
	if err != nil {
		logger.Fatal("Failed to create S3 client", "err", err)
	}

	if cfg.MasterAPIKey == "" {
		logger.Warn("MASTER_API_KEY is not set, all API requests will be rejected")
	}

	e := New(&mid.App{
		Queue:          ch,
		S3:             s3,
		Bucket:         cfg.AWS.Bucket,
		PublicEndpoint: cfg.AWS.PublicEndpoint,
		MasterAPIKey:   cfg.MasterAPIKey,
	})

	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
