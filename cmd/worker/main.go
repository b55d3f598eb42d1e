package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/claimgraph/internal/config"
	"github.com/OFFIS-RIT/claimgraph/internal/pipeline"
	"github.com/OFFIS-RIT/claimgraph/internal/queue"
	"github.com/OFFIS-RIT/claimgraph/internal/storage"
	"github.com/OFFIS-RIT/claimgraph/internal/timing"
	"github.com/OFFIS-RIT/claimgraph/internal/util"
	"github.com/OFFIS-RIT/claimgraph/pkg/export"
	"github.com/OFFIS-RIT/claimgraph/pkg/loader/s3"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger/console"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger/file"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.New())
	if err != nil {
		console.NewConsoleLogger(console.ConsoleLoggerParams{Debug: util.GetEnvBool("DEBUG", false)}).Fatal("Invalid configuration", "err", err)
	}

	// logger
	instances := []logger.LoggerInstance{
		console.NewConsoleLogger(console.ConsoleLoggerParams{
			Debug:  cfg.Debug,
			Prefix: "worker",
			Format: cfg.LogFormat,
		}),
	}
	if cfg.LogFile != "" {
		instances = append(instances, file.NewFileLogger(file.FileLoggerParams{
			Path:  cfg.LogFile,
			Debug: cfg.Debug,
		}))
	}
	logger.Init(instances...)
	defer logger.Close()

	// Init s3 client
	s3Client, err := storage.NewS3Client(ctx, storage.S3Params{
		Region:    cfg.AWS.Region,
		Endpoint:  cfg.AWS.Endpoint,
		AccessKey: cfg.AWS.AccessKey,
		SecretKey: cfg.AWS.SecretKey,
		Bucket:    cfg.AWS.Bucket,
	})
	if err != nil {
		logger.Fatal("Failed to create S3 client", "err", err)
	}

	p, err := pipeline.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to build pipeline", "err", err)
	}
	defer p.Close()

	processor := queue.NewProcessor(queue.NewProcessorParams{
		Loader:  s3.NewS3FileLoaderWithClient(cfg.AWS.Bucket, s3Client),
		Builder: p.Graph,
		SinkFor: func(runID string) export.Sink {
			return export.NewS3Sink(s3Client, cfg.AWS.Bucket, storage.RunPrefix(runID))
		},
	})

	// Init rabbitmq
	conn, err := queue.Init(cfg.RabbitMQ.URL())
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.GraphBuildQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	// One run at a time.
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := ch.Consume(
		queue.GraphBuildQueue,
		queue.GraphBuildQueue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.GraphBuildQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.GraphBuildQueue)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue.GraphBuildQueue)
				return
			}

			startTime := time.Now()
			logger.Info("Received message", "queue", queue.GraphBuildQueue)

			_, processingErr := processor.ProcessBuildMessage(ctx, msg.Body)
			if processingErr != nil {
				logger.Error("Error processing message", "queue", queue.GraphBuildQueue, "err", processingErr)
				queue.HandleProcessingError(ch, msg, queue.GraphBuildQueue, processingErr)
			} else {
				if err := msg.Ack(false); err != nil {
					logger.Error("Failed to ack message", "err", err)
				}
				logger.Info("Message processed successfully", "queue", queue.GraphBuildQueue)
			}

			if p.AI != nil {
				metrics := p.AI.GetMetrics()
				logger.Info(
					"AI Metrics",
					"requests", metrics.Requests,
					"input_tokens", metrics.InputTokens,
					"output_tokens", metrics.OutputTokens,
					"total_tokens", metrics.TotalTokens,
					"duration", timing.FormatDuration(time.Duration(metrics.DurationMs)*time.Millisecond),
				)
				p.AI.ResetMetrics()
			}

			logger.Info("Processing time", "duration", timing.FormatDuration(time.Since(startTime)))
			logger.Info("Waiting for next message")
		}
	}
}
