package main

import (
	"github.com/OFFIS-RIT/claimgraph/internal/config"
	"github.com/OFFIS-RIT/claimgraph/internal/server"
	"github.com/OFFIS-RIT/claimgraph/internal/util"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger/console"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger/file"
)

func main() {
	util.LoadEnv()

	cfg, err := config.Load(config.New())
	if err != nil {
		console.NewConsoleLogger(console.ConsoleLoggerParams{Debug: util.GetEnvBool("DEBUG", false)}).Fatal("Invalid configuration", "err", err)
	}

	instances := []logger.LoggerInstance{
		console.NewConsoleLogger(console.ConsoleLoggerParams{
			Debug:  cfg.Debug,
			Prefix: "server",
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

	server.Init(cfg)
}
