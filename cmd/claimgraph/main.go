package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/claimgraph/internal/config"
	"github.com/OFFIS-RIT/claimgraph/internal/util"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger/console"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger/file"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	v := config.New()
	cfg := new(config.Config)

	rootCmd := &cobra.Command{
		Use:           "claimgraph",
		Short:         "Build knowledge graphs from extracted claim triples",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(v)
			if err != nil {
				return err
			}
			*cfg = *loaded
			initLogger(cmd, cfg)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Close()
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-file", "", "also write JSON logs to this file")
	rootCmd.PersistentFlags().String("log-format", "text", "console log format: text, json or logfmt")
	_ = v.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = v.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	_ = v.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(newBuildCmd(v, cfg))
	return rootCmd
}

func initLogger(cmd *cobra.Command, cfg *config.Config) {
	instances := []logger.LoggerInstance{
		console.NewConsoleLogger(console.ConsoleLoggerParams{
			Debug:  cfg.Debug,
			Prefix: "claimgraph",
			Format: cfg.LogFormat,
			Output: cmd.ErrOrStderr(),
		}),
	}
	if cfg.LogFile != "" {
		instances = append(instances, file.NewFileLogger(file.FileLoggerParams{
			Path:  cfg.LogFile,
			Debug: cfg.Debug,
		}))
	}
	logger.Init(instances...)
}

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		console.NewConsoleLogger(console.ConsoleLoggerParams{Prefix: "claimgraph"}).Error("Command failed", "err", err)
		stop()
		os.Exit(1)
	}
}
