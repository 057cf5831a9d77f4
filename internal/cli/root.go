package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/taoreta-ed/redes2-25-2/internal/config"
)

const defaultConfigPath = "config.yml"

// Build information, set with -ldflags.
var (
	Version = "dev"
	Commit  = "none"
)

type options struct {
	configPath string
	logLevel   string
}

// NewRootCommand - builds the buscaminas command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "buscaminas",
		Short: "Minesweeper over TCP",
		Long: `Buscaminas serves one minesweeper game at a time over a TCP socket
and ships the matching terminal client.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		serveCmd(opts),
		playCmd(opts),
		versionCmd(),
	)

	return rootCmd
}

// Execute - runs the root command and reports the error on stderr.
func Execute() error {
	err := NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}

	return err
}

func (that *options) load() (*config.Config, error) {
	conf, err := config.Load(that.configPath)
	if err != nil {
		return nil, err
	}

	if that.logLevel != "" {
		conf.LogLevel = that.logLevel
	}

	return conf, nil
}

func newLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// signalContext - canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigs)

		select {
		case sig := <-sigs:
			logger.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
