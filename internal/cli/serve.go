package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	application "github.com/taoreta-ed/redes2-25-2/internal"
	"github.com/taoreta-ed/redes2-25-2/internal/config"
)

type serveFlags struct {
	host       string
	port       string
	difficulty string
	mode       string
	httpPort   string
	seed       int64
	redis      bool
}

func serveCmd(opts *options) *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the game server",
		Long: `Run the game server. Flags override the config file and the
environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := opts.load()
			if err != nil {
				return err
			}

			if err = flags.apply(cmd, conf); err != nil {
				return err
			}

			logger := newLogger(conf)

			ctx, cancel := signalContext(cmd.Context(), logger)
			defer cancel()

			return application.RunServer(ctx, logger, conf)
		},
	}

	flags.register(cmd)

	return cmd
}

func (that *serveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&that.host, "host", "", "address to bind")
	cmd.Flags().StringVarP(&that.port, "port", "p", "", "TCP port for the game")
	cmd.Flags().StringVarP(&that.difficulty, "difficulty", "d", "", "principiante or avanzado")
	cmd.Flags().StringVar(&that.mode, "mode", "", "connection host: reactor or threaded")
	cmd.Flags().StringVar(&that.httpPort, "http-port", "", "port for the HTTP side channel, empty to disable")
	cmd.Flags().Int64Var(&that.seed, "seed", 0, "board seed, 0 for a random one")
	cmd.Flags().BoolVar(&that.redis, "redis", false, "record results in Redis")
}

// apply - copies the flags the user set onto conf.
func (that *serveFlags) apply(cmd *cobra.Command, conf *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("host") {
		conf.Server.Host = that.host
	}

	if changed("port") {
		conf.Server.Port = that.port
	}

	if changed("difficulty") {
		conf.Server.Difficulty = that.difficulty
	}

	if changed("mode") {
		conf.Server.Mode = that.mode
	}

	if changed("http-port") {
		conf.HTTPPort = that.httpPort
	}

	if changed("seed") {
		conf.Server.Seed = that.seed
	}

	if changed("redis") {
		conf.Redis.Enabled = that.redis
	}

	if err := conf.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	return nil
}
