package cli

import (
	"net"
	"time"

	"github.com/spf13/cobra"

	application "github.com/taoreta-ed/redes2-25-2/internal"
)

func playCmd(opts *options) *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Join a game server from the terminal",
		Long: `Join a game server. Commands:

  d <fila> <columna>   reveal a cell
  b <fila> <columna>   place a flag
  r <fila> <columna>   remove a flag
  salir                leave the game`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := opts.load()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("timeout") {
				conf.Client.HandshakeTimeout = timeout
			}

			if addr == "" {
				addr = net.JoinHostPort("127.0.0.1", conf.Server.Port)
			}

			logger := newLogger(conf)

			ctx, cancel := signalContext(cmd.Context(), logger)
			defer cancel()

			return application.RunClient(ctx, logger, conf, addr, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address, defaults to the configured port on localhost")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "how long to wait for the board configuration")

	return cmd
}
