package cli

import (
	"github.com/spf13/cobra"

	"github.com/pavi2410/droidkit/api"
	"github.com/pavi2410/droidkit/service"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		Example: `  droidkit serve
  droidkit serve --addr 127.0.0.1:9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireConfig(); err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr()
			}

			hub := api.NewWebSocketHub(logger)
			a, err := newApp(cfg, logger, true, hub)
			if err != nil {
				return err
			}
			defer a.Close()

			jobs := service.NewDispatcher(cfg.Workers.Count, cfg.Workers.QueueSize, hub, logger)
			defer jobs.Stop()

			srv := api.NewServer(addr, api.NewHandlers(a.dm, jobs, hub, logger), hub, api.RouteOptions{
				DiscoveryRate:  cfg.Discovery.RateLimit,
				DiscoveryBurst: cfg.Discovery.RateBurst,
			}, logger)
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
