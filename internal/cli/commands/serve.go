package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/metalens/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lineage API over HTTP",
		Long: `Start the JSON API consumed by the workspace UI: lineage graphs,
result-to-graph transformation, SQL entity extraction, and collection
introspection.`,
		Example: `  metalens serve
  metalens serve --port 9000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig()
			if port != 0 {
				cfg.Server.Port = port
			}

			rt, err := newRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			srv := server.New(server.Config{
				Service:     rt.service,
				Collections: rt.resolver,
				Port:        cfg.Server.Port,
				Logger:      rt.logger,
			})
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	return cmd
}
