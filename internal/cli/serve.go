package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/mosaic/internal/server"
)

// serveCommand creates the serve command that runs the layout service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		listen   string
		noCache  bool
		maxPages int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP layout service",
		Long: `Run the HTTP layout service.

Endpoints:
  GET  /healthz                 liveness probe
  GET  /v1/resources            resource catalogue
  GET  /v1/feeds/{resource}     load pages (?id=&pages=&width=&refresh=)
  POST /v1/layout               arrange posted items into columns

Pages and layouts share the configured cache backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if listen == "" {
				listen = cfg.Server.Listen
			}

			client, cc, err := c.newClient(ctx, noCache)
			if err != nil {
				return err
			}
			defer cc.Close()

			srv := server.New(server.Options{
				Client:   client,
				Cache:    cc,
				CacheTTL: cfg.Cache.TTL,
				Layout:   cfg.Layout,
				MaxPages: maxPages,
				Logger:   c.Logger,
			})
			printInfo("Serving on %s", StyleLink.Render("http://"+displayAddr(listen)))
			return srv.Run(ctx, listen)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the response and layout cache")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "upper bound for the pages query parameter")

	return cmd
}

// displayAddr turns ":8090" into "localhost:8090".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
