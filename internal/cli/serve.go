package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eleven-am/fiadb/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		addr    string
		origins []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog lookup and validation API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}

			cfg := server.Config{Addr: addr, AllowOrigins: origins, Debug: debug}
			if fiaConfig != nil {
				if cfg.Addr == "" {
					cfg.Addr = fiaConfig.Server.Addr
				}
				if len(cfg.AllowOrigins) == 0 {
					cfg.AllowOrigins = fiaConfig.Server.AllowOrigins
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(reg, newValidator(reg), cfg).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringSliceVar(&origins, "origins", nil, "allowed CORS origins (default: any)")
	return cmd
}
