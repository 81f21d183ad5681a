package cli

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mkoeppel/certpress/internal/server"
	"github.com/mkoeppel/certpress/pkg/config"
)

// newServeCmd creates the serve command, which runs the HTTP export API.
// Settings come from the config file, overridable by flags and by the
// environment (a .env file is loaded when present).
func newServeCmd(cfgPath *string) *cobra.Command {
	var (
		listen    string
		storeKind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP export API",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Optional; absence is the normal case.
			_ = godotenv.Load()

			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			applyServeOverrides(&cfg, listen, storeKind)
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default from config)")
	cmd.Flags().StringVar(&storeKind, "store", "", "template store backend: memory, file, redis")

	return cmd
}

// applyServeOverrides layers flags and environment variables over the
// config file. Precedence: flag, then environment, then file.
func applyServeOverrides(cfg *config.Config, listen, storeKind string) {
	if listen != "" {
		cfg.Server.Listen = listen
	} else if v := os.Getenv("CERTPRESS_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}

	if storeKind != "" {
		cfg.Server.Store = storeKind
	} else if v := os.Getenv("CERTPRESS_STORE"); v != "" {
		cfg.Server.Store = v
	}

	if v := os.Getenv("CERTPRESS_REDIS_ADDR"); v != "" {
		cfg.Server.RedisAddr = v
	}
}

// runServe builds the store and blocks serving until ctx is cancelled.
func runServe(ctx context.Context, cfg config.Config) error {
	logger := loggerFromContext(ctx)

	st, err := server.NewStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Infof("Template store: %s", cfg.Server.Store)

	return server.New(cfg, st, logger).Serve(ctx)
}
