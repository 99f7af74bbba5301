package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/novelstudio/internal/api"
	"github.com/nhle/novelstudio/internal/auth"
	"github.com/nhle/novelstudio/internal/events"
)

func addServe(topLevel *cobra.Command, ro *rootOptions) {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the studio HTTP and websocket API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ro.cfg.Server
			if cfg.JWTSecret == "" {
				return errors.New("server.jwt_secret must be set (or NOVELSTUDIO_SERVER_JWT_SECRET)")
			}
			if addr == "" {
				addr = cfg.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := ro.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			authSvc := auth.NewService(s, cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour, ro.log)
			srv := api.NewServer(s, authSvc, events.NewBus(), cfg, ro.log)
			if err := srv.Run(ctx, addr); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from the config)")

	topLevel.AddCommand(cmd)
}
