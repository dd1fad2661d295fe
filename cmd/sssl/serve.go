package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RetendoNetwork/SSSL/internal/api/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the forging HTTP API",
		Long: `Start an HTTP server exposing the forging engine.

Endpoints:
  GET  /health           - Health check
  POST /api/v1/forge     - Forge a chain, artifacts returned in the response
  POST /api/v1/inspect   - Describe a certificate, chain or CSR

Nothing is written to disk by the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			auditLog, err := a.openAudit()
			if err != nil {
				return err
			}
			defer auditLog.Close()

			return server.New(a.cfg.Server, version, a.logger, auditLog).Run(ctx)
		},
	}

	flags := cmd.Flags()
	flags.String("host", "", "address to bind (default 127.0.0.1)")
	flags.Int("port", 0, "port to listen on (default 8443)")
	return cmd
}
