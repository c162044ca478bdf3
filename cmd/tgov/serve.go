package main

import (
	"net/http"
	"os"
	"time"

	"github.com/cosmos/cosmos-sdk/server"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/confio/tgov/x/govexec"
	"github.com/confio/tgov/x/govexec/client/rest"
)

// ServeCmd runs the read only REST API until a quit signal is received
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve proposals, tallies and permission paths over REST",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}
			m, err := moduleProvider(noSigner{})(cmd)
			if err != nil {
				return err
			}
			defer m.Close()
			logger, err := newLogger(cmd, os.Stderr)
			if err != nil {
				return err
			}
			srv := newServer(cfg.ListenAddr, m)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("starting REST server", "addr", cfg.ListenAddr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()
			select {
			case err := <-errCh:
				return err
			case code := <-waitForQuit():
				logger.Info("shutting down REST server")
				if err := srv.Close(); err != nil {
					logger.Error("close REST server", "error", err)
				}
				return code
			}
		},
	}
}

func newServer(addr string, m *govexec.Module) *http.Server {
	router := mux.NewRouter()
	rest.RegisterRoutes(router, m)
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func waitForQuit() <-chan server.ErrorCode {
	ch := make(chan server.ErrorCode, 1)
	go func() {
		ch <- server.WaitForQuitSignals()
	}()
	return ch
}
