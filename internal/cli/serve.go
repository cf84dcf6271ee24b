package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/rl1809/supplydesk/internal/adapter/handler"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC APIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := newLogger(rootOpts.cfg, cmd.ErrOrStderr())
			a, err := newApp(ctx, rootOpts.cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			return serve(ctx, a, nil)
		},
	}
}

// serve runs the listeners until ctx is done and then shuts them down.
// ready, when set, receives the bound addresses once both are listening.
func serve(ctx context.Context, a *app, ready func(httpAddr, grpcAddr net.Addr)) error {
	cfg := a.cfg
	logger := a.logger
	errCh := make(chan error, 2)

	var (
		grpcServer *grpc.Server
		grpcAddr   net.Addr
	)
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		grpcAddr = lis.Addr()

		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(handler.RequestIDInterceptor))
		handler.RegisterRequestDeskServer(grpcServer, handler.NewGRPCHandler(a.requests, a.inventory, logger))

		go func() {
			logger.Info("gRPC server listening", "addr", grpcAddr.String())
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	var (
		httpServer *http.Server
		httpAddr   net.Addr
	)
	if cfg.HTTPAddr != "" {
		lis, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			if grpcServer != nil {
				grpcServer.Stop()
			}
			return err
		}
		httpAddr = lis.Addr()

		httpServer = &http.Server{
			Handler: handler.NewHTTPHandler(a.requests, a.inventory, logger).Routes(),
		}
		go func() {
			logger.Info("HTTP server listening", "addr", httpAddr.String())
			if err := httpServer.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	if ready != nil {
		ready(httpAddr, grpcAddr)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		logger.Error("server error", "error", runErr)
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP shutdown", "error", err)
		}
		logger.Info("HTTP server stopped")
	}
	if grpcServer != nil {
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			grpcServer.Stop()
		}
		logger.Info("gRPC server stopped")
	}

	return runErr
}
