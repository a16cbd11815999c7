package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/docuforge/parsesvc/internal/ocrpool"
	"github.com/docuforge/parsesvc/internal/orchestrator"
	"github.com/docuforge/parsesvc/internal/pagepool"
	"github.com/docuforge/parsesvc/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC health endpoint and HTTP parse facade",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		pagePool := pagepool.Get(pagepool.Config{
			MaxWorkers:    cfg.PagePool.MaxWorkers,
			ReservedCores: cfg.PagePool.ReservedCores,
			MaxLimit:      cfg.PagePool.MaxLimit,
		})

		// PARSER_GRPC_PRELOAD_OCR only adds a log line: the subprocess pool
		// is spawned here at startup whatever the flag says, because
		// ocrpool.Get starts every worker on its first call.
		if cfg.GRPC.PreloadOCR {
			slog.Info("parsesvc: preloading OCR worker pool")
		}
		ocrPool, err := ocrpool.Get(ocrpool.Config{
			Command: os.Args[0],
			Args:    []string{"ocr-worker"},
		})
		if err != nil {
			return fmt.Errorf("cmd: failed to start OCR worker pool: %w", err)
		}
		defer ocrPool.Shutdown()

		orch := orchestrator.New(pagePool, ocrPool)
		facade := server.New(orch, "*")

		mux := http.NewServeMux()
		facade.SetupRoutes(mux)
		httpAddr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port+1)
		httpServer := &http.Server{
			Addr:              httpAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		grpcAddr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			return fmt.Errorf("cmd: failed to listen on %s: %w", grpcAddr, err)
		}
		grpcServer := grpc.NewServer(
			grpc.MaxRecvMsgSize(server.MaxMessageBytes),
			grpc.MaxSendMsgSize(server.MaxMessageBytes),
		)
		grpc_health_v1.RegisterHealthServer(grpcServer, server.NewHealthServer())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() {
			slog.Info("parsesvc: grpc health server listening", "addr", grpcAddr)
			if err := grpcServer.Serve(lis); err != nil {
				slog.Error("parsesvc: grpc server error", "error", err)
				cancel()
			}
		}()
		go func() {
			slog.Info("parsesvc: http facade listening", "addr", httpAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("parsesvc: http server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		select {
		case sig := <-sigChan:
			slog.Info("parsesvc: received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		grpcServer.GracefulStop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("parsesvc: http server shutdown error", "error", err)
		}
		pagePool.Shutdown()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
