package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Zarux/tictactable/internal/config"
	"github.com/Zarux/tictactable/internal/logger"
	"github.com/Zarux/tictactable/services/match"
	"github.com/Zarux/tictactable/services/solver"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "Serve tic-tac-toe matches against a solved game tree over HTTP",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "yaml config file")
	rootCmd.Flags().Int("size", 3, "board size")
	rootCmd.Flags().String("addr", "127.0.0.1:3000", "listen address")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.New(logger.WithWriter(os.Stderr)).Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	log := cfg.Logger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	solved, err := solver.New(solver.Options{MaxNodes: cfg.Compiler.MaxNodes}).
		Solve(logger.NewContext(ctx, log), cfg.Board.Size)
	if err != nil {
		return err
	}

	svc := match.New(solved.Rules, solved.Engine, match.WithFinishedTTL(cfg.Server.FinishedTTL))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newHandler(log, svc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening on", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		return svc.Run(logger.NewContext(gctx, log))
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newHandler(log *logger.Logger, svc *match.Service) http.Handler {
	var handler http.Handler = match.HTTPHandler(svc)

	middlewares := []func(http.Handler) http.Handler{
		logger.NewMiddleware(log),
	}

	slices.Reverse(middlewares)
	for _, mw := range middlewares {
		handler = mw(handler)
	}

	mux := rootHandler("/game/v1", handler)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	return mux
}

func rootHandler(root string, h http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(root+"/", http.StripPrefix(root, h))
	return mux
}
