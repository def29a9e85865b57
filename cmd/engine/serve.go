package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"jobsearch-engine/internal/config"
	"jobsearch-engine/internal/httpapi"
	"jobsearch-engine/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the scheduled ingest and maintenance cycles",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "listen port (default from app.port)")
	serveCmd.Flags().String("host", "127.0.0.1", "listen address")
	_ = viper.BindPFlag("app.port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	cfg := e.config()
	log := e.log
	log.Info("starting the engine", zap.String("version", version), zap.String("config", e.cfgPath))

	sched := scheduler.New(log.Named("scheduler"))
	if err := sched.Add(cfg.Schedule.IngestCron, e.ingest); err != nil {
		return err
	}
	if err := sched.Add(cfg.Schedule.MaintenanceCron, e.maintenance); err != nil {
		return err
	}
	sched.Start()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		sched.Stop(sctx)
	}()

	if cfg.Schedule.RunOnStart {
		if err := e.ingest.TriggerAsync(ctx); err != nil {
			log.Warn("initial ingest not started", zap.Error(err))
		}
	}

	deps := httpapi.Deps{
		Log:         log,
		Version:     version,
		Store:       e.db,
		Bus:         e.bus,
		CfgVal:      &e.cfg,
		UserCfgPath: e.cfgPath,
		LoadCfg: func() (config.Config, error) {
			c, _, err := loadConfig()
			return c, err
		},
		Ingest:      e.ingest,
		Maintenance: e.maintenance,
	}
	mux := httpapi.NewMux(deps)

	token, err := randomToken(32)
	if err != nil {
		return err
	}
	tokenPath, err := writeShutdownToken(cfg.App.DataDir, token)
	if err != nil {
		return err
	}
	defer os.Remove(tokenPath)
	mux.HandleFunc("/shutdown", shutdownHandler(token, stop, log))

	host, _ := cmd.Flags().GetString("host")
	addr := net.JoinHostPort(host, fmt.Sprint(cfg.App.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Info("engine listening", zap.String("addr", "http://"+ln.Addr().String()), zap.String("store", cfg.Store.Driver))

	srv := &http.Server{
		Handler:           httpapi.Wrap(mux, log),
		ReadHeaderTimeout: 5 * time.Second,
		// ends SSE streams when the server stops
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}
