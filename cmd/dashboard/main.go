package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/vineyard-dashboard/apiclient"
	"github.com/jrsteele09/vineyard-dashboard/internal/config"
	"github.com/jrsteele09/vineyard-dashboard/internal/metrics"
	"github.com/jrsteele09/vineyard-dashboard/server"
	"github.com/jrsteele09/vineyard-dashboard/session"
	fakeuserrepo "github.com/jrsteele09/vineyard-dashboard/users/repofake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const sweepInterval = time.Minute

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogger(c)
	displayAppname(c.GetAppName())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	sessions := session.NewRegistry(session.Deps{
		BaseURL: c.GetAPIBaseURL(),
		ClientOptions: []apiclient.ClientOption{
			apiclient.WithTimeout(c.GetAPITimeout()),
			apiclient.WithRefreshPath(c.GetRefreshPath()),
		},
		Signups: fakeuserrepo.NewFakeUserRepo(),
		Metrics: collector,
	}, c.GetMaxSessionAge())

	handler, err := server.New(c, sessions, server.WithMetrics(collector))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweep(ctx, handler)

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

// setupLogger uses a coloured console writer in DEV and JSON everywhere else
func setupLogger(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("app", c.GetAppName()).Logger()
}

func sweep(ctx context.Context, s *server.Server) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func listenAndServe(server *http.Server) {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
