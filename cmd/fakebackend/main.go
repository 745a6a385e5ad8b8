// Command fakebackend serves the in-memory vineyard backend under /api with demo accounts.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/vineyard-dashboard/internal/backendfake"
	"github.com/jrsteele09/vineyard-dashboard/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	figure.NewFigure("fake backend", "cybermedium", true).Print()
	fmt.Println()

	backend := backendfake.New()
	backend.SeedDemo()

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", backend))

	addr := config.GetEnv("FAKE_BACKEND_ADDR", ":5000")
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info().Str("addr", addr).Str("password", backendfake.DemoPassword).
			Msg("fake backend listening; demo accounts are admin@, customer@, manager@, contractor@ and worker@vineyard.test")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server.ListenAndServe")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server.Shutdown")
	}
}
