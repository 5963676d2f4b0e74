package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"pokebattle/internal/app"
	"pokebattle/internal/config"
	"pokebattle/internal/discord"
	"pokebattle/internal/logging"
	"pokebattle/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envFile := flag.String("env", ".env", "optional .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("close store")
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           (&web.Server{Arena: a.Arena, Log: log.With().Str("component", "web").Logger()}).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errs := make(chan error, 2)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("http server: %w", err)
		}
	}()

	botDone := make(chan struct{})
	if cfg.DiscordToken == "" {
		log.Warn().Msg("DISCORD_TOKEN not set, discord bot disabled")
		close(botDone)
	} else {
		session, err := discordgo.New("Bot " + cfg.DiscordToken)
		if err != nil {
			return fmt.Errorf("create discord session: %w", err)
		}
		bot := &discord.Bot{
			Arena:  a.Arena,
			Prefix: cfg.CommandPrefix,
			Log:    log.With().Str("component", "discord").Logger(),
		}
		go func() {
			defer close(botDone)
			if err := bot.Run(ctx, session); err != nil {
				errs <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case runErr = <-errs:
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if runErr == nil {
		<-botDone
	}
	return runErr
}
