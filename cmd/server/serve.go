package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	router "github.com/dkeye/WatchParty/internal/adapters/http"
	"github.com/dkeye/WatchParty/internal/adapters/rtc"
	wssignal "github.com/dkeye/WatchParty/internal/adapters/signal"
	"github.com/dkeye/WatchParty/internal/app"
	"github.com/dkeye/WatchParty/internal/app/orch"
	"github.com/dkeye/WatchParty/internal/auth"
	"github.com/dkeye/WatchParty/internal/config"
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	verifier, err := auth.NewVerifier(cfg.Auth.Secret)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	ice, err := rtc.ICEServers(cfg.ICEServers)
	if err != nil {
		return fmt.Errorf("ice: %w", err)
	}

	rooms := core.NewRoomRegistry(core.SystemClock{})
	rooms.Seed(seedRooms(cfg.SeedRooms)...)
	o := orch.New(app.NewRegistry(), rooms, app.SimplePolicy{}, orch.Limits{
		MaxChatLen:     cfg.Limits.MaxChatLen,
		MaxReactionLen: cfg.Limits.MaxReactionLen,
	})
	ctl := wssignal.NewSignalWSController(o, signalOptions(cfg))

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Orch:     o,
		Verifier: verifier,
		Signal:   ctl,
		ICE:      ice,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Int("rooms", len(rooms.List())).Msg("WatchParty server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}

func seedRooms(in []config.SeedRoom) []domain.Room {
	out := make([]domain.Room, 0, len(in))
	for _, s := range in {
		title := s.Title
		if title == "" {
			title = s.ID
		}
		out = append(out, domain.Room{
			ID:           domain.RoomID(s.ID),
			Title:        title,
			StreamSource: s.StreamSource,
		})
	}
	return out
}

func signalOptions(cfg *config.Config) wssignal.Options {
	return wssignal.Options{
		ReadLimit:      cfg.ReadLimit,
		PingPeriod:     cfg.PingPeriod,
		PongWait:       cfg.PongWait,
		WriteWait:      cfg.WriteWait,
		SendBuffer:     cfg.SendBuffer,
		AllowedOrigins: cfg.AllowedOrigins,
		ChatRate:       cfg.Limits.ChatRate,
		ChatBurst:      cfg.Limits.ChatBurst,
	}
}
