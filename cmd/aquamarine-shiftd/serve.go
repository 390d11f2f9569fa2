package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ardos-os/aquamarine-shift/aquamarine"
	"github.com/ardos-os/aquamarine-shift/internal/backend"
	"github.com/ardos-os/aquamarine-shift/internal/hostloop"
	"github.com/ardos-os/aquamarine-shift/internal/observer"
	"github.com/ardos-os/aquamarine-shift/internal/shiftclient"
)

func newServeCmd() *cobra.Command {
	var (
		socketPath   string
		observeAddr  string
		fenceGated   bool
		waitTimeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Connect to a Shift session and run the Tab backend until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), serveConfig{
				socketPath:  socketPath,
				observeAddr: observeAddr,
				fenceGated:  fenceGated,
				waitTimeout: waitTimeout,
			})
		},
	}

	cmd.Flags().StringVar(&socketPath, "socket", envOrDefault("SHIFT_SESSION_SOCKET", "/run/shift/session.sock"), "path to the Shift session socket")
	cmd.Flags().StringVar(&observeAddr, "observe-addr", envOrDefault("AQUAMARINE_SHIFTD_OBSERVE_ADDR", ""), "if set, serve a debug WebSocket observer on this address")
	cmd.Flags().BoolVar(&fenceGated, "fence-gated", false, "use the fence-gated (Variant A) pacing strategy instead of frame-done (Variant B)")
	cmd.Flags().DurationVar(&waitTimeout, "wait-timeout", 10*time.Second, "how long to wait for the session socket to appear before giving up")

	return cmd
}

type serveConfig struct {
	socketPath  string
	observeAddr string
	fenceGated  bool
	waitTimeout time.Duration
}

func runServe(ctx context.Context, cfg serveConfig) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	waitCtx, waitCancel := context.WithTimeout(ctx, cfg.waitTimeout)
	defer waitCancel()
	if err := shiftclient.WaitForSocket(waitCtx, cfg.socketPath); err != nil {
		return fmt.Errorf("waiting for session socket: %w", err)
	}

	client, err := shiftclient.Connect(shiftclient.EnvToken())
	if err != nil {
		return fmt.Errorf("connecting to session: %w", err)
	}
	defer client.Disconnect()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	reg := observer.New()
	variant := backend.PacingFrameDone
	ownership := backend.FDOwnershipRetain
	if cfg.fenceGated {
		variant = backend.PacingFenceGated
		ownership = backend.FDOwnershipClose
	}

	loop := hostloop.New(log)
	impl := backend.New(loop, client, backend.Config{
		Variant:     variant,
		FDOwnership: ownership,
		Logger:      log,
	})
	loop.AddBackend(impl)

	events := loop.Events()
	events.NewOutput = func(out aquamarine.Output) {
		log.Info().Str("output", out.Name()).Msg("monitor attached")
		size := out.PhysicalSize()
		reg.BroadcastMonitorAdded(out.Name(), int32(size.X), int32(size.Y))
		outEvents := out.Events()
		outEvents.Present = func(ev aquamarine.PresentEvent) {
			reg.BroadcastPresent(out.Name(), ev.Seq, ev.When, ev.Refresh)
			if busyOut, ok := out.(*backend.Output); ok {
				reg.BroadcastBufferBusy(out.Name(), busyOut.BusyBufferCount(), 2)
			}
		}
		outEvents.Destroy = func() {
			reg.BroadcastMonitorRemoved(out.Name())
		}
	}

	if !impl.Start() {
		return fmt.Errorf("backend failed to start")
	}

	if cfg.observeAddr != "" {
		srv := newObserveServer(cfg.observeAddr, reg, log)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("observer server stopped")
			}
		}()
		defer srv.Close()
	}

	log.Info().Str("socket", cfg.socketPath).Bool("fence_gated", cfg.fenceGated).Msg("aquamarine-shiftd serving")
	return loop.Run(ctx, 250*time.Millisecond)
}

func newObserveServer(addr string, reg *observer.Registry, log zerolog.Logger) *http.Server {
	upgrader := websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024}
	mux := http.NewServeMux()
	mux.HandleFunc("/observe", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("observer upgrade failed")
			return
		}
		id := reg.Attach(conn)
		defer reg.Detach(id)
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	return &http.Server{Addr: addr, Handler: mux}
}
