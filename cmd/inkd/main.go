// File: cmd/inkd/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// inkd serves the device's HTTP page and WebSocket command channel and
// drives the e-ink panel.

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/momentics/inkwire/control"
	"github.com/momentics/inkwire/device"
	"github.com/momentics/inkwire/dispatch"
	"github.com/momentics/inkwire/internal/config"
	"github.com/momentics/inkwire/internal/logging"
	"github.com/momentics/inkwire/server"
)

// exitRestart asks the init system to start inkd again after a WiFi change.
const exitRestart = 75

func main() {
	restart, err := run()
	if err != nil {
		logging.Error().Err(err).Msg("inkd stopped")
		os.Exit(1)
	}
	if restart {
		logging.Info().Msg("exiting for device restart")
		os.Exit(exitRestart)
	}
}

func run() (restart bool, err error) {
	cfg, err := config.Load()
	if err != nil {
		return false, err
	}
	logging.Init(cfg.Logging.ToLogging())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metrics := control.NewMetrics()
	probes := control.NewDebugProbes()

	resources := device.NewFileResources(cfg.Device.DataDir, cfg.Device.PageFile)

	var renderClient *device.RenderClient
	panelCfg := device.PanelConfig{
		Width:         cfg.Device.Width,
		Height:        cfg.Device.Height,
		Sink:          device.NewFileSink(filepath.Join(cfg.Device.DataDir, cfg.Device.FrameFile)),
		Images:        resources,
		RenderTimeout: cfg.Render.Timeout,
	}
	if cfg.Render.URL != "" {
		renderClient = device.NewRenderClient(cfg.Render.URL, cfg.Render.Timeout, metrics)
		panelCfg.Renderer = renderClient
	} else {
		logging.Warn().Msg("render.url not set, display jobs will fail")
	}
	panel, err := device.NewPanel(panelCfg)
	if err != nil {
		return false, err
	}

	restarting := make(chan struct{})
	station := device.NewStation(device.StationConfig{
		Interface:       cfg.Device.Interface,
		CredentialsFile: filepath.Join(cfg.Device.DataDir, cfg.Device.WifiFile),
		RestartDelay:    cfg.Device.RestartDelay,
		OnRestart: func() {
			close(restarting)
			cancel()
		},
	})
	defer station.Stop()
	if creds, err := station.LoadWifiCredentials(); err == nil {
		logging.Info().Str("ssid", creds.SSID).Msg("wifi credentials loaded")
	} else if !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Msg("wifi credentials unreadable")
	}
	logging.Info().Str("sta_ip", station.CurrentStationAddress()).Msg("station address")

	dispatcher := dispatch.New(dispatch.Deps{
		Display:   panel,
		Network:   station,
		Resources: resources,
		ImageName: cfg.Device.ImageFile,
		Metrics:   metrics,
	})

	srv, err := server.New(server.Config{
		ListenAddr:          cfg.Server.ListenAddr,
		Backlog:             cfg.Server.Backlog,
		PollTimeout:         cfg.Server.PollTimeout,
		ReadBufferSize:      cfg.Server.ReadBufferSize,
		MaxBufferBytes:      cfg.Server.MaxBufferBytes,
		MaintenanceInterval: cfg.Server.MaintenanceInterval,
		ReclaimMemory:       cfg.Server.ReclaimMemory,
		Greeting:            cfg.Server.Greeting,
	}, dispatcher, server.WithMetrics(metrics), server.WithDebugProbes(probes))
	if err != nil {
		return false, err
	}

	sup := suture.New("inkd", suture.Spec{
		EventHook:        (&sutureslog.Handler{Logger: logging.NewSlogLogger()}).MustHook(),
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})
	sup.Add(&serverService{srv: srv})
	if cfg.Calendar.Enabled && renderClient != nil {
		sup.Add(device.NewCalendar(device.CalendarConfig{
			URLTemplate:   cfg.Calendar.URLTemplate,
			Hour:          cfg.Calendar.Hour,
			CheckInterval: cfg.Calendar.CheckInterval,
			Fetcher:       renderClient,
			Display:       panel,
		}))
	}
	if cfg.Metrics.ListenAddr != "" {
		sup.Add(control.NewMetricsServer(cfg.Metrics.ListenAddr, metrics))
	}

	err = sup.Serve(ctx)
	srv.Close()

	select {
	case <-restarting:
		return true, nil
	default:
	}
	if err == nil || errors.Is(err, context.Canceled) {
		logging.Info().Msg("shutdown complete")
		return false, nil
	}
	return false, err
}

// serverService adapts the multiplexer to suture. The server releases its
// listener when Serve returns, so it cannot be restarted in place; any exit
// that was not requested stops the whole tree.
type serverService struct {
	srv *server.Server
}

func (s *serverService) Serve(ctx context.Context) error {
	err := s.srv.Serve(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	logging.Error().Err(err).Str("addr", s.srv.Addr()).Msg("connection multiplexer exited")
	return suture.ErrTerminateSupervisorTree
}

func (s *serverService) String() string { return s.srv.String() }
