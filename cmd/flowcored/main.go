// Command flowcored embeds FlowCore as a standalone process: it loads
// configuration, builds the controller and its ambient services, and runs
// until interrupted.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flowcore/internal/config"
	"flowcore/internal/controller"
	"flowcore/internal/heartbeat"
	"flowcore/internal/plugin"
	"flowcore/internal/remotegroup"
	"flowcore/internal/repository"
	"flowcore/internal/status"
	"flowcore/internal/system"
	"flowcore/internal/transport/s2s"
	"flowcore/internal/transport/wsclient"
	"flowcore/pkg/logger"
)

// heartbeatService adapts heartbeat.Subsystem's StartHeartbeating/
// StopHeartbeating pair to system.Service so the manager starts and stops it
// alongside every other ambient subsystem, in registration order.
type heartbeatService struct {
	sub *heartbeat.Subsystem
	cfg heartbeat.Config
}

func (h *heartbeatService) Name() string { return "heartbeat" }

func (h *heartbeatService) Start(ctx context.Context) error {
	h.sub.StartHeartbeating(ctx, h.cfg)
	return nil
}

func (h *heartbeatService) Stop(ctx context.Context) error {
	h.sub.StopHeartbeating()
	return nil
}

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("flowcored: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})

	registry := plugin.NewRegistry()
	ctrl := controller.New("root", "root", cfg, log, controller.WithRegistry(registry))

	statusRepo := repository.NewInMemoryStatusRepository(0)
	ctrl.AddPeriodicTask(status.NewTask(
		"status-aggregator",
		time.Duration(cfg.StatusSnapshotMillis)*time.Millisecond,
		ctrl, ctrl, ctrl.RootID(), nil, statusRepo, log,
	))

	ctrl.AddPeriodicTask(remotegroup.NewTask(
		"remote-group-refresh",
		time.Duration(cfg.RemoteGroupRefreshSeconds)*time.Second,
		ctrl, ctrl, wsclient.NewRemoteGroupFetcher(log), log,
	))

	manager := system.NewManager()
	if err := manager.Register(ctrl); err != nil {
		log.WithField("err", err).Fatal("failed to register flow controller")
	}

	bulletins := repository.NewInMemoryBulletinRepository(0)
	sender := wsclient.New("", log)
	defer sender.Close()
	hb := heartbeat.New(sender, bulletins, ctrl, ctrl, ctrl.RootID, nil, log)
	hb.SetBean(&heartbeat.Bean{
		RootGroup:   ctrl.RootGroup(),
		IsPrimary:   false,
		IsConnected: false,
	})
	hbCfg := heartbeat.Config{
		GeneratorInterval: time.Duration(cfg.HeartbeatIntervalSeconds) * time.Second,
	}
	if err := manager.Register(&heartbeatService{sub: hb, cfg: hbCfg}); err != nil {
		log.WithField("err", err).Fatal("failed to register heartbeat subsystem")
	}

	if cfg.SiteToSite.ListenPort > 0 {
		listener, err := s2s.New(
			cfg.SiteToSite.ListenPort,
			cfg.SiteToSite.Secure,
			cfg.SiteToSite.CertFile,
			cfg.SiteToSite.KeyFile,
			nil,
			log,
		)
		if err != nil {
			log.WithField("err", err).Fatal("failed to configure site-to-site listener")
		}
		if err := manager.Register(listener); err != nil {
			log.WithField("err", err).Fatal("failed to register site-to-site listener")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := manager.Start(ctx); err != nil {
		log.WithField("err", err).Fatal("failed to start flowcored")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	stopCtx, stopCancel := context.WithCancel(context.Background())
	defer stopCancel()
	if err := manager.Stop(stopCtx); err != nil {
		log.WithField("err", err).Error("shutdown reported errors")
	}
}
