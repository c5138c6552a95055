/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloud-nimbus/chronoguard/internal/bus"
	"github.com/cloud-nimbus/chronoguard/internal/clock"
	"github.com/cloud-nimbus/chronoguard/internal/config"
	"github.com/cloud-nimbus/chronoguard/internal/notifier"
	"github.com/cloud-nimbus/chronoguard/internal/processor"
	"github.com/cloud-nimbus/chronoguard/internal/scheduler"
	"github.com/cloud-nimbus/chronoguard/internal/store"
	"github.com/cloud-nimbus/chronoguard/internal/telemetry"
)

// newServeCmd creates the serve command, the composition root that wires
// the store, bus, scheduler, processor, and notifier together and blocks
// until an interrupt. Every collaborator is constructed here and handed
// explicitly to the things that need it, instead of living behind package
// globals.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chronoguard scheduler daemon",
		Long: `Start the chronoguard scheduler daemon: connects to the durable store
and event bus, reloads every alarm into memory, starts the tick loop plus
the alarm processor and notifier, and serves health and metrics endpoints
until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prom.NewRegistry()
	log, shutdownTelemetry, err := telemetry.Setup(ctx, cfg, reg, Version, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer shutdownTelemetry()
	log.Info("serve: starting", zap.String("build", GetBuildInfo().String()))

	st, err := store.NewPostgresStore(ctx, store.PostgresConfig{
		URL:      cfg.Store.URL,
		MinConns: cfg.Store.MinConns,
		MaxConns: cfg.Store.MaxConns,
	})
	if err != nil {
		log.Error("serve: unable to open store connection pool", zap.Error(err))
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		log.Error("serve: migration failed", zap.Error(err))
		return err
	}

	eventBus, err := bus.NewRedisBus(ctx, cfg.Bus.Addr, cfg.Bus.Password, cfg.Bus.DB)
	if err != nil {
		log.Error("serve: unable to connect to event bus", zap.Error(err))
		return err
	}
	defer eventBus.Close()

	sched := scheduler.New(st, eventBus, clock.New(), cfg.Scheduler.DefaultTimezone, log)
	if err := sched.Reload(ctx); err != nil {
		log.Error("serve: initial reload failed", zap.Error(err))
		return err
	}
	log.Info("serve: loaded alarms from store", zap.Int("count", sched.Count()))

	proc := processor.New(st, eventBus, log)
	if err := proc.Start(ctx); err != nil {
		log.Error("serve: processor start failed", zap.Error(err))
		return err
	}
	defer proc.Stop()

	var sender notifier.Sender
	if notifier.Mode(cfg.Notifier.Mode) == notifier.ModeSMTP {
		smtp, err := notifier.NewSMTPSender(notifier.SMTPConfig{
			Host:     cfg.Notifier.SMTP.Host,
			Port:     cfg.Notifier.SMTP.Port,
			Username: cfg.Notifier.SMTP.Username,
			Password: cfg.Notifier.SMTP.Password,
			From:     cfg.Notifier.SMTP.From,
			PoolSize: cfg.Notifier.SMTP.PoolSize,
		})
		if err != nil {
			log.Error("serve: SMTP sender setup failed", zap.Error(err))
			return err
		}
		defer smtp.Close()
		sender = smtp
	} else {
		sender = notifier.NewSimulatedSender(log)
	}

	notif := notifier.New(eventBus, sender, log)
	if err := notif.Start(ctx); err != nil {
		log.Error("serve: notifier start failed", zap.Error(err))
		return err
	}
	defer notif.Stop()

	sched.Start(ctx)
	defer sched.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{Addr: cfg.Metrics.BindAddress, Handler: mux}

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health", healthHandler(sched))
	healthServer := &http.Server{Addr: cfg.Health.ProbeBindAddress, Handler: healthMux}

	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("serve: metrics server failed", zap.Error(err))
		}
	}()
	go func() {
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("serve: health server failed", zap.Error(err))
		}
	}()

	log.Info("serve: chronoguard running", zap.Int("alarm_count", sched.Count()))
	<-ctx.Done()
	log.Info("serve: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	_ = healthServer.Shutdown(shutdownCtx)

	return nil
}

// healthHandler reports the scheduler's running state and alarm count.
// Store/bus connectivity is implied by the daemon having reached this
// point without exiting.
func healthHandler(sched *scheduler.Scheduler) http.HandlerFunc {
	type health struct {
		SchedulerState string `json:"scheduler_state"`
		AlarmCount     int    `json:"alarm_count"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(health{
			SchedulerState: sched.State().String(),
			AlarmCount:     sched.Count(),
		})
	}
}
