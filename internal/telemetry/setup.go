package telemetry

import (
	"context"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/cloud-nimbus/chronoguard/internal/config"
	"github.com/cloud-nimbus/chronoguard/internal/telemetry/metrics"
	"github.com/cloud-nimbus/chronoguard/internal/telemetry/tracing"
)

// Setup initializes all telemetry components (logging, tracing, metrics)
// from cfg and returns the constructed logger plus a single shutdown
// function that gracefully terminates tracing. serviceVersion is stamped
// on traces as service.version; reg is the Prometheus registry the caller
// (cmd/cli/serve.go) serves over net/http.
func Setup(ctx context.Context, cfg *config.Config, reg *prom.Registry, serviceVersion, logLevel string) (*zap.Logger, func(), error) {
	logger, err := ConfigureZapLogger(logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to configure logger: %w", err)
	}

	var tp *sdktrace.TracerProvider
	if cfg.OTel.Enabled {
		tP, err := tracing.NewProvider(ctx, cfg.OTel, serviceVersion)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to setup tracing: %w", err)
		}
		tp = tP
		otel.SetTracerProvider(tp)
	}

	if err := metrics.SetupPrometheus(reg); err != nil {
		return nil, nil, fmt.Errorf("failed to setup prometheus: %w", err)
	}

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if tp != nil {
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown OpenTelemetry tracer", zap.Error(err))
			}
		}
		_ = logger.Sync()
	}

	return logger, shutdown, nil
}
