package metrics

import (
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// SetupPrometheus registers an OTel Prometheus exporter against reg and
// installs it as the global MeterProvider. Callers pass a plain
// *prometheus.Registry served over net/http (see cmd/cli/serve.go).
func SetupPrometheus(reg *prom.Registry) error {
	exp, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		return fmt.Errorf("prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exp),
	)
	otel.SetMeterProvider(provider)

	Init()
	return nil
}
