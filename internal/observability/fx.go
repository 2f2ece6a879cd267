package observability

import (
	"os"
	"strings"

	"github.com/aquilabs/waterworks/internal/config"
	"github.com/aquilabs/waterworks/internal/observability/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		provideMetricsConfig,
		metrics.NewProvider,
		metrics.New,
	),
)

func provideMetricsConfig(cfg config.Config) metrics.Config {
	endpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	if endpoint == "" {
		endpoint = cfg.OTLPEndpoint
	}
	protocol := strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL")))
	if protocol == "" {
		protocol = "grpc"
	}

	enabled := true
	switch strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_ENABLED"))) {
	case "0", "false", "no", "off":
		enabled = false
	}

	return metrics.Config{
		Enabled:          enabled,
		ExporterEndpoint: endpoint,
		ExporterProtocol: protocol,
		ServiceName:      cfg.AppName,
	}
}
