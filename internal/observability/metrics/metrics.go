package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	billsCreated      metric.Int64Counter
	settlements       metric.Int64Counter
	settledCents      metric.Int64Counter
	settlementBills   metric.Int64Histogram
	settlementsFailed metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "waterworks"
	}
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", name),
		),
	)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "waterworks"
	}
	meter := provider.Meter(name)

	billsCreated, err := meter.Int64Counter("waterworks_bills_created_total")
	if err != nil {
		return nil, err
	}
	settlements, err := meter.Int64Counter("waterworks_settlements_total")
	if err != nil {
		return nil, err
	}
	settledCents, err := meter.Int64Counter("waterworks_settled_cents_total")
	if err != nil {
		return nil, err
	}
	settlementBills, err := meter.Int64Histogram("waterworks_settlement_bill_count")
	if err != nil {
		return nil, err
	}
	settlementsFailed, err := meter.Int64Counter("waterworks_settlements_failed_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		billsCreated:      billsCreated,
		settlements:       settlements,
		settledCents:      settledCents,
		settlementBills:   settlementBills,
		settlementsFailed: settlementsFailed,
	}, nil
}

func (m *Metrics) RecordBillCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.billsCreated.Add(ctx, 1)
}

func (m *Metrics) RecordSettlement(ctx context.Context, billCount int, cents int64) {
	if m == nil {
		return
	}
	m.settlements.Add(ctx, 1)
	m.settledCents.Add(ctx, cents)
	m.settlementBills.Record(ctx, int64(billCount))
}

func (m *Metrics) RecordSettlementFailed(ctx context.Context) {
	if m == nil {
		return
	}
	m.settlementsFailed.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}
