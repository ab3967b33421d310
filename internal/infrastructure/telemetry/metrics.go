package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/gestock/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

const defaultMetricsInterval = time.Minute

// MeterProvider wraps the OpenTelemetry MeterProvider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
}

// NewMeterProvider creates and installs the global MeterProvider exporting
// over OTLP. If metrics are disabled, Meter falls back to the global no-op meter.
func NewMeterProvider(ctx context.Context, cfg config.TelemetryConfig, version string, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger}
	if !cfg.MetricsEnabled {
		logger.Info("Metrics disabled, using no-op meter provider")
		return mp, nil
	}

	interval := cfg.MetricsInterval
	if interval <= 0 {
		interval = defaultMetricsInterval
	}

	exporterOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := serviceResource(cfg.ServiceName, version)
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", interval),
	)
	return mp, nil
}

func serviceResource(serviceName, version string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// Meter returns a named meter from the provider
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// IsEnabled returns whether metrics are exported
func (mp *MeterProvider) IsEnabled() bool {
	return mp.provider != nil
}

// Shutdown flushes pending metrics and stops the exporter
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	mp.logger.Info("OpenTelemetry MeterProvider shutdown complete")
	return nil
}

// Ledger metric names
const (
	MetricStockMovements      = "gestock.stock.movements"
	MetricStockQuantity       = "gestock.stock.quantity"
	MetricStockRejections     = "gestock.stock.rejections"
	AttrMovementType          = "movement.type"
	AttrRejectionCode         = "rejection.code"
	AttrTenantID              = "tenant.id"
	ledgerInstrumentationName = InstrumentationName + "/ledger"
)

// LedgerMetrics counts stock ledger outcomes: movements and units booked per
// type, and refused mutations per error code.
type LedgerMetrics struct {
	movements  metric.Int64Counter
	quantity   metric.Int64Counter
	rejections metric.Int64Counter
}

// NewLedgerMetrics registers the ledger counters on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	movements, err := meter.Int64Counter(MetricStockMovements,
		metric.WithDescription("Stock movements appended to the ledger"),
		metric.WithUnit("{movement}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", MetricStockMovements, err)
	}
	quantity, err := meter.Int64Counter(MetricStockQuantity,
		metric.WithDescription("Units moved by ledger movements"),
		metric.WithUnit("{unit}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", MetricStockQuantity, err)
	}
	rejections, err := meter.Int64Counter(MetricStockRejections,
		metric.WithDescription("Stock mutations refused by the ledger"),
		metric.WithUnit("{mutation}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", MetricStockRejections, err)
	}
	return &LedgerMetrics{movements: movements, quantity: quantity, rejections: rejections}, nil
}

// NewLedgerMetricsFromProvider registers the ledger counters on mp's meter
func NewLedgerMetricsFromProvider(mp *MeterProvider) (*LedgerMetrics, error) {
	return NewLedgerMetrics(mp.Meter(ledgerInstrumentationName))
}

// MovementApplied counts one appended movement
func (m *LedgerMetrics) MovementApplied(ctx context.Context, tenantID uuid.UUID, movementType string, quantity int) {
	attrs := metric.WithAttributes(
		attribute.String(AttrTenantID, tenantID.String()),
		attribute.String(AttrMovementType, movementType),
	)
	m.movements.Add(ctx, 1, attrs)
	m.quantity.Add(ctx, int64(quantity), attrs)
}

// MovementRejected counts one refused mutation
func (m *LedgerMetrics) MovementRejected(ctx context.Context, tenantID uuid.UUID, code string) {
	m.rejections.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrTenantID, tenantID.String()),
		attribute.String(AttrRejectionCode, code),
	))
}
