package telemetry_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/erp/reconciler/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				sums[m.Name] += dp.Value
			}
		}
	}
	return sums
}

func TestReconciliationMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := telemetry.NewReconciliationMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordOperation(ctx, "PAYABLE", telemetry.OperationEditDocument, true, 15*time.Millisecond)
	m.RecordOperation(ctx, "PAYABLE", telemetry.OperationEditDocument, false, 5*time.Millisecond)
	m.RecordMovements(ctx, "PAYABLE", 2, 1)
	m.RecordMovements(ctx, "PAYABLE", 0, 0)
	m.RecordAllocationSkip(ctx, "PAYABLE", "COST_CENTER", "MISSING_TARGET")

	sums := collectSums(t, reader)
	assert.Equal(t, int64(2), sums["reconciliation_operations_total"])
	assert.Equal(t, int64(2), sums["reconciliation_movements_created_total"])
	assert.Equal(t, int64(1), sums["reconciliation_movements_existing_total"])
	assert.Equal(t, int64(1), sums["reconciliation_allocations_skipped_total"])
}

func TestReconciliationMetrics_NilIsNoOp(t *testing.T) {
	var m *telemetry.ReconciliationMetrics
	assert.NotPanics(t, func() {
		m.RecordOperation(context.Background(), "RECEIVABLE", telemetry.OperationDeleteDocument, true, time.Second)
		m.RecordMovements(context.Background(), "RECEIVABLE", 1, 0)
		m.RecordAllocationSkip(context.Background(), "RECEIVABLE", "COST_CENTER", "MISSING_TARGET")
	})
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{ServiceName: "test"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("noop"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestWithProfilingLabels(t *testing.T) {
	called := false
	telemetry.WithProfilingLabels(context.Background(),
		telemetry.ReconciliationLabels(telemetry.OperationEditDocument, strings.Repeat("x", 300)),
		func(ctx context.Context) {
			called = true
			assert.NotNil(t, ctx)
		})
	assert.True(t, called)

	called = false
	telemetry.WithProfilingLabels(context.Background(), nil, func(context.Context) { called = true })
	assert.True(t, called)
}

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := telemetry.NewProfiler(telemetry.ProfilerConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())

	_, err = telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: true}, zaptest.NewLogger(t))
	assert.Error(t, err)
}
