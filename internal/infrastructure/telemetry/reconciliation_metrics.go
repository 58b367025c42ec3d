package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Operation names shared by metrics and profiling labels
const (
	OperationEditDocument   = "edit_document"
	OperationDeleteDocument = "delete_document"
)

// Metric attribute keys
const (
	AttrDocumentKind = attribute.Key("document_kind")
	AttrOperation    = attribute.Key("operation")
	AttrResult       = attribute.Key("result")
	AttrDimension    = attribute.Key("dimension")
	AttrReason       = attribute.Key("reason")
)

// ReconciliationMetrics holds the counters of the reconciliation core.
// A nil *ReconciliationMetrics records nothing.
type ReconciliationMetrics struct {
	operations         *Counter
	operationDuration  *Histogram
	movementsCreated   *Counter
	movementsExisting  *Counter
	allocationsSkipped *Counter
}

// NewReconciliationMetrics registers the reconciliation instruments on meter
func NewReconciliationMetrics(meter metric.Meter) (*ReconciliationMetrics, error) {
	m := &ReconciliationMetrics{}
	var err error

	if m.operations, err = NewCounter(meter,
		"reconciliation_operations_total",
		"Number of document edit and delete operations", "{operation}"); err != nil {
		return nil, err
	}
	if m.operationDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "reconciliation_operation_duration_seconds",
		Description: "Duration of document edit and delete operations",
	}); err != nil {
		return nil, err
	}
	if m.movementsCreated, err = NewCounter(meter,
		"reconciliation_movements_created_total",
		"Ledger movements inserted", "{movement}"); err != nil {
		return nil, err
	}
	if m.movementsExisting, err = NewCounter(meter,
		"reconciliation_movements_existing_total",
		"Movement inserts that found an existing row", "{movement}"); err != nil {
		return nil, err
	}
	if m.allocationsSkipped, err = NewCounter(meter,
		"reconciliation_allocations_skipped_total",
		"Allocation entries or installments that produced no rows", "{entry}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordOperation counts an edit or delete and its duration
func (m *ReconciliationMetrics) RecordOperation(ctx context.Context, kind, operation string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	attrs := []attribute.KeyValue{AttrDocumentKind.String(kind), AttrOperation.String(operation), AttrResult.String(result)}
	m.operations.Inc(ctx, attrs...)
	m.operationDuration.RecordDuration(ctx, d, attrs...)
}

// RecordMovements counts created and already-existing movements of one pass
func (m *ReconciliationMetrics) RecordMovements(ctx context.Context, kind string, created, existing int) {
	if m == nil {
		return
	}
	m.movementsCreated.Add(ctx, int64(created), AttrDocumentKind.String(kind))
	m.movementsExisting.Add(ctx, int64(existing), AttrDocumentKind.String(kind))
}

// RecordAllocationSkip counts one skipped allocation entry or installment
func (m *ReconciliationMetrics) RecordAllocationSkip(ctx context.Context, kind, dimension, reason string) {
	if m == nil {
		return
	}
	m.allocationsSkipped.Inc(ctx,
		AttrDocumentKind.String(kind),
		AttrDimension.String(dimension),
		AttrReason.String(reason),
	)
}
