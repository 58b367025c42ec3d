package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/reconciler/internal/domain/finance"
	"github.com/erp/reconciler/internal/domain/shared"
	"github.com/erp/reconciler/internal/infrastructure/logger"
	"github.com/erp/reconciler/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrReconciliationFailed is the single failure surfaced for any error raised
// inside the reconciliation transaction. The cause is kept for logging only.
var ErrReconciliationFailed = shared.NewDomainError("RECONCILIATION_FAILED", "failed to reconcile document")

// DocumentCacheInvalidator drops cached read models after a committed change
type DocumentCacheInvalidator interface {
	Invalidate(ctx context.Context, kind finance.DocumentKind, tenantID, id uuid.UUID)
}

// ReconciliationService keeps a document, its installments, their movements
// and both allocation dimensions consistent under full-state edits and deletes.
// It is parameterized by the document descriptor, so payables and receivables
// share one implementation.
type ReconciliationService struct {
	scope     TransactionScope
	movements *MovementGenerator
	cache     DocumentCacheInvalidator
	metrics   *telemetry.ReconciliationMetrics
	now       func() time.Time
}

// ReconciliationServiceOption configures a ReconciliationService
type ReconciliationServiceOption func(*ReconciliationService)

// WithCacheInvalidator invalidates cached views after commit
func WithCacheInvalidator(c DocumentCacheInvalidator) ReconciliationServiceOption {
	return func(s *ReconciliationService) {
		s.cache = c
	}
}

// WithReconciliationMetrics records operation outcomes and allocation skips
func WithReconciliationMetrics(m *telemetry.ReconciliationMetrics) ReconciliationServiceOption {
	return func(s *ReconciliationService) {
		s.metrics = m
	}
}

// WithServiceClock overrides time.Now for header timestamps
func WithServiceClock(now func() time.Time) ReconciliationServiceOption {
	return func(s *ReconciliationService) {
		s.now = now
	}
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	scope TransactionScope,
	movements *MovementGenerator,
	opts ...ReconciliationServiceOption,
) *ReconciliationService {
	s := &ReconciliationService{
		scope:     scope,
		movements: movements,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EditDocument replaces the full state of a document in one transaction:
// header, installments (diffed), movements (idempotent), then allocations of
// the accounting-account and cost-center dimensions (delete all, reinsert).
func (s *ReconciliationService) EditDocument(
	ctx context.Context,
	kind finance.DocumentKind,
	tenantID, documentID uuid.UUID,
	req EditDocumentRequest,
) (*EditDocumentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "edit_document")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrDocumentID, documentID.String(),
		telemetry.SpanAttrDocumentKind, kind.String(),
		telemetry.SpanAttrTenantID, tenantID.String(),
	)

	start := s.now()
	var result *EditDocumentResult
	var operationErr error
	telemetry.WithProfilingLabels(ctx, telemetry.ReconciliationLabels(telemetry.OperationEditDocument, kind.String()), func(c context.Context) {
		result, operationErr = s.editDocument(c, kind, tenantID, documentID, req)
	})
	s.metrics.RecordOperation(ctx, kind.String(), telemetry.OperationEditDocument, operationErr == nil, s.now().Sub(start))

	if operationErr != nil {
		telemetry.RecordError(span, operationErr)
		return nil, operationErr
	}
	telemetry.SetOK(span)
	return result, nil
}

func (s *ReconciliationService) editDocument(
	ctx context.Context,
	kind finance.DocumentKind,
	tenantID, documentID uuid.UUID,
	req EditDocumentRequest,
) (*EditDocumentResult, error) {
	desc, err := finance.DescriptorFor(kind)
	if err != nil {
		return nil, err
	}
	if err := req.Header.Validate(); err != nil {
		return nil, err
	}

	log := logger.L(ctx).With(
		zap.String("document_id", documentID.String()),
		zap.String("kind", kind.String()),
	)

	doc, err := s.scope.Repositories(desc).Documents().FindByID(ctx, tenantID, documentID)
	if err != nil {
		return nil, s.preflightError(log, err)
	}
	if req.ExpectedVersion != nil && *req.ExpectedVersion != doc.Version {
		return nil, shared.ErrConcurrencyConflict
	}

	result := &EditDocumentResult{DocumentID: documentID}
	err = s.scope.Execute(ctx, desc, func(repos TransactionalRepositories) error {
		if err := doc.ApplyHeader(req.Header, s.now()); err != nil {
			return err
		}
		if err := repos.Documents().UpdateHeader(ctx, doc, req.ExpectedVersion); err != nil {
			return fmt.Errorf("failed to update header: %w", err)
		}
		log.Debug("Header updated", zap.Int("version", doc.Version))

		installments, unposted, err := s.reconcileInstallments(ctx, repos, desc, doc, req.Installments, result)
		if err != nil {
			return err
		}

		movements, err := s.movements.Generate(ctx, repos, desc, doc, installments)
		if err != nil {
			return err
		}
		recalculated, err := recalculateBalances(ctx, repos, unposted, movements.AccountsRecalculated)
		if err != nil {
			return err
		}
		result.MovementsCreated = movements.Created
		result.AccountsRecalculated = len(movements.AccountsRecalculated) + recalculated

		if err := repos.Allocations().DeleteByDocument(ctx, doc.ID); err != nil {
			return fmt.Errorf("failed to clear allocations: %w", err)
		}

		requested := map[finance.AllocationDimension][]finance.AllocationEntry{
			finance.AllocationDimensionAccountingAccount: req.AccountingAllocations,
			finance.AllocationDimensionCostCenter:        req.CostCenterAllocations,
		}
		for _, dim := range finance.AllAllocationDimensions() {
			split := finance.SplitAllocations(finance.SplitInput{
				TenantID:      doc.TenantID,
				DocumentID:    doc.ID,
				Dimension:     dim,
				DocumentTotal: doc.TotalValue,
				Entries:       requested[dim],
				LegacyTarget:  doc.LegacyTarget(dim),
				Installments:  installments,
			})
			if err := repos.Allocations().InsertDocumentRows(ctx, split.DocumentRows); err != nil {
				return fmt.Errorf("failed to insert %s allocations: %w", dim, err)
			}
			if err := repos.Allocations().InsertInstallmentRows(ctx, split.InstallmentRows); err != nil {
				return fmt.Errorf("failed to insert %s installment allocations: %w", dim, err)
			}
			for _, o := range split.Skipped() {
				log.Debug("Allocation entry skipped",
					zap.String("dimension", dim.String()),
					zap.String("reason", string(o.Reason)),
					zap.String("target_id", o.Entry.TargetID.String()),
				)
				s.metrics.RecordAllocationSkip(ctx, kind.String(), dim.String(), string(o.Reason))
			}
			result.AllocationsSkipped = append(result.AllocationsSkipped, split.Skipped()...)
		}
		return nil
	})
	if err != nil {
		return nil, s.transactionError(log, err)
	}

	result.Version = doc.Version
	log.Info("Document reconciled",
		zap.Int("version", result.Version),
		zap.Int("installments_inserted", result.InstallmentsInserted),
		zap.Int("installments_updated", result.InstallmentsUpdated),
		zap.Int("installments_deleted", result.InstallmentsDeleted),
		zap.Int("movements_created", result.MovementsCreated),
	)
	s.invalidate(ctx, kind, tenantID, documentID)
	return result, nil
}

// reconcileInstallments applies the installment diff. It returns the final,
// ID-complete installment list and the accounts whose movements went away
// with the deleted installments.
func (s *ReconciliationService) reconcileInstallments(
	ctx context.Context,
	repos TransactionalRepositories,
	desc finance.DocumentDescriptor,
	doc *finance.Document,
	requested []finance.Installment,
	result *EditDocumentResult,
) ([]finance.Installment, []uuid.UUID, error) {
	persisted, err := repos.Installments().ListIDs(ctx, doc.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list installments: %w", err)
	}

	installments := make([]finance.Installment, len(requested))
	copy(installments, requested)
	for i := range installments {
		installments[i].TenantID = doc.TenantID
	}
	plan := finance.ReconcileInstallments(doc.ID, persisted, installments)

	unposted, err := postedAccounts(ctx, repos, desc, plan.Deletes)
	if err != nil {
		return nil, nil, err
	}
	for _, id := range plan.Deletes {
		if _, err := repos.Movements().DeleteByOrigin(ctx, desc.OriginScreen, id); err != nil {
			return nil, nil, fmt.Errorf("failed to delete movement of installment %s: %w", id, err)
		}
		if err := repos.Allocations().DeleteByInstallment(ctx, doc.ID, id); err != nil {
			return nil, nil, fmt.Errorf("failed to delete allocations of installment %s: %w", id, err)
		}
		if err := repos.Installments().Delete(ctx, doc.ID, id); err != nil {
			return nil, nil, fmt.Errorf("failed to delete installment %s: %w", id, err)
		}
	}
	for _, inst := range plan.Updates {
		if err := repos.Installments().Update(ctx, inst); err != nil {
			return nil, nil, fmt.Errorf("failed to update installment %s: %w", inst.ID, err)
		}
	}
	for _, inst := range plan.Inserts {
		if err := repos.Installments().Insert(ctx, inst); err != nil {
			return nil, nil, fmt.Errorf("failed to insert installment: %w", err)
		}
	}

	result.InstallmentsDeleted = len(plan.Deletes)
	result.InstallmentsUpdated = len(plan.Updates)
	result.InstallmentsInserted = len(plan.Inserts)
	return installments, unposted, nil
}

// postedAccounts returns the distinct accounts carrying a movement of one of
// installmentIDs.
func postedAccounts(
	ctx context.Context,
	repos TransactionalRepositories,
	desc finance.DocumentDescriptor,
	installmentIDs []uuid.UUID,
) ([]uuid.UUID, error) {
	if len(installmentIDs) == 0 {
		return nil, nil
	}
	movements, err := repos.Movements().ListByOrigins(ctx, desc.OriginScreen, installmentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	var accounts []uuid.UUID
	seen := make(map[uuid.UUID]struct{}, len(movements))
	for _, m := range movements {
		if _, ok := seen[m.AccountID]; ok {
			continue
		}
		seen[m.AccountID] = struct{}{}
		accounts = append(accounts, m.AccountID)
	}
	return accounts, nil
}

// recalculateBalances recomputes every account in accounts that is not in
// done and returns how many it recomputed.
func recalculateBalances(ctx context.Context, repos TransactionalRepositories, accounts, done []uuid.UUID) (int, error) {
	skip := make(map[uuid.UUID]struct{}, len(done))
	for _, id := range done {
		skip[id] = struct{}{}
	}
	n := 0
	for _, accountID := range accounts {
		if _, ok := skip[accountID]; ok {
			continue
		}
		if err := repos.Balances().Recalculate(ctx, accountID); err != nil {
			return n, fmt.Errorf("failed to recalculate balance of account %s: %w", accountID, err)
		}
		n++
	}
	return n, nil
}

// DeleteDocument removes a document with all its dependents: movements,
// installments, both allocation dimensions, then the document row.
func (s *ReconciliationService) DeleteDocument(
	ctx context.Context,
	kind finance.DocumentKind,
	tenantID, documentID uuid.UUID,
) (*DeleteDocumentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "delete_document")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrDocumentID, documentID.String(),
		telemetry.SpanAttrDocumentKind, kind.String(),
	)

	start := s.now()
	result, err := s.deleteDocument(ctx, kind, tenantID, documentID)
	s.metrics.RecordOperation(ctx, kind.String(), telemetry.OperationDeleteDocument, err == nil, s.now().Sub(start))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)
	return result, nil
}

func (s *ReconciliationService) deleteDocument(
	ctx context.Context,
	kind finance.DocumentKind,
	tenantID, documentID uuid.UUID,
) (*DeleteDocumentResult, error) {
	desc, err := finance.DescriptorFor(kind)
	if err != nil {
		return nil, err
	}

	log := logger.L(ctx).With(
		zap.String("document_id", documentID.String()),
		zap.String("kind", kind.String()),
	)

	exists, err := s.scope.Repositories(desc).Documents().Exists(ctx, tenantID, documentID)
	if err != nil {
		return nil, s.preflightError(log, err)
	}
	if !exists {
		return nil, shared.ErrNotFound
	}

	result := &DeleteDocumentResult{DocumentID: documentID}
	err = s.scope.Execute(ctx, desc, func(repos TransactionalRepositories) error {
		installmentIDs, err := repos.Installments().ListIDs(ctx, documentID)
		if err != nil {
			return fmt.Errorf("failed to list installments: %w", err)
		}
		accounts, err := postedAccounts(ctx, repos, desc, installmentIDs)
		if err != nil {
			return err
		}

		n, err := repos.Movements().DeleteByDocument(ctx, desc, documentID)
		if err != nil {
			return fmt.Errorf("failed to delete movements: %w", err)
		}
		result.MovementsDeleted = n
		recalculated, err := recalculateBalances(ctx, repos, accounts, nil)
		if err != nil {
			return err
		}
		result.AccountsRecalculated = recalculated

		n, err = repos.Installments().DeleteByDocument(ctx, documentID)
		if err != nil {
			return fmt.Errorf("failed to delete installments: %w", err)
		}
		result.InstallmentsDeleted = n

		if err := repos.Allocations().DeleteByDocument(ctx, documentID); err != nil {
			return fmt.Errorf("failed to delete allocations: %w", err)
		}
		if err := repos.Documents().Delete(ctx, tenantID, documentID); err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.transactionError(log, err)
	}

	log.Info("Document deleted",
		zap.Int64("movements_deleted", result.MovementsDeleted),
		zap.Int64("installments_deleted", result.InstallmentsDeleted),
		zap.Int("accounts_recalculated", result.AccountsRecalculated),
	)
	s.invalidate(ctx, kind, tenantID, documentID)
	return result, nil
}

// preflightError maps errors raised before the transaction starts
func (s *ReconciliationService) preflightError(log *logger.ContextLogger, err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.ErrNotFound
	}
	log.Error("Failed to load document", zap.Error(err))
	return shared.WithCause(ErrReconciliationFailed, err)
}

// transactionError collapses any in-transaction failure into the generic
// failure, except version conflicts which the caller can act upon.
func (s *ReconciliationService) transactionError(log *logger.ContextLogger, err error) error {
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		log.Warn("Document modified concurrently", zap.Error(err))
		return shared.ErrConcurrencyConflict
	}
	log.Error("Reconciliation rolled back", zap.Error(err))
	return shared.WithCause(ErrReconciliationFailed, err)
}

func (s *ReconciliationService) invalidate(ctx context.Context, kind finance.DocumentKind, tenantID, id uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, kind, tenantID, id)
	}
}
