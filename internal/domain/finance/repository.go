package finance

import (
	"context"

	"github.com/google/uuid"
)

// DocumentRepository persists document headers of one kind
type DocumentRepository interface {
	// FindByID returns the document owned by tenantID, or shared.ErrNotFound
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Document, error)
	// Exists reports whether the document exists for tenantID
	Exists(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
	// UpdateHeader writes the header fields and version of doc. When
	// expectedVersion is set the update only applies to that stored version
	// and fails with shared.ErrConcurrencyConflict otherwise.
	UpdateHeader(ctx context.Context, doc *Document, expectedVersion *int) error
	// Delete removes the document row
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// InstallmentRepository persists installments of one kind
type InstallmentRepository interface {
	// ListIDs returns the identifiers persisted for documentID
	ListIDs(ctx context.Context, documentID uuid.UUID) ([]uuid.UUID, error)
	// ListByDocument returns the installments of documentID ordered by due date
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]Installment, error)
	// Insert stores a new installment and writes the assigned ID back into inst
	Insert(ctx context.Context, inst *Installment) error
	// Update rewrites an installment in place, scoped to inst.DocumentID
	Update(ctx context.Context, inst *Installment) error
	// Delete removes one installment of documentID
	Delete(ctx context.Context, documentID, id uuid.UUID) error
	// DeleteByDocument removes every installment of documentID
	DeleteByDocument(ctx context.Context, documentID uuid.UUID) (int64, error)
}

// MovementRepository persists ledger movements. The table is shared by all
// document kinds; the origin screen tells them apart.
type MovementRepository interface {
	// InsertIfAbsent inserts m unless a movement already exists for
	// (m.OriginScreen, m.OriginInstallmentID). It reports whether a row was written.
	InsertIfAbsent(ctx context.Context, m *Movement) (bool, error)
	// DeleteByOrigin removes the movement generated for one installment
	DeleteByOrigin(ctx context.Context, originScreen string, installmentID uuid.UUID) (int64, error)
	// DeleteByDocument removes every movement generated for installments of documentID
	DeleteByDocument(ctx context.Context, desc DocumentDescriptor, documentID uuid.UUID) (int64, error)
	// ListByOrigins returns movements generated for the given installments
	ListByOrigins(ctx context.Context, originScreen string, installmentIDs []uuid.UUID) ([]Movement, error)
}

// AllocationRepository persists both allocation dimensions of one kind
type AllocationRepository interface {
	// DeleteByDocument removes document-level and installment-level rows of both dimensions
	DeleteByDocument(ctx context.Context, documentID uuid.UUID) error
	// DeleteByInstallment removes installment-level rows of both dimensions for one installment
	DeleteByInstallment(ctx context.Context, documentID, installmentID uuid.UUID) error
	InsertDocumentRows(ctx context.Context, rows []DocumentAllocation) error
	InsertInstallmentRows(ctx context.Context, rows []InstallmentAllocation) error
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]DocumentAllocation, []InstallmentAllocation, error)
}

// CounterpartyResolver looks up the display name of a document's supplier or customer
type CounterpartyResolver interface {
	// ResolveName returns the name, or "" when the document has no resolvable counterparty
	ResolveName(ctx context.Context, documentID uuid.UUID) (string, error)
}

// BalanceRecalculator recomputes and persists the running balance of an account
type BalanceRecalculator interface {
	Recalculate(ctx context.Context, accountID uuid.UUID) error
}
