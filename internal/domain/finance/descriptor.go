package finance

import (
	"strings"

	"github.com/erp/reconciler/internal/domain/shared"
)

// DocumentKind identifies which side of the ledger a document belongs to
type DocumentKind string

const (
	DocumentKindPayable    DocumentKind = "PAYABLE"
	DocumentKindReceivable DocumentKind = "RECEIVABLE"
)

// IsValid checks if the document kind is valid
func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentKindPayable, DocumentKindReceivable:
		return true
	}
	return false
}

// String returns the string representation
func (k DocumentKind) String() string {
	return string(k)
}

// ParseDocumentKind accepts the kind name in any case, singular or plural
// ("payable", "PAYABLES", "receivable", ...).
func ParseDocumentKind(s string) (DocumentKind, error) {
	normalized := strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(s)), "S")
	kind := DocumentKind(normalized)
	if !kind.IsValid() {
		return "", shared.NewDomainError("INVALID_DOCUMENT_KIND", "Unknown document kind: "+s)
	}
	return kind, nil
}

// MovementDirection is the cash effect of a movement on its account
type MovementDirection string

const (
	MovementDirectionInflow  MovementDirection = "INFLOW"
	MovementDirectionOutflow MovementDirection = "OUTFLOW"
)

// IsValid checks if the direction is valid
func (d MovementDirection) IsValid() bool {
	return d == MovementDirectionInflow || d == MovementDirectionOutflow
}

// Origin-screen tags written on movements generated from documents.
const (
	OriginScreenPayable    = "CONTAS_PAGAR"
	OriginScreenReceivable = "CONTAS_RECEBER"
)

// DocumentDescriptor carries everything that differs between payables and
// receivables: physical tables, the origin-screen tag used on movements,
// the counterparty role and the cash direction.
type DocumentDescriptor struct {
	Kind                       DocumentKind
	DocumentTable              string
	InstallmentTable           string
	AllocationTable            string
	InstallmentAllocationTable string
	OriginScreen               string
	CounterpartyTable          string
	CounterpartyRole           string
	Direction                  MovementDirection
}

var (
	payableDescriptor = DocumentDescriptor{
		Kind:                       DocumentKindPayable,
		DocumentTable:              "accounts_payable",
		InstallmentTable:           "payable_installments",
		AllocationTable:            "payable_allocations",
		InstallmentAllocationTable: "payable_installment_allocations",
		OriginScreen:               OriginScreenPayable,
		CounterpartyTable:          "suppliers",
		CounterpartyRole:           "supplier",
		Direction:                  MovementDirectionOutflow,
	}
	receivableDescriptor = DocumentDescriptor{
		Kind:                       DocumentKindReceivable,
		DocumentTable:              "accounts_receivable",
		InstallmentTable:           "receivable_installments",
		AllocationTable:            "receivable_allocations",
		InstallmentAllocationTable: "receivable_installment_allocations",
		OriginScreen:               OriginScreenReceivable,
		CounterpartyTable:          "customers",
		CounterpartyRole:           "customer",
		Direction:                  MovementDirectionInflow,
	}
)

// DescriptorFor returns the built-in descriptor for kind
func DescriptorFor(kind DocumentKind) (DocumentDescriptor, error) {
	switch kind {
	case DocumentKindPayable:
		return payableDescriptor, nil
	case DocumentKindReceivable:
		return receivableDescriptor, nil
	}
	return DocumentDescriptor{}, shared.NewDomainError("INVALID_DOCUMENT_KIND", "Unknown document kind: "+string(kind))
}

// AllDescriptors returns the descriptors of every supported document kind
func AllDescriptors() []DocumentDescriptor {
	return []DocumentDescriptor{payableDescriptor, receivableDescriptor}
}
