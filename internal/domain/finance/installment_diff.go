package finance

import (
	"github.com/google/uuid"
)

// InstallmentPlan is the set of store operations needed to turn the persisted
// installment set of a document into the incoming one.
//
// Updates and Inserts point into the slice passed to ReconcileInstallments, so
// identifiers assigned while applying Inserts are visible to later steps that
// iterate that slice.
type InstallmentPlan struct {
	Updates []*Installment
	Inserts []*Installment
	Deletes []uuid.UUID
}

// IsEmpty reports whether the plan has no operations
func (p InstallmentPlan) IsEmpty() bool {
	return len(p.Updates) == 0 && len(p.Inserts) == 0 && len(p.Deletes) == 0
}

// ReconcileInstallments diffs incoming against the identifiers currently
// persisted for documentID.
//
// A row whose ID is not in persisted (another document's row, a stale or
// fabricated ID) is planned as an insert and its ID is cleared so the store
// assigns a fresh one. A persisted ID repeated in the payload is updated once;
// the repeats become inserts. Every incoming row is re-parented to documentID.
func ReconcileInstallments(documentID uuid.UUID, persisted []uuid.UUID, incoming []Installment) InstallmentPlan {
	known := make(map[uuid.UUID]bool, len(persisted))
	for _, id := range persisted {
		known[id] = false
	}

	var plan InstallmentPlan
	for i := range incoming {
		inst := &incoming[i]
		inst.DocumentID = documentID

		claimed, owned := known[inst.ID]
		if inst.ID != uuid.Nil && owned && !claimed {
			known[inst.ID] = true
			plan.Updates = append(plan.Updates, inst)
			continue
		}
		inst.ID = uuid.Nil
		plan.Inserts = append(plan.Inserts, inst)
	}

	for _, id := range persisted {
		if !known[id] {
			plan.Deletes = append(plan.Deletes, id)
			// guard against duplicates in persisted
			known[id] = true
		}
	}
	return plan
}
