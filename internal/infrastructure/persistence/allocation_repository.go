package persistence

import (
	"context"
	"time"

	"github.com/erp/reconciler/internal/domain/finance"
	"github.com/erp/reconciler/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const allocationBatchSize = 100

// GormAllocationRepository implements finance.AllocationRepository on the
// document-level and installment-level allocation tables of one kind.
type GormAllocationRepository struct {
	db   *gorm.DB
	desc finance.DocumentDescriptor
	now  func() time.Time
}

// NewGormAllocationRepository creates an allocation repository over the tables named by desc
func NewGormAllocationRepository(db *gorm.DB, desc finance.DocumentDescriptor) *GormAllocationRepository {
	return &GormAllocationRepository{db: db, desc: desc, now: time.Now}
}

// DeleteByDocument clears installment-level rows first, then document-level rows
func (r *GormAllocationRepository) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Table(r.desc.InstallmentAllocationTable).
		Where("document_id = ?", documentID).
		Delete(&models.InstallmentAllocationModel{}).Error; err != nil {
		return err
	}
	return db.Table(r.desc.AllocationTable).
		Where("document_id = ?", documentID).
		Delete(&models.DocumentAllocationModel{}).Error
}

// DeleteByInstallment removes the installment-level rows of one installment
func (r *GormAllocationRepository) DeleteByInstallment(ctx context.Context, documentID, installmentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Table(r.desc.InstallmentAllocationTable).
		Where("document_id = ? AND installment_id = ?", documentID, installmentID).
		Delete(&models.InstallmentAllocationModel{}).Error
}

// InsertDocumentRows writes document-level rows in one batch; an empty slice is a no-op
func (r *GormAllocationRepository) InsertDocumentRows(ctx context.Context, rows []finance.DocumentAllocation) error {
	if len(rows) == 0 {
		return nil
	}
	now := r.now()
	batch := make([]models.DocumentAllocationModel, len(rows))
	for i := range rows {
		if rows[i].ID == uuid.Nil {
			rows[i].ID = uuid.New()
		}
		batch[i].FromDomain(&rows[i])
		batch[i].CreatedAt = now
	}
	return r.db.WithContext(ctx).
		Table(r.desc.AllocationTable).
		CreateInBatches(&batch, allocationBatchSize).Error
}

// InsertInstallmentRows writes installment-level rows in one batch; an empty slice is a no-op
func (r *GormAllocationRepository) InsertInstallmentRows(ctx context.Context, rows []finance.InstallmentAllocation) error {
	if len(rows) == 0 {
		return nil
	}
	now := r.now()
	batch := make([]models.InstallmentAllocationModel, len(rows))
	for i := range rows {
		if rows[i].ID == uuid.Nil {
			rows[i].ID = uuid.New()
		}
		batch[i].FromDomain(&rows[i])
		batch[i].CreatedAt = now
	}
	return r.db.WithContext(ctx).
		Table(r.desc.InstallmentAllocationTable).
		CreateInBatches(&batch, allocationBatchSize).Error
}

// ListByDocument returns the document-level and installment-level rows of documentID
func (r *GormAllocationRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]finance.DocumentAllocation, []finance.InstallmentAllocation, error) {
	db := r.db.WithContext(ctx)

	var docRows []models.DocumentAllocationModel
	if err := db.Table(r.desc.AllocationTable).
		Where("document_id = ?", documentID).
		Order("dimension, target_id").
		Find(&docRows).Error; err != nil {
		return nil, nil, err
	}
	var instRows []models.InstallmentAllocationModel
	if err := db.Table(r.desc.InstallmentAllocationTable).
		Where("document_id = ?", documentID).
		Order("installment_id, dimension, target_id").
		Find(&instRows).Error; err != nil {
		return nil, nil, err
	}

	docs := make([]finance.DocumentAllocation, len(docRows))
	for i := range docRows {
		docs[i] = docRows[i].ToDomain()
	}
	insts := make([]finance.InstallmentAllocation, len(instRows))
	for i := range instRows {
		insts[i] = instRows[i].ToDomain()
	}
	return docs, insts, nil
}

var _ finance.AllocationRepository = (*GormAllocationRepository)(nil)
