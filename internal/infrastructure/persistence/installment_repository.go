package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/reconciler/internal/domain/finance"
	"github.com/erp/reconciler/internal/domain/shared"
	"github.com/erp/reconciler/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInstallmentRepository implements finance.InstallmentRepository. Every
// statement is scoped by document_id.
type GormInstallmentRepository struct {
	db   *gorm.DB
	desc finance.DocumentDescriptor
	now  func() time.Time
}

// NewGormInstallmentRepository creates an installment repository over the table named by desc
func NewGormInstallmentRepository(db *gorm.DB, desc finance.DocumentDescriptor) *GormInstallmentRepository {
	return &GormInstallmentRepository{db: db, desc: desc, now: time.Now}
}

func (r *GormInstallmentRepository) table(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.desc.InstallmentTable)
}

// ListIDs returns the IDs of the installments stored for documentID, ordered by due date
func (r *GormInstallmentRepository) ListIDs(ctx context.Context, documentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.table(ctx).
		Where("document_id = ?", documentID).
		Order("due_date, id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list installment ids: %w", err)
	}
	return ids, nil
}

// ListByDocument loads the installments of documentID in due-date order
func (r *GormInstallmentRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]finance.Installment, error) {
	var rows []models.InstallmentModel
	err := r.table(ctx).
		Where("document_id = ?", documentID).
		Order("due_date, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	installments := make([]finance.Installment, len(rows))
	for i := range rows {
		installments[i] = rows[i].ToDomain()
	}
	return installments, nil
}

// Insert assigns an ID when the installment has none and writes it back
func (r *GormInstallmentRepository) Insert(ctx context.Context, inst *finance.Installment) error {
	if inst.ID == uuid.Nil {
		inst.ID = uuid.New()
	}
	var model models.InstallmentModel
	model.FromDomain(inst)
	now := r.now()
	model.CreatedAt = now
	model.UpdatedAt = now

	return r.table(ctx).Create(&model).Error
}

// Update rewrites the mutable columns of an installment of inst.DocumentID.
// It returns shared.ErrNotFound when no such row belongs to that document.
func (r *GormInstallmentRepository) Update(ctx context.Context, inst *finance.Installment) error {
	var model models.InstallmentModel
	model.FromDomain(inst)
	model.UpdatedAt = r.now()

	result := r.table(ctx).
		Where("id = ? AND document_id = ?", inst.ID, inst.DocumentID).
		Updates(model.UpdateColumns())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes one installment, scoped to documentID
func (r *GormInstallmentRepository) Delete(ctx context.Context, documentID, id uuid.UUID) error {
	return r.table(ctx).
		Where("id = ? AND document_id = ?", id, documentID).
		Delete(&models.InstallmentModel{}).Error
}

// DeleteByDocument removes every installment of documentID and reports how many went
func (r *GormInstallmentRepository) DeleteByDocument(ctx context.Context, documentID uuid.UUID) (int64, error) {
	result := r.table(ctx).
		Where("document_id = ?", documentID).
		Delete(&models.InstallmentModel{})
	return result.RowsAffected, result.Error
}

var _ finance.InstallmentRepository = (*GormInstallmentRepository)(nil)
