package persistence

import (
	"context"
	"fmt"

	"github.com/erp/reconciler/internal/domain/finance"
	"github.com/erp/reconciler/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// originConflict targets the unique (origin_screen, origin_installment_id) index
var originConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "origin_screen"}, {Name: "origin_installment_id"}},
	DoNothing: true,
}

// GormMovementRepository implements finance.MovementRepository on the shared
// financial_movements table.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a repository over financial_movements
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// InsertIfAbsent issues INSERT ... ON CONFLICT DO NOTHING. A zero row count
// means the installment already has its movement; m.ID is then left untouched
// and does not identify a stored row.
func (r *GormMovementRepository) InsertIfAbsent(ctx context.Context, m *finance.Movement) (bool, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	var model models.MovementModel
	model.FromDomain(m)

	result := r.db.WithContext(ctx).Clauses(originConflict).Create(&model)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		m.CreatedAt = model.CreatedAt
		return true, nil
	}
	return false, nil
}

// DeleteByOrigin removes the movement generated for one installment, if any
func (r *GormMovementRepository) DeleteByOrigin(ctx context.Context, originScreen string, installmentID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("origin_screen = ? AND origin_installment_id = ?", originScreen, installmentID).
		Delete(&models.MovementModel{})
	return result.RowsAffected, result.Error
}

// DeleteByDocument removes the movements of every installment of documentID.
// It must run before the installments themselves are deleted.
func (r *GormMovementRepository) DeleteByDocument(ctx context.Context, desc finance.DocumentDescriptor, documentID uuid.UUID) (int64, error) {
	installmentIDs := r.db.Session(&gorm.Session{NewDB: true}).
		Table(desc.InstallmentTable).
		Select("id").
		Where("document_id = ?", documentID)

	result := r.db.WithContext(ctx).
		Where("origin_screen = ? AND origin_installment_id IN (?)", desc.OriginScreen, installmentIDs).
		Delete(&models.MovementModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete %s movements: %w", desc.Kind, result.Error)
	}
	return result.RowsAffected, nil
}

// ListByOrigins returns the movements generated for the given installments of originScreen
func (r *GormMovementRepository) ListByOrigins(ctx context.Context, originScreen string, installmentIDs []uuid.UUID) ([]finance.Movement, error) {
	if len(installmentIDs) == 0 {
		return nil, nil
	}
	var rows []models.MovementModel
	err := r.db.WithContext(ctx).
		Where("origin_screen = ? AND origin_installment_id IN ?", originScreen, installmentIDs).
		Order("movement_date, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	movements := make([]finance.Movement, len(rows))
	for i := range rows {
		movements[i] = rows[i].ToDomain()
	}
	return movements, nil
}

var _ finance.MovementRepository = (*GormMovementRepository)(nil)
