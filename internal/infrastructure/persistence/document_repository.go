package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/reconciler/internal/domain/finance"
	"github.com/erp/reconciler/internal/domain/shared"
	"github.com/erp/reconciler/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDocumentRepository implements finance.DocumentRepository on the
// document table named by its descriptor.
type GormDocumentRepository struct {
	db   *gorm.DB
	desc finance.DocumentDescriptor
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB, desc finance.DocumentDescriptor) *GormDocumentRepository {
	return &GormDocumentRepository{db: db, desc: desc}
}

// FindByID finds a document by ID for a tenant
func (r *GormDocumentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.Document, error) {
	var model models.DocumentModel
	err := r.db.WithContext(ctx).
		Table(r.desc.DocumentTable).
		Scopes(tenantScope(tenantID)).
		Where("id = ?", id).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load %s %s: %w", r.desc.Kind, id, err)
	}
	return model.ToDomain(r.desc.Kind), nil
}

// Exists checks whether the document exists for a tenant
func (r *GormDocumentRepository) Exists(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table(r.desc.DocumentTable).
		Scopes(tenantScope(tenantID)).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check %s %s: %w", r.desc.Kind, id, err)
	}
	return count > 0, nil
}

// UpdateHeader rewrites the header columns. With expectedVersion the row must
// still carry that version and receives doc.Version; otherwise the stored
// version is incremented in place and read back into doc.Version.
func (r *GormDocumentRepository) UpdateHeader(ctx context.Context, doc *finance.Document, expectedVersion *int) error {
	var model models.DocumentModel
	model.FromDomain(doc)
	columns := model.HeaderColumns()

	query := r.db.WithContext(ctx).
		Table(r.desc.DocumentTable).
		Scopes(tenantScope(doc.TenantID)).
		Where("id = ?", doc.ID)
	if expectedVersion != nil {
		query = query.Where("version = ?", *expectedVersion)
		columns["version"] = doc.Version
	} else {
		columns["version"] = gorm.Expr("version + 1")
	}

	result := query.Updates(columns)
	if result.Error != nil {
		return fmt.Errorf("failed to update %s header: %w", r.desc.Kind, result.Error)
	}
	if result.RowsAffected == 0 {
		if expectedVersion != nil {
			return shared.ErrConcurrencyConflict
		}
		return shared.ErrNotFound
	}
	if expectedVersion == nil {
		return r.reloadVersion(ctx, doc)
	}
	return nil
}

// reloadVersion reads the version the update wrote. Inside the edit
// transaction the row is locked, so the value is the one this edit committed.
func (r *GormDocumentRepository) reloadVersion(ctx context.Context, doc *finance.Document) error {
	var versions []int
	err := r.db.WithContext(ctx).
		Table(r.desc.DocumentTable).
		Scopes(tenantScope(doc.TenantID)).
		Where("id = ?", doc.ID).
		Pluck("version", &versions).Error
	if err != nil {
		return fmt.Errorf("failed to read %s version: %w", r.desc.Kind, err)
	}
	if len(versions) == 0 {
		return shared.ErrNotFound
	}
	doc.Version = versions[0]
	return nil
}

// Delete removes the document row
func (r *GormDocumentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Table(r.desc.DocumentTable).
		Scopes(tenantScope(tenantID)).
		Where("id = ?", id).
		Delete(&models.DocumentModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Create inserts a new document. Document creation is handled upstream; the
// method exists for seeding.
func (r *GormDocumentRepository) Create(ctx context.Context, doc *finance.Document) error {
	var model models.DocumentModel
	model.FromDomain(doc)
	return r.db.WithContext(ctx).Table(r.desc.DocumentTable).Create(&model).Error
}

var _ finance.DocumentRepository = (*GormDocumentRepository)(nil)
