package testutil

import (
	"testing"
	"time"

	"github.com/erp/reconciler/internal/domain/finance"
	"github.com/erp/reconciler/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens an in-memory SQLite database holding the full
// reconciliation schema for both document kinds. A single connection is kept
// so every statement sees the same memory database.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open sqlite database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, CreateSchema(db))
	return db
}

// CreateSchema creates the shared ledger tables and the per-kind tables named
// by every descriptor.
func CreateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.MovementModel{}, &models.BankAccountModel{}); err != nil {
		return err
	}
	for _, desc := range finance.AllDescriptors() {
		tables := []struct {
			name  string
			model any
		}{
			{desc.DocumentTable, &models.DocumentModel{}},
			{desc.InstallmentTable, &models.InstallmentModel{}},
			{desc.AllocationTable, &models.DocumentAllocationModel{}},
			{desc.InstallmentAllocationTable, &models.InstallmentAllocationModel{}},
			{desc.CounterpartyTable, &models.CounterpartyModel{}},
		}
		for _, tbl := range tables {
			if err := db.Table(tbl.name).AutoMigrate(tbl.model); err != nil {
				return err
			}
		}
	}
	return nil
}

// DocumentFixture describes a document to seed
type DocumentFixture struct {
	TenantID            uuid.UUID
	Title               string
	TotalValue          decimal.Decimal
	AccountingAccountID *uuid.UUID
	CostCenterID        *uuid.UUID
	CounterpartyID      *uuid.UUID
}

// SeedDocument inserts a document row of desc's kind and returns its ID.
func SeedDocument(t *testing.T, db *gorm.DB, desc finance.DocumentDescriptor, f DocumentFixture) uuid.UUID {
	t.Helper()

	if f.TenantID == uuid.Nil {
		f.TenantID = TestTenantID()
	}
	if f.Title == "" {
		f.Title = "Seeded document"
	}
	now := time.Now().UTC()
	model := models.DocumentModel{
		Title:               f.Title,
		TotalValue:          f.TotalValue,
		IssueDate:           Date(2024, time.January, 10),
		AccountingAccountID: f.AccountingAccountID,
		CostCenterID:        f.CostCenterID,
		CounterpartyID:      f.CounterpartyID,
		Status:              "OPEN",
	}
	model.ID = uuid.New()
	model.TenantID = f.TenantID
	model.Version = 1
	model.CreatedAt = now
	model.UpdatedAt = now

	require.NoError(t, db.Table(desc.DocumentTable).Create(&model).Error)
	return model.ID
}

// SeedInstallment inserts an installment row and returns its ID.
func SeedInstallment(t *testing.T, db *gorm.DB, desc finance.DocumentDescriptor, documentID uuid.UUID, value decimal.Decimal, dueDate time.Time) uuid.UUID {
	t.Helper()

	now := time.Now().UTC()
	model := models.InstallmentModel{
		TenantID:     TestTenantID(),
		DocumentID:   documentID,
		Title:        "Seeded installment",
		DueDate:      dueDate,
		NominalValue: value,
		TotalValue:   value,
		Difference:   decimal.Zero,
		Status:       "OPEN",
	}
	model.ID = uuid.New()
	model.CreatedAt = now
	model.UpdatedAt = now

	require.NoError(t, db.Table(desc.InstallmentTable).Create(&model).Error)
	return model.ID
}

// SeedBankAccount inserts a bank account with a zero balance.
func SeedBankAccount(t *testing.T, db *gorm.DB, name string) uuid.UUID {
	t.Helper()

	model := models.BankAccountModel{
		ID:        uuid.New(),
		TenantID:  TestTenantID(),
		Name:      name,
		Balance:   decimal.Zero,
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&model).Error)
	return model.ID
}

// SeedCounterparty inserts a supplier or customer, depending on desc.
func SeedCounterparty(t *testing.T, db *gorm.DB, desc finance.DocumentDescriptor, name string) uuid.UUID {
	t.Helper()

	model := models.CounterpartyModel{ID: uuid.New(), TenantID: TestTenantID(), Name: name}
	require.NoError(t, db.Table(desc.CounterpartyTable).Create(&model).Error)
	return model.ID
}

// BankBalance reads the stored balance of a bank account.
func BankBalance(t *testing.T, db *gorm.DB, accountID uuid.UUID) decimal.Decimal {
	t.Helper()

	var model models.BankAccountModel
	require.NoError(t, db.Where("id = ?", accountID).Take(&model).Error)
	return model.Balance
}

// CountRows counts the rows of table matching the optional condition.
func CountRows(t *testing.T, db *gorm.DB, table string, query string, args ...any) int64 {
	t.Helper()

	var count int64
	q := db.Table(table)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&count).Error)
	return count
}
