// Package models contains the GORM persistence models of the reconciliation
// tables. Domain types stay free of ORM tags; each model converts to and from
// its domain counterpart.
//
// Documents, installments and allocations exist once per document kind
// (accounts_payable, receivable_installments, ...), so their models carry no
// TableName and repositories pick the physical table from the document
// descriptor. Indexes of those tables are declared in the SQL migrations
// because GORM would derive identical index names for every per-kind table.
// Movements and bank accounts live in single shared tables.
package models
