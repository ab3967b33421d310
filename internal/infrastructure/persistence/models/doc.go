// Package models contains GORM persistence models that map to database tables.
// They are kept apart from the domain entities so the domain layer stays free
// of ORM concerns; each model carries ToDomain / FromDomain mappers.
//
// - base.go: shared columns (id, timestamps, version, tenant)
// - stock.go: stock items, product movements, inventory campaigns
// - sales.go: sales, invoices, payments
// - audit.go: audit log written by the background worker
package models
