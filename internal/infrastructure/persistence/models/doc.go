// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free of ORM concerns.
//
// Structure:
// - base.go: BaseModel and AggregateModel shared by every table
// - sale.go: sales and sale_items
// - reference.go: customers, branches and products mirrored from external systems
package models
