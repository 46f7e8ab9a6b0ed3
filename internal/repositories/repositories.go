// Package repositories contains the gorm data access layer. Each
// repository is an interface plus a single gorm-backed implementation;
// services depend on the interfaces only.
package repositories

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// withRowLock adds SELECT ... FOR UPDATE on backends that support it.
// SQLite serialises writers at the database level, so the clause is
// skipped there.
func withRowLock(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
