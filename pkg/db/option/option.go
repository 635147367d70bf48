package option

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LockingUpdate is a gorm scope adding SELECT ... FOR UPDATE to queries built
// from the returned handle. SQLite has no row locks; its single-writer model
// already serialises the transaction, so the clause is skipped there.
func LockingUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
