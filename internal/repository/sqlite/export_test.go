package sqlite

import "database/sql"

// SetBeforeInsertHook installs fn to run inside the upsert transaction
// after the match phase has missed and before the insert.
func (r *RegistrationRepository) SetBeforeInsertHook(fn func(tx *sql.Tx) error) {
	r.beforeInsert = fn
}
