package repository

import (
	"gorm.io/gorm"
)

const advanceIDSequenceSQL = `SELECT setval(pg_get_serial_sequence(@table, 'id'), GREATEST(@id, COALESCE(s.last_value, 0), 1))
FROM pg_sequences s
WHERE format('%I.%I', s.schemaname, s.sequencename) = pg_get_serial_sequence(@table, 'id')`

// advanceIDSequence makes sure the table's serial id sequence never hands out
// id again. The sequence only ever moves forward.
func advanceIDSequence(tx *gorm.DB, table string, id uint) error {
	return tx.Exec(advanceIDSequenceSQL, map[string]interface{}{"table": table, "id": id}).Error
}
