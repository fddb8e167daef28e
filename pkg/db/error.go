package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsDuplicateKeyErr reports whether err is a unique-constraint violation.
// The transaction reservation insert uses this to treat a lost insert race
// as a duplicate delivery on dialects where upsert syntax is unavailable.
// The drivers don't share a typed error for this, so string matching is
// the only portable classification.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "duplicate key value violates unique constraint"):
		// postgres, SQLSTATE 23505
		return true
	case strings.Contains(msg, "Error 1062"):
		// mysql
		return true
	case strings.Contains(msg, "UNIQUE constraint failed"):
		// sqlite
		return true
	}
	return false
}
