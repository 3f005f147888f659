package storage

import (
	"github.com/md-rashed-zaman/apptbook/libs/db"
)

func IsNotFound(err error) bool { return db.IsNotFound(err) }

func IsUniqueViolation(err error) bool { return db.IsUniqueViolation(err) }

// IsConflict reports the appointments_no_overlap exclusion constraint firing.
func IsConflict(err error) bool { return db.IsConflict(err) }

func IsForeignKeyViolation(err error) bool { return db.IsForeignKeyViolation(err) }
