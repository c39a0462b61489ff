package db

import (
	"strings"

	"github.com/teranos/mirror/errors"
)

// ErrDatabaseClosed is returned when the store is used after Close, typically
// when a watch run is interrupted while saving.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed checks if an error indicates the database connection is closed.
// The sql package reports this with its own unexported error, so raw driver
// messages are matched as well.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}
