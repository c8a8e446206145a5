package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
)

// ErrUnavailable classifies store timeouts and connectivity failures.
// Callers may retry such an operation once before surfacing it.
var ErrUnavailable = errors.New("store unavailable")

// IsUniqueViolation reports whether err is a SQLite uniqueness-constraint
// failure. Both the mattn and libsql drivers surface these as plain errors
// carrying the constraint message, so string matching is the portable check.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLITE_CONSTRAINT")
}

// IsUnavailable reports whether err is a transient store failure: a
// per-call deadline expiry, a bad connection, or a network error on the
// way to a remote libsql instance.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "connection refused")
}
