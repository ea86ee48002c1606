package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Storage-contract violations surfaced by the matching repositories. Services
// re-export these so handlers never import the repository package directly.
var (
	ErrSessionNotFound  = errors.New("matching session not found")
	ErrMovieNotFound    = errors.New("movie not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrNotAParticipant  = errors.New("user is not a participant of the session")
	ErrSessionClosed    = errors.New("matching session is completed or cancelled")
	ErrInvalidOutcome   = errors.New("session outcome must be completed or cancelled")
)

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
