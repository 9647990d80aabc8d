// Package identity is the boundary to the external account system. Session
// issuance, password handling and the full relational schema live elsewhere;
// this package only resolves verified user ids to account records.
package identity

import (
	"context"
	"errors"
)

// ErrUserNotFound means the id does not resolve to a live account. Analysis
// is refused for such ids.
var ErrUserNotFound = errors.New("user not found")

// Account is the minimal view of a user record needed by the analysis path.
type Account struct {
	ID    string
	Email string
}

// Directory resolves a verified user id to an account record.
type Directory interface {
	Resolve(ctx context.Context, userID string) (Account, error)
}
