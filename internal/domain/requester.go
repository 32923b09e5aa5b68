package domain

import "github.com/google/uuid"

// Requester is the authenticated caller, resolved once from the bearer token.
type Requester struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
}
