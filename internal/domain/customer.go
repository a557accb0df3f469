package domain

import "github.com/google/uuid"

// Customer is the read model consumed from the customer catalog. The
// blacklist flag gates the Reserved -> Ongoing transition.
type Customer struct {
	ID            uuid.UUID
	FullName      string
	Email         string
	PhoneNumber   string
	IsBlacklisted bool
}
