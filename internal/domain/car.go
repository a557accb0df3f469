package domain

import (
	"time"

	"github.com/google/uuid"
)

type CarStatus string

const (
	CarStatusAvailable CarStatus = "Available"
	CarStatusRented    CarStatus = "Rented"
)

// Car is the read model consumed from the vehicle catalog. This core
// never creates or deletes cars; it only reads rates and keeps the
// odometer in sync with delivery and return snapshots.
type Car struct {
	ID           uuid.UUID
	LicensePlate string
	Model        string
	Status       CarStatus
	DailyRate    Money
	CurrentKM    int64
	LastKMUpdate *time.Time
}
