package entity

import (
	"github.com/google/uuid"
)

// SubjectKind is the closed variant set of bookable things.
type SubjectKind string

const (
	SubjectKindStay    SubjectKind = "stay"
	SubjectKindVehicle SubjectKind = "vehicle"
	SubjectKindDining  SubjectKind = "dining"
)

func (k SubjectKind) Valid() bool {
	switch k {
	case SubjectKindStay, SubjectKindVehicle, SubjectKindDining:
		return true
	}
	return false
}

// Subject is a bookable listing: a stay, a vehicle, or a dining venue.
// ReservationIDs is the denormalized reverse index maintained on
// reservation create/delete.
type Subject struct {
	Base
	OwnerID        uuid.UUID   `db:"owner_id"`
	Kind           SubjectKind `db:"kind"`
	Title          string      `db:"title"`
	Description    *string     `db:"description"`
	Location       *string     `db:"location"`
	UnitPrice      float64     `db:"unit_price"`
	MaxGuests      int         `db:"max_guests"`
	ReservationIDs []uuid.UUID `db:"reservation_ids"`
}
