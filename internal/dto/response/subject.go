package response

import (
	"time"

	"travel-booking/internal/data/entity"
)

type SubjectResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Location    *string   `json:"location,omitempty"`
	UnitPrice   float64   `json:"unit_price"`
	MaxGuests   int       `json:"max_guests"`
	CreatedAt   time.Time `json:"created_at"`
}

func SubjectToResponse(subject *entity.Subject) SubjectResponse {
	return SubjectResponse{
		ID:          subject.ID.String(),
		OwnerID:     subject.OwnerID.String(),
		Kind:        string(subject.Kind),
		Title:       subject.Title,
		Description: subject.Description,
		Location:    subject.Location,
		UnitPrice:   subject.UnitPrice,
		MaxGuests:   subject.MaxGuests,
		CreatedAt:   subject.CreatedAt,
	}
}
