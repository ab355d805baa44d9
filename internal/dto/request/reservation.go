package request

// CreateReservationRequest covers all three verticals. Stays and
// vehicles book a date range; dining books a single date and time slot.
type CreateReservationRequest struct {
	SubjectID  string `json:"subject_id" validate:"required,uuid4"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
	DiningDate string `json:"dining_date,omitempty"`
	DiningTime string `json:"dining_time,omitempty"`
	GuestCount int    `json:"guest_count" validate:"required,min=1"`
}
