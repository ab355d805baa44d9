package request

type CreateSubjectRequest struct {
	Kind        string  `json:"kind" validate:"required,oneof=stay vehicle dining"`
	Title       string  `json:"title" validate:"required,min=3,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Location    string  `json:"location" validate:"required,max=200"`
	UnitPrice   float64 `json:"unit_price" validate:"required,gt=0"`
	MaxGuests   int     `json:"max_guests" validate:"required,min=1"`
}
