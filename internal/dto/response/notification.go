package response

import (
	"time"

	"travel-booking/internal/data/entity"
)

type NotificationResponse struct {
	ID            string    `json:"id"`
	ReservationID string    `json:"reservation_id"`
	Type          string    `json:"type"`
	Message       string    `json:"message"`
	IsRead        bool      `json:"is_read"`
	CreatedAt     time.Time `json:"created_at"`
}

func NotificationToResponse(n *entity.Notification) NotificationResponse {
	return NotificationResponse{
		ID:            n.ID.String(),
		ReservationID: n.ReservationID.String(),
		Type:          string(n.Type),
		Message:       n.Message,
		IsRead:        n.IsRead,
		CreatedAt:     n.CreatedAt,
	}
}
