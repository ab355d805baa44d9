package response

import (
	"time"

	"travel-booking/internal/data/entity"
)

type ReservationResponse struct {
	ID            string     `json:"id"`
	OrderRef      string     `json:"order_ref"`
	SubjectID     string     `json:"subject_id"`
	SubjectTitle  string     `json:"subject_title,omitempty"`
	Kind          string     `json:"kind"`
	StartDate     *string    `json:"start_date,omitempty"`
	EndDate       *string    `json:"end_date,omitempty"`
	DiningDate    *string    `json:"dining_date,omitempty"`
	DiningTime    *string    `json:"dining_time,omitempty"`
	GuestCount    int        `json:"guest_count"`
	TotalPrice    float64    `json:"total_price"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	IsPaid        bool       `json:"is_paid"`
	PaymentMethod *string    `json:"payment_method,omitempty"`
	PaymentDate   *time.Time `json:"payment_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func ReservationToResponse(res *entity.Reservation, subjectTitle string) ReservationResponse {
	resp := ReservationResponse{
		ID:            res.ID.String(),
		OrderRef:      res.OrderRef,
		SubjectID:     res.SubjectID.String(),
		SubjectTitle:  subjectTitle,
		Kind:          string(res.Kind),
		DiningTime:    res.DiningTime,
		GuestCount:    res.GuestCount,
		TotalPrice:    res.TotalPrice,
		Status:        string(res.Status),
		PaymentStatus: string(res.PaymentStatus),
		IsPaid:        res.IsPaid,
		PaymentDate:   res.PaymentDate,
		CreatedAt:     res.CreatedAt,
	}

	if res.StartDate != nil {
		d := res.StartDate.Format("2006-01-02")
		resp.StartDate = &d
	}
	if res.EndDate != nil {
		d := res.EndDate.Format("2006-01-02")
		resp.EndDate = &d
	}
	if res.DiningDate != nil {
		d := res.DiningDate.Format("2006-01-02")
		resp.DiningDate = &d
	}
	if res.PaymentMethod != nil {
		m := string(*res.PaymentMethod)
		resp.PaymentMethod = &m
	}

	return resp
}
