package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/dto/request"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func seedUser(t *testing.T, repo *repository.Repository, username string) *entity.User {
	t.Helper()
	user := &entity.User{
		Base:     entity.Base{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Username: username,
		Email:    username + "@example.com",
		Role:     entity.RoleGuest,
		IsActive: true,
	}
	if err := repo.User.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedSubject(t *testing.T, repo *repository.Repository, ownerID uuid.UUID, kind entity.SubjectKind, unitPrice float64, maxGuests int) *entity.Subject {
	t.Helper()
	subject := &entity.Subject{
		Base:      entity.Base{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		OwnerID:   ownerID,
		Kind:      kind,
		Title:     "Test " + string(kind),
		UnitPrice: unitPrice,
		MaxGuests: maxGuests,
	}
	if err := repo.Subject.Create(context.Background(), subject); err != nil {
		t.Fatalf("seed subject: %v", err)
	}
	return subject
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func TestCreateReservation_StayPricing(t *testing.T) {
	repo := newTestRepo()
	owner := seedUser(t, repo, "owner")
	guest := seedUser(t, repo, "guest")
	subject := seedSubject(t, repo, owner.ID, entity.SubjectKindStay, 1000, 4)

	svc := NewReservationService(repo, zap.NewNop())

	res, err := svc.CreateReservation(context.Background(), guest.ID.String(), &request.CreateReservationRequest{
		SubjectID:  subject.ID.String(),
		StartDate:  futureDate(10),
		EndDate:    futureDate(13),
		GuestCount: 2,
	})
	if err != nil {
		t.Fatalf("CreateReservation failed: %v", err)
	}

	// 1000 per night, 3 nights, 2 guests
	if res.TotalPrice != 6000 {
		t.Errorf("expected total 6000, got %.2f", res.TotalPrice)
	}
	if res.Status != string(entity.ReservationStatusPending) {
		t.Errorf("expected pending status, got %s", res.Status)
	}
	if res.PaymentStatus != string(entity.PaymentStatusPending) {
		t.Errorf("expected pending payment status, got %s", res.PaymentStatus)
	}
	if res.IsPaid {
		t.Error("new reservation must not be paid")
	}
	if res.OrderRef == "" {
		t.Error("order ref must be assigned")
	}

	// Reverse index must contain the new reservation.
	stored, _ := repo.Subject.FindByID(context.Background(), subject.ID)
	if len(stored.ReservationIDs) != 1 {
		t.Errorf("expected 1 indexed reservation, got %d", len(stored.ReservationIDs))
	}
}

func TestCreateReservation_DiningPricing(t *testing.T) {
	repo := newTestRepo()
	owner := seedUser(t, repo, "owner")
	guest := seedUser(t, repo, "guest")
	subject := seedSubject(t, repo, owner.ID, entity.SubjectKindDining, 250, 8)

	svc := NewReservationService(repo, zap.NewNop())

	res, err := svc.CreateReservation(context.Background(), guest.ID.String(), &request.CreateReservationRequest{
		SubjectID:  subject.ID.String(),
		DiningDate: futureDate(5),
		DiningTime: "19:00",
		GuestCount: 4,
	})
	if err != nil {
		t.Fatalf("CreateReservation failed: %v", err)
	}

	// Dining charges per cover, no nights multiplier.
	if res.TotalPrice != 1000 {
		t.Errorf("expected total 1000, got %.2f", res.TotalPrice)
	}
}

func TestCreateReservation_SelfBookingRejected(t *testing.T) {
	repo := newTestRepo()
	owner := seedUser(t, repo, "owner")
	subject := seedSubject(t, repo, owner.ID, entity.SubjectKindStay, 500, 2)

	svc := NewReservationService(repo, zap.NewNop())

	_, err := svc.CreateReservation(context.Background(), owner.ID.String(), &request.CreateReservationRequest{
		SubjectID:  subject.ID.String(),
		StartDate:  futureDate(1),
		EndDate:    futureDate(2),
		GuestCount: 1,
	})
	if !errors.Is(err, ErrSelfBooking) {
		t.Fatalf("expected ErrSelfBooking, got %v", err)
	}
}

func TestCreateReservation_GuestCountOverCapacity(t *testing.T) {
	repo := newTestRepo()
	owner := seedUser(t, repo, "owner")
	guest := seedUser(t, repo, "guest")
	subject := seedSubject(t, repo, owner.ID, entity.SubjectKindVehicle, 80, 5)

	svc := NewReservationService(repo, zap.NewNop())

	_, err := svc.CreateReservation(context.Background(), guest.ID.String(), &request.CreateReservationRequest{
		SubjectID:  subject.ID.String(),
		StartDate:  futureDate(1),
		EndDate:    futureDate(3),
		GuestCount: 6,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateReservation_OverlapConflict(t *testing.T) {
	repo := newTestRepo()
	owner := seedUser(t, repo, "owner")
	first := seedUser(t, repo, "first")
	second := seedUser(t, repo, "second")
	subject := seedSubject(t, repo, owner.ID, entity.SubjectKindStay, 300, 4)

	svc := NewReservationService(repo, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.CreateReservation(ctx, first.ID.String(), &request.CreateReservationRequest{
		SubjectID:  subject.ID.String(),
		StartDate:  futureDate(10),
		EndDate:    futureDate(14),
		GuestCount: 2,
	}); err != nil {
		t.Fatalf("first reservation failed: %v", err)
	}

	// Intersecting range must be refused.
	_, err := svc.CreateReservation(ctx, second.ID.String(), &request.CreateReservationRequest{
		SubjectID:  subject.ID.String(),
		StartDate:  futureDate(12),
		EndDate:    futureDate(16),
		GuestCount: 1,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Back-to-back ranges do not intersect: checkout day equals checkin day.
	if _, err := svc.CreateReservation(ctx, second.ID.String(), &request.CreateReservationRequest{
		SubjectID:  subject.ID.String(),
		StartDate:  futureDate(14),
		EndDate:    futureDate(16),
		GuestCount: 1,
	}); err != nil {
		t.Fatalf("adjacent reservation should succeed: %v", err)
	}
}

func TestCreateReservation_DiningSlotConflict(t *testing.T) {
	repo := newTestRepo()
	owner := seedUser(t, repo, "owner")
	first := seedUser(t, repo, "first")
	second := seedUser(t, repo, "second")
	subject := seedSubject(t, repo, owner.ID, entity.SubjectKindDining, 100, 10)

	svc := NewReservationService(repo, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.CreateReservation(ctx, first.ID.String(), &request.CreateReservationRequest{
		SubjectID:  subject.ID.String(),
		DiningDate: futureDate(3),
		DiningTime: "20:00",
		GuestCount: 2,
	}); err != nil {
		t.Fatalf("first reservation failed: %v", err)
	}

	_, err := svc.CreateReservation(ctx, second.ID.String(), &request.CreateReservationRequest{
		SubjectID:  subject.ID.String(),
		DiningDate: futureDate(3),
		DiningTime: "20:00",
		GuestCount: 2,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for same slot, got %v", err)
	}

	// Same date, different time is a different slot.
	if _, err := svc.CreateReservation(ctx, second.ID.String(), &request.CreateReservationRequest{
		SubjectID:  subject.ID.String(),
		DiningDate: futureDate(3),
		DiningTime: "21:00",
		GuestCount: 2,
	}); err != nil {
		t.Fatalf("different slot should succeed: %v", err)
	}
}

func TestCreateReservation_InvalidDateRange(t *testing.T) {
	repo := newTestRepo()
	owner := seedUser(t, repo, "owner")
	guest := seedUser(t, repo, "guest")
	subject := seedSubject(t, repo, owner.ID, entity.SubjectKindStay, 300, 4)

	svc := NewReservationService(repo, zap.NewNop())

	cases := []struct {
		name       string
		start, end string
	}{
		{"end before start", futureDate(10), futureDate(8)},
		{"zero length", futureDate(10), futureDate(10)},
		{"start in past", futureDate(-3), futureDate(2)},
		{"missing end", futureDate(10), ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateReservation(context.Background(), guest.ID.String(), &request.CreateReservationRequest{
				SubjectID:  subject.ID.String(),
				StartDate:  tc.start,
				EndDate:    tc.end,
				GuestCount: 1,
			})
			if !errors.Is(err, ErrInvalidDateRange) {
				t.Fatalf("expected ErrInvalidDateRange, got %v", err)
			}
		})
	}
}

func TestGetReservationByID_Visibility(t *testing.T) {
	repo := newTestRepo()
	owner := seedUser(t, repo, "owner")
	guest := seedUser(t, repo, "guest")
	stranger := seedUser(t, repo, "stranger")
	subject := seedSubject(t, repo, owner.ID, entity.SubjectKindStay, 300, 4)

	svc := NewReservationService(repo, zap.NewNop())
	ctx := context.Background()

	created, err := svc.CreateReservation(ctx, guest.ID.String(), &request.CreateReservationRequest{
		SubjectID:  subject.ID.String(),
		StartDate:  futureDate(5),
		EndDate:    futureDate(7),
		GuestCount: 1,
	})
	if err != nil {
		t.Fatalf("CreateReservation failed: %v", err)
	}

	// Guest and subject owner can read, anyone else cannot.
	if _, err := svc.GetReservationByID(ctx, guest.ID.String(), created.ID); err != nil {
		t.Errorf("guest read failed: %v", err)
	}
	if _, err := svc.GetReservationByID(ctx, owner.ID.String(), created.ID); err != nil {
		t.Errorf("owner read failed: %v", err)
	}
	if _, err := svc.GetReservationByID(ctx, stranger.ID.String(), created.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for stranger, got %v", err)
	}
}

func TestDeleteReservation_PrunesIndex(t *testing.T) {
	repo := newTestRepo()
	owner := seedUser(t, repo, "owner")
	guest := seedUser(t, repo, "guest")
	subject := seedSubject(t, repo, owner.ID, entity.SubjectKindStay, 300, 4)

	svc := NewReservationService(repo, zap.NewNop())
	ctx := context.Background()

	created, err := svc.CreateReservation(ctx, guest.ID.String(), &request.CreateReservationRequest{
		SubjectID:  subject.ID.String(),
		StartDate:  futureDate(5),
		EndDate:    futureDate(7),
		GuestCount: 1,
	})
	if err != nil {
		t.Fatalf("CreateReservation failed: %v", err)
	}

	// Only the guest may delete, not the subject owner.
	if err := svc.DeleteReservation(ctx, owner.ID.String(), created.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for owner delete, got %v", err)
	}

	if err := svc.DeleteReservation(ctx, guest.ID.String(), created.ID); err != nil {
		t.Fatalf("DeleteReservation failed: %v", err)
	}

	stored, _ := repo.Subject.FindByID(ctx, subject.ID)
	if len(stored.ReservationIDs) != 0 {
		t.Errorf("expected empty reverse index, got %d entries", len(stored.ReservationIDs))
	}

	resID, _ := uuid.Parse(created.ID)
	gone, _ := repo.Reservation.FindByID(ctx, resID)
	if gone != nil {
		t.Error("reservation row should be gone")
	}
}
